package emoji

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripper_Default(t *testing.T) {
	s := NewStripper()

	out, changed := s.Strip("🚀 Launch")
	assert.True(t, changed)
	assert.Equal(t, "Launch", out)

	out, changed = s.Strip("Launch :rocket:")
	assert.False(t, changed, "shortcodes are left alone unless enabled")
	assert.Equal(t, "Launch :rocket:", out)
}

func TestStripper_Shortcodes(t *testing.T) {
	s := NewStripper(WithShortcodes(true))

	out, changed := s.Strip("Launch :rocket:")
	assert.True(t, changed)
	assert.Equal(t, "Launch", out)

	out, changed = s.Strip(":tada: Release notes 🚀")
	assert.True(t, changed)
	assert.Equal(t, "Release notes", out)

	again, changed := s.Strip(out)
	assert.False(t, changed)
	assert.Equal(t, out, again)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"non-table shortcode stays literal", "🚀 Legal :copyright:", "Legal :copyright:"},
		{"no padding left mid label", "Foo :rocket: bar", "Foo  bar"},
		{"shortcode and emoji together", "Use :+1: 🚀 now", "Use   now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := s.Strip(tt.in)
			assert.True(t, changed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripper_OnlyForeignShortcodes(t *testing.T) {
	s := NewStripper(WithShortcodes(true))
	out, changed := s.Strip("Legal :copyright:")
	assert.False(t, changed)
	assert.Equal(t, "Legal :copyright:", out)
}

func TestStripper_UnknownShortcodeUntouched(t *testing.T) {
	s := NewStripper(WithShortcodes(true))
	out, changed := s.Strip("Timeouts :not_a_real_emoji_code: explained")
	assert.False(t, changed)
	assert.Equal(t, "Timeouts :not_a_real_emoji_code: explained", out)
}

func TestLeftovers(t *testing.T) {
	assert.Nil(t, Leftovers("Getting Started"))
	assert.Nil(t, Leftovers("Ship it 🚀"), "table emoji are not leftovers")
	assert.Equal(t, []string{"🀄"}, Leftovers("Play 🀄 and 🚀"))
}
