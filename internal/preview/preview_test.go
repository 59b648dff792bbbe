package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/tocstrip/internal/emoji"
)

const guide = "# 📚 User Guide\n\nIntro 🎉 text.\n\n## 🚀 Getting Started\n\n### Install *quickly* ⚡\n\n## API `Reference`\n\n#### Deep 🔍 dive\n"

func TestHeadings(t *testing.T) {
	entries := Headings([]byte(guide), 3, emoji.NewStripper())
	require.Len(t, entries, 4)

	assert.Equal(t, Entry{Level: 1, Raw: "📚 User Guide", Label: "User Guide", Changed: true}, entries[0])
	assert.Equal(t, Entry{Level: 2, Raw: "🚀 Getting Started", Label: "Getting Started", Changed: true}, entries[1])
	assert.Equal(t, Entry{Level: 3, Raw: "Install quickly ⚡", Label: "Install quickly", Changed: true}, entries[2])
	assert.Equal(t, Entry{Level: 2, Raw: "API Reference", Label: "API Reference", Changed: false}, entries[3])
}

func TestHeadings_AllLevels(t *testing.T) {
	entries := Headings([]byte(guide), 0, emoji.NewStripper())
	require.Len(t, entries, 5)
	assert.Equal(t, 4, entries[4].Level)
	assert.Equal(t, "Deep  dive", entries[4].Label)
}

func TestHeadings_NoLabeler(t *testing.T) {
	entries := Headings([]byte("## ✅ Done\n"), 0, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "✅ Done", entries[0].Label)
	assert.False(t, entries[0].Changed)
}

func TestHeadings_NoHeadings(t *testing.T) {
	assert.Empty(t, Headings([]byte("just a paragraph 🎈\n"), 0, emoji.NewStripper()))
}
