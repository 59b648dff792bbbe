package emoji

import (
	"regexp"

	"github.com/forPelevin/gomoji"
	kemoji "github.com/kyokomi/emoji/v2"
)

var (
	shortcodePattern = regexp.MustCompile(`:[\w+-]+:`)
	shortcodes       = kemoji.CodeMap()
)

// Stripper applies Strip with optional shortcode handling.
type Stripper struct {
	shortcodes bool
}

// Option configures a Stripper.
type Option func(*Stripper)

// WithShortcodes makes the Stripper also remove :shortcode: aliases whose
// emoji fall entirely inside Table, so labels written with unrendered
// shortcodes lose them too. Other shortcodes stay literal.
func WithShortcodes(enabled bool) Option {
	return func(s *Stripper) { s.shortcodes = enabled }
}

// NewStripper creates a Stripper.
func NewStripper(opts ...Option) *Stripper {
	s := &Stripper{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strip returns the cleaned text and whether anything was removed.
func (s *Stripper) Strip(text string) (string, bool) {
	if !s.shortcodes {
		return Strip(text)
	}

	removed := false
	out := shortcodePattern.ReplaceAllStringFunc(text, func(code string) string {
		if tableOnly(shortcodes[code]) {
			removed = true
			return ""
		}
		return code
	})
	if !removed {
		return Strip(text)
	}
	if stripped, ok := Strip(out); ok {
		return stripped, true
	}
	return Trim(out), true
}

// tableOnly reports whether s is non-empty and made only of Table code points.
func tableOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsEmoji(r) {
			return false
		}
	}
	return true
}

// Leftovers lists emoji still present in text that Strip would not remove
// completely. It is used for auditing and never to mutate labels.
func Leftovers(text string) []string {
	var out []string
	for _, e := range gomoji.FindAll(text) {
		if !tableOnly(e.Character) {
			out = append(out, e.Character)
		}
	}
	return out
}
