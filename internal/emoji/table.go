package emoji

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Range is an inclusive span of Unicode scalar values.
type Range struct {
	Lo rune
	Hi rune
}

// Contains reports whether r falls inside the range.
func (rg Range) Contains(r rune) bool {
	return r >= rg.Lo && r <= rg.Hi
}

func (rg Range) String() string {
	if rg.Lo == rg.Hi {
		return fmt.Sprintf("U+%04X", rg.Lo)
	}
	return fmt.Sprintf("U+%04X..U+%04X", rg.Lo, rg.Hi)
}

// Table lists every code point stripped from navigation labels: pictographs,
// dingbats, misc symbols, regional indicators and the emoji presentation
// selector. Overlaps are harmless and kept so the list stays reviewable
// against the block names it was assembled from.
var Table = []Range{
	{0x1F300, 0x1F9FF}, // misc symbols and pictographs .. supplemental symbols
	{0x2600, 0x26FF},   // misc symbols
	{0x2700, 0x27BF},   // dingbats
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F680, 0x1F6FF}, // transport and map
	{0x1F1E0, 0x1F1FF}, // regional indicators (flags)
	{0x1F900, 0x1F9FF},
	{0x1FA00, 0x1FA6F},
	{0x1FA70, 0x1FAFF},
	{0x231A, 0x231B},
	{0x23E9, 0x23F3},
	{0x23F8, 0x23FA},
	{0x25AA, 0x25AB},
	{0x25B6, 0x25B6},
	{0x25C0, 0x25C0},
	{0x25FB, 0x25FE},
	{0x2614, 0x2615},
	{0x2648, 0x2653},
	{0x267F, 0x267F},
	{0x2693, 0x2693},
	{0x26A1, 0x26A1},
	{0x26AA, 0x26AB},
	{0x26BD, 0x26BE},
	{0x26C4, 0x26C5},
	{0x26CE, 0x26CE},
	{0x26D4, 0x26D4},
	{0x26EA, 0x26EA},
	{0x26F2, 0x26F3},
	{0x26F5, 0x26F5},
	{0x26FA, 0x26FA},
	{0x26FD, 0x26FD},
	{0x2702, 0x2702},
	{0x2705, 0x2705},
	{0x2708, 0x270D},
	{0x270F, 0x270F},
	{0x2712, 0x2712},
	{0x2714, 0x2714},
	{0x2716, 0x2716},
	{0x271D, 0x271D},
	{0x2721, 0x2721},
	{0x2728, 0x2728},
	{0x2733, 0x2734},
	{0x2744, 0x2744},
	{0x2747, 0x2747},
	{0x274C, 0x274C},
	{0x274E, 0x274E},
	{0x2753, 0x2755},
	{0x2757, 0x2757},
	{0x2763, 0x2764},
	{0x2795, 0x2797},
	{0x27A1, 0x27A1},
	{0x27B0, 0x27B0},
	{0x27BF, 0x27BF},
	{0x2934, 0x2935},
	{0x2B05, 0x2B07},
	{0x2B1B, 0x2B1C},
	{0x2B50, 0x2B50},
	{0x2B55, 0x2B55},
	{0x3030, 0x3030},
	{0x303D, 0x303D},
	{0x3297, 0x3297},
	{0x3299, 0x3299},
	{0xFE0F, 0xFE0F}, // variation selector-16, forces emoji presentation
}

var (
	pattern = compile(Table)
	merged  = merge(Table)
)

// compile turns the table into a single character class. Go's regexp
// engine matches on runes, so multi-byte sequences are handled per code point.
func compile(tbl []Range) *regexp.Regexp {
	var b strings.Builder
	b.WriteByte('[')
	for _, rg := range tbl {
		if rg.Lo == rg.Hi {
			fmt.Fprintf(&b, `\x{%X}`, rg.Lo)
			continue
		}
		fmt.Fprintf(&b, `\x{%X}-\x{%X}`, rg.Lo, rg.Hi)
	}
	b.WriteByte(']')
	return regexp.MustCompile(b.String())
}

// merge returns a sorted, non-overlapping copy of tbl for binary search.
func merge(tbl []Range) []Range {
	sorted := make([]Range, len(tbl))
	copy(sorted, tbl)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })

	var out []Range
	for _, rg := range sorted {
		if n := len(out); n > 0 && rg.Lo <= out[n-1].Hi+1 {
			if rg.Hi > out[n-1].Hi {
				out[n-1].Hi = rg.Hi
			}
			continue
		}
		out = append(out, rg)
	}
	return out
}

// IsEmoji reports whether r is listed in Table.
func IsEmoji(r rune) bool {
	i := sort.Search(len(merged), func(i int) bool { return merged[i].Hi >= r })
	return i < len(merged) && merged[i].Contains(r)
}

// Contains reports whether s holds at least one code point from Table.
func Contains(s string) bool {
	return pattern.MatchString(s)
}

// Strip removes every Table code point from s and trims the surrounding
// whitespace. Text without a match is returned untouched, whitespace included.
func Strip(s string) (string, bool) {
	if !pattern.MatchString(s) {
		return s, false
	}
	return Trim(pattern.ReplaceAllString(s, "")), true
}

// Trim removes leading and trailing whitespace the way browsers trim text:
// Unicode space separators, tab, VT, FF, BOM and line terminators, but not
// NEL (U+0085).
func Trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u00a0', '\ufeff', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}
