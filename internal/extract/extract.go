// Package extract turns noisy announcement text into a flavor fragment.
//
// Extraction is pure: no I/O, no clock, no logging. The same input and
// pattern set always yield the same result, so everything here is tested with
// literal strings.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"mspro-labs/scoop-scout/internal/models"
)

const (
	DefaultMinNameLength = 4
	DefaultMaxNameLength = 99
)

// Pattern is one phrasing rule. Expr should name its capture groups "flavor"
// and optionally "description"; without a "flavor" group the first group is
// used.
type Pattern struct {
	Name string
	Expr *regexp.Regexp
}

// CompilePattern compiles expr into a Pattern.
func CompilePattern(name, expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", name, err)
	}
	if re.NumSubexp() == 0 {
		return Pattern{}, fmt.Errorf("pattern %q: needs a capture group", name)
	}
	return Pattern{Name: name, Expr: re}, nil
}

// MustPattern is CompilePattern for package-level presets.
func MustPattern(name, expr string) Pattern {
	p, err := CompilePattern(name, expr)
	if err != nil {
		panic(err)
	}
	return p
}

// PatternSet is an ordered fallback chain. More specific patterns go first.
type PatternSet struct {
	Flavor       []Pattern
	Description  []Pattern
	Placeholders []string

	// CutSentences ends a captured name at the first sentence terminator or
	// double space. Set for free-text presets, left off for field values.
	CutSentences bool

	MinNameLength int
	MaxNameLength int
}

// With returns a copy with custom patterns tried before the existing ones and
// extra placeholders appended.
func (s PatternSet) With(custom []Pattern, placeholders []string) PatternSet {
	out := s
	out.Flavor = append(append([]Pattern(nil), custom...), s.Flavor...)
	out.Description = append([]Pattern(nil), s.Description...)
	out.Placeholders = append(append([]string(nil), s.Placeholders...), placeholders...)
	return out
}

func (s PatternSet) minLen() int {
	if s.MinNameLength > 0 {
		return s.MinNameLength
	}
	return DefaultMinNameLength
}

func (s PatternSet) maxLen() int {
	if s.MaxNameLength > 0 {
		return s.MaxNameLength
	}
	return DefaultMaxNameLength
}

// Extract recovers a flavor name and description from raw. The boolean is
// false when nothing matched; that is an expected outcome, not an error.
func Extract(raw string, set PatternSet) (models.Fragment, bool) {
	text := Decode(raw)

	for _, p := range set.Flavor {
		for _, m := range p.Expr.FindAllStringSubmatch(text, -1) {
			span := group(p.Expr, m, "flavor")
			if span == "" {
				continue
			}

			name, desc := splitDescription(cleanName(span, set.CutSentences))
			if !set.validName(name) {
				continue
			}

			if d := group(p.Expr, m, "description"); d != "" {
				desc = d
			}
			if desc == "" {
				desc = set.findDescription(text)
			}

			return models.Fragment{
				FlavorName:  name,
				Description: set.NormalizeDescription(desc),
			}, true
		}
	}

	return models.Fragment{}, false
}

// ExtractAll runs Extract on every blank-line separated block of raw and
// returns the fragments in order, each name once. Blocks are how adapters
// emit one labeled entry per item when a page lists several flavors.
func ExtractAll(raw string, set PatternSet) []models.Fragment {
	var (
		out  []models.Fragment
		seen = make(map[string]bool)
	)
	for _, block := range reBlankLines.Split(Decode(raw), -1) {
		frag, ok := Extract(block, set)
		if !ok {
			continue
		}
		key := strings.ToLower(frag.FlavorName)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, frag)
	}
	return out
}

var reBlankLines = regexp.MustCompile(`\n[ \t]*\n\s*`)

// Matches reports whether raw yields a fragment under set.
func Matches(raw string, set PatternSet) bool {
	_, ok := Extract(raw, set)
	return ok
}

// NormalizeDescription cleans a description and maps placeholder text to "".
func (s PatternSet) NormalizeDescription(desc string) string {
	desc = cleanDescription(desc)
	if s.isPlaceholder(desc) {
		return ""
	}
	return desc
}

func (s PatternSet) findDescription(text string) string {
	for _, p := range s.Description {
		m := p.Expr.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if d := group(p.Expr, m, "description"); d != "" {
			return d
		}
	}
	return ""
}

func (s PatternSet) validName(name string) bool {
	n := utf8.RuneCountInString(name)
	if name == "" || n < s.minLen() || n > s.maxLen() {
		return false
	}
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "of the") {
		return false
	}
	if _, stop := stopNames[lower]; stop {
		return false
	}
	return !s.isPlaceholder(name)
}

func (s PatternSet) isPlaceholder(v string) bool {
	key := placeholderKey(v)
	if key == "" {
		return false
	}
	for _, p := range defaultPlaceholders {
		if key == placeholderKey(p) {
			return true
		}
	}
	for _, p := range s.Placeholders {
		if key == placeholderKey(p) {
			return true
		}
	}
	return false
}

func placeholderKey(v string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(v), ".!:"))
}

// group returns the named group, falling back to group 1 for "flavor".
func group(re *regexp.Regexp, m []string, name string) string {
	if i := re.SubexpIndex(name); i > 0 && i < len(m) {
		return strings.TrimSpace(m[i])
	}
	if name == "flavor" && len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

var defaultPlaceholders = []string{
	"no description available",
	"description not available",
	"no description",
	"n/a",
	"closed",
	"tbd",
	"tba",
}

// words that announcement patterns capture when the name sits elsewhere
var stopNames = map[string]struct{}{
	"today":     {},
	"tonight":   {},
	"daily":     {},
	"available": {},
	"here":      {},
}
