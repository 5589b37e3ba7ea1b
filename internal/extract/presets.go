package extract

import (
	"fmt"
	"sort"
	"strings"
)

var labeledFlavor = []Pattern{
	MustPattern("labeled-flavor",
		`(?im)^[ \t]*(?:today'?s[ \t]+)?flavor(?:[ \t]+of[ \t]+the[ \t]+day)?[ \t]*[:\-–—][ \t]*(?P<flavor>[^\n]+?)[ \t]*$`),
}

var labeledDescription = []Pattern{
	MustPattern("labeled-description",
		`(?im)^[ \t]*description[ \t]*[:\-–—][ \t]*(?P<description>[^\n]*?)[ \t]*$`),
}

// emphasis runs such as "***" or "•••" around a name; cleanName strips them
const (
	decorLead  = `(?:[*•·~=_#|>]+[ \t]*)?`
	decorTrail = `(?:[ \t]*[*•·~=_#|>]+)?`
)

// announcement phrasings seen in social posts, most specific first
var announcementFlavor = []Pattern{
	// "BUTTER PECAN is our flavor of the day"
	MustPattern("name-is-flavor",
		`(?i)(?P<flavor>`+decorLead+`[A-Z][A-Z \t&']+?`+decorTrail+`)\s+is\s+(?:our\s+)?(?:the\s+)?flavor(?:\s+of\s+the\s+day)?`),
	// "Flavor of the Day: Chocolate", "Flavor of the day is Cherry Vanilla!"
	MustPattern("flavor-then-name",
		`(?im)flavor(?:\s+of\s+the\s+day)?[\s:]+(?:is\s+)?(?P<flavor>`+decorLead+`[A-Z][^\n.!?]+?)(?:\n|$|!|\.|  )`),
	// "Today's flavor: Strawberry"
	MustPattern("todays-flavor",
		`(?im)today'?s?\s+flavor[\s:]+(?:is\s+)?(?P<flavor>`+decorLead+`[A-Z][^\n.!?]+?)(?:\n|$|!|\.|  )`),
	// "Today: Mint" or "Flavor today: Mint"
	MustPattern("today-colon",
		`(?im)(?:flavor\s+)?today[\s:]+(?P<flavor>`+decorLead+`[A-Z][^\n.!?]+?)(?:\n|$|!|\.|  )`),
	// a "flavor" line followed by a capitalized line
	MustPattern("next-line",
		`(?m)(?i:flavor)[^\n]*\n[ \t]*(?P<flavor>`+decorLead+`\p{Lu}[^\n]+)`),
}

var headingFlavor = []Pattern{
	// "TODAY'S FLAVORS – Monday" heading, name on the next line, description after
	MustPattern("todays-flavors-heading",
		`(?im)today\S*\s+flavors?\b[^\n]*\n+[ \t]*(?P<flavor>[^\n]+?)[ \t]*(?:\n+[ \t]*(?P<description>[^\n]{6,}))?$`),
}

// Labeled handles "Flavor: X" and "Description: Y" lines, the shape static
// adapters emit from field selectors.
var Labeled = PatternSet{
	Flavor:      labeledFlavor,
	Description: labeledDescription,
}

// Announcement handles free-text social posts.
var Announcement = PatternSet{
	Flavor:       announcementFlavor,
	Description:  labeledDescription,
	CutSentences: true,
}

// Heading handles a "Today's flavors" block followed by name and description
// lines.
var Heading = PatternSet{
	Flavor:      append(append([]Pattern(nil), headingFlavor...), labeledFlavor...),
	Description: labeledDescription,
}

// Default tries labeled lines before free-text phrasing.
var Default = PatternSet{
	Flavor:       append(append([]Pattern(nil), labeledFlavor...), announcementFlavor...),
	Description:  labeledDescription,
	CutSentences: true,
}

var presets = map[string]PatternSet{
	"default":      Default,
	"labeled":      Labeled,
	"announcement": Announcement,
	"heading":      Heading,
}

// PresetByName resolves a preset configured by name. An empty name is Default.
func PresetByName(name string) (PatternSet, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Default, nil
	}
	set, ok := presets[key]
	if !ok {
		return PatternSet{}, fmt.Errorf("unknown pattern preset %q (known: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return set, nil
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
