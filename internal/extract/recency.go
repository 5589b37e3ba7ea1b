package extract

import (
	"regexp"
	"strings"
)

// only the post header carries the relative timestamp
const recencyScanLines = 8

var (
	reStampRecent = regexp.MustCompile(`^(?:just now|today at\b.*|\d+\s*(?:m|min|mins|minute|minutes|h|hr|hrs|hour|hours)(?:\s+ago)?)$`)
	reStampOld    = regexp.MustCompile(`^(?:\d+\s*(?:d|day|days|w|wk|wks|week|weeks|y|yr|yrs|year|years)(?:\s+ago)?|yesterday\b.*)$`)
	reStampDate   = regexp.MustCompile(`^(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}\b`)
)

// PostedToday reads the relative timestamp a social feed prints in a post
// header. Posts without a recognizable stamp are assumed recent so they still
// get checked.
func PostedToday(text string) bool {
	seen := 0
	for _, line := range strings.Split(Decode(text), "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" || line == "·" {
			continue
		}
		if seen++; seen > recencyScanLines {
			break
		}

		switch {
		case reStampRecent.MatchString(line):
			return true
		case reStampOld.MatchString(line):
			return false
		case reStampDate.MatchString(line):
			return false
		}
	}
	return true
}
