package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reDateLine = regexp.MustCompile(`(?im)^[ \t]*date[ \t]*:[ \t]*([^\n]+)$`)
	reMonthDay = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?,?\s+(\d{1,2})\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "sept": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

// PageDate reads the "Date: ..." line an adapter emits for pages that print
// their own date, e.g. "Sunday, Jul. 06" or "Today's Flavors – Tuesday,
// October 14". Pages carry no year, so the one closest to ref is used. The
// result is YYYY-MM-DD.
func PageDate(raw string, ref time.Time) (string, bool) {
	line := reDateLine.FindStringSubmatch(Decode(raw))
	if line == nil {
		return "", false
	}
	m := reMonthDay.FindStringSubmatch(line[1])
	if m == nil {
		return "", false
	}
	month := months[strings.ToLower(m[1])]
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return "", false
	}

	best := time.Time{}
	for _, year := range []int{ref.Year() - 1, ref.Year(), ref.Year() + 1} {
		d := time.Date(year, month, day, 0, 0, 0, 0, ref.Location())
		if d.Month() != month {
			// Feb 30 and friends
			continue
		}
		if best.IsZero() || absDuration(d.Sub(ref)) < absDuration(best.Sub(ref)) {
			best = d
		}
	}
	if best.IsZero() {
		return "", false
	}
	return best.Format(time.DateOnly), true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
