package episode

import (
	"regexp"
	"strconv"
)

// Episode numbers are a best-effort heuristic extracted from free-text release
// titles. Rules are tried strictly in order and the first in-range value wins;
// a title no rule accepts is unparsable and must be skipped by the caller,
// never treated as an error.
var rules = []*regexp.Regexp{
	// [12], [12.5], [12v2]
	regexp.MustCompile(`(?i)\[(\d{1,3}(?:\.\d{1,2})?)(?:v\d)?\]`),
	// bare integer flanked by space/dot/dash/underscore/bracket
	regexp.MustCompile(`[\s.\-_\[](\d{1,3})[\s.\-_\]]`),
	// 第08话 / 第08話 / 第08集
	regexp.MustCompile(`第(\d{1,3})[话話集]`),
	// "12 END"
	regexp.MustCompile(`(?i)(\d{1,3})\s*END`),
}

const maxEpisode = 1000

// Parse extracts a numeric episode identifier from a resource title.
// The second return value is false when no rule yields a value in [0,1000).
func Parse(title string) (float64, bool) {
	for _, rule := range rules {
		m := rule.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		num, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if num >= 0 && num < maxEpisode {
			return num, true
		}
	}
	return 0, false
}
