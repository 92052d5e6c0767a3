package seedr

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// minKeywordMatches is the threshold for accepting a remote item as the
// content of a submitted resource. A single keyword hit is too easy to get
// by accident when several transfers share a release group or resolution.
const minKeywordMatches = 2

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
}

var (
	episodeBracketRe  = regexp.MustCompile(`[\[【](\d{1,3})[\]】]`)
	subGroupBracketRe = regexp.MustCompile(`(?i)[\[【][^\]】]*(?:字幕|Sub)[^\]】]*[\]】]`)
	resolutionTokenRe = regexp.MustCompile(`(?i)\b(?:1080p|720p|2160p|4K|WebRip|BDRip|BluRay|HEVC|x264|x265)\b`)
	languageBracketRe = regexp.MustCompile(`[\[【](?:简|繁|日|英|内嵌|外挂)+.*?[\]】]`)
	tokenSplitRe      = regexp.MustCompile(`[\s\-_/【】\[\]]+`)
	cjkRe             = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
)

// extractKeywords derives matching keywords from a resource title. Noise
// tokens that recur across unrelated releases (sub-group tags, resolutions,
// language markers) are stripped first so they cannot count as matches; the
// episode number, when present, is kept as its own keyword.
func extractKeywords(title string) []string {
	var episode string
	if m := episodeBracketRe.FindStringSubmatch(title); m != nil {
		episode = m[1]
	}

	cleaned := episodeBracketRe.ReplaceAllString(title, " ")
	cleaned = subGroupBracketRe.ReplaceAllString(cleaned, " ")
	cleaned = languageBracketRe.ReplaceAllString(cleaned, " ")
	cleaned = resolutionTokenRe.ReplaceAllString(cleaned, " ")

	var keywords []string
	for _, token := range tokenSplitRe.Split(cleaned, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if utf8.RuneCountInString(token) <= 1 && !cjkRe.MatchString(token) {
			continue
		}
		keywords = append(keywords, strings.ToLower(token))
		if len(keywords) >= 8 {
			break
		}
	}
	if episode != "" {
		keywords = append(keywords, episode)
	}
	return keywords
}

// matchCount reports how many keywords appear in the remote name.
func matchCount(name string, keywords []string) int {
	lower := strings.ToLower(name)
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			count++
		}
	}
	return count
}

func isVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}
