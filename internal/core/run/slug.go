package run

import "strings"

// maxSlugLen bounds run directory names so timestamp+slug stays readable.
const maxSlugLen = 40

// Slugify turns free task text into a directory-name fragment: lowercased,
// runs of non-alphanumerics collapsed to single hyphens, truncated, with a
// fallback token when nothing survives.
func Slugify(text string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "run"
	}
	return slug
}
