package civic

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugRun    = regexp.MustCompile(`[^a-z0-9]+`)
)

// DatasetID is the deterministic ID of a county record for a year, e.g.
// "nairobi-2023" or "tana-river-2023".
func DatasetID(county string, year int) string {
	return fmt.Sprintf("%s-%d", whitespaceRun.ReplaceAllString(strings.ToLower(county), "-"), year)
}

// Slugify builds a URL slug from a name and office, e.g. "ali-omar-mp".
func Slugify(name string, position Position) string {
	s := strings.ToLower(strings.TrimSpace(name + " " + string(position)))
	return strings.Trim(nonSlugRun.ReplaceAllString(s, "-"), "-")
}
