package ingestion

import "regexp"

var markdownLink = regexp.MustCompile(`\[([^\[\]]+)\]\(([^()\s]+)\)`)

// Cook strips markdown links down to their text and returns the link targets
// in order of appearance. Bare URLs are left in the text and not collected.
func Cook(raw string) (string, []string) {
	var links []string
	for _, m := range markdownLink.FindAllStringSubmatch(raw, -1) {
		links = append(links, m[2])
	}
	return markdownLink.ReplaceAllString(raw, "$1"), links
}
