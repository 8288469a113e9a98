package parser

import (
	"regexp"
	"slices"
	"strconv"
)

var showLinkPattern = regexp.MustCompile(`showgame\.php\?game_id=(\d+)`)

// ExtractShowIDs returns the distinct show ids linked from a season index
// page, ascending.
func ExtractShowIDs(markup []byte) ([]int64, error) {
	doc, err := Parse(markup)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{})
	ids := []int64{}
	for _, a := range doc.Find("a[href]") {
		href, _ := a.Attr("href")
		m := showLinkPattern.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
