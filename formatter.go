package sitecrawl

import (
	"sort"
	"strings"
)

// FormatProcessedURLs formats a raw to processed URL map for display, one URL
// per line in processed order. Raw URLs that differ from their processed form
// are shown in parentheses.
func FormatProcessedURLs(urls map[string]string) string {
	if len(urls) == 0 {
		return ""
	}

	raws := make([]string, 0, len(urls))
	for raw := range urls {
		raws = append(raws, raw)
	}
	sort.Slice(raws, func(i, j int) bool {
		pi, pj := urls[raws[i]], urls[raws[j]]
		if pi != pj {
			return pi < pj
		}
		return raws[i] < raws[j]
	})

	lines := make([]string, 0, len(raws))
	for _, raw := range raws {
		processed := urls[raw]
		if processed == raw {
			lines = append(lines, processed)
			continue
		}
		lines = append(lines, processed+" (was: "+raw+")")
	}

	return strings.Join(lines, "\n")
}
