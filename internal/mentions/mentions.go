// Package mentions extracts @handle references from comment content. The
// result feeds a comment's mentions field at creation time.
package mentions

import "regexp"

var pattern = regexp.MustCompile(`@([A-Za-z0-9_-]+)`)

// Extract returns the mentioned handles in order of first appearance,
// without duplicates and without the leading @.
func Extract(content string) []string {
	matches := pattern.FindAllStringSubmatch(content, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		handle := m[1]
		if seen[handle] {
			continue
		}
		seen[handle] = true
		out = append(out, handle)
	}
	return out
}
