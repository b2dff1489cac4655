// Package nav holds template helpers for the site navigation bar.
package nav

// ActiveClass is the CSS class applied to the link of the current page.
const ActiveClass = "is-active"

// IsActive returns ActiveClass when the link at navPath points to the page
// being rendered, and "" otherwise. Paths are compared verbatim.
func IsActive(currentPath, navPath string) string {
	if currentPath == navPath {
		return ActiveClass
	}
	return ""
}
