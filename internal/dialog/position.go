package dialog

import (
	"regexp"
	"unicode/utf8"
)

// Custom position text: letters of any alphabet with single internal
// spaces or hyphens. No digits, no punctuation, no leading or trailing
// separators.
var positionPattern = regexp.MustCompile(`^\p{L}+(?:[ -]\p{L}+)*$`)

const (
	positionMinLen = 2
	positionMaxLen = 30
)

// ValidatePosition reports whether free-text position input is acceptable.
func ValidatePosition(text string) bool {
	n := utf8.RuneCountInString(text)
	if n < positionMinLen || n > positionMaxLen {
		return false
	}
	return positionPattern.MatchString(text)
}

// pageCount returns the number of menu pages for total items. Zero items
// still render as one (empty) page so the cursor math never divides by zero.
func pageCount(total, pageSize int) int {
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// clampPage bounds a page cursor to [0, pageCount-1]. Navigating past
// either end is a no-op that keeps the current page.
func clampPage(page, total, pageSize int) int {
	last := pageCount(total, pageSize) - 1
	if page < 0 {
		return 0
	}
	if page > last {
		return last
	}
	return page
}

// pageSlice returns the items visible on the given page.
func pageSlice(items []string, page, pageSize int) []string {
	start := page * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
