package domain

import (
	"fmt"
	"regexp"

	gslug "github.com/gosimple/slug"
)

// MakeSlug derives the URL-safe identifier for a store name: lowercase,
// hyphen-joined words, diacritics and punctuation stripped.
func MakeSlug(name string) string {
	return gslug.Make(name)
}

// SlugPattern builds the expression matching a base slug and its numbered
// variants (`cafe-deluxe`, `cafe-deluxe-2`, ...). Callers apply it
// case-insensitively against the whole collection.
func SlugPattern(base string) string {
	return fmt.Sprintf("^(%s)(-[0-9]*)?$", regexp.QuoteMeta(base))
}

// NextSlug resolves a collision count into the slug to persist: with no
// matches the base is free, otherwise the candidate is suffixed with the
// next sequence number.
func NextSlug(base string, taken int64) string {
	if taken == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, taken+1)
}
