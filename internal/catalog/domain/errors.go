package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a slug or id lookup misses.
	ErrNotFound = errors.New("store not found")

	// ErrNotOwner is returned when an update is attempted by a user
	// other than the store's author.
	ErrNotOwner = errors.New("store is owned by another user")

	// ErrInvalidFileType is returned by the photo pipeline for uploads
	// whose declared content type is not an image.
	ErrInvalidFileType = errors.New("uploaded file is not an image")

	// ErrSlugTaken surfaces the unique-index rejection when two saves
	// race on the same name and compute the same slug.
	ErrSlugTaken = errors.New("slug is already taken")
)

// ValidationError reports a rejected payload field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PageOutOfRangeError signals that a requested listing page is beyond the
// last valid page; the caller should redirect to LastPage.
type PageOutOfRangeError struct {
	Page     int
	LastPage int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d is out of range, last page is %d", e.Page, e.LastPage)
}
