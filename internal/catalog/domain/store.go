package domain

import (
	"math"
	"strings"
	"time"
)

// Location is a GeoJSON point paired with a human-readable address.
type Location struct {
	Type        string
	Coordinates []float64 // [lng, lat]
	Address     string
}

// Store represents a published store listing.
type Store struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Tags        []string
	Created     time.Time
	Location    *Location
	Photo       string
	AuthorID    string
	Author      *Author
	Reviews     []Review
}

// Author is the subset of the account user attached to detail reads.
type Author struct {
	ID    string
	Name  string
	Email string
}

// Review is a rating left on a store. Reviews are never stored on the
// store document; repositories attach them by back-reference at read time.
type Review struct {
	ID       string
	StoreID  string
	AuthorID string
	Rating   float64
	Text     string
	Created  time.Time
}

// TagCount is one bucket of the tag histogram.
type TagCount struct {
	Tag   string
	Count int
}

// RankedStore is a top-stores result row with its computed mean rating.
type RankedStore struct {
	ID            string
	Name          string
	Slug          string
	Photo         string
	ReviewCount   int
	AverageRating float64
}

// StorePin is the reduced projection returned by the map query.
type StorePin struct {
	ID    string
	Name  string
	Photo string
}

// StorePayload carries the user-editable store fields of a create or
// update request. Photo is filled in by the ingestion pipeline, never by
// the client directly.
type StorePayload struct {
	Name        string
	Description string
	Tags        []string
	Location    *Location
	Photo       string
}

// Validate normalises the payload in place and reports the first
// violation as a *ValidationError.
func (p *StorePayload) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "store name is required"}
	}
	p.Description = strings.TrimSpace(p.Description)

	tags := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	p.Tags = tags

	if p.Location == nil {
		return &ValidationError{Field: "location", Message: "location is required"}
	}
	if p.Location.Type == "" {
		p.Location.Type = "Point"
	}
	if p.Location.Type != "Point" {
		return &ValidationError{Field: "location.type", Message: "location type must be Point"}
	}
	if len(p.Location.Coordinates) != 2 {
		return &ValidationError{Field: "location.coordinates", Message: "coordinates must be [lng, lat]"}
	}
	for _, c := range p.Location.Coordinates {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return &ValidationError{Field: "location.coordinates", Message: "coordinates must be finite numbers"}
		}
	}
	p.Location.Address = strings.TrimSpace(p.Location.Address)
	if p.Location.Address == "" {
		return &ValidationError{Field: "location.address", Message: "address is required"}
	}
	return nil
}

// ValidateReview checks a review submission.
func ValidateReview(rating float64, text string) error {
	if rating < 1 || rating > 5 {
		return &ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "text", Message: "review text is required"}
	}
	return nil
}
