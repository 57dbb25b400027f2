package database

import "errors"

var (
	// ErrSlugExists is returned when an attempt is made to create
	// a link with a slug that is already taken.
	ErrSlugExists = errors.New("slug exists")
	// ErrLinkNotFound is returned when no active link matches the
	// requested slug.
	ErrLinkNotFound = errors.New("link not found")
)
