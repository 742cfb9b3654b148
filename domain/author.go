package domain

import (
	"errors"
	"fmt"
)

// EntityID is an opaque, non-empty identifier for a domain entity.
// Equality is plain value equality.
type EntityID = string

// Author identifies the creator of library items. Authors are shared by
// reference: every item citing the same author holds the same *Author, and
// renaming it through SetName is visible to all holders.
type Author struct {
	id   EntityID
	name string
}

// NewAuthor validates and builds an author.
func NewAuthor(id EntityID, name string) (*Author, error) {
	if id == "" {
		return nil, errors.Join(ErrInvalidArgument, errors.New("author id cannot be empty"))
	}
	if name == "" {
		return nil, errors.Join(ErrInvalidArgument, errors.New("author name cannot be empty"))
	}

	return &Author{id: id, name: name}, nil
}

// ID returns the immutable author id.
func (a *Author) ID() EntityID {
	return a.id
}

// Name returns the author name.
func (a *Author) Name() string {
	return a.name
}

// SetName renames the author. The change is visible to every item sharing
// this author reference.
func (a *Author) SetName(name string) error {
	if name == "" {
		return errors.Join(ErrInvalidArgument, errors.New("author name cannot be empty"))
	}
	a.name = name

	return nil
}

// Equal reports field-for-field equality with another author.
func (a *Author) Equal(other *Author) bool {
	if a == nil || other == nil {
		return a == other
	}

	return a.id == other.id && a.name == other.name
}

func (a *Author) String() string {
	return fmt.Sprintf("Author{%s: %s}", a.id, a.name)
}
