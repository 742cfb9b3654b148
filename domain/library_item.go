package domain

import (
	"errors"
	"fmt"
)

// AvailabilityStatus is the lending state of a library item.
// The integer values are part of the persisted formats (CSV and SQL).
type AvailabilityStatus int

const (
	StatusAvailable AvailabilityStatus = iota
	StatusBorrowed
	StatusReserved
	StatusMaintenance
)

// StatusFromInt maps a persisted integer back to an AvailabilityStatus.
func StatusFromInt(v int) (AvailabilityStatus, error) {
	if v < int(StatusAvailable) || v > int(StatusMaintenance) {
		return 0, errors.Join(ErrInvalidArgument, fmt.Errorf("unknown availability status %d", v))
	}

	return AvailabilityStatus(v), nil
}

func (s AvailabilityStatus) String() string {
	switch s {
	case StatusAvailable:
		return "AVAILABLE"
	case StatusBorrowed:
		return "BORROWED"
	case StatusReserved:
		return "RESERVED"
	case StatusMaintenance:
		return "MAINTENANCE"
	default:
		return fmt.Sprintf("AvailabilityStatus(%d)", int(s))
	}
}

// ItemKind discriminates the closed set of library item variants.
// Book is the only concrete kind today; new kinds are added here, not via an
// open type hierarchy.
type ItemKind string

// BookKind is the discriminant persisted as the item type column/field.
const BookKind ItemKind = "Book"

// LibraryItem is a lendable catalog entry. It is a closed tagged variant:
// the kind field selects which of the variant fields are meaningful (for
// BookKind: isbn and publication year).
type LibraryItem struct {
	id     EntityID
	kind   ItemKind
	title  string
	status AvailabilityStatus
	author *Author
	isbn   string
	year   int
}

// NewBook validates and builds a Book item in the AVAILABLE state.
// This is the constructor for the service boundary: it requires an author.
func NewBook(id EntityID, title string, author *Author, isbn string, year int) (*LibraryItem, error) {
	if author == nil {
		return nil, errors.Join(ErrInvalidArgument, errors.New("book author cannot be nil"))
	}

	return RehydrateBook(id, title, author, isbn, year, StatusAvailable)
}

// RehydrateBook rebuilds a Book from persisted fields. Unlike NewBook it
// tolerates a nil author, because backends tolerate dangling author ids and
// load the item without an author reference.
func RehydrateBook(
	id EntityID,
	title string,
	author *Author,
	isbn string,
	year int,
	status AvailabilityStatus,
) (*LibraryItem, error) {

	if id == "" {
		return nil, errors.Join(ErrInvalidArgument, errors.New("item id cannot be empty"))
	}
	if title == "" {
		return nil, errors.Join(ErrInvalidArgument, errors.New("item title cannot be empty"))
	}
	if isbn == "" {
		return nil, errors.Join(ErrInvalidArgument, errors.New("book isbn cannot be empty"))
	}
	if year <= 0 {
		return nil, errors.Join(ErrInvalidArgument, fmt.Errorf("publication year must be positive, got %d", year))
	}

	return &LibraryItem{
		id:     id,
		kind:   BookKind,
		title:  title,
		status: status,
		author: author,
		isbn:   isbn,
		year:   year,
	}, nil
}

// ID returns the immutable item id.
func (li *LibraryItem) ID() EntityID {
	return li.id
}

// Kind returns the variant discriminant.
func (li *LibraryItem) Kind() ItemKind {
	return li.kind
}

// Title returns the item title.
func (li *LibraryItem) Title() string {
	return li.title
}

// SetTitle changes the item title.
func (li *LibraryItem) SetTitle(title string) error {
	if title == "" {
		return errors.Join(ErrInvalidArgument, errors.New("item title cannot be empty"))
	}
	li.title = title

	return nil
}

// Status returns the availability status.
func (li *LibraryItem) Status() AvailabilityStatus {
	return li.status
}

// SetStatus changes the availability status.
func (li *LibraryItem) SetStatus(status AvailabilityStatus) {
	li.status = status
}

// Author returns the shared author reference; nil when the persisted author
// id dangled.
func (li *LibraryItem) Author() *Author {
	return li.author
}

// SetAuthor replaces the shared author reference.
func (li *LibraryItem) SetAuthor(author *Author) {
	li.author = author
}

// ISBN returns the book ISBN.
func (li *LibraryItem) ISBN() string {
	return li.isbn
}

// PublicationYear returns the publication year.
func (li *LibraryItem) PublicationYear() int {
	return li.year
}

// Clone returns an independent copy of the item. The author reference stays
// shared: copies of an item still cite the same *Author.
func (li *LibraryItem) Clone() *LibraryItem {
	if li == nil {
		return nil
	}
	clone := *li

	return &clone
}

// Equal reports field-for-field equality, comparing authors by value.
func (li *LibraryItem) Equal(other *LibraryItem) bool {
	if li == nil || other == nil {
		return li == other
	}

	return li.id == other.id &&
		li.kind == other.kind &&
		li.title == other.title &&
		li.status == other.status &&
		li.isbn == other.isbn &&
		li.year == other.year &&
		li.author.Equal(other.author)
}
