package domain

import (
	"errors"
	"time"
)

// LoanRecord is the persisted record of one borrow transaction.
// Record id, item id, user id and loan date are fixed at creation; only the
// due date and the return date may change afterwards.
type LoanRecord struct {
	id         EntityID
	itemID     EntityID
	userID     EntityID
	loanDate   time.Time
	dueDate    time.Time
	returnDate *time.Time
}

// NewLoanRecord validates and builds an active (not yet returned) loan record.
func NewLoanRecord(id, itemID, userID EntityID, loanDate, dueDate time.Time) (LoanRecord, error) {
	if id == "" {
		return LoanRecord{}, errors.Join(ErrInvalidArgument, errors.New("loan record id cannot be empty"))
	}
	if itemID == "" {
		return LoanRecord{}, errors.Join(ErrInvalidArgument, errors.New("loan record item id cannot be empty"))
	}
	if userID == "" {
		return LoanRecord{}, errors.Join(ErrInvalidArgument, errors.New("loan record user id cannot be empty"))
	}
	if dueDate.Before(loanDate) {
		return LoanRecord{}, errors.Join(ErrInvalidArgument, errors.New("due date cannot be before loan date"))
	}

	return LoanRecord{
		id:       id,
		itemID:   itemID,
		userID:   userID,
		loanDate: loanDate,
		dueDate:  dueDate,
	}, nil
}

// ID returns the immutable record id.
func (lr LoanRecord) ID() EntityID {
	return lr.id
}

// ItemID returns the borrowed item id.
func (lr LoanRecord) ItemID() EntityID {
	return lr.itemID
}

// UserID returns the borrowing user id.
func (lr LoanRecord) UserID() EntityID {
	return lr.userID
}

// LoanDate returns the date the loan was opened.
func (lr LoanRecord) LoanDate() time.Time {
	return lr.loanDate
}

// DueDate returns the date the item is due back.
func (lr LoanRecord) DueDate() time.Time {
	return lr.dueDate
}

// SetDueDate moves the due date; it can never precede the loan date.
func (lr *LoanRecord) SetDueDate(dueDate time.Time) error {
	if dueDate.Before(lr.loanDate) {
		return errors.Join(ErrInvalidArgument, errors.New("due date cannot be before loan date"))
	}
	lr.dueDate = dueDate

	return nil
}

// ReturnDate returns the return date, or a zero time and false while the
// loan is still active.
func (lr LoanRecord) ReturnDate() (time.Time, bool) {
	if lr.returnDate == nil {
		return time.Time{}, false
	}

	return *lr.returnDate, true
}

// IsReturned reports whether the loan has been closed.
func (lr LoanRecord) IsReturned() bool {
	return lr.returnDate != nil
}

// SetReturnDate closes the loan; the return date can never precede the loan date.
func (lr *LoanRecord) SetReturnDate(returnDate time.Time) error {
	if returnDate.Before(lr.loanDate) {
		return errors.Join(ErrInvalidArgument, errors.New("return date cannot be before loan date"))
	}
	rd := returnDate
	lr.returnDate = &rd

	return nil
}

// Clone returns an independent copy, including the optional return date.
func (lr LoanRecord) Clone() LoanRecord {
	clone := lr
	if lr.returnDate != nil {
		rd := *lr.returnDate
		clone.returnDate = &rd
	}

	return clone
}

// Equal reports field-for-field equality, comparing optional return dates
// by presence and value.
func (lr LoanRecord) Equal(other LoanRecord) bool {
	if lr.id != other.id ||
		lr.itemID != other.itemID ||
		lr.userID != other.userID ||
		!lr.loanDate.Equal(other.loanDate) ||
		!lr.dueDate.Equal(other.dueDate) {
		return false
	}

	if (lr.returnDate == nil) != (other.returnDate == nil) {
		return false
	}
	if lr.returnDate != nil && !lr.returnDate.Equal(*other.returnDate) {
		return false
	}

	return true
}
