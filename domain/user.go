package domain

import "errors"

// User is a registered library member.
type User struct {
	id   EntityID
	name string
}

// NewUser validates and builds a user.
func NewUser(id EntityID, name string) (User, error) {
	if id == "" {
		return User{}, errors.Join(ErrInvalidArgument, errors.New("user id cannot be empty"))
	}
	if name == "" {
		return User{}, errors.Join(ErrInvalidArgument, errors.New("user name cannot be empty"))
	}

	return User{id: id, name: name}, nil
}

// ID returns the immutable user id.
func (u User) ID() EntityID {
	return u.id
}

// Name returns the user name.
func (u User) Name() string {
	return u.name
}

// WithName returns a copy of the user with a new name.
func (u User) WithName(name string) (User, error) {
	if name == "" {
		return User{}, errors.Join(ErrInvalidArgument, errors.New("user name cannot be empty"))
	}
	u.name = name

	return u, nil
}
