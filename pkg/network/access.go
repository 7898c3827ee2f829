package network

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/GTX96/SocialGossip/pkg/protocol"
)

// AccessSession performs the stateless account transactions
// (register/login/logout) against a user registry. One instance can be
// shared by any number of connections.
type AccessSession struct {
	users *Registry
}

// NewAccessSession returns an access front-end over the given registry.
func NewAccessSession(users *Registry) *AccessSession {
	return &AccessSession{users: users}
}

// Register creates a new offline account. The password is stored as a
// bcrypt hash; the language code must be two letters ("" is allowed
// and means unset). Fails with ErrAlreadyRegistered if the nickname is
// taken.
func (a *AccessSession) Register(nickname, password, language string) error {
	if language != "" && len(language) != LanguageLength {
		return ErrInvalidLanguage
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return a.users.add(newUser(nickname, hash, language))
}

// Login verifies credentials and marks the user online, returning the
// friend list for the caller to report back. ErrUserNotFound,
// ErrPasswordMismatch, or ErrInvalidStatus (already online — a user is
// online at most once at any time).
func (a *AccessSession) Login(nickname, password string) ([]protocol.Friend, error) {
	u, ok := a.users.Lookup(nickname)
	if !ok {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, ErrPasswordMismatch
	}

	if err := u.setOnline(true); err != nil {
		return nil, err
	}

	return a.users.Friends(nickname)
}

// Logout marks the user offline and clears any bound notification
// channel. ErrUserNotFound or ErrInvalidStatus (already offline).
func (a *AccessSession) Logout(nickname string) error {
	u, ok := a.users.Lookup(nickname)
	if !ok {
		return ErrUserNotFound
	}

	if err := u.setOnline(false); err != nil {
		return err
	}

	u.ClearChannel(nil)
	return nil
}
