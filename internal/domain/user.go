package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// User limits.
const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores bytes beyond this
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	fieldValidator  = validator.New()
)

// User is an account that can be assigned tasks. Superusers administer the
// full task set.
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	Password       string // plaintext, only set during signup or password change
	HashedPassword string
	IsSuperuser    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser builds and validates a user. The caller hashes Password before
// storage.
func NewUser(username, email, password string, superuser bool) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:          uuid.New(),
		Username:    strings.TrimSpace(username),
		Email:       strings.TrimSpace(email),
		Password:    password,
		IsSuperuser: superuser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate reports every field problem at once.
func (u *User) Validate() error {
	verr := NewValidationError()

	if u.ID == uuid.Nil {
		verr.Add("id", MsgRequired)
	}

	switch {
	case u.Username == "":
		verr.Add("username", MsgBlank)
	case len(u.Username) > MaxUsernameLength:
		verr.Addf("username", MsgTooLong, MaxUsernameLength)
	case !usernamePattern.MatchString(u.Username):
		verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	if u.Email != "" && fieldValidator.Var(u.Email, "email") != nil {
		verr.Add("email", "Enter a valid email address.")
	}

	if u.Password != "" {
		switch {
		case len(u.Password) < MinPasswordLength:
			verr.Addf("password", MsgTooShort, MinPasswordLength)
		case len(u.Password) > MaxPasswordLength:
			verr.Addf("password", MsgTooLong, MaxPasswordLength)
		}
	} else if u.HashedPassword == "" {
		verr.Add("password", MsgRequired)
	}

	return verr.OrNil()
}

// HasEmail reports whether mail can be delivered to u.
func (u *User) HasEmail() bool {
	return strings.TrimSpace(u.Email) != ""
}

// Principal is the authenticated actor behind a request.
type Principal struct {
	UserID      uuid.UUID
	Username    string
	IsSuperuser bool
}

// PrincipalFor returns the principal that acts as u.
func PrincipalFor(u *User) Principal {
	return Principal{UserID: u.ID, Username: u.Username, IsSuperuser: u.IsSuperuser}
}
