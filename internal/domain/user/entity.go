package user

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusRestricted Status = "restricted"
	StatusDeleted    Status = "deleted"
)

type AuthType string

const (
	AuthTypeCreateAccount AuthType = "createAccount"
	AuthTypeResetPassword AuthType = "resetPassword"
	AuthTypeNone          AuthType = ""
)

// AuthState is the authentication bookkeeping embedded in every account
// row. OneTimeCode and ExpiresAt are always set and cleared together;
// ResetPassword is consumed exactly once by a successful reset.
type AuthState struct {
	WrongLoginAttempts int
	RestrictionLeftAt  sql.NullTime
	OneTimeCode        string
	ExpiresAt          sql.NullTime
	LatestRequestAt    sql.NullTime
	RequestCount       int
	AuthType           AuthType
	ResetPassword      bool
}

// Account is the identity and credential record. Deleted accounts are
// soft-deleted: the row stays, the status flips, and regular lookups
// exclude it.
type Account struct {
	ID          int64
	FirstName   string
	LastName    string
	Username    string
	Email       sql.NullString
	Phone       sql.NullString
	Profile     sql.NullString
	Password    string
	Role        Role
	Status      Status
	Verified    bool
	AppID       sql.NullString
	DeviceToken sql.NullString
	Auth        AuthState
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName joins first and last name, tolerating a missing last name.
func (a *Account) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Restricted reports whether the account is inside an unexpired
// restriction window at the given instant. Expiry is evaluated lazily at
// read time; nothing sweeps restrictions in the background.
func (a *Account) Restricted(now time.Time) bool {
	return a.Status == StatusRestricted &&
		a.Auth.RestrictionLeftAt.Valid &&
		now.Before(a.Auth.RestrictionLeftAt.Time)
}
