package user

import "time"

// Profile is the public projection of an account.
type Profile struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName,omitempty"`
	Username  string    `json:"userName"`
	Email     string    `json:"email,omitempty"`
	Profile   string    `json:"profile,omitempty"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicProfile converts an account into its public projection.
func PublicProfile(a *Account) *Profile {
	return &Profile{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Username:  a.Username,
		Email:     a.Email.String,
		Profile:   a.Profile.String,
		Role:      a.Role,
		Status:    a.Status,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Profile   string `json:"profile"`
}

type ListFilter struct {
	SearchTerm string
	Status     string
	Page       int
	Limit      int
}

// Meta is the pagination envelope returned with every listing.
type Meta struct {
	Page      int   `json:"page"`
	Limit     int   `json:"limit"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// NewMeta computes the page count for a listing result.
func NewMeta(page, limit int, total int64) Meta {
	totalPage := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPage++
	}
	return Meta{Page: page, Limit: limit, Total: total, TotalPage: totalPage}
}
