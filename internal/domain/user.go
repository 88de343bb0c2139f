// internal/domain/user.go
package domain

import "time"

// User represents a wallet holder.
type User struct {
	ID          int64     `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       *string   `db:"email" json:"email,omitempty"`
	PhoneNumber *string   `db:"phone_number" json:"phone_number,omitempty"`
	PinHash     *string   `db:"pin_hash" json:"-"` // bcrypt hash, never serialized
	WorkerID    *string   `db:"worker_id" json:"worker_id,omitempty"` // employer-issued id, unique when set
	KycLevelID  int64     `db:"kyc_level_id" json:"kyc_level_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Phone returns the stored phone number or "".
func (u *User) Phone() string {
	if u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}

// EmailAddress returns the stored email or "".
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
