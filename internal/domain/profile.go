package domain

import (
	"time"

	"github.com/aarondl/null/v8"
)

// ProfileStatus is the approval state of a profile.
type ProfileStatus string

const (
	ProfileStatusPending  ProfileStatus = "1"
	ProfileStatusApproved ProfileStatus = "2"
	ProfileStatusRejected ProfileStatus = "3"
)

// Valid reports whether s is a known status code.
func (s ProfileStatus) Valid() bool {
	switch s {
	case ProfileStatusPending, ProfileStatusApproved, ProfileStatusRejected:
		return true
	}
	return false
}

// Label returns the Persian display name of the status.
func (s ProfileStatus) Label() string {
	switch s {
	case ProfileStatusPending:
		return "در انتظار تایید"
	case ProfileStatusApproved:
		return "تایید شده"
	case ProfileStatusRejected:
		return "رد شده"
	}
	return ""
}

// Profile holds the identity data an employee submits for approval.
type Profile struct {
	ID           string
	UserID       string
	PhoneNumber  string
	Address      string
	PhoneNumber1 string
	PhoneNumber2 string
	NationalCode string
	// Birthdate is a Persian YYYY/MM/DD string.
	Birthdate    string
	NationalCard string
	Guarantee    null.String
	Status       ProfileStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Approved reports whether the profile passed review.
func (p *Profile) Approved() bool {
	return p != nil && p.Status == ProfileStatusApproved
}

// Rejected reports whether the profile was sent back.
func (p *Profile) Rejected() bool {
	return p != nil && p.Status == ProfileStatusRejected
}

// ProfileWithUser pairs a profile with its owner for review listings.
type ProfileWithUser struct {
	Profile
	User User
}
