package dto

import (
	"time"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// ProfileForm is the multipart profile form. Files travel as parts named
// national_card and guarantee.
type ProfileForm struct {
	PhoneNumber  string `form:"phone_number" validate:"required,mobile"`
	Address      string `form:"address" validate:"required,max=700"`
	PhoneNumber1 string `form:"phone_number_1" validate:"required,mobile"`
	PhoneNumber2 string `form:"phone_number_2" validate:"required,mobile"`
	NationalCode string `form:"national_code" validate:"required,national_code"`
	Birthdate    string `form:"birthdate" validate:"required,jalali_date"`
}

// ProfileStatusForm carries the review decision of a super-admin edit.
type ProfileStatusForm struct {
	Status domain.ProfileStatus `form:"status" validate:"required,profile_status"`
}

// ProfileResponse is the profile view.
type ProfileResponse struct {
	ID           string               `json:"id"`
	UserID       string               `json:"user_id"`
	PhoneNumber  string               `json:"phone_number"`
	Address      string               `json:"address"`
	PhoneNumber1 string               `json:"phone_number_1"`
	PhoneNumber2 string               `json:"phone_number_2"`
	NationalCode string               `json:"national_code"`
	Birthdate    string               `json:"birthdate"`
	NationalCard string               `json:"national_card"`
	Guarantee    *string              `json:"guarantee"`
	Status       domain.ProfileStatus `json:"status"`
	StatusLabel  string               `json:"status_label"`
	User         *UserResponse        `json:"user,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}
