package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-desk/internal/api/dto"
	"github.com/spec-kit/activity-desk/internal/service"
	"github.com/spec-kit/activity-desk/pkg/validation"
)

// ProfilesHandler serves profile submission and review.
type ProfilesHandler struct {
	profiles  *service.ProfileService
	validator *validation.Validator
}

// NewProfilesHandler constructs handler.
func NewProfilesHandler(profiles *service.ProfileService, v *validation.Validator) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles, validator: v}
}

// List handles GET /super-admin/profiles.
func (h *ProfilesHandler) List(c *fiber.Ctx) error {
	page, err := h.profiles.ListProfiles(c.UserContext(), parseProfileFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pageResponse(page, profileWithUserResponse)})
}

// Get handles GET /super-admin/profiles/:id and GET /employee/profiles/:id.
func (h *ProfilesHandler) Get(c *fiber.Ctx) error {
	profile, err := h.profiles.GetProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileWithUserResponse(profile)})
}

// AdminUpdate handles PUT /super-admin/profiles/:id.
func (h *ProfilesHandler) AdminUpdate(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var status dto.ProfileStatusForm
	if err := bind(c, h.validator, &status); err != nil {
		return err
	}
	input, closeUploads, err := h.readForm(c)
	defer closeUploads()
	if err != nil {
		return err
	}

	profile, err := h.profiles.AdminUpdateProfile(c.UserContext(), actor, c.Params("id"), service.AdminProfileInput{
		ProfileInput: input,
		Status:       status.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// Create handles POST /employee/profiles.
func (h *ProfilesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	input, closeUploads, err := h.readForm(c)
	defer closeUploads()
	if err != nil {
		return err
	}

	profile, err := h.profiles.CreateProfile(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": profileResponse(profile)})
}

// UpdateOwn handles PUT /employee/profiles/:id. Only rejected profiles reach
// here; saving sends the profile back for review.
func (h *ProfilesHandler) UpdateOwn(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	input, closeUploads, err := h.readForm(c)
	defer closeUploads()
	if err != nil {
		return err
	}

	profile, err := h.profiles.UpdateOwnProfile(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

func (h *ProfilesHandler) readForm(c *fiber.Ctx) (service.ProfileInput, func(), error) {
	noop := func() {}
	var form dto.ProfileForm
	if err := bind(c, h.validator, &form); err != nil {
		return service.ProfileInput{}, noop, err
	}

	card, closeCard, err := formUpload(c, "national_card")
	if err != nil {
		return service.ProfileInput{}, noop, err
	}
	guarantee, closeGuarantee, err := formUpload(c, "guarantee")
	if err != nil {
		closeCard()
		return service.ProfileInput{}, noop, err
	}

	input := service.ProfileInput{
		PhoneNumber:  form.PhoneNumber,
		Address:      form.Address,
		PhoneNumber1: form.PhoneNumber1,
		PhoneNumber2: form.PhoneNumber2,
		NationalCode: form.NationalCode,
		Birthdate:    form.Birthdate,
		NationalCard: card,
		Guarantee:    guarantee,
	}
	return input, func() {
		closeCard()
		closeGuarantee()
	}, nil
}
