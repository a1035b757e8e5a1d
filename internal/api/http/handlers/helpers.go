package handlers

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/activity-desk/internal/api/dto"
	"github.com/spec-kit/activity-desk/internal/auth"
	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/repository"
	"github.com/spec-kit/activity-desk/internal/service"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
	"github.com/spec-kit/activity-desk/pkg/validation"
)

const (
	msgInvalidPayload = "اطلاعات ارسالی قابل خواندن نیست."

	maxPageSize = 500
)

// bind parses the request body into payload and validates it.
func bind(c *fiber.Ctx, v *validation.Validator, payload any) error {
	if err := c.BodyParser(payload); err != nil {
		return apperrors.NewValidationError(msgInvalidPayload, map[string]any{"error": err.Error()})
	}
	return v.Struct(payload)
}

// currentUser returns the authenticated caller. Routes are guarded, so a
// missing principal means a route was registered without its guard.
func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user := auth.CurrentUser(c)
	if user == nil {
		return nil, apperrors.NewUnauthorized("ابتدا باید وارد شوید.")
	}
	return user, nil
}

type pageParams struct {
	page     int
	pageSize int
}

func (p pageParams) limit() int  { return p.pageSize }
func (p pageParams) offset() int { return (p.page - 1) * p.pageSize }

func parsePage(c *fiber.Ctx) pageParams {
	return pageParams{
		page:     parseIntQuery(c, "page", 1),
		pageSize: min(parseIntQuery(c, "page_size", repository.DefaultPageSize), maxPageSize),
	}
}

// uuidQuery returns the optional id in key; a malformed one is a validation failure.
func uuidQuery(c *fiber.Ctx, key string) (string, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return "", nil
	}
	if _, err := uuid.Parse(val); err != nil {
		return "", apperrors.NewFieldError(key, "شناسه معتبر نیست.")
	}
	return val, nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return defaultVal
	}
	return parsed
}

// parseBoolQuery returns nil when key is absent or unparseable.
func parseBoolQuery(c *fiber.Ctx, key string) *bool {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseUserFilter(c *fiber.Ctx) repository.UserFilter {
	p := parsePage(c)
	return repository.UserFilter{
		FullName: strings.TrimSpace(c.Query("search_full_name")),
		Username: strings.TrimSpace(c.Query("search_user_name")),
		Role:     domain.Role(strings.TrimSpace(c.Query("user_type"))),
		Limit:    p.limit(),
		Offset:   p.offset(),
	}
}

func parseActivityFilter(c *fiber.Ctx) repository.ActivityFilter {
	p := parsePage(c)
	return repository.ActivityFilter{
		Query:       strings.TrimSpace(c.Query("q")),
		IsCompleted: parseBoolQuery(c, "is_completed"),
		Visibility:  parseBoolQuery(c, "visibility"),
		Limit:       p.limit(),
		Offset:      p.offset(),
	}
}

func parseProfileFilter(c *fiber.Ctx) repository.ProfileFilter {
	p := parsePage(c)
	return repository.ProfileFilter{
		Status: domain.ProfileStatus(strings.TrimSpace(c.Query("status"))),
		Limit:  p.limit(),
		Offset: p.offset(),
	}
}

// formUpload opens the multipart file named field. A missing part (or a
// body that is not multipart) yields a nil upload; the returned closer is
// always safe to call.
func formUpload(c *fiber.Ctx, field string) (*service.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, apperrors.NewFieldError(field, "فایل ارسالی قابل خواندن نیست.")
	}
	return &service.Upload{Reader: file, Name: header.Filename}, closeFile(file), nil
}

func closeFile(f multipart.File) func() {
	return func() { _ = f.Close() }
}

func pageResponse[T, R any](page *service.Page[T], convert func(*T) R) dto.PageResponse[R] {
	items := make([]R, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, convert(&page.Items[i]))
	}
	size := page.Limit
	if size <= 0 {
		size = repository.DefaultPageSize
	}
	return dto.PageResponse[R]{
		Items:    items,
		Total:    page.Total,
		Page:     page.Offset/size + 1,
		PageSize: size,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		UserType:  user.Role,
		RoleLabel: user.Role.Label(),
		CreatedAt: user.CreatedAt,
	}
	if user.ManagerID.Valid {
		managerID := user.ManagerID.String
		resp.ManagerID = &managerID
	}
	return resp
}

func userResponses(users []domain.User) []dto.UserResponse {
	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userResponse(&users[i]))
	}
	return resp
}

func profileResponse(profile *domain.Profile) dto.ProfileResponse {
	resp := dto.ProfileResponse{
		ID:           profile.ID,
		UserID:       profile.UserID,
		PhoneNumber:  profile.PhoneNumber,
		Address:      profile.Address,
		PhoneNumber1: profile.PhoneNumber1,
		PhoneNumber2: profile.PhoneNumber2,
		NationalCode: profile.NationalCode,
		Birthdate:    profile.Birthdate,
		NationalCard: profile.NationalCard,
		Status:       profile.Status,
		StatusLabel:  profile.Status.Label(),
		UpdatedAt:    profile.UpdatedAt,
	}
	if profile.Guarantee.Valid {
		guarantee := profile.Guarantee.String
		resp.Guarantee = &guarantee
	}
	return resp
}

func profileWithUserResponse(profile *domain.ProfileWithUser) dto.ProfileResponse {
	resp := profileResponse(&profile.Profile)
	owner := userResponse(&profile.User)
	resp.User = &owner
	return resp
}

func activityResponse(activity *domain.ActivityWithUsers) dto.ActivityResponse {
	resp := dto.ActivityResponse{
		ID:               activity.ID,
		Title:            activity.Title,
		Body:             activity.Body,
		StartDate:        activity.StartDate,
		StartTime:        activity.StartTime.String(),
		EndDate:          activity.EndDate,
		EndTime:          activity.EndTime.String(),
		Sensitivity:      activity.Sensitivity,
		SensitivityLabel: activity.Sensitivity.Label(),
		IsCompleted:      activity.IsCompleted,
		Visibility:       activity.Visibility,
		CompletedAt:      activity.CompletedAt,
		CreatedAt:        activity.CreatedAt,
	}
	if activity.Assignee.ID != "" {
		assignee := userResponse(&activity.Assignee)
		resp.User = &assignee
	}
	if activity.Creator.ID != "" {
		creator := userResponse(&activity.Creator)
		resp.Creator = &creator
	}
	return resp
}

func activityResponses(activities []domain.ActivityWithUsers) []dto.ActivityResponse {
	resp := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		resp = append(resp, activityResponse(&activities[i]))
	}
	return resp
}

func messageResponse(msg *domain.Message) dto.MessageResponse {
	resp := dto.MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Body:           msg.Body,
		Seen:           msg.Seen,
		Edited:         msg.Edited(),
		CreatedAt:      msg.CreatedAt,
	}
	if msg.Author != nil {
		author := userResponse(msg.Author)
		resp.Author = &author
	}
	return resp
}

func messageResponses(messages []domain.Message) []dto.MessageResponse {
	resp := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		resp = append(resp, messageResponse(&messages[i]))
	}
	return resp
}
