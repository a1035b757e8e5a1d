package service

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/activity-desk/internal/access"
	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/events"
	"github.com/spec-kit/activity-desk/internal/repository"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

// ActivityInput is the bulk assignment form. Dates are Persian, times HH:MM[:SS].
type ActivityInput struct {
	AssigneeIDs []string
	Title       string
	Body        string
	StartDate   string
	StartTime   string
	EndDate     string
	EndTime     string
	Sensitivity domain.Sensitivity
}

// ActivityUpdateInput is the super-admin edit form.
type ActivityUpdateInput struct {
	Title       string
	Body        string
	StartDate   string
	StartTime   string
	EndDate     string
	EndTime     string
	Sensitivity domain.Sensitivity
	IsCompleted bool
	Visibility  bool
}

// ActivityService assigns, edits and completes activities.
type ActivityService struct {
	activities repository.ActivityRepository
	users      repository.UserRepository
	tx         repository.TxRunner
	dispatcher events.Dispatcher
	location   *time.Location
	now        Clock
	logger     *zap.Logger
}

// ActivityDependencies bundles collaborators for the activity service.
type ActivityDependencies struct {
	ActivityRepo repository.ActivityRepository
	UserRepo     repository.UserRepository
	Tx           repository.TxRunner
	Dispatcher   events.Dispatcher
	Location     *time.Location
	Clock        Clock
	Logger       *zap.Logger
}

// NewActivityService builds the service.
func NewActivityService(deps ActivityDependencies) *ActivityService {
	s := &ActivityService{
		activities: deps.ActivityRepo,
		users:      deps.UserRepo,
		tx:         deps.Tx,
		dispatcher: deps.Dispatcher,
		location:   deps.Location,
		now:        deps.Clock,
		logger:     deps.Logger,
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// BulkCreate assigns one activity per selected user, all or nothing.
// Super-admin activities are visible and may target anyone; manager
// activities are private and may only target the manager's approved
// employees.
func (s *ActivityService) BulkCreate(ctx context.Context, actor *domain.User, input ActivityInput) ([]domain.Activity, error) {
	template, err := s.buildActivity(input.Title, input.Body, input.StartDate, input.StartTime, input.EndDate, input.EndTime, input.Sensitivity)
	if err != nil {
		return nil, err
	}

	assignees := dedupe(input.AssigneeIDs)
	if len(assignees) == 0 {
		return nil, apperrors.NewFieldError("users", "حداقل یک کاربر را انتخاب کنید.")
	}

	var scope sq.Sqlizer
	switch actor.Role {
	case domain.RoleSuperAdmin:
		scope = repository.Unscoped()
	case domain.RoleManager:
		scope = repository.ManagedEmployees(actor.ID)
	default:
		return nil, apperrors.NewForbidden("شما اجازه تعریف فعالیت ندارید.")
	}
	template.CreatorID = actor.ID
	template.Visibility = actor.IsSuperAdmin()

	var created []domain.Activity
	err = s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		eligible, err := s.users.List(ctx, tx, scope, repository.UserFilter{IDs: assignees, Limit: len(assignees)})
		if err != nil {
			return err
		}
		if len(eligible) != len(assignees) {
			return apperrors.NewFieldError("users", "برخی از کاربران انتخاب شده مجاز نیستند.")
		}

		created = make([]domain.Activity, 0, len(assignees))
		for _, userID := range assignees {
			activity := template
			activity.UserID = userID
			if err := s.activities.Create(ctx, tx, &activity); err != nil {
				return err
			}
			created = append(created, activity)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ids := make([]string, len(created))
	for i := range created {
		ids[i] = created[i].ID
	}
	publish(ctx, s.dispatcher, events.New(events.EventActivitiesAssigned, ids[0], actor.ID,
		events.ActivitiesAssignedPayload{ActivityIDs: ids, AssigneeIDs: assignees, Visibility: template.Visibility}))
	return created, nil
}

// Update edits an activity. Completion and visibility are set directly.
func (s *ActivityService) Update(ctx context.Context, id string, input ActivityUpdateInput) (*domain.ActivityWithUsers, error) {
	fields, err := s.buildActivity(input.Title, input.Body, input.StartDate, input.StartTime, input.EndDate, input.EndTime, input.Sensitivity)
	if err != nil {
		return nil, err
	}

	var updated *domain.ActivityWithUsers
	err = s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.activities.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		a := &current.Activity
		a.Title = fields.Title
		a.Body = fields.Body
		a.StartDate, a.StartTime = fields.StartDate, fields.StartTime
		a.EndDate, a.EndTime = fields.EndDate, fields.EndTime
		a.Sensitivity = fields.Sensitivity
		a.Visibility = input.Visibility
		switch {
		case input.IsCompleted && !a.IsCompleted:
			at := s.now()
			a.CompletedAt = &at
		case !input.IsCompleted:
			a.CompletedAt = nil
		}
		a.IsCompleted = input.IsCompleted

		if err := s.activities.Update(ctx, tx, a); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("activity", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

// Delete removes an activity.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if err := s.activities.Delete(ctx, nil, id); err != nil {
		if apperrors.IsNoRows(err) {
			return apperrors.NewNotFound("activity", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// Complete marks an activity done. It succeeds once; the route guards decide
// who may call it and when.
func (s *ActivityService) Complete(ctx context.Context, actor *domain.User, id string) (*domain.ActivityWithUsers, error) {
	at := s.now()
	var completed *domain.ActivityWithUsers
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		ok, err := s.activities.MarkCompleted(ctx, tx, id, at)
		if err != nil {
			return err
		}
		current, err := s.activities.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NewConflict("این فعالیت قبلا انجام شده است.", map[string]any{"id": id})
		}
		completed = current
		return nil
	})
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("activity", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.New(events.EventActivityCompleted, id, actor.ID,
		events.ActivityCompletedPayload{AssigneeID: completed.UserID, CompletedAt: at}))
	return completed, nil
}

// Get loads one activity with its people.
func (s *ActivityService) Get(ctx context.Context, id string) (*domain.ActivityWithUsers, error) {
	activity, err := s.activities.GetByID(ctx, nil, id)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("activity", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return activity, nil
}

// List returns one page of scope narrowed by filter.
func (s *ActivityService) List(ctx context.Context, scope sq.Sqlizer, filter repository.ActivityFilter) (*Page[domain.ActivityWithUsers], error) {
	items, err := s.activities.List(ctx, nil, scope, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.activities.Count(ctx, nil, scope, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	return &Page[domain.ActivityWithUsers]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// Count counts scope narrowed by filter.
func (s *ActivityService) Count(ctx context.Context, scope sq.Sqlizer, filter repository.ActivityFilter) (int, error) {
	total, err := s.activities.Count(ctx, nil, scope, filter)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return total, nil
}

// buildActivity validates the editable fields shared by create and update.
func (s *ActivityService) buildActivity(title, body, startDate, startTime, endDate, endTime string, sensitivity domain.Sensitivity) (domain.Activity, error) {
	var a domain.Activity
	a.Title = strings.TrimSpace(title)
	a.Body = strings.TrimSpace(body)
	if a.Title == "" {
		return a, apperrors.NewFieldError("title", "عنوان الزامی است.")
	}
	if !sensitivity.Valid() {
		return a, apperrors.NewFieldError("sensitivity", "میزان اهمیت نامعتبر است.")
	}
	a.Sensitivity = sensitivity

	var err error
	if a.StartDate, err = normalizeDate("start_date", startDate); err != nil {
		return a, err
	}
	if a.EndDate, err = normalizeDate("end_date", endDate); err != nil {
		return a, err
	}
	if a.StartTime, err = domain.ParseClockTime(startTime); err != nil {
		return a, apperrors.NewFieldError("start_time", "ساعت شروع نامعتبر است.")
	}
	if a.EndTime, err = domain.ParseClockTime(endTime); err != nil {
		return a, apperrors.NewFieldError("end_time", "ساعت پایان نامعتبر است.")
	}

	start, end, err := access.ActivityWindow(&a, s.location)
	if err != nil {
		return a, apperrors.NewFieldError("start_date", "تاریخ شمسی نامعتبر است.")
	}
	if end.Before(start) {
		return a, apperrors.NewFieldError("end_date", "زمان پایان نباید قبل از زمان شروع باشد.")
	}
	return a, nil
}
