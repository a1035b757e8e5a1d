package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/events"
	"github.com/spec-kit/activity-desk/internal/jalali"
	"github.com/spec-kit/activity-desk/internal/repository"
	"github.com/spec-kit/activity-desk/internal/storage"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

const (
	nationalCardPrefix = "national_cards"
	guaranteePrefix    = "guarantees"
)

// Upload is one file of a multipart form.
type Upload struct {
	Reader io.Reader
	Name   string
}

// ProfileInput is the employee profile form. Nil uploads keep stored files.
type ProfileInput struct {
	PhoneNumber  string
	Address      string
	PhoneNumber1 string
	PhoneNumber2 string
	NationalCode string
	Birthdate    string
	NationalCard *Upload
	Guarantee    *Upload
}

// AdminProfileInput lets a super-admin edit any field and set the status.
type AdminProfileInput struct {
	ProfileInput
	Status domain.ProfileStatus
}

// ProfileService handles profile submission and review.
type ProfileService struct {
	profiles   repository.ProfileRepository
	tx         repository.TxRunner
	files      storage.FileStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ProfileDependencies bundles collaborators for the profile service.
type ProfileDependencies struct {
	ProfileRepo repository.ProfileRepository
	Tx          repository.TxRunner
	Files       storage.FileStore
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewProfileService builds the service.
func NewProfileService(deps ProfileDependencies) *ProfileService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		profiles:   deps.ProfileRepo,
		tx:         deps.Tx,
		files:      deps.Files,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateProfile submits the caller's profile for review. A user has at most one.
func (s *ProfileService) CreateProfile(ctx context.Context, actor *domain.User, input ProfileInput) (*domain.Profile, error) {
	if input.NationalCard == nil {
		return nil, apperrors.NewFieldError("national_card", "تصویر کارت ملی الزامی است.")
	}
	birthdate, err := normalizeDate("birthdate", input.Birthdate)
	if err != nil {
		return nil, err
	}

	if _, err := s.profiles.GetByUserID(ctx, nil, actor.ID); err == nil {
		return nil, apperrors.NewConflict("پروفایل شما قبلا ثبت شده است.", nil)
	} else if !apperrors.IsNoRows(err) {
		return nil, apperrors.MapError(err)
	}

	stored, err := s.storeUploads(input)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		UserID:       actor.ID,
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		Address:      strings.TrimSpace(input.Address),
		PhoneNumber1: strings.TrimSpace(input.PhoneNumber1),
		PhoneNumber2: strings.TrimSpace(input.PhoneNumber2),
		NationalCode: strings.TrimSpace(input.NationalCode),
		Birthdate:    birthdate,
		NationalCard: stored.nationalCard,
		Guarantee:    stored.guarantee,
		Status:       domain.ProfileStatusPending,
	}
	if err := s.profiles.Create(ctx, nil, profile); err != nil {
		s.discard(stored.nationalCard, stored.guarantee.String)
		return nil, profileConflict(err)
	}

	publish(ctx, s.dispatcher, events.New(events.EventProfileSubmitted, profile.ID, actor.ID,
		events.ProfileSubmittedPayload{UserID: actor.ID}))
	return profile, nil
}

// UpdateOwnProfile lets the owner correct a rejected profile. The status is
// left alone: only a super-admin moves it, so the profile stays rejected
// until reviewed again. Reviewers are notified of the resubmission.
func (s *ProfileService) UpdateOwnProfile(ctx context.Context, actor *domain.User, profileID string, input ProfileInput) (*domain.Profile, error) {
	profile, err := s.update(ctx, actor.ID, profileID, input, "")
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.New(events.EventProfileSubmitted, profile.ID, actor.ID,
		events.ProfileSubmittedPayload{UserID: profile.UserID}))
	return profile, nil
}

// AdminUpdateProfile edits any profile and sets its review status.
func (s *ProfileService) AdminUpdateProfile(ctx context.Context, actor *domain.User, profileID string, input AdminProfileInput) (*domain.Profile, error) {
	if !input.Status.Valid() {
		return nil, apperrors.NewFieldError("status", "وضعیت نامعتبر است.")
	}
	return s.update(ctx, actor.ID, profileID, input.ProfileInput, input.Status)
}

// update rewrites the editable fields. An empty status keeps the stored one.
func (s *ProfileService) update(ctx context.Context, actorID, profileID string, input ProfileInput, status domain.ProfileStatus) (*domain.Profile, error) {
	birthdate, err := normalizeDate("birthdate", input.Birthdate)
	if err != nil {
		return nil, err
	}
	stored, err := s.storeUploads(input)
	if err != nil {
		return nil, err
	}

	var (
		profile   *domain.Profile
		oldStatus domain.ProfileStatus
		replaced  []string
	)
	err = s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.profiles.GetByID(ctx, tx, profileID)
		if err != nil {
			return err
		}
		p := current.Profile
		oldStatus = p.Status

		p.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
		p.Address = strings.TrimSpace(input.Address)
		p.PhoneNumber1 = strings.TrimSpace(input.PhoneNumber1)
		p.PhoneNumber2 = strings.TrimSpace(input.PhoneNumber2)
		p.NationalCode = strings.TrimSpace(input.NationalCode)
		p.Birthdate = birthdate
		if status != "" {
			p.Status = status
		}
		if stored.nationalCard != "" {
			replaced = append(replaced, p.NationalCard)
			p.NationalCard = stored.nationalCard
		}
		if stored.guarantee.Valid {
			replaced = append(replaced, p.Guarantee.String)
			p.Guarantee = stored.guarantee
		}

		if err := s.profiles.Update(ctx, tx, &p); err != nil {
			return err
		}
		profile = &p
		return nil
	})
	if err != nil {
		s.discard(stored.nationalCard, stored.guarantee.String)
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": profileID})
		}
		return nil, profileConflict(err)
	}
	s.discard(replaced...)

	if oldStatus != profile.Status {
		publish(ctx, s.dispatcher, events.New(events.EventProfileStatusChanged, profile.ID, actorID,
			events.ProfileStatusChangedPayload{UserID: profile.UserID, OldStatus: oldStatus, NewStatus: profile.Status}))
	}
	return profile, nil
}

// GetProfile loads a profile with its owner.
func (s *ProfileService) GetProfile(ctx context.Context, id string) (*domain.ProfileWithUser, error) {
	profile, err := s.profiles.GetByID(ctx, nil, id)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// ProfileOf returns the user's profile or nil when none was submitted.
func (s *ProfileService) ProfileOf(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, nil, userID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// ListProfiles pages the review list.
func (s *ProfileService) ListProfiles(ctx context.Context, filter repository.ProfileFilter) (*Page[domain.ProfileWithUser], error) {
	items, err := s.profiles.List(ctx, nil, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.profiles.Count(ctx, nil, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	return &Page[domain.ProfileWithUser]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

type storedUploads struct {
	nationalCard string
	guarantee    null.String
}

func (s *ProfileService) storeUploads(input ProfileInput) (storedUploads, error) {
	var out storedUploads
	if input.NationalCard != nil {
		path, err := s.files.Save(input.NationalCard.Reader, input.NationalCard.Name, nationalCardPrefix)
		if err != nil {
			return out, uploadError("national_card", err)
		}
		out.nationalCard = path
	}
	if input.Guarantee != nil {
		path, err := s.files.Save(input.Guarantee.Reader, input.Guarantee.Name, guaranteePrefix)
		if err != nil {
			s.discard(out.nationalCard)
			return out, uploadError("guarantee", err)
		}
		out.guarantee = null.StringFrom(path)
	}
	return out, nil
}

func (s *ProfileService) discard(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.files.Delete(path); err != nil {
			s.logger.Warn("remove stored file", zap.String("path", path), zap.Error(err))
		}
	}
}

func uploadError(field string, err error) error {
	if errors.Is(err, storage.ErrRejectedFile) {
		return apperrors.NewFieldError(field, "فایل باید تصویر یا PDF و کمتر از حجم مجاز باشد.")
	}
	return apperrors.NewInternalError(err)
}

func profileConflict(err error) error {
	constraint, ok := apperrors.IsUniqueViolation(err)
	if !ok {
		return apperrors.MapError(err)
	}
	switch {
	case strings.Contains(constraint, "national_code"):
		return apperrors.NewConflict("این کد ملی قبلا ثبت شده است.", map[string]any{"national_code": "duplicate"})
	case strings.Contains(constraint, "phone_number"):
		return apperrors.NewConflict("این شماره موبایل قبلا ثبت شده است.", map[string]any{"phone_number": "duplicate"})
	case strings.Contains(constraint, "user_id"):
		return apperrors.NewConflict("پروفایل شما قبلا ثبت شده است.", nil)
	}
	return apperrors.NewConflict("resource already exists", map[string]any{"constraint": constraint})
}

// normalizeDate parses a Persian date from user input into its stored form.
func normalizeDate(field, value string) (string, error) {
	d, err := jalali.Parse(value)
	if err != nil {
		return "", apperrors.NewFieldError(field, "تاریخ شمسی نامعتبر است.")
	}
	return d.String(), nil
}
