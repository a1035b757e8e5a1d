package access

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/activity-desk/internal/domain"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

const (
	adminID      = "00000000-0000-0000-0000-000000000001"
	managerID    = "00000000-0000-0000-0000-000000000002"
	otherMgrID   = "00000000-0000-0000-0000-000000000003"
	employeeID   = "00000000-0000-0000-0000-000000000004"
	strangerID   = "00000000-0000-0000-0000-000000000005"
	activityID   = "00000000-0000-0000-0000-00000000a001"
	hiddenID     = "00000000-0000-0000-0000-00000000a002"
	brokenID     = "00000000-0000-0000-0000-00000000a003"
	profileID    = "00000000-0000-0000-0000-00000000b001"
	convID       = "00000000-0000-0000-0000-00000000c001"
	messageID    = "00000000-0000-0000-0000-00000000d001"
	missingID    = "00000000-0000-0000-0000-00000000ffff"
	tehranOffset = 3*3600 + 1800
)

var tehran = time.FixedZone("IRST", tehranOffset)

type fakeLookup struct {
	users         map[string]*domain.User
	profiles      map[string]*domain.Profile
	activities    map[string]*domain.Activity
	conversations map[string]*domain.Conversation
	messages      map[string]*domain.Message
	activityCalls int
}

func (f *fakeLookup) UserByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLookup) ProfileByID(_ context.Context, id string) (*domain.Profile, error) {
	for _, p := range f.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLookup) ProfileByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLookup) ActivityByID(_ context.Context, id string) (*domain.Activity, error) {
	f.activityCalls++
	if a, ok := f.activities[id]; ok {
		return a, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLookup) ConversationByID(_ context.Context, id string) (*domain.Conversation, error) {
	if c, ok := f.conversations[id]; ok {
		return c, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLookup) MessageByID(_ context.Context, id string) (*domain.Message, error) {
	if m, ok := f.messages[id]; ok {
		return m, nil
	}
	return nil, pgx.ErrNoRows
}

func newFixture() *fakeLookup {
	admin := &domain.User{ID: adminID, Role: domain.RoleSuperAdmin}
	manager := &domain.User{ID: managerID, Role: domain.RoleManager}
	otherMgr := &domain.User{ID: otherMgrID, Role: domain.RoleManager}
	employee := &domain.User{ID: employeeID, Role: domain.RoleEmployee, ManagerID: null.StringFrom(managerID)}
	stranger := &domain.User{ID: strangerID, Role: domain.RoleEmployee, ManagerID: null.StringFrom(otherMgrID)}

	window := func(id string, visible bool) *domain.Activity {
		return &domain.Activity{
			ID:         id,
			UserID:     employeeID,
			CreatorID:  adminID,
			StartDate:  "1403/07/01",
			StartTime:  domain.ClockTime{Hour: 8},
			EndDate:    "1403/07/01",
			EndTime:    domain.ClockTime{Hour: 17},
			Visibility: visible,
		}
	}
	broken := window(brokenID, true)
	broken.EndDate = "1403/13/40"

	return &fakeLookup{
		users: map[string]*domain.User{
			adminID: admin, managerID: manager, otherMgrID: otherMgr, employeeID: employee, strangerID: stranger,
		},
		profiles: map[string]*domain.Profile{
			employeeID: {ID: profileID, UserID: employeeID, Status: domain.ProfileStatusApproved},
			strangerID: {ID: "00000000-0000-0000-0000-00000000b002", UserID: strangerID, Status: domain.ProfileStatusRejected},
		},
		activities: map[string]*domain.Activity{
			activityID: window(activityID, true),
			hiddenID:   window(hiddenID, false),
			brokenID:   broken,
		},
		conversations: map[string]*domain.Conversation{
			convID: {ID: convID, Participants: []domain.User{*employee, *manager}},
		},
		messages: map[string]*domain.Message{
			messageID: {ID: messageID, ConversationID: convID, UserID: employeeID},
		},
	}
}

// 1403/07/01 is 2024-09-22.
func at(hour, minute, second int) time.Time {
	return time.Date(2024, 9, 22, hour, minute, second, 0, tehran)
}

func request(f *fakeLookup, actorID, target string, now time.Time) *Request {
	var actor *domain.User
	if actorID != "" {
		actor = f.users[actorID]
	}
	return NewRequest(actor, target, now, tehran, f)
}

func employeeCompletionChain() Chain {
	return Chain{
		Authenticated,
		RoleAllowed(domain.RoleEmployee),
		IsActivityOwner,
		ActivityVisible,
		ProfileApproved,
		WithinActiveTimeWindow,
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestChainStopsAtFirstDenial(t *testing.T) {
	f := newFixture()
	called := false
	chain := Chain{
		RoleAllowed(domain.RoleSuperAdmin),
		func(context.Context, *Request) error {
			called = true
			return nil
		},
	}

	err := chain.Evaluate(context.Background(), request(f, employeeID, "", at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeForbidden)
	assert.False(t, called)
}

func TestEmptyChainDenies(t *testing.T) {
	f := newFixture()
	err := Chain{}.Evaluate(context.Background(), request(f, adminID, "", at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestAnonymousCallerIsUnauthorized(t *testing.T) {
	f := newFixture()
	err := employeeCompletionChain().Evaluate(context.Background(), request(f, "", activityID, at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestEmployeeCompletionChain(t *testing.T) {
	ctx := context.Background()

	t.Run("inside window", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, employeeCompletionChain().Evaluate(ctx, request(f, employeeID, activityID, at(12, 0, 0))))
		assert.Equal(t, 1, f.activityCalls)
	})

	t.Run("outside window", func(t *testing.T) {
		f := newFixture()
		err := employeeCompletionChain().Evaluate(ctx, request(f, employeeID, activityID, at(17, 0, 1)))
		requireCode(t, err, apperrors.CodeForbidden)
		assert.Contains(t, err.Error(), msgOutsideWindow)
	})

	t.Run("not the assignee", func(t *testing.T) {
		f := newFixture()
		err := employeeCompletionChain().Evaluate(ctx, request(f, strangerID, activityID, at(12, 0, 0)))
		requireCode(t, err, apperrors.CodeForbidden)
		assert.Contains(t, err.Error(), msgNotActivityOwner)
	})

	t.Run("hidden activity", func(t *testing.T) {
		f := newFixture()
		err := employeeCompletionChain().Evaluate(ctx, request(f, employeeID, hiddenID, at(12, 0, 0)))
		requireCode(t, err, apperrors.CodeForbidden)
		assert.Contains(t, err.Error(), msgActivityHidden)
	})

	t.Run("profile not approved", func(t *testing.T) {
		f := newFixture()
		f.profiles[employeeID].Status = domain.ProfileStatusPending
		err := employeeCompletionChain().Evaluate(ctx, request(f, employeeID, activityID, at(12, 0, 0)))
		requireCode(t, err, apperrors.CodeForbidden)
		assert.Contains(t, err.Error(), msgProfileNotApproved)
	})

	t.Run("unknown activity", func(t *testing.T) {
		f := newFixture()
		err := employeeCompletionChain().Evaluate(ctx, request(f, employeeID, missingID, at(12, 0, 0)))
		requireCode(t, err, apperrors.CodeNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newFixture()
		err := employeeCompletionChain().Evaluate(ctx, request(f, employeeID, "42", at(12, 0, 0)))
		requireCode(t, err, apperrors.CodeNotFound)
		assert.Zero(t, f.activityCalls)
	})
}

func TestWindowBoundsAreInclusive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	assert.NoError(t, WithinActiveTimeWindow(ctx, request(f, employeeID, activityID, at(8, 0, 0))))
	assert.NoError(t, WithinActiveTimeWindow(ctx, request(f, employeeID, activityID, at(17, 0, 0))))
	requireCode(t, WithinActiveTimeWindow(ctx, request(f, employeeID, activityID, at(7, 59, 59))), apperrors.CodeForbidden)
	requireCode(t, WithinActiveTimeWindow(ctx, request(f, employeeID, activityID, at(17, 0, 1))), apperrors.CodeForbidden)
}

func TestWindowUsesConfiguredZone(t *testing.T) {
	f := newFixture()
	// 08:00 Tehran is 04:30 UTC.
	now := time.Date(2024, 9, 22, 4, 30, 0, 0, time.UTC)
	assert.NoError(t, WithinActiveTimeWindow(context.Background(), request(f, employeeID, activityID, now)))

	before := time.Date(2024, 9, 22, 4, 29, 59, 0, time.UTC)
	requireCode(t, WithinActiveTimeWindow(context.Background(), request(f, employeeID, activityID, before)), apperrors.CodeForbidden)
}

func TestMalformedStoredDateIsNotOutsideWindow(t *testing.T) {
	f := newFixture()
	err := WithinActiveTimeWindow(context.Background(), request(f, employeeID, brokenID, at(12, 0, 0)))
	requireCode(t, err, apperrors.CodeInvalidStoredDate)
	assert.NotContains(t, err.Error(), msgOutsideWindow)
}

func TestManagerRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	employeeDetail := Chain{Authenticated, RoleAllowed(domain.RoleManager), IsEmployeeManager, TargetUserProfileApproved}
	require.NoError(t, employeeDetail.Evaluate(ctx, request(f, managerID, employeeID, at(9, 0, 0))))

	err := employeeDetail.Evaluate(ctx, request(f, managerID, strangerID, at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeForbidden)
	assert.Contains(t, err.Error(), msgNotEmployeeManager)

	err = employeeDetail.Evaluate(ctx, request(f, otherMgrID, strangerID, at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeForbidden)
	assert.Contains(t, err.Error(), msgTargetNotApproved)

	err = employeeDetail.Evaluate(ctx, request(f, employeeID, employeeID, at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeForbidden)
	assert.Contains(t, err.Error(), msgRoleDenied)

	assigned := Chain{Authenticated, RoleAllowed(domain.RoleManager), IsManagerOfActivityAssignee}
	require.NoError(t, assigned.Evaluate(ctx, request(f, managerID, hiddenID, at(9, 0, 0))))
	err = assigned.Evaluate(ctx, request(f, otherMgrID, activityID, at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeForbidden)
	assert.Contains(t, err.Error(), msgNotAssigneeManager)
}

func TestProfileRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	editOwn := Chain{Authenticated, RoleAllowed(domain.RoleEmployee), IsProfileOwner, ProfileRejected}

	err := editOwn.Evaluate(ctx, request(f, employeeID, profileID, at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeForbidden)
	assert.Contains(t, err.Error(), msgProfileNotRejected)

	f.profiles[employeeID].Status = domain.ProfileStatusRejected
	require.NoError(t, editOwn.Evaluate(ctx, request(f, employeeID, profileID, at(9, 0, 0))))

	err = editOwn.Evaluate(ctx, request(f, strangerID, profileID, at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeForbidden)
	assert.Contains(t, err.Error(), msgNotProfileOwner)

	delete(f.profiles, employeeID)
	err = Chain{Authenticated, ProfileApproved}.Evaluate(ctx, request(f, employeeID, "", at(9, 0, 0)))
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestChatRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	assert.NoError(t, ConversationParticipantOrAdmin(ctx, request(f, employeeID, convID, at(9, 0, 0))))
	assert.NoError(t, ConversationParticipantOrAdmin(ctx, request(f, adminID, convID, at(9, 0, 0))))
	requireCode(t, ConversationParticipantOrAdmin(ctx, request(f, strangerID, convID, at(9, 0, 0))), apperrors.CodeForbidden)
	requireCode(t, ConversationParticipantOrAdmin(ctx, request(f, employeeID, missingID, at(9, 0, 0))), apperrors.CodeNotFound)

	assert.NoError(t, MessageAuthorOrAdmin(ctx, request(f, employeeID, messageID, at(9, 0, 0))))
	assert.NoError(t, MessageAuthorOrAdmin(ctx, request(f, adminID, messageID, at(9, 0, 0))))
	requireCode(t, MessageAuthorOrAdmin(ctx, request(f, managerID, messageID, at(9, 0, 0))), apperrors.CodeForbidden)
}

func TestInWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	assert.True(t, InWindow(start, end, start))
	assert.True(t, InWindow(start, end, end))
	assert.False(t, InWindow(start, end, start.Add(-time.Nanosecond)))
	assert.False(t, InWindow(start, end, end.Add(time.Nanosecond)))
}
