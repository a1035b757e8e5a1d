package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	goversion "github.com/caarlos0/go-version"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/activity-desk/internal/api/http/handlers"
	"github.com/spec-kit/activity-desk/internal/auth"
	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/jalali"
	"github.com/spec-kit/activity-desk/internal/observability"
	"github.com/spec-kit/activity-desk/internal/repository"
	"github.com/spec-kit/activity-desk/internal/service"
	"github.com/spec-kit/activity-desk/pkg/validation"
)

const (
	adminID     = "00000000-0000-0000-0000-000000000001"
	managerID   = "00000000-0000-0000-0000-000000000002"
	otherMgrID  = "00000000-0000-0000-0000-000000000003"
	employeeID  = "00000000-0000-0000-0000-000000000004"
	pendingID   = "00000000-0000-0000-0000-000000000005"
	openID      = "00000000-0000-0000-0000-00000000a001"
	expiredID   = "00000000-0000-0000-0000-00000000a002"
	hiddenID    = "00000000-0000-0000-0000-00000000a003"
	corruptID   = "00000000-0000-0000-0000-00000000a004"
	pendingWork = "00000000-0000-0000-0000-00000000a005"
	missingID   = "00000000-0000-0000-0000-00000000ffff"
)

var tehran = time.FixedZone("IRST", 3*3600+1800)

// store backs both the guard lookups and the activity repository.
type store struct {
	mu         sync.Mutex
	users      map[string]*domain.User
	profiles   map[string]*domain.Profile
	activities map[string]*domain.Activity
}

func (s *store) UserByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *store) ProfileByID(_ context.Context, id string) (*domain.Profile, error) {
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *store) ProfileByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *store) ActivityByID(_ context.Context, id string) (*domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.activities[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *store) ConversationByID(context.Context, string) (*domain.Conversation, error) {
	return nil, pgx.ErrNoRows
}

func (s *store) MessageByID(context.Context, string) (*domain.Message, error) {
	return nil, pgx.ErrNoRows
}

type activityRepo struct{ s *store }

func (r activityRepo) Create(context.Context, pgx.Tx, *domain.Activity) error {
	return errors.New("not supported")
}

func (r activityRepo) Update(context.Context, pgx.Tx, *domain.Activity) error {
	return errors.New("not supported")
}

func (r activityRepo) Delete(context.Context, pgx.Tx, string) error {
	return errors.New("not supported")
}

func (r activityRepo) GetByID(ctx context.Context, _ pgx.Tx, id string) (*domain.ActivityWithUsers, error) {
	a, err := r.s.ActivityByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ActivityWithUsers{Activity: *a, Assignee: *r.s.users[a.UserID]}, nil
}

func (r activityRepo) MarkCompleted(_ context.Context, _ pgx.Tx, id string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.activities[id]
	if !ok || a.IsCompleted {
		return false, nil
	}
	a.IsCompleted = true
	a.CompletedAt = &at
	return true, nil
}

func (r activityRepo) List(context.Context, pgx.Tx, sq.Sqlizer, repository.ActivityFilter) ([]domain.ActivityWithUsers, error) {
	return nil, nil
}

func (r activityRepo) Count(context.Context, pgx.Tx, sq.Sqlizer, repository.ActivityFilter) (int, error) {
	return 0, nil
}

type inlineTx struct{}

func (inlineTx) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type pingOK struct{}

func (pingOK) Ping(context.Context) error { return nil }

func persianDay(offset int) string {
	d, err := jalali.ToPersian(time.Now().In(tehran).AddDate(0, 0, offset))
	if err != nil {
		panic(err)
	}
	return d.String()
}

func newStore() *store {
	user := func(id string, role domain.Role, manager string) *domain.User {
		u := &domain.User{ID: id, Username: "u" + id[len(id)-4:], Role: role}
		if manager != "" {
			u.ManagerID = null.StringFrom(manager)
		}
		return u
	}
	activity := func(id, owner string, startOffset, endOffset int, visible bool) *domain.Activity {
		return &domain.Activity{
			ID:          id,
			UserID:      owner,
			CreatorID:   adminID,
			Title:       "گزارش",
			StartDate:   persianDay(startOffset),
			EndDate:     persianDay(endOffset),
			EndTime:     domain.ClockTime{Hour: 23, Minute: 59, Second: 59},
			Sensitivity: domain.SensitivityMedium,
			Visibility:  visible,
		}
	}

	s := &store{
		users: map[string]*domain.User{
			adminID:    user(adminID, domain.RoleSuperAdmin, ""),
			managerID:  user(managerID, domain.RoleManager, ""),
			otherMgrID: user(otherMgrID, domain.RoleManager, ""),
			employeeID: user(employeeID, domain.RoleEmployee, managerID),
			pendingID:  user(pendingID, domain.RoleEmployee, managerID),
		},
		profiles: map[string]*domain.Profile{
			employeeID: {ID: "00000000-0000-0000-0000-00000000b001", UserID: employeeID, Status: domain.ProfileStatusApproved},
			pendingID:  {ID: "00000000-0000-0000-0000-00000000b002", UserID: pendingID, Status: domain.ProfileStatusPending},
		},
		activities: map[string]*domain.Activity{
			openID:      activity(openID, employeeID, -1, 1, true),
			expiredID:   activity(expiredID, employeeID, -10, -5, true),
			hiddenID:    activity(hiddenID, employeeID, -1, 1, false),
			corruptID:   activity(corruptID, employeeID, -1, 1, true),
			pendingWork: activity(pendingWork, pendingID, -1, 1, true),
		},
	}
	s.activities[corruptID].StartDate = "1403/13/40"
	return s
}

type testServer struct {
	app     *fiber.App
	tokens  *auth.TokenManager
	store   *store
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := newStore()
	logger := zap.NewNop()
	v := validation.New()
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager("router-test", time.Hour)

	activities := service.NewActivityService(service.ActivityDependencies{
		ActivityRepo: activityRepo{s},
		Tx:           inlineTx{},
		Location:     tehran,
	})
	profiles := service.NewProfileService(service.ProfileDependencies{})
	users := service.NewUserService(service.UserDependencies{})
	conversations := service.NewConversationService(service.ConversationDependencies{})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:        handlers.NewHealthHandler("activity-desk", goversion.Info{GitVersion: "test"}, map[string]handlers.Pinger{"postgres": pingOK{}}, metrics),
		Auth:          handlers.NewAuthHandler(service.NewAuthService(service.AuthDependencies{TokenManager: tokens}), profiles, v),
		Users:         handlers.NewUsersHandler(users, profiles, activities, v),
		Profiles:      handlers.NewProfilesHandler(profiles, v),
		Activities:    handlers.NewActivitiesHandler(activities, v),
		Dashboards:    handlers.NewDashboardHandler(service.NewDashboardService(nil, nil, nil)),
		Tickets:       handlers.NewTicketsHandler(conversations, v),
		Chat:          handlers.NewChatHandler(conversations, v),
		Authenticator: auth.NewAuthenticator(tokens, nil, s, logger),
		Gatekeeper:    auth.NewGatekeeper(s, tehran),
	})
	return &testServer{app: app, tokens: tokens, store: s, metrics: metrics}
}

type envelope struct {
	Data  map[string]any `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path, userID, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID != "" {
		token, _, err := ts.tokens.GenerateToken(ts.store.users[userID])
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestEmployeeCompletesOwnActivityOnce(t *testing.T) {
	ts := newTestServer(t)
	path := "/employee/activities/" + openID + "/is-completed"

	status, env := ts.do(t, http.MethodPost, path, employeeID, "")
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	assert.Equal(t, true, env.Data["is_completed"])
	assert.NotNil(t, env.Data["completed_at"])

	status, env = ts.do(t, http.MethodPost, path, employeeID, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)
}

func TestEmployeeCompletionGuardChain(t *testing.T) {
	ts := newTestServer(t)

	cases := map[string]struct {
		user       string
		activityID string
		status     int
		code       string
		message    string
	}{
		"anonymous":            {"", openID, http.StatusUnauthorized, "UNAUTHORIZED", "ابتدا باید وارد شوید."},
		"wrong role":           {managerID, openID, http.StatusForbidden, "FORBIDDEN", "شما دسترسی لازم را ندارید."},
		"not the owner":        {pendingID, openID, http.StatusForbidden, "FORBIDDEN", "شما صاحب این فعالیت نیستید."},
		"hidden activity":      {employeeID, hiddenID, http.StatusForbidden, "FORBIDDEN", "این فعالیت مخفی است."},
		"profile not approved": {pendingID, pendingWork, http.StatusForbidden, "FORBIDDEN", "پروفایل شما تایید نشده است."},
		"outside window":       {employeeID, expiredID, http.StatusForbidden, "FORBIDDEN", "این فعالیت در بازه زمانی معتبر نیست."},
		"corrupt stored date":  {employeeID, corruptID, http.StatusUnprocessableEntity, "INVALID_STORED_DATE", ""},
		"unknown activity":     {employeeID, missingID, http.StatusNotFound, "NOT_FOUND", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			status, env := ts.do(t, http.MethodPost, "/employee/activities/"+tc.activityID+"/is-completed", tc.user, "")
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, env.Error.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, env.Error.Message)
			}
		})
	}

	for id, a := range ts.store.activities {
		assert.False(t, a.IsCompleted, id)
	}
}

func TestManagerCompletesEmployeeActivity(t *testing.T) {
	ts := newTestServer(t)
	path := "/manager/activities/employee/" + hiddenID + "/is-completed"

	status, env := ts.do(t, http.MethodPost, path, otherMgrID, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "این فعالیت مربوط به کارمند شما نیست.", env.Error.Message)

	status, env = ts.do(t, http.MethodPost, path, managerID, "")
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	assert.Equal(t, true, env.Data["is_completed"])

	status, _ = ts.do(t, http.MethodPost, "/manager/activities/employee/"+expiredID+"/is-completed", managerID, "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestManagerOwnActivityRoutesRequireOwnership(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, http.MethodGet, "/manager/activities/my/"+openID, managerID, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "شما صاحب این فعالیت نیستید.", env.Error.Message)
}

func TestManagerEmployeeDetailGuards(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, http.MethodGet, "/manager/users/"+pendingID, managerID, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "این کارمند پروفایل تایید شده ندارد.", env.Error.Message)

	status, env = ts.do(t, http.MethodGet, "/manager/users/"+employeeID, otherMgrID, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "شما مدیر این کارمند نیستید.", env.Error.Message)
}

func TestMalformedPathIDIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/super-admin/users/not-a-uuid", "/super-admin/activities/1", "/super-admin/profiles/abc"} {
		status, env := ts.do(t, http.MethodGet, path, adminID, "")
		assert.Equal(t, http.StatusNotFound, status, path)
		assert.Equal(t, "NOT_FOUND", env.Error.Code, path)
	}

	status, _ := ts.do(t, http.MethodGet, "/super-admin/users/not-a-uuid", employeeID, "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRequestValidationIsReportedPerField(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, http.MethodPost, "/login", "", `{"username":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "username")
	assert.Contains(t, env.Error.Details, "password")

	status, env = ts.do(t, http.MethodPost, "/employee/tickets", employeeID, `{"user":"not-a-uuid"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error.Details, "user")
}

func TestAuthenticationFailures(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	status, env := ts.do(t, http.MethodGet, "/login", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/login", env.Data["action"])

	status, env = ts.do(t, http.MethodGet, "/login", managerID, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/manager/dashboard", env.Data["redirect"])
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))

	snap := ts.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Errors["/nowhere|GET|NOT_FOUND"])
}
