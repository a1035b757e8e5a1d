package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/events"
	"github.com/spec-kit/activity-desk/internal/lock"
	"github.com/spec-kit/activity-desk/internal/repository"
	"github.com/spec-kit/activity-desk/internal/storage"
)

var errInjected = errors.New("injected failure")

// memStore backs every fake repository. Role scopes are recognised by
// comparing them with the scope constructors and then applied in Go.
type memStore struct {
	mu            sync.Mutex
	seq           int
	clock         time.Time
	users         map[string]*domain.User
	profiles      map[string]*domain.Profile
	activities    map[string]*domain.Activity
	conversations map[string]*memConversation
	messages      []*domain.Message

	failActivityFor map[string]bool
}

type memConversation struct {
	id           string
	pairKey      *string
	participants []string
	createdAt    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		clock:           time.Date(2024, 9, 22, 8, 0, 0, 0, time.UTC),
		users:           map[string]*domain.User{},
		profiles:        map[string]*domain.Profile{},
		activities:      map[string]*domain.Activity{},
		conversations:   map[string]*memConversation{},
		failActivityFor: map[string]bool{},
	}
}

func (s *memStore) nextID() string {
	s.seq++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", s.seq)
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *memStore) addUser(username string, role domain.Role, managerID string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: s.nextID(), Username: username, FirstName: username, LastName: "Test", Role: role, CreatedAt: s.tick()}
	if managerID != "" {
		u.ManagerID = null.StringFrom(managerID)
	}
	s.users[u.ID] = u
	copied := *u
	return &copied
}

func (s *memStore) addProfile(userID string, status domain.ProfileStatus) *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Profile{
		ID: s.nextID(), UserID: userID, NationalCode: userID[len(userID)-10:], PhoneNumber: "0912" + userID[len(userID)-7:],
		Birthdate: "1370/01/01", NationalCard: "national_cards/old.png", Status: status,
	}
	s.profiles[p.ID] = p
	copied := *p
	return &copied
}

func (s *memStore) addConversation(pairKey *string, participants ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &memConversation{id: s.nextID(), pairKey: pairKey, participants: participants, createdAt: s.tick()}
	s.conversations[c.id] = c
	return c.id
}

func (s *memStore) addMessage(conversationID, userID, body string, at time.Time) *domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &domain.Message{ID: s.nextID(), ConversationID: conversationID, UserID: userID, Body: body, CreatedAt: at, UpdatedAt: at}
	s.messages = append(s.messages, m)
	copied := *m
	return &copied
}

func (s *memStore) profileOf(userID string) *domain.Profile {
	for _, p := range s.profiles {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (s *memStore) userInScope(scope sq.Sqlizer, u *domain.User) bool {
	if reflect.DeepEqual(scope, repository.Unscoped()) {
		return true
	}
	if u.ManagerID.Valid && reflect.DeepEqual(scope, repository.ManagedEmployees(u.ManagerID.String)) {
		return u.Role == domain.RoleEmployee && s.profileOf(u.ID).Approved()
	}
	for _, actor := range s.users {
		if reflect.DeepEqual(scope, repository.TicketTargets(actor)) {
			return isTicketTarget(actor, u)
		}
	}
	return false
}

func isTicketTarget(actor, u *domain.User) bool {
	if u.ID == actor.ID {
		return false
	}
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return true
	case domain.RoleManager:
		return u.Role == domain.RoleSuperAdmin || (u.Role == domain.RoleEmployee && u.ManagedBy(actor.ID))
	case domain.RoleEmployee:
		return u.Role == domain.RoleSuperAdmin || (actor.ManagerID.Valid && u.ID == actor.ManagerID.String)
	}
	return false
}

func (s *memStore) activityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activities)
}

func (s *memStore) conversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// memTx rolls activity writes back when fn fails.
type memTx struct{ store *memStore }

func (t memTx) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	t.store.mu.Lock()
	snapshot := make(map[string]*domain.Activity, len(t.store.activities))
	for id, a := range t.store.activities {
		copied := *a
		snapshot[id] = &copied
	}
	t.store.mu.Unlock()

	err := fn(nil)
	if err != nil {
		t.store.mu.Lock()
		t.store.activities = snapshot
		t.store.mu.Unlock()
	}
	return err
}

type memUsers struct{ store *memStore }

func (r memUsers) Create(_ context.Context, _ pgx.Tx, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
		}
	}
	user.ID = s.nextID()
	user.CreatedAt = s.tick()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (r memUsers) Update(_ context.Context, _ pgx.Tx, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (r memUsers) Delete(_ context.Context, _ pgx.Tx, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.users, id)
	return nil
}

func (r memUsers) GetByID(_ context.Context, _ pgx.Tx, id string) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r memUsers) GetByUsername(_ context.Context, _ pgx.Tx, username string) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memUsers) List(_ context.Context, _ pgx.Tx, scope sq.Sqlizer, filter repository.UserFilter) ([]domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.User
	for _, u := range s.users {
		if !s.userInScope(scope, u) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if len(filter.IDs) > 0 && !contains(filter.IDs, u.ID) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) Count(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, filter repository.UserFilter) (int, error) {
	users, err := r.List(ctx, tx, scope, filter)
	return len(users), err
}

func (r memUsers) DetachEmployees(_ context.Context, _ pgx.Tx, managerID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ManagedBy(managerID) {
			u.ManagerID = null.String{}
		}
	}
	return nil
}

type memProfiles struct{ store *memStore }

func (r memProfiles) Create(_ context.Context, _ pgx.Tx, profile *domain.Profile) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.uniqueProfile(profile); err != nil {
		return err
	}
	profile.ID = s.nextID()
	copied := *profile
	s.profiles[profile.ID] = &copied
	return nil
}

func (r memProfiles) Update(_ context.Context, _ pgx.Tx, profile *domain.Profile) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	if err := s.uniqueProfile(profile); err != nil {
		return err
	}
	copied := *profile
	s.profiles[profile.ID] = &copied
	return nil
}

func (s *memStore) uniqueProfile(profile *domain.Profile) error {
	for _, p := range s.profiles {
		if p.ID == profile.ID {
			continue
		}
		switch {
		case p.UserID == profile.UserID:
			return &pgconn.PgError{Code: "23505", ConstraintName: "profiles_user_id_key"}
		case p.NationalCode == profile.NationalCode:
			return &pgconn.PgError{Code: "23505", ConstraintName: "profiles_national_code_key"}
		case p.PhoneNumber == profile.PhoneNumber:
			return &pgconn.PgError{Code: "23505", ConstraintName: "profiles_phone_number_key"}
		}
	}
	return nil
}

func (r memProfiles) GetByID(_ context.Context, _ pgx.Tx, id string) (*domain.ProfileWithUser, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := &domain.ProfileWithUser{Profile: *p}
	if u, ok := s.users[p.UserID]; ok {
		out.User = *u
	}
	return out, nil
}

func (r memProfiles) GetByUserID(_ context.Context, _ pgx.Tx, userID string) (*domain.Profile, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.profileOf(userID); p != nil {
		copied := *p
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memProfiles) List(_ context.Context, _ pgx.Tx, filter repository.ProfileFilter) ([]domain.ProfileWithUser, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ProfileWithUser
	for _, p := range s.profiles {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, domain.ProfileWithUser{Profile: *p})
	}
	return out, nil
}

func (r memProfiles) Count(ctx context.Context, tx pgx.Tx, filter repository.ProfileFilter) (int, error) {
	items, err := r.List(ctx, tx, filter)
	return len(items), err
}

type memActivities struct{ store *memStore }

func (r memActivities) Create(_ context.Context, _ pgx.Tx, activity *domain.Activity) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failActivityFor[activity.UserID] {
		return errInjected
	}
	activity.ID = s.nextID()
	activity.CreatedAt = s.tick()
	copied := *activity
	s.activities[activity.ID] = &copied
	return nil
}

func (r memActivities) Update(_ context.Context, _ pgx.Tx, activity *domain.Activity) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[activity.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *activity
	s.activities[activity.ID] = &copied
	return nil
}

func (r memActivities) Delete(_ context.Context, _ pgx.Tx, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.activities, id)
	return nil
}

func (r memActivities) GetByID(_ context.Context, _ pgx.Tx, id string) (*domain.ActivityWithUsers, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s.withUsers(a), nil
}

func (s *memStore) withUsers(a *domain.Activity) *domain.ActivityWithUsers {
	out := &domain.ActivityWithUsers{Activity: *a}
	if u, ok := s.users[a.UserID]; ok {
		out.Assignee = *u
	}
	if u, ok := s.users[a.CreatorID]; ok {
		out.Creator = *u
	}
	return out
}

func (r memActivities) MarkCompleted(_ context.Context, _ pgx.Tx, id string, at time.Time) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok || a.IsCompleted {
		return false, nil
	}
	a.IsCompleted = true
	a.CompletedAt = &at
	return true, nil
}

// List ignores scope; activity scoping is covered by the query builder tests.
func (r memActivities) List(_ context.Context, _ pgx.Tx, _ sq.Sqlizer, filter repository.ActivityFilter) ([]domain.ActivityWithUsers, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.ActivityWithUsers
	for _, a := range s.activities {
		all = append(all, *s.withUsers(a))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r memActivities) Count(_ context.Context, _ pgx.Tx, _ sq.Sqlizer, _ repository.ActivityFilter) (int, error) {
	return r.store.activityCount(), nil
}

type memConversations struct{ store *memStore }

func (r memConversations) build(c *memConversation) *domain.Conversation {
	out := &domain.Conversation{ID: c.id, PairKey: c.pairKey, CreatedAt: c.createdAt}
	for _, id := range c.participants {
		if u, ok := r.store.users[id]; ok {
			out.Participants = append(out.Participants, *u)
		}
	}
	return out
}

func (r memConversations) GetByID(_ context.Context, _ pgx.Tx, id string) (*domain.Conversation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.build(c), nil
}

func (r memConversations) FindByPairKey(_ context.Context, _ pgx.Tx, pairKey string) (*domain.Conversation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.pairKey != nil && *c.pairKey == pairKey {
			return r.build(c), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memConversations) FindExactPair(_ context.Context, _ pgx.Tx, a, b string) (*domain.Conversation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *memConversation
	for _, c := range s.conversations {
		if len(c.participants) != 2 || !contains(c.participants, a) || !contains(c.participants, b) {
			continue
		}
		if best == nil || c.createdAt.Before(best.createdAt) {
			best = c
		}
	}
	if best == nil {
		return nil, pgx.ErrNoRows
	}
	return r.build(best), nil
}

func (r memConversations) ClaimPairKey(_ context.Context, _ pgx.Tx, id, pairKey string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.pairKey != nil && *c.pairKey == pairKey {
			return false, nil
		}
	}
	c, ok := s.conversations[id]
	if !ok || c.pairKey != nil {
		return false, nil
	}
	key := pairKey
	c.pairKey = &key
	return true, nil
}

func (r memConversations) InsertPair(_ context.Context, _ pgx.Tx, pairKey string) (*domain.Conversation, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.pairKey != nil && *c.pairKey == pairKey {
			return nil, false, nil
		}
	}
	key := pairKey
	c := &memConversation{id: s.nextID(), pairKey: &key, createdAt: s.tick()}
	s.conversations[c.id] = c
	return r.build(c), true, nil
}

func (r memConversations) AddParticipants(_ context.Context, _ pgx.Tx, conversationID string, userIDs ...string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[conversationID]
	if !ok {
		return pgx.ErrNoRows
	}
	for _, id := range userIDs {
		if !contains(c.participants, id) {
			c.participants = append(c.participants, id)
		}
	}
	return nil
}

func (r memConversations) ListSummaries(_ context.Context, _ pgx.Tx, _ sq.Sqlizer, viewerID string, _ repository.ConversationFilter) ([]domain.ConversationSummary, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ConversationSummary
	for _, c := range s.conversations {
		if !contains(c.participants, viewerID) {
			continue
		}
		summary := domain.ConversationSummary{Conversation: *r.build(c)}
		for _, m := range s.messages {
			if m.ConversationID == c.id && !m.Seen && m.UserID != viewerID {
				summary.UnseenCount++
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (r memConversations) UnseenCount(_ context.Context, _ pgx.Tx, userID string) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, m := range s.messages {
		if c := s.conversations[m.ConversationID]; c != nil && contains(c.participants, userID) && !m.Seen && m.UserID != userID {
			total++
		}
	}
	return total, nil
}

type memMessages struct{ store *memStore }

func (r memMessages) Create(_ context.Context, _ pgx.Tx, message *domain.Message) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	message.ID = s.nextID()
	message.CreatedAt = s.tick()
	message.UpdatedAt = message.CreatedAt
	copied := *message
	s.messages = append(s.messages, &copied)
	return nil
}

func (r memMessages) find(id string) *domain.Message {
	for _, m := range r.store.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r memMessages) GetByID(_ context.Context, _ pgx.Tx, id string) (*domain.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m := r.find(id)
	if m == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *m
	return &copied, nil
}

func (r memMessages) UpdateBody(_ context.Context, _ pgx.Tx, id, body string) (*domain.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m := r.find(id)
	if m == nil {
		return nil, pgx.ErrNoRows
	}
	m.Body = body
	m.UpdatedAt = r.store.tick()
	copied := *m
	return &copied, nil
}

func (r memMessages) Delete(_ context.Context, _ pgx.Tx, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r memMessages) thread(conversationID string) []domain.Message {
	var out []domain.Message
	for _, m := range r.store.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r memMessages) ListLatest(_ context.Context, _ pgx.Tx, conversationID string, limit int) ([]domain.Message, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	all := r.thread(conversationID)
	if len(all) <= limit {
		return all, false, nil
	}
	return all[len(all)-limit:], true, nil
}

func (r memMessages) ListAfter(_ context.Context, _ pgx.Tx, conversationID, afterID string, limit int) ([]domain.Message, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	all := r.thread(conversationID)
	for i := range all {
		if all[i].ID == afterID {
			rest := all[i+1:]
			if len(rest) > limit {
				return rest[:limit], true, nil
			}
			return rest, false, nil
		}
	}
	return nil, false, nil
}

func (r memMessages) ListBefore(_ context.Context, _ pgx.Tx, conversationID, beforeID string, limit int) ([]domain.Message, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	all := r.thread(conversationID)
	for i := range all {
		if all[i].ID == beforeID {
			head := all[:i]
			if len(head) > limit {
				return head[len(head)-limit:], true, nil
			}
			return head, false, nil
		}
	}
	return nil, false, nil
}

func (r memMessages) MarkSeen(_ context.Context, _ pgx.Tx, conversationID, viewerID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, m := range r.store.messages {
		if m.ConversationID == conversationID && m.UserID != viewerID && !m.Seen {
			m.Seen = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) seenFlags(conversationID string) map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]bool{}
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out[m.ID] = m.Seen
		}
	}
	return out
}

// memLocker is an in-process lock per key.
type memLocker struct {
	mu    sync.Mutex
	held  map[string]chan struct{}
	fails bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]chan struct{}{}}
}

func (l *memLocker) Acquire(ctx context.Context, key string) (lock.Release, error) {
	if l.fails {
		return nil, lock.ErrNotAcquired
	}
	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			ch = make(chan struct{})
			l.held[key] = ch
			l.mu.Unlock()
			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(ch)
				})
				return nil
			}, nil
		}
		l.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memFiles struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
	reject  bool
}

func (f *memFiles) Save(file io.Reader, originalName, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	if f.reject {
		return "", fmt.Errorf("wrapped: %w", storage.ErrRejectedFile)
	}
	path := fmt.Sprintf("%s/%d-%s", prefix, len(f.saved)+1, originalName)
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *memFiles) Delete(relativePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, relativePath)
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
