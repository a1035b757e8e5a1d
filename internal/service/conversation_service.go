package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/events"
	"github.com/spec-kit/activity-desk/internal/jalali"
	"github.com/spec-kit/activity-desk/internal/lock"
	"github.com/spec-kit/activity-desk/internal/repository"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

const (
	maxMessageLength = 4000
	previewLength    = 120
)

// DayGroup is the messages of one Persian calendar day.
type DayGroup struct {
	Date     string
	Label    string
	Messages []domain.Message
}

// ChatView is a conversation as its thread page shows it.
type ChatView struct {
	Conversation *domain.Conversation
	Days         []DayGroup
	// HasMore reports older messages beyond the window.
	HasMore bool
}

// MessageWindow is an incremental slice of a thread.
type MessageWindow struct {
	Messages []domain.Message
	HasMore  bool
}

// ConversationService resolves tickets and runs their chat threads.
type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	tx            repository.TxRunner
	locker        lock.Locker
	dispatcher    events.Dispatcher
	location      *time.Location
	pageSize      int
	logger        *zap.Logger
}

// ConversationDependencies bundles collaborators for the conversation service.
type ConversationDependencies struct {
	ConversationRepo repository.ConversationRepository
	MessageRepo      repository.MessageRepository
	UserRepo         repository.UserRepository
	Tx               repository.TxRunner
	// Locker may be nil; the pair_key unique index still decides races.
	Locker     lock.Locker
	Dispatcher events.Dispatcher
	Location   *time.Location
	PageSize   int
	Logger     *zap.Logger
}

// NewConversationService builds the service.
func NewConversationService(deps ConversationDependencies) *ConversationService {
	s := &ConversationService{
		conversations: deps.ConversationRepo,
		messages:      deps.MessageRepo,
		users:         deps.UserRepo,
		tx:            deps.Tx,
		locker:        deps.Locker,
		dispatcher:    deps.Dispatcher,
		location:      deps.Location,
		pageSize:      deps.PageSize,
		logger:        deps.Logger,
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.pageSize <= 0 {
		s.pageSize = repository.DefaultMessagePage
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// FindOrCreate returns the conversation whose participants are exactly a and
// b, creating it when none exists. Concurrent calls for the same pair agree
// on one conversation.
func (s *ConversationService) FindOrCreate(ctx context.Context, a, b string) (*domain.Conversation, bool, error) {
	if a == "" || b == "" || a == b {
		return nil, false, apperrors.NewFieldError("user", "گفتگو باید بین دو کاربر متفاوت باشد.")
	}
	key := domain.PairKey(a, b)

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, key)
		switch {
		case err == nil:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.logger.Warn("release pair lock", zap.String("pair_key", key), zap.Error(err))
				}
			}()
		case ctx.Err() != nil:
			return nil, false, ctx.Err()
		default:
			s.logger.Warn("pair lock unavailable, relying on unique index",
				zap.String("pair_key", key), zap.Error(err))
		}
	}

	var (
		conversation *domain.Conversation
		created      bool
	)
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.conversations.FindByPairKey(ctx, tx, key)
		if err == nil {
			conversation = existing
			return nil
		}
		if !apperrors.IsNoRows(err) {
			return err
		}

		legacy, err := s.conversations.FindExactPair(ctx, tx, a, b)
		switch {
		case err == nil:
			claimed, err := s.conversations.ClaimPairKey(ctx, tx, legacy.ID, key)
			if err != nil {
				return err
			}
			if claimed {
				legacy.PairKey = &key
				conversation = legacy
				return nil
			}
			// Someone keyed another thread for this pair meanwhile.
			conversation, err = s.conversations.FindByPairKey(ctx, tx, key)
			if apperrors.IsNoRows(err) {
				conversation, err = legacy, nil
			}
			return err
		case !apperrors.IsNoRows(err):
			return err
		}

		fresh, inserted, err := s.conversations.InsertPair(ctx, tx, key)
		if err != nil {
			return err
		}
		if !inserted {
			conversation, err = s.conversations.FindByPairKey(ctx, tx, key)
			return err
		}
		if err := s.conversations.AddParticipants(ctx, tx, fresh.ID, a, b); err != nil {
			return err
		}
		conversation, err = s.conversations.GetByID(ctx, tx, fresh.ID)
		created = err == nil
		return err
	})
	if err != nil {
		return nil, false, apperrors.MapError(err)
	}

	if created {
		publish(ctx, s.dispatcher, events.New(events.EventConversationOpened, conversation.ID, a,
			events.ConversationOpenedPayload{ParticipantIDs: []string{a, b}}))
	}
	return conversation, created, nil
}

// TicketTargets lists the users actor may open a ticket with.
func (s *ConversationService) TicketTargets(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	users, err := s.users.List(ctx, nil, repository.TicketTargets(actor), repository.UserFilter{Limit: 1000})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// OpenTicket finds or creates actor's conversation with targetID, provided
// targetID is one of actor's ticket targets.
func (s *ConversationService) OpenTicket(ctx context.Context, actor *domain.User, targetID string) (*domain.Conversation, error) {
	targets, err := s.users.List(ctx, nil, repository.TicketTargets(actor), repository.UserFilter{IDs: []string{targetID}, Limit: 1})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(targets) == 0 {
		return nil, apperrors.NewFieldError("user", "امکان ارسال تیکت به این کاربر وجود ندارد.")
	}
	conversation, _, err := s.FindOrCreate(ctx, actor.ID, targetID)
	return conversation, err
}

// ListTickets lists the conversations viewer takes part in, newest activity first.
func (s *ConversationService) ListTickets(ctx context.Context, viewer *domain.User, filter repository.ConversationFilter) ([]domain.ConversationSummary, error) {
	items, err := s.conversations.ListSummaries(ctx, nil, repository.ParticipantConversations(viewer.ID), viewer.ID, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// UnseenCount counts messages addressed to userID that nobody has opened.
func (s *ConversationService) UnseenCount(ctx context.Context, userID string) (int, error) {
	count, err := s.conversations.UnseenCount(ctx, nil, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// Chat opens a thread: the newest page of messages grouped by day. Messages
// from others are marked seen when the viewer is a participant.
func (s *ConversationService) Chat(ctx context.Context, viewer *domain.User, conversationID string) (*ChatView, error) {
	view := &ChatView{}
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		conversation, err := s.conversations.GetByID(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		view.Conversation = conversation

		messages, more, err := s.messages.ListLatest(ctx, tx, conversationID, s.pageSize)
		if err != nil {
			return err
		}
		view.HasMore = more

		if conversation.HasParticipant(viewer.ID) {
			if _, err := s.messages.MarkSeen(ctx, tx, conversationID, viewer.ID); err != nil {
				return err
			}
			for i := range messages {
				if messages[i].UserID != viewer.ID {
					messages[i].Seen = true
				}
			}
		}

		view.Days, err = s.groupByDay(messages)
		return err
	})
	if err != nil {
		return nil, notFoundAs("conversation", conversationID, err)
	}
	return view, nil
}

// Updates returns messages newer than afterID. Without a cursor it returns
// the newest page.
func (s *ConversationService) Updates(ctx context.Context, viewer *domain.User, conversationID, afterID string) (*MessageWindow, error) {
	window := &MessageWindow{}
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		conversation, err := s.conversations.GetByID(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if afterID == "" {
			window.Messages, window.HasMore, err = s.messages.ListLatest(ctx, tx, conversationID, s.pageSize)
		} else {
			if err := s.checkCursor(ctx, tx, conversationID, afterID); err != nil {
				return err
			}
			window.Messages, window.HasMore, err = s.messages.ListAfter(ctx, tx, conversationID, afterID, s.pageSize)
		}
		if err != nil {
			return err
		}
		if conversation.HasParticipant(viewer.ID) && len(window.Messages) > 0 {
			_, err = s.messages.MarkSeen(ctx, tx, conversationID, viewer.ID)
		}
		return err
	})
	if err != nil {
		return nil, notFoundAs("conversation", conversationID, err)
	}
	return window, nil
}

// Older returns the page of messages preceding beforeID.
func (s *ConversationService) Older(ctx context.Context, conversationID, beforeID string) (*MessageWindow, error) {
	if beforeID == "" {
		return nil, apperrors.NewFieldError("before_id", "شناسه پیام الزامی است.")
	}
	if err := s.checkCursor(ctx, nil, conversationID, beforeID); err != nil {
		return nil, err
	}
	messages, more, err := s.messages.ListBefore(ctx, nil, conversationID, beforeID, s.pageSize)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &MessageWindow{Messages: messages, HasMore: more}, nil
}

// Send appends a message from actor to the conversation.
func (s *ConversationService) Send(ctx context.Context, actor *domain.User, conversationID, body string) (*domain.Message, error) {
	body, err := messageBody(body)
	if err != nil {
		return nil, err
	}

	var (
		message    *domain.Message
		recipients []string
	)
	err = s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		conversation, err := s.conversations.GetByID(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		for _, p := range conversation.Participants {
			if p.ID != actor.ID {
				recipients = append(recipients, p.ID)
			}
		}

		m := &domain.Message{ConversationID: conversationID, UserID: actor.ID, Body: body, Author: actor}
		if err := s.messages.Create(ctx, tx, m); err != nil {
			return err
		}
		message = m
		return nil
	})
	if err != nil {
		return nil, notFoundAs("conversation", conversationID, err)
	}

	publish(ctx, s.dispatcher, events.New(events.EventMessageSent, message.ID, actor.ID,
		events.MessageSentPayload{
			ConversationID: conversationID,
			RecipientIDs:   recipients,
			BodyPreview:    stringPreview(body, previewLength),
		}))
	return message, nil
}

// EditMessage replaces a message body.
func (s *ConversationService) EditMessage(ctx context.Context, messageID, body string) (*domain.Message, error) {
	body, err := messageBody(body)
	if err != nil {
		return nil, err
	}
	message, err := s.messages.UpdateBody(ctx, nil, messageID, body)
	if err != nil {
		return nil, notFoundAs("message", messageID, err)
	}
	return message, nil
}

// DeleteMessage removes a message and returns what was deleted.
func (s *ConversationService) DeleteMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	var deleted *domain.Message
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		message, err := s.messages.GetByID(ctx, tx, messageID)
		if err != nil {
			return err
		}
		if err := s.messages.Delete(ctx, tx, messageID); err != nil {
			return err
		}
		deleted = message
		return nil
	})
	if err != nil {
		return nil, notFoundAs("message", messageID, err)
	}
	return deleted, nil
}

func (s *ConversationService) checkCursor(ctx context.Context, tx pgx.Tx, conversationID, messageID string) error {
	cursor, err := s.messages.GetByID(ctx, tx, messageID)
	if err != nil {
		return notFoundAs("message", messageID, err)
	}
	if cursor.ConversationID != conversationID {
		return apperrors.NewNotFound("message", map[string]any{"id": messageID})
	}
	return nil
}

func (s *ConversationService) groupByDay(messages []domain.Message) ([]DayGroup, error) {
	var days []DayGroup
	for _, m := range messages {
		d, err := jalali.ToPersian(m.CreatedAt.In(s.location))
		if err != nil {
			return nil, err
		}
		key := d.String()
		if n := len(days); n == 0 || days[n-1].Date != key {
			days = append(days, DayGroup{Date: key, Label: d.Label()})
		}
		days[len(days)-1].Messages = append(days[len(days)-1].Messages, m)
	}
	return days, nil
}

func messageBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apperrors.NewFieldError("body", "متن پیام نمی‌تواند خالی باشد.")
	}
	if len([]rune(body)) > maxMessageLength {
		return "", apperrors.NewFieldError("body", "متن پیام بیش از حد طولانی است.")
	}
	return body, nil
}

func notFoundAs(resource, id string, err error) error {
	if apperrors.IsNoRows(err) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}
