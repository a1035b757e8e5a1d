package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-desk/internal/api/dto"
	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/repository"
	"github.com/spec-kit/activity-desk/internal/service"
	"github.com/spec-kit/activity-desk/pkg/validation"
)

// TicketsHandler lists a caller's tickets and opens new ones. It is mounted
// under every role prefix; the role decides who may be addressed.
type TicketsHandler struct {
	conversations *service.ConversationService
	validator     *validation.Validator
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(conversations *service.ConversationService, v *validation.Validator) *TicketsHandler {
	return &TicketsHandler{conversations: conversations, validator: v}
}

// List handles GET /{role}/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	p := parsePage(c)

	tickets, err := h.conversations.ListTickets(ctx, actor, repository.ConversationFilter{Limit: p.limit(), Offset: p.offset()})
	if err != nil {
		return err
	}
	targets, err := h.conversations.TicketTargets(ctx, actor)
	if err != nil {
		return err
	}

	resp := dto.TicketListResponse{
		Tickets: make([]dto.TicketSummary, 0, len(tickets)),
		Targets: userResponses(targets),
	}
	for i := range tickets {
		resp.Tickets = append(resp.Tickets, ticketSummary(&tickets[i], actor.ID))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Create handles POST /{role}/tickets. An existing thread with the same user
// is reused.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.TicketCreateRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	conversation, err := h.conversations.OpenTicket(c.UserContext(), actor, req.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":       conversation.ID,
		"redirect": "/chats/" + conversation.ID,
	}})
}

func ticketSummary(summary *domain.ConversationSummary, viewerID string) dto.TicketSummary {
	resp := dto.TicketSummary{
		ID:            summary.ID,
		Participants:  userResponses(summary.Participants),
		UnseenCount:   summary.UnseenCount,
		LastMessageAt: summary.LastMessageAt,
	}
	if other := summary.Counterpart(viewerID); other != nil {
		counterpart := userResponse(other)
		resp.Counterpart = &counterpart
	}
	return resp
}
