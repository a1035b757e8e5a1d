package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-desk/internal/api/dto"
	"github.com/spec-kit/activity-desk/internal/service"
	"github.com/spec-kit/activity-desk/pkg/validation"
)

// ChatHandler runs ticket threads.
type ChatHandler struct {
	conversations *service.ConversationService
	validator     *validation.Validator
}

// NewChatHandler constructs handler.
func NewChatHandler(conversations *service.ConversationService, v *validation.Validator) *ChatHandler {
	return &ChatHandler{conversations: conversations, validator: v}
}

// UnseenCount handles GET /chats/unseen-count.
func (h *ChatHandler) UnseenCount(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	count, err := h.conversations.UnseenCount(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unseen_count": count}})
}

// Show handles GET /chats/:id.
func (h *ChatHandler) Show(c *fiber.Ctx) error {
	viewer, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := h.conversations.Chat(c.UserContext(), viewer, c.Params("id"))
	if err != nil {
		return err
	}

	resp := dto.ChatResponse{
		ID:           view.Conversation.ID,
		Participants: userResponses(view.Conversation.Participants),
		Days:         make([]dto.DayGroupResponse, 0, len(view.Days)),
		HasMore:      view.HasMore,
	}
	for _, day := range view.Days {
		resp.Days = append(resp.Days, dto.DayGroupResponse{
			Date:     day.Date,
			Label:    day.Label,
			Messages: messageResponses(day.Messages),
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Updates handles GET /chats/:id/updates?after_id=.
func (h *ChatHandler) Updates(c *fiber.Ctx) error {
	viewer, err := currentUser(c)
	if err != nil {
		return err
	}
	afterID, err := uuidQuery(c, "after_id")
	if err != nil {
		return err
	}
	window, err := h.conversations.Updates(c.UserContext(), viewer, c.Params("id"), afterID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": windowResponse(window)})
}

// Older handles GET /chats/:id/older?before_id=.
func (h *ChatHandler) Older(c *fiber.Ctx) error {
	beforeID, err := uuidQuery(c, "before_id")
	if err != nil {
		return err
	}
	window, err := h.conversations.Older(c.UserContext(), c.Params("id"), beforeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": windowResponse(window)})
}

// Send handles POST /chats/:id/add.
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MessageRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	message, err := h.conversations.Send(c.UserContext(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": messageResponse(message)})
}

// Edit handles POST /chats/message/:id/edit.
func (h *ChatHandler) Edit(c *fiber.Ctx) error {
	var req dto.MessageRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	message, err := h.conversations.EditMessage(c.UserContext(), c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": messageResponse(message)})
}

// Delete handles POST /chats/message/:id/delete.
func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	message, err := h.conversations.DeleteMessage(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":       message.ID,
		"redirect": "/chats/" + message.ConversationID,
	}})
}

func windowResponse(window *service.MessageWindow) dto.MessageWindowResponse {
	return dto.MessageWindowResponse{
		Messages: messageResponses(window.Messages),
		HasMore:  window.HasMore,
	}
}
