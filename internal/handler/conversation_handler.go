package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tempandmajor/commonly-sub007/internal/messaging"
	"github.com/tempandmajor/commonly-sub007/pkg/response"
)

type ConversationHandler struct {
	messagingService messaging.Service
}

func NewConversationHandler(messagingService messaging.Service) *ConversationHandler {
	return &ConversationHandler{messagingService: messagingService}
}

type StartConversationRequest struct {
	OtherUserID uuid.UUID `json:"other_user_id"`
}

func (h *ConversationHandler) Start(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv, err := h.messagingService.StartConversation(c.Request.Context(), userID, req.OtherUserID)
	if err != nil {
		if errors.Is(err, messaging.ErrSelfConversation) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to start conversation")
		return
	}
	response.Success(c, conv)
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	convs, err := h.messagingService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "failed to list conversations")
		return
	}
	response.Success(c, convs)
}

func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, convID, ok := h.conversationScope(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	msgs, err := h.messagingService.ListMessages(c.Request.Context(), userID, convID, page)
	if err != nil {
		h.writeConversationError(c, err)
		return
	}
	response.Success(c, msgs)
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, convID, ok := h.conversationScope(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	msg, err := h.messagingService.SendMessage(c.Request.Context(), userID, convID, req.Body)
	if err != nil {
		if errors.Is(err, messaging.ErrEmptyMessage) {
			response.BadRequest(c, err.Error())
			return
		}
		h.writeConversationError(c, err)
		return
	}
	response.Success(c, msg)
}

// Stream delivers the conversation's change feed over SSE until the client
// disconnects.
func (h *ConversationHandler) Stream(c *gin.Context) {
	userID, convID, ok := h.conversationScope(c)
	if !ok {
		return
	}

	events, stop, err := h.messagingService.Subscribe(c.Request.Context(), userID, convID)
	if err != nil {
		h.writeConversationError(c, err)
		return
	}
	defer stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("message", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *ConversationHandler) conversationScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return uuid.Nil, uuid.Nil, false
	}
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, convID, true
}

func (h *ConversationHandler) writeConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, messaging.ErrConversationNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, messaging.ErrNotParticipant):
		response.Forbidden(c, err.Error())
	default:
		response.InternalError(c, "conversation operation failed")
	}
}
