package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"overseas-housing/internal/service"
)

// ConversationHandler expone conversaciones y mensajes vía REST.
type ConversationHandler struct {
	logger  *zap.Logger
	convSrv *service.ConversationService
}

func NewConversationHandler(logger *zap.Logger, convSrv *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{logger: logger, convSrv: convSrv}
}

// List maneja GET /api/conversations. ?userId sólo se acepta si coincide con el llamante.
func (h *ConversationHandler) List(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	if requested := strings.TrimSpace(c.Query("userId")); requested != "" && requested != id.ID {
		abortWithError(c, http.StatusForbidden, codeForbidden, "Forbidden")
		return
	}

	convs, err := h.convSrv.ListForUser(c.Request.Context(), id.ID)
	if err != nil {
		writeServiceError(c, h.logger, "list conversations", err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// Get maneja GET /api/conversations/:conversationId.
func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	conv, err := h.convSrv.GetForParticipant(c.Request.Context(), c.Param("conversationId"), id.ID)
	if err != nil {
		writeServiceError(c, h.logger, "get conversation", err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// ListMessages maneja GET /api/conversations/:conversationId/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	msgs, err := h.convSrv.ListMessages(c.Request.Context(), c.Param("conversationId"), id.ID)
	if err != nil {
		writeServiceError(c, h.logger, "list messages", err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// PostMessage maneja POST /api/conversations/:conversationId/messages.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, codeInvalidArgument, service.MsgTextRequired)
		return
	}

	msg, err := h.convSrv.CreateMessage(c.Request.Context(), c.Param("conversationId"), id.ID, req.Text)
	if err != nil {
		writeServiceError(c, h.logger, "create message", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Create maneja POST /api/conversations.
func (h *ConversationHandler) Create(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req struct {
		ParticipantIDs []string `json:"participantIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create conversation request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, codeInvalidArgument, service.MsgTooFewParticipants)
		return
	}

	conv, err := h.convSrv.CreateConversation(c.Request.Context(), id.ID, req.ParticipantIDs)
	if err != nil {
		writeServiceError(c, h.logger, "create conversation", err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}
