package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"overseas-housing/internal/realtime"
	"overseas-housing/internal/service"
)

const (
	socketReadTimeout = 60 * time.Second
	socketReadLimit   = 64 << 10
)

// SocketHandler atiende el canal en tiempo real: join, leave y message.
type SocketHandler struct {
	logger          *zap.Logger
	jwtServ         *service.JWTService
	convSrv         *service.ConversationService
	hub             *realtime.Hub
	upgrader        websocket.Upgrader
	inflightTimeout time.Duration
}

func NewSocketHandler(
	logger *zap.Logger,
	jwtServ *service.JWTService,
	convSrv *service.ConversationService,
	hub *realtime.Hub,
	allowedOrigins []string,
) *SocketHandler {
	return &SocketHandler{
		logger:  logger,
		jwtServ: jwtServ,
		convSrv: convSrv,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		inflightTimeout: 5 * time.Second,
	}
}

// originChecker acepta cualquier origen si la lista está vacía.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		if len(set) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	AckID          string `json:"ackId,omitempty"`
}

type roomFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

type errorFrame struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

type ackFrame struct {
	Type    string `json:"type"`
	AckID   string `json:"ackId,omitempty"`
	OK      bool   `json:"ok"`
	Message any    `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handle maneja GET /api/ws. El token llega en Authorization o en ?token=.
func (h *SocketHandler) Handle(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = strings.TrimSpace(c.Query("token"))
	}
	if token == "" {
		abortWithError(c, http.StatusUnauthorized, codeUnauthorized, msgUnauthorized)
		return
	}
	claims, err := h.jwtServ.ParseAccessToken(token)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, codeUnauthorized, msgInvalidToken)
		return
	}
	identity := claims.Identity()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade ya escribió la respuesta.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := realtime.NewConnection(identity.ID, ws)
	h.hub.Attach(conn)
	conn.Start()
	h.logger.Info("socket connected", zap.String("user_id", identity.ID), zap.String("session_id", conn.ID()))
	defer func() {
		h.hub.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "session closed")
		h.logger.Info("socket disconnected", zap.String("user_id", identity.ID), zap.String("session_id", conn.ID()))
	}()

	ws.SetReadLimit(socketReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
	})

	ctx := c.Request.Context()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				h.logger.Debug("socket read failed", zap.String("session_id", conn.ID()), zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(socketReadTimeout))

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.send(conn, errorFrame{Type: "error", Message: "Invalid payload"})
			continue
		}

		switch frame.Type {
		case "join":
			h.handleJoin(ctx, conn, frame)
		case "leave":
			h.handleLeave(conn, frame)
		case "message":
			h.handleMessage(ctx, conn, frame)
		default:
			h.send(conn, errorFrame{Type: "error", Message: "Unknown frame type"})
		}
	}
}

func (h *SocketHandler) handleJoin(ctx context.Context, conn realtime.Subscriber, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(ctx, h.inflightTimeout)
	defer cancel()

	if err := h.convSrv.AuthorizeJoin(ctx, frame.ConversationID, conn.UserID()); err != nil {
		_, _, message := classifyError(err)
		h.logFailure("join", conn, frame, err)
		h.send(conn, errorFrame{Type: "error", Message: message, ConversationID: frame.ConversationID})
		return
	}
	if !h.hub.Join(frame.ConversationID, conn) {
		// la sesión ya no está registrada en el hub (desconexión en curso)
		h.send(conn, errorFrame{Type: "error", Message: "Session is not connected", ConversationID: frame.ConversationID})
		return
	}
	h.send(conn, roomFrame{Type: "joined", ConversationID: frame.ConversationID})
}

func (h *SocketHandler) handleLeave(conn realtime.Subscriber, frame inboundFrame) {
	h.hub.Leave(frame.ConversationID, conn)
	h.send(conn, roomFrame{Type: "left", ConversationID: frame.ConversationID})
}

// handleMessage delega en ConversationService.CreateMessage, que persiste y difunde a la sala.
func (h *SocketHandler) handleMessage(ctx context.Context, conn realtime.Subscriber, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(ctx, h.inflightTimeout)
	defer cancel()

	msg, err := h.convSrv.CreateMessage(ctx, frame.ConversationID, conn.UserID(), frame.Text)
	if err != nil {
		_, code, message := classifyError(err)
		h.logFailure("message", conn, frame, err)
		h.send(conn, ackFrame{Type: "ack", AckID: frame.AckID, OK: false, Message: message, Error: code})
		h.send(conn, errorFrame{Type: "error", Message: message, ConversationID: frame.ConversationID})
		return
	}
	h.send(conn, ackFrame{Type: "ack", AckID: frame.AckID, OK: true, Message: msg})
}

func (h *SocketHandler) logFailure(op string, conn realtime.Subscriber, frame inboundFrame, err error) {
	status, _, _ := classifyError(err)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("user_id", conn.UserID()),
		zap.String("conversation_id", frame.ConversationID),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("socket event failed", fields...)
		return
	}
	h.logger.Debug("socket event rejected", fields...)
}

func (h *SocketHandler) send(conn realtime.Subscriber, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("encode socket frame", zap.Error(err))
		return
	}
	_ = conn.Send(payload)
}
