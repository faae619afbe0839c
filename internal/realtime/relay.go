package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"overseas-housing/internal/domain"
)

const RelayChannel = "housing:chat:messages"

type relayEnvelope struct {
	Node    string         `json:"node"`
	Message domain.Message `json:"message"`
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisRelay replica los mensajes entre procesos: entrega localmente y publica
// un sobre en Redis para que los demás nodos lo entreguen a sus propias salas.
type RedisRelay struct {
	hub       *Hub
	client    *redis.Client
	publisher redisPublisher
	node      string
	logger    *zap.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewRedisRelay(client *redis.Client, hub *Hub, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &RedisRelay{
		hub:    hub,
		client: client,
		node:   uuid.NewString(),
		logger: logger,

		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	if client != nil {
		r.publisher = client
	}
	return r
}

func (r *RedisRelay) Node() string { return r.node }

// PublishMessage implementa service.MessagePublisher.
func (r *RedisRelay) PublishMessage(ctx context.Context, msg domain.Message) {
	r.hub.PublishMessage(ctx, msg)
	if r.publisher == nil {
		return
	}

	payload, err := json.Marshal(relayEnvelope{Node: r.node, Message: msg})
	if err != nil {
		r.logger.Error("encode relay envelope", zap.Error(err))
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, RelayChannel, payload).Err(); err != nil {
		// best effort: los clientes locales ya recibieron el mensaje
		r.logger.Warn("relay publish failed", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

// Run se suscribe al canal y reenvía al hub local los mensajes de otros nodos hasta que ctx termine.
// Si Redis no responde o la suscripción se corta, reintenta con backoff exponencial.
func (r *RedisRelay) Run(ctx context.Context) error {
	if r.client == nil {
		return errors.New("redis relay without client")
	}
	backoff := r.minBackoff
	for {
		subscribed, err := r.subscribe(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if subscribed {
			backoff = r.minBackoff
		}
		r.logger.Warn("realtime relay subscription lost",
			zap.String("channel", RelayChannel),
			zap.Duration("retry_in", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, r.maxBackoff)
	}
}

// subscribe atiende una suscripción hasta que se corta. subscribed indica si Redis llegó a confirmarla.
func (r *RedisRelay) subscribe(ctx context.Context) (subscribed bool, err error) {
	sub := r.client.Subscribe(ctx, RelayChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return false, err
	}
	r.logger.Info("realtime relay subscribed", zap.String("channel", RelayChannel), zap.String("node", r.node))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return true, errors.New("relay channel closed")
			}
			r.handle(m.Payload)
		}
	}
}

func (r *RedisRelay) handle(payload string) int {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.Warn("invalid relay envelope", zap.Error(err))
		return 0
	}
	if env.Node == r.node || env.Message.ConversationID == "" {
		return 0
	}
	return r.hub.deliver(env.Message)
}
