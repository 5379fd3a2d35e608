// Package notify dispatches owner notifications for access lifecycle events.
// Dispatch is fire-and-forget: callers never wait on delivery and a failed
// publish only logs.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "meshgov/pkg/domain"
)

// Event describes something a product owner should hear about.
type Event struct {
	Kind      string       `json:"kind"`
	ProductID id.ProductID `json:"product_id"`
	OwnerID   id.UserID    `json:"owner_id"`
	SubjectID string       `json:"subject_id"`
	ActorID   id.UserID    `json:"actor_id"`
	Message   string       `json:"message"`
}

const (
	KindRequestSubmitted = "access_request_submitted"
	KindRequestApproved  = "access_request_approved"
	KindRequestDenied    = "access_request_denied"
	KindGrantRevoked     = "access_grant_revoked"
)

// Notifier delivers owner notifications.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// LogNotifier writes notifications to the structured log. Default when no
// Redis URL is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) {
	n.logger.InfoContext(ctx, "owner notification",
		"kind", event.Kind,
		"product_id", event.ProductID,
		"owner_id", event.OwnerID,
		"subject_id", event.SubjectID,
	)
}

// RedisNotifier publishes notifications on a Redis channel for out-of-process
// delivery workers.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
	timeout time.Duration
}

func NewRedisNotifier(client *redis.Client, channel string, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: channel,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

func (n *RedisNotifier) Notify(ctx context.Context, event Event) {
	// Detach from the request context: the caller's request may already be
	// finished by the time the publish happens.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to encode notification", "error", err)
		return
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.WarnContext(ctx, "failed to publish notification",
			"channel", n.channel,
			"kind", event.Kind,
			"error", err,
		)
	}
}
