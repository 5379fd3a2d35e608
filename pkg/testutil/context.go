package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	id "meshgov/pkg/domain"
	"meshgov/pkg/requestcontext"
)

// ContextWithActor returns a context carrying a fresh actor identity and a
// fixed request time, matching what the HTTP middleware chain would set up.
func ContextWithActor(t *testing.T, at time.Time) (context.Context, id.UserID) {
	t.Helper()
	actor := id.UserID(uuid.New())
	ctx := requestcontext.WithActorID(context.Background(), actor)
	ctx = requestcontext.WithTime(ctx, at)
	ctx = requestcontext.WithRequestID(ctx, uuid.NewString())
	return ctx, actor
}
