package middleware

import "context"

type contextKey string

const (
	ctxActorID       contextKey = "actor_id"
	ctxDistributorID contextKey = "distributor_id"
)

func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

func DistributorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxDistributorID).(string); ok {
		return v
	}
	return ""
}

// WithActorID injects the acting user identifier into the context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActorID, actorID)
}

// WithDistributorID injects the distributor scope into the context for
// downstream handlers.
func WithDistributorID(ctx context.Context, distributorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxDistributorID, distributorID)
}
