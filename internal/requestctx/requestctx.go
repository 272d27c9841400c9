package requestctx

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	metaKey      ctxKey = "request_meta"
)

// Meta is client information captured once per request for the audit log.
type Meta struct {
	IP        string
	UserAgent string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey, meta)
}

func MetaFrom(ctx context.Context) Meta {
	if value, ok := ctx.Value(metaKey).(Meta); ok {
		return value
	}
	return Meta{}
}
