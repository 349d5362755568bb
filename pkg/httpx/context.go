package httpx

import "context"

type ctxKey string

// CtxKeyAdminID is the authenticated admin's ID, set by the auth gate.
const CtxKeyAdminID ctxKey = "admin_id"

// AdminIDFromCtx returns the authenticated admin ID or "".
func AdminIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAdminID).(string); ok {
		return v
	}
	return ""
}

// WithAdmin stores the authenticated admin ID on the context.
func WithAdmin(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, CtxKeyAdminID, adminID)
}
