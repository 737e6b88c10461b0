package common

import "context"

type contextKey int

const customerIDKey contextKey = iota

// WithUserID tags the context with the customer identity resolved at the
// edge. The API trusts the proxy header; there is no credential check here.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, customerIDKey, id)
}

// UserID returns the customer id carried by the context, if any.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(customerIDKey).(string)
	return id, ok && id != ""
}
