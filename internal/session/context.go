// ABOUTME: Session context for tracking identity through request handlers
// ABOUTME: Provides WithSession/FromContext for propagating the login via context

package session

import "context"

// Session holds the authenticated user and their workspace for one request.
// Populated by the middleware and retrieved from context in handlers.
type Session struct {
	User      *User
	Workspace *Workspace
}

// sessionContextKey is the key type for storing a Session in context.Context.
type sessionContextKey struct{}

// WithSession returns a new context with the Session attached.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext retrieves the Session from the context, returning nil if not present.
func FromContext(ctx context.Context) *Session {
	val := ctx.Value(sessionContextKey{})
	if val == nil {
		return nil
	}
	sess, ok := val.(*Session)
	if !ok {
		return nil
	}
	return sess
}
