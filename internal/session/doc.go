// Package session holds the console login model: users, workspaces and their
// feature flags, HS256 session tokens, and the HTTP middleware that loads the
// authenticated user into the request context.
//
// The rest of the gateway receives *User and *Workspace as explicit
// parameters rather than reading process-wide state, which keeps routing and
// presence logic testable in isolation.
package session
