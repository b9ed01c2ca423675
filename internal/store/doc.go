// Package store provides durable persistence for the console gateway:
// users, workspaces with their feature flags, and issued login sessions,
// backed by SQLite. Volatile presence snapshots live in the Redis activity
// cache instead (see the presence package).
package store
