// Package routing implements the console's route authorization dispatcher:
// a declarative, ordered route table resolved to exactly one outcome per
// navigation (redirect, render, or nothing), with authentication and
// per-route access gating.
//
// Access decisions are made before the dispatcher ever runs: feature modules
// register PageDescriptors with pure access predicates, and BuildRoutes
// materializes them into plain booleans per session. The dispatcher itself
// only branches on those booleans, in a fixed order — access denial first,
// authentication second, rendering last.
package routing
