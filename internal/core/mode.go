// Package core is the orchestration layer.  It turns a Config into a
// session wired to the right peer transport.
//
// Architecture layers (bottom → top):
//
//	transport  →  peer  →  relay  →  session  →  core  →  cmd (CLI)
//
// Build is the single point where the configured mode picks a peer
// variant; nothing above or below it switches on the mode again.
package core

import "context"

// Mode is a fully wired session, ready to run once.
type Mode interface {
	Run(ctx context.Context) error
}
