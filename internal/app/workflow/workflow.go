// Package workflow holds the state machines behind each user action. Every
// workflow owns one state value and moves it only through named
// transitions; a second action while a call is in flight is refused.
package workflow

import (
	"context"
	"errors"
)

var (
	// ErrBusy is returned when an action is triggered while the previous one
	// is still waiting on the network.
	ErrBusy = errors.New("workflow: an operation is already in progress")

	// ErrNothingToCopy is returned by Copy when there is no short link yet.
	ErrNothingToCopy = errors.New("workflow: no short link to copy")
)

// Copier puts text on the clipboard and reports whether it worked.
type Copier interface {
	Copy(ctx context.Context, text string) bool
}
