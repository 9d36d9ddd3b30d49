package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/plx/internal/auth"
)

// Update is one progress event from a background session task.
type Update struct {
	Phase    Phase
	Attempt  int           // retry attempt, starting at 1
	Wait     time.Duration // backoff before the next retry
	Snapshot auth.Snapshot // state after a check
	Err      error
	Message  string
}

// Phase of a background task.
type Phase int

const (
	PhaseCheck Phase = iota
	PhaseChecked
	PhaseRetry
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseCheck:
		return "check"
	case PhaseChecked:
		return "checked"
	case PhaseRetry:
		return "retry"
	case PhaseStopped:
		return "stopped"
	default:
		return ""
	}
}

func checkUpdate(n int) Update {
	return Update{Phase: PhaseCheck, Attempt: n, Message: fmt.Sprintf("Checking session (#%d)", n)}
}

func checkedUpdate(n int, snap auth.Snapshot) Update {
	msg := fmt.Sprintf("Session %s", snap.Status)
	if snap.IdentityID != "" {
		msg = fmt.Sprintf("Session %s as %s", snap.Status, snap.IdentityID)
	}
	return Update{Phase: PhaseChecked, Attempt: n, Snapshot: snap, Message: msg}
}

func retryUpdate(op string, attempt int, wait time.Duration, err error) Update {
	return Update{
		Phase:   PhaseRetry,
		Attempt: attempt,
		Wait:    wait,
		Err:     err,
		Message: fmt.Sprintf("%s unavailable, retrying in %s (attempt %d)", op, wait.Round(time.Millisecond), attempt),
	}
}

func stoppedUpdate(err error) Update {
	return Update{Phase: PhaseStopped, Err: err, Message: "Revalidation stopped"}
}

// send delivers u without blocking. A nil channel discards it.
func send(updates chan<- Update, u Update) {
	if updates == nil {
		return
	}
	select {
	case updates <- u:
	default:
	}
}
