package auth

import "fmt"

// Status is the controller's view of the local session.
type Status int

const (
	StatusUnknown Status = iota
	StatusUnauthenticated
	StatusVerifying
	StatusAuthenticated
	StatusRefreshing
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusVerifying:
		return "verifying"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Pending reports whether s is a transitional state.
func (s Status) Pending() bool {
	return s == StatusVerifying || s == StatusRefreshing
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is the published {status, identity} pair.
type Snapshot struct {
	Status     Status `json:"status"`
	IdentityID string `json:"identity_id,omitempty"`
}

// Authenticated reports whether the snapshot holds a verified session.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.IdentityID != ""
}
