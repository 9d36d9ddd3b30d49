// Package tasks holds the session work a host runs around the controller rather than inside it.
//
// # Retry
//
// [WithRetry] decorates an [auth.Provider] with a bounded exponential backoff
// (github.com/sethvargo/go-retry). Only failures wrapping [shared.ErrServiceUnavailable] are
// retried; a rejected token or declined refresh is an answer and is returned immediately.
// The controller itself never retries, so a host that wants no retries simply skips the wrapper.
//
// # Revalidation
//
// [Revalidator] calls CheckAuth on an interval and reports each check as an [Update].
//
// # Progress Reporting
//
// Updates use select with default to prevent blocking. A slow or absent reader loses updates
// instead of stalling the session.
package tasks
