// Package auth reconciles the locally stored session with the remote identity provider.
//
// A [Controller] is built once per process. Consumers read [Controller.Snapshot] or
// [Controller.Subscribe] instead of holding their own copy of "the current user".
//
// # Checks
//
// [Controller.CheckAuth] never trusts a stored token on its own: it verifies it remotely,
// falls back to [Controller.Refresh] when the provider rejects it or cannot be reached,
// and clears the session only when that refresh fails. A check whose context ends first
// leaves the session untouched.
//
// # Refresh
//
// Overlapping refreshes share one request. The request is detached from the caller that
// started it, so callers who stop waiting do not cancel it for the rest.
package auth
