package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
)

// CallbackResult is what the login callback delivered.
type CallbackResult struct {
	IdentityID string
	err        error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the backend's redirect at the end of the external login.
//
// The backend finishes the Spotify code exchange itself and redirects the browser to
// /callback?spotify_user_id=<id> (or ?error=<reason>). Only the first request is accepted.
type CallbackHandler struct {
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler whose [CallbackHandler.Result] yields exactly one value.
func NewCallbackHandler() *CallbackHandler {
	return &CallbackHandler{resultChan: make(chan CallbackResult, 1)}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

var pageTmpl = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

type page struct {
	Title   string
	Color   template.CSS
	Message string
}

func render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	pageTmpl.Execute(w, p)
}

// ServeHTTP handles the callback request and sends the result through the result channel.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		h.Send(CallbackResult{err: fmt.Errorf("authorization failed: %s", reason)})
		render(w, http.StatusBadRequest, page{Title: "Authorization Failed", Color: "#d64545", Message: reason})
		return
	}

	identityID := q.Get("spotify_user_id")
	if identityID == "" {
		h.Send(CallbackResult{err: errors.New("callback missing spotify_user_id")})
		render(w, http.StatusBadRequest, page{Title: "Authorization Failed", Color: "#d64545", Message: "No account was returned."})
		return
	}

	h.Send(CallbackResult{IdentityID: identityID})
	render(w, http.StatusOK, page{
		Title:   "✓ Authorization Successful",
		Color:   "#1DB954",
		Message: "You can close this window and return to the terminal.",
	})
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving callback completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
