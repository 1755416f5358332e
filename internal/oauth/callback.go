package oauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// callbackServer receives the authorization redirect on the loopback interface.
type callbackServer struct {
	httpServer *http.Server
	state      string

	once   sync.Once
	result chan callbackResult
}

type callbackResult struct {
	code string
	err  error
}

func newCallbackServer(state string) *callbackServer {
	s := &callbackServer{
		state:  state,
		result: make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleCallback)

	s.httpServer = &http.Server{Handler: mux}
	return s
}

// Serve accepts connections on the given listener.
func (s *callbackServer) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *callbackServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("code") == "" && q.Get("error") == "" {
		// Favicon and other browser noise.
		http.NotFound(w, r)
		return
	}

	if got := q.Get("state"); got != s.state {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		s.deliver(callbackResult{err: fmt.Errorf("state mismatch: got %q", got)})
		return
	}

	if e := q.Get("error"); e != "" {
		http.Error(w, "authorization denied: "+e, http.StatusForbidden)
		s.deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Authorization complete. You may close this window.")
	s.deliver(callbackResult{code: q.Get("code")})
}

// deliver records only the first outcome.
func (s *callbackServer) deliver(res callbackResult) {
	s.once.Do(func() { s.result <- res })
}
