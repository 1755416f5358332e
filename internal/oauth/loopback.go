package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"

	"golang.org/x/oauth2"
)

// LoopbackAuthorizer runs the installed-app consent flow: it listens on a
// local port, shows the consent URL, and exchanges the code it is redirected
// back with.
type LoopbackAuthorizer struct {
	// Addr to listen on. Defaults to "127.0.0.1:0".
	Addr string

	// Browser is handed the consent URL. Defaults to printing it to Out.
	Browser func(authURL string) error

	// Out defaults to os.Stdout.
	Out io.Writer
}

// Authorize blocks until the user completes consent or ctx is done.
func (a *LoopbackAuthorizer) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	addr := a.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for callback: %w", err)
	}

	c := *cfg
	c.RedirectURL = "http://" + ln.Addr().String() + "/"

	state, err := randomState()
	if err != nil {
		ln.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	srv := newCallbackServer(state)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("oauth: callback server error: %v", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	authURL := c.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	if err := a.open(authURL); err != nil {
		return nil, fmt.Errorf("show consent url: %w", err)
	}

	var res callbackResult
	select {
	case res = <-srv.result:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := c.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

func (a *LoopbackAuthorizer) open(authURL string) error {
	if a.Browser != nil {
		return a.Browser(authURL)
	}
	out := a.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintf(out, "Open this URL in a browser to authorize access:\n\n%s\n\n", authURL)
	return err
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
