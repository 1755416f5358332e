// Package oauth provides bearer tokens for the Google APIs used by the
// grow-monitor programs. A token is cached in a file, refreshed silently when
// it expires, and obtained interactively only when nothing usable is cached.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes used by the programs.
const (
	ScopeSheets        = "https://www.googleapis.com/auth/spreadsheets"
	ScopePhotosAppend  = "https://www.googleapis.com/auth/photoslibrary.appendonly"
	ScopePhotosLibrary = "https://www.googleapis.com/auth/photoslibrary"
)

// Default file locations on the Pi.
const (
	DefaultCredentialsPath = "/home/pi/project/credentials.json"
	DefaultTokenPath       = "/home/pi/project/token.json"
)

// ErrAuth is matched by every error a Provider returns.
var ErrAuth = errors.New("oauth: not authorized")

// AuthError describes which step of obtaining a token failed.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("oauth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is reports ErrAuth.
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// Provider hands out a currently valid bearer token.
type Provider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Authorizer runs an interactive consent flow.
type Authorizer interface {
	Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// LoadConfig reads a Google client-secrets file ("credentials.json").
func LoadConfig(credentialsPath string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, &AuthError{Op: "read credentials", Err: err}
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, &AuthError{Op: "parse credentials", Err: err}
	}
	return cfg, nil
}

// FileProvider caches the token in a JSON file at Path.
type FileProvider struct {
	Config     *oauth2.Config
	Path       string
	Authorizer Authorizer

	tok *oauth2.Token
}

// NewFileProvider creates a provider for cfg that persists tokens at path.
func NewFileProvider(cfg *oauth2.Config, path string, auth Authorizer) *FileProvider {
	return &FileProvider{Config: cfg, Path: path, Authorizer: auth}
}

// NewInstalledApp loads client secrets from credentialsPath and returns a
// provider that caches tokens at tokenPath and falls back to the loopback
// consent flow.
func NewInstalledApp(credentialsPath, tokenPath string, scopes ...string) (*FileProvider, error) {
	cfg, err := LoadConfig(credentialsPath, scopes...)
	if err != nil {
		return nil, err
	}
	return NewFileProvider(cfg, tokenPath, &LoopbackAuthorizer{}), nil
}

// Token returns the cached token if valid, refreshes an expired token that
// carries a refresh token, and otherwise runs the Authorizer once.
// New tokens are written back to Path.
func (p *FileProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	if p.tok != nil && p.tok.Valid() {
		return p.tok, nil
	}

	tok := p.tok
	if tok == nil {
		tok = p.load()
	}

	if tok != nil && tok.Valid() {
		p.tok = tok
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		fresh, err := p.Config.TokenSource(ctx, tok).Token()
		if err != nil {
			return nil, &AuthError{Op: "refresh token", Err: err}
		}
		log.Printf("oauth: refreshed token (expires %s)", fresh.Expiry.Format(time.RFC3339))
		p.store(fresh)
		return fresh, nil
	}

	if p.Authorizer == nil {
		return nil, &AuthError{Op: "authorize", Err: errors.New("no cached token and no interactive authorizer")}
	}
	fresh, err := p.Authorizer.Authorize(ctx, p.Config)
	if err != nil {
		return nil, &AuthError{Op: "authorize", Err: err}
	}
	log.Printf("oauth: authorized, token saved to %s", p.Path)
	p.store(fresh)
	return fresh, nil
}

// storedToken is the on-disk token format.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes"`
}

// load returns the cached token, or nil when there is none or it was
// granted for different scopes.
func (p *FileProvider) load() *oauth2.Token {
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		log.Printf("oauth: read token %s: %v", p.Path, err)
		return nil
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("oauth: ignoring unreadable token %s: %v", p.Path, err)
		return nil
	}
	if !coversScopes(st.Scopes, p.Config.Scopes) {
		log.Printf("oauth: token %s lacks requested scopes, re-authorizing", p.Path)
		return nil
	}

	return &oauth2.Token{
		AccessToken:  st.AccessToken,
		TokenType:    st.TokenType,
		RefreshToken: st.RefreshToken,
		Expiry:       st.Expiry,
	}
}

// store keeps tok in memory and writes it to Path. A failed write is logged;
// the token is still usable for this run.
func (p *FileProvider) store(tok *oauth2.Token) {
	p.tok = tok

	data, err := json.MarshalIndent(storedToken{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       p.Config.Scopes,
	}, "", "  ")
	if err != nil {
		log.Printf("oauth: encode token: %v", err)
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.Path), ".token-*")
	if err != nil {
		log.Printf("oauth: save token: %v", err)
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		log.Printf("oauth: save token: %v", err)
		return
	}
	if err := tmp.Close(); err != nil {
		log.Printf("oauth: save token: %v", err)
		return
	}
	// CreateTemp already uses 0600.
	if err := os.Rename(tmp.Name(), p.Path); err != nil {
		log.Printf("oauth: save token: %v", err)
	}
}

func coversScopes(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, s := range have {
		set[s] = true
	}
	for _, s := range want {
		if !set[s] {
			return false
		}
	}
	return true
}

// TokenSource adapts p for API clients that take an oauth2.TokenSource.
func TokenSource(ctx context.Context, p Provider) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, providerSource{ctx: ctx, p: p})
}

type providerSource struct {
	ctx context.Context
	p   Provider
}

func (s providerSource) Token() (*oauth2.Token, error) {
	return s.p.Token(s.ctx)
}

// StaticProvider always returns the same token. Used in tests and for
// short-lived tokens supplied on the command line.
type StaticProvider struct {
	Tok *oauth2.Token
	Err error
}

// Token returns the configured token or error.
func (s StaticProvider) Token(context.Context) (*oauth2.Token, error) {
	if s.Err != nil {
		return nil, &AuthError{Op: "static token", Err: s.Err}
	}
	return s.Tok, nil
}
