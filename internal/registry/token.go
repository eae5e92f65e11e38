package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/pkg/urlutil"
)

// TokenSource exchanges registry credentials for a bearer token.
type TokenSource interface {
	Token(ctx context.Context, auth diskconfig.RegistryAuth) (string, error)
}

// PasswordTokenSource posts credentials to {registry}/auth/token and caches
// the token per normalized registry URL for the life of the process.
type PasswordTokenSource struct {
	http *http.Client

	mu    sync.Mutex
	cache map[string]string
}

// NewPasswordTokenSource returns a TokenSource using c, or a client with a
// 15 second timeout when c is nil.
func NewPasswordTokenSource(c *http.Client) *PasswordTokenSource {
	if c == nil {
		c = &http.Client{Timeout: 15 * time.Second}
	}
	return &PasswordTokenSource{http: c, cache: make(map[string]string)}
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token returns a cached or freshly issued token.
func (s *PasswordTokenSource) Token(ctx context.Context, auth diskconfig.RegistryAuth) (string, error) {
	key, err := urlutil.Normalize(auth.RegistryURL)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	tok, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return tok, nil
	}

	body, err := json.Marshal(tokenRequest{Username: auth.Username, Password: auth.Password})
	if err != nil {
		return "", errors.Wrap(err, "encoding token request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(key, "auth", "token"), bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "creating token request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := s.http.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "requesting token from %s", key)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Method: req.Method, URL: req.URL.Redacted(), Code: resp.StatusCode}
	}
	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decoding token response")
	}
	if out.Token == "" {
		return "", errors.Newf("registry %s returned an empty token", key)
	}

	s.mu.Lock()
	s.cache[key] = out.Token
	s.mu.Unlock()
	return out.Token, nil
}
