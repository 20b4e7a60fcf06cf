package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// ErrNotConfigured means the project URL or anon key is missing.
var ErrNotConfigured = errors.New("supabase auth is not configured")

const maxResponseBytes = 1 << 20

// User is the identity returned by GoTrue.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a GoTrue token grant. Tokens are empty while email confirmation is pending.
type Session struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
	User         User   `json:"user"`
}

// Error is a non-2xx GoTrue answer.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase auth status=%d: %s", e.Status, e.Message)
}

// Client talks to the GoTrue API of a Supabase project through gotrue-go.
type Client struct {
	authURL string
	anonKey string
	api     gotrue.Client
	base    http.RoundTripper
	timeout time.Duration
}

// NewClient builds a client. httpClient may be nil.
func NewClient(baseURL, anonKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c := &Client{
		anonKey: strings.TrimSpace(anonKey),
		base:    base,
		timeout: httpClient.Timeout,
	}
	if root := strings.TrimRight(strings.TrimSpace(baseURL), "/"); root != "" {
		c.authURL = root + "/auth/v1"
	}
	if c.Configured() {
		c.api = gotrue.New("", c.anonKey).WithCustomGoTrueURL(c.authURL)
	}
	return c
}

// Configured reports whether both the URL and anon key are set.
func (c *Client) Configured() bool {
	return c != nil && c.authURL != "" && c.anonKey != ""
}

// SignUp registers an email/password user.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (Session, error) {
	req := types.SignupRequest{Email: email, Password: password}
	if fullName != "" {
		req.Data = map[string]interface{}{"full_name": fullName}
	}
	return c.call(ctx, func(api gotrue.Client, _ *http.Client) (Session, error) {
		resp, err := api.Signup(req)
		if err != nil {
			return Session{}, err
		}
		if resp.AccessToken != "" {
			return fromSession(resp.Session), nil
		}
		// Confirmation pending: GoTrue answers with the bare user.
		return Session{User: fromUser(resp.User)}, nil
	})
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	return c.call(ctx, func(api gotrue.Client, _ *http.Client) (Session, error) {
		resp, err := api.Token(types.TokenRequest{GrantType: "password", Email: email, Password: password})
		if err != nil {
			return Session{}, err
		}
		return fromSession(resp.Session), nil
	})
}

// SignInWithIDToken exchanges a provider OIDC id_token for a session.
// gotrue-go's Token only accepts the password, refresh_token and pkce grants,
// so this grant is posted directly with the same transport.
func (c *Client) SignInWithIDToken(ctx context.Context, provider, idToken string) (Session, error) {
	if !c.Configured() {
		return Session{}, ErrNotConfigured
	}
	raw, err := json.Marshal(map[string]string{"provider": provider, "id_token": idToken})
	if err != nil {
		return Session{}, fmt.Errorf("encode request: %w", err)
	}
	return c.call(ctx, func(_ gotrue.Client, hc *http.Client) (Session, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+"/token?grant_type=id_token", bytes.NewReader(raw))
		if err != nil {
			return Session{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("apikey", c.anonKey)

		resp, err := hc.Do(req)
		if err != nil {
			return Session{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return Session{}, fmt.Errorf("response status code %d", resp.StatusCode)
		}
		var out types.TokenResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
			return Session{}, fmt.Errorf("decode response: %w", err)
		}
		return fromSession(out.Session), nil
	})
}

// call runs fn against a gotrue client bound to ctx. A non-2xx answer seen
// on the wire becomes *Error with GoTrue's own message.
func (c *Client) call(ctx context.Context, fn func(api gotrue.Client, hc *http.Client) (Session, error)) (Session, error) {
	if !c.Configured() {
		return Session{}, ErrNotConfigured
	}
	rec := &recorder{ctx: ctx, base: c.base}
	hc := &http.Client{Timeout: c.timeout, Transport: rec}
	session, err := fn(c.api.WithClient(*hc), hc)
	if err == nil {
		return session, nil
	}
	if rec.status != 0 {
		return Session{}, &Error{Status: rec.status, Message: errorMessage(rec.body, rec.status)}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Session{}, fmt.Errorf("supabase request: %w", ctxErr)
	}
	return Session{}, fmt.Errorf("supabase request: %w", err)
}

// recorder binds outgoing requests to a context and keeps the body of the
// last failed response. gotrue-go methods take no context and flatten
// errors into strings.
type recorder struct {
	ctx    context.Context
	base   http.RoundTripper
	status int
	body   []byte
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req.WithContext(r.ctx))
	if err != nil || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return resp, err
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	r.status, r.body = resp.StatusCode, data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func fromSession(s types.Session) Session {
	return Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		User:         fromUser(s.User),
	}
}

func fromUser(u types.User) User {
	return User{ID: u.ID.String(), Email: u.Email}
}

type errorResponse struct {
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

func errorMessage(body []byte, status int) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		for _, m := range []string{e.Msg, e.ErrorDescription, e.Message} {
			if strings.TrimSpace(m) != "" {
				return m
			}
		}
	}
	return http.StatusText(status)
}
