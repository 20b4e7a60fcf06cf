package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/suiscode/ai-resume/internal/shared/server/respond"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
	"github.com/suiscode/ai-resume/internal/supabase"
)

const (
	stateTTL       = 5 * time.Minute
	idTokenIssuer  = "google"
	notConfigured  = "Google sign-in is not configured."
	signInFailed   = "Google sign-in failed. Please try again."
	stateRejected  = "Sign-in link expired. Please start again."
	callbackParams = "Missing state or code."
)

// SessionExchanger trades a provider id_token for a Supabase session.
type SessionExchanger interface {
	SignInWithIDToken(ctx context.Context, provider, idToken string) (supabase.Session, error)
}

// GoogleOptions configures GoogleService.
type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// UIRedirect receives ?token=<supabase access token> after sign-in.
	UIRedirect string
	// States defaults to an in-memory store.
	States StateStore
}

// GoogleService runs the redirect sign-in: Google code, then id_token,
// then a Supabase session handed to the UI.
type GoogleService struct {
	oauth      oauth2.Config
	uiRedirect string
	states     StateStore
	sessions   SessionExchanger
	exchange   func(ctx context.Context, code string) (*oauth2.Token, error)
}

func NewGoogleService(opts GoogleOptions, sessions SessionExchanger) *GoogleService {
	s := &GoogleService{
		oauth: oauth2.Config{
			ClientID:     strings.TrimSpace(opts.ClientID),
			ClientSecret: strings.TrimSpace(opts.ClientSecret),
			RedirectURL:  strings.TrimSpace(opts.RedirectURL),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		uiRedirect: strings.TrimSpace(opts.UIRedirect),
		states:     opts.States,
		sessions:   sessions,
	}
	if s.states == nil {
		s.states = NewMemoryStates(nil)
	}
	s.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return s.oauth.Exchange(ctx, code)
	}
	return s
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/auth/google")
	g.GET("/start", s.start)
	g.GET("/callback", s.callback)
}

// Configured reports whether every OAuth setting and the session exchanger are present.
func (s *GoogleService) Configured() bool {
	return s.oauth.ClientID != "" &&
		s.oauth.ClientSecret != "" &&
		s.oauth.RedirectURL != "" &&
		s.uiRedirect != "" &&
		s.sessions != nil
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.Configured() {
		respond.Error(c, http.StatusInternalServerError, "config_error", notConfigured, nil)
		return
	}
	state := uuid.NewString()
	if err := s.states.Put(c.Request.Context(), state, stateTTL); err != nil {
		telemetry.Error("auth.google.state_store_failed", map[string]any{
			"request_id": c.GetString("requestId"),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", signInFailed, nil)
		return
	}
	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")))
}

func (s *GoogleService) callback(c *gin.Context) {
	if !s.Configured() {
		respond.Error(c, http.StatusInternalServerError, "config_error", notConfigured, nil)
		return
	}
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", callbackParams, nil)
		return
	}
	ctx := c.Request.Context()
	if !s.states.Consume(ctx, state) {
		respond.Error(c, http.StatusBadRequest, "invalid_state", stateRejected, nil)
		return
	}

	session, err := s.signIn(ctx, code)
	if err != nil {
		telemetry.Warn("auth.google.failed", map[string]any{
			"request_id": c.GetString("requestId"),
			"stage":      err.stage,
			"error":      err.Error(),
		})
		respond.Error(c, err.status, "auth_failed", signInFailed, nil)
		return
	}

	target, perr := withToken(s.uiRedirect, session.AccessToken)
	if perr != nil {
		respond.Error(c, http.StatusInternalServerError, "config_error", notConfigured, nil)
		return
	}
	telemetry.Info("auth.google.signed_in", map[string]any{
		"request_id": c.GetString("requestId"),
		"user_id":    session.User.ID,
	})
	c.Redirect(http.StatusFound, target)
}

type signInError struct {
	stage  string
	status int
	err    error
}

func (e *signInError) Error() string { return e.stage + ": " + e.err.Error() }

func (s *GoogleService) signIn(ctx context.Context, code string) (supabase.Session, *signInError) {
	token, err := s.exchange(ctx, code)
	if err != nil {
		return supabase.Session{}, &signInError{stage: "exchange", status: http.StatusBadRequest, err: err}
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return supabase.Session{}, &signInError{stage: "id_token", status: http.StatusBadGateway, err: fmt.Errorf("token response has no id_token")}
	}
	session, err := s.sessions.SignInWithIDToken(ctx, idTokenIssuer, idToken)
	if err != nil {
		return supabase.Session{}, &signInError{stage: "session", status: http.StatusBadGateway, err: err}
	}
	return session, nil
}

func withToken(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("redirect %q is not absolute", rawURL)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
