package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sunyuchen88/guomaojiance/internal/auth"
	pkgAuth "github.com/sunyuchen88/guomaojiance/pkg/auth"
	"github.com/sunyuchen88/guomaojiance/pkg/config"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
)

type testAuthService struct {
	loginFn  func(ctx context.Context, username, password string) (*auth.LoginResult, error)
	logoutFn func(ctx context.Context, accessID string) error
}

func (s *testAuthService) Login(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, username, password)
	}
	return nil, nil
}

func (s *testAuthService) Logout(ctx context.Context, accessID string) error {
	if s.logoutFn != nil {
		return s.logoutFn(ctx, accessID)
	}
	return nil
}

func TestAuthLoginSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &testAuthService{
		loginFn: func(ctx context.Context, username, password string) (*auth.LoginResult, error) {
			if username != "inspector" || password != "secret" {
				t.Fatalf("credentials not forwarded: %s/%s", username, password)
			}
			return &auth.LoginResult{Token: "token-123", UserID: userID, Username: username}, nil
		},
	}

	body := `{"username":"inspector","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testingLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data auth.LoginResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Token != "token-123" {
		t.Fatalf("token missing from response: %+v", envelope.Data)
	}
}

func TestAuthLoginRejectsMissingFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"inspector"}`))
	resp := httptest.NewRecorder()
	AuthLogin(&testAuthService{}, testingLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &testAuthService{
		loginFn: func(ctx context.Context, username, password string) (*auth.LoginResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		},
	}

	body := `{"username":"inspector","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testingLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	jti := uuid.NewString()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "inspector",
		JTI:      jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var revoked string
	svc := &testAuthService{
		logoutFn: func(ctx context.Context, accessID string) error {
			revoked = accessID
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	AuthLogout(svc, cfg, testingLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if revoked != jti {
		t.Fatalf("expected session %s revoked, got %s", jti, revoked)
	}
}

func TestAuthLogoutWithoutToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	AuthLogout(&testAuthService{}, cfg, testingLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
