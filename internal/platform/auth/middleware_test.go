package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const testIssuer = "https://auth.dosetrack.test"

var testKey = []byte("0123456789abcdef0123456789abcdef")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	claims.Issuer = testIssuer
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func runRequest(token string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := JWTMiddleware(JWTConfig{Issuer: testIssuer, SigningKey: testKey})
	err := mw(handler)(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	accountID := uuid.New()
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: accountID.String()},
		Email:            "user@example.com",
	})

	rec := runRequest(token, func(c echo.Context) error {
		ctx := c.Request().Context()
		got, ok := AccountIDFromContext(ctx)
		if !ok || got != accountID {
			t.Errorf("expected account id %s, got %s (ok=%v)", accountID, got, ok)
		}
		if RoleFromContext(ctx) != RolePatient {
			t.Errorf("expected default patient role, got %s", RoleFromContext(ctx))
		}
		if EmailFromContext(ctx) != "user@example.com" {
			t.Errorf("unexpected email %q", EmailFromContext(ctx))
		}
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	rec := runRequest("", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_BadSignature(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte("the-wrong-signing-key-entirely!!"))

	rec := runRequest(signed, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "https://somebody-else.test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString(testKey)

	rec := runRequest(signed, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString(testKey)

	rec := runRequest(signed, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestOwnerIDFromContext_AssistantResolvesToPatient(t *testing.T) {
	patientID := uuid.New()
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
		Role:             RoleAssistant,
		PatientID:        patientID.String(),
	})

	rec := runRequest(token, func(c echo.Context) error {
		owner, ok := OwnerIDFromContext(c.Request().Context())
		if !ok || owner != patientID {
			t.Errorf("expected owner %s, got %s (ok=%v)", patientID, owner, ok)
		}
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestOwnerIDFromContext_PatientIsSelf(t *testing.T) {
	accountID := uuid.New()
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: accountID.String()},
		Role:             RolePatient,
	})

	runRequest(token, func(c echo.Context) error {
		owner, ok := OwnerIDFromContext(c.Request().Context())
		if !ok || owner != accountID {
			t.Errorf("expected owner %s, got %s (ok=%v)", accountID, owner, ok)
		}
		return c.NoContent(http.StatusOK)
	})
}

func TestRequireRole(t *testing.T) {
	accountID := uuid.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	patientToken := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: accountID.String()},
		Role:             RolePatient,
	})
	assistantToken := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: accountID.String()},
		Role:             RoleAssistant,
		PatientID:        uuid.NewString(),
	})

	run := func(token string, mw echo.MiddlewareFunc) int {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		auth := JWTMiddleware(JWTConfig{Issuer: testIssuer, SigningKey: testKey})
		if err := auth(mw(handler))(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec.Code
	}

	if code := run(patientToken, RequireRole(RolePatient)); code != http.StatusOK {
		t.Errorf("patient on patient route: expected 200, got %d", code)
	}
	if code := run(assistantToken, RequireRole(RolePatient)); code != http.StatusForbidden {
		t.Errorf("assistant on patient-only route: expected 403, got %d", code)
	}
	if code := run(assistantToken, RequireRole(RolePatient, RoleAssistant)); code != http.StatusOK {
		t.Errorf("assistant on shared route: expected 200, got %d", code)
	}
}
