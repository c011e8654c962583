package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	accountIDKey contextKey = "account_id"
	roleKey      contextKey = "role"
	patientIDKey contextKey = "patient_id"
	emailKey     contextKey = "email"
)

// Account roles. An assistant is a secondary account with read-only
// visibility into one patient's medications; the role is derived from the
// assistant link table at token issue time, not stored as a first-class
// claim by the identity provider.
const (
	RolePatient   = "patient"
	RoleAssistant = "assistant"
)

// Claims is the token payload the server accepts. PatientID is only set for
// assistant accounts and names the patient whose data they may read.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	Email     string `json:"email"`
	PatientID string `json:"patient_id,omitempty"`
}

// WithIdentity stores an account identity on the context. patientID is the
// linked patient for assistant accounts and may be empty otherwise.
func WithIdentity(ctx context.Context, accountID, role, patientID, email string) context.Context {
	ctx = context.WithValue(ctx, accountIDKey, accountID)
	ctx = context.WithValue(ctx, roleKey, role)
	ctx = context.WithValue(ctx, patientIDKey, patientID)
	ctx = context.WithValue(ctx, emailKey, email)
	return ctx
}

type JWTConfig struct {
	Issuer     string
	SigningKey []byte
}

// JWTMiddleware validates a Bearer token and stores the account identity on
// the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return cfg.SigningKey, nil
			}, jwt.WithIssuer(cfg.Issuer))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Role == "" {
				claims.Role = RolePatient
			}

			ctx := WithIdentity(c.Request().Context(), claims.Subject, claims.Role, claims.PatientID, claims.Email)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// DevAuthMiddleware grants every request a fixed patient identity. Local
// development only.
func DevAuthMiddleware() echo.MiddlewareFunc {
	devID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := WithIdentity(c.Request().Context(), devID.String(), RolePatient, "", "dev@localhost")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// AccountIDFromContext returns the authenticated account id.
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	s, _ := ctx.Value(accountIDKey).(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RoleFromContext returns the account role ("patient" or "assistant").
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// EmailFromContext returns the authenticated account email.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// OwnerIDFromContext resolves whose medication set the caller works with:
// assistants resolve to their linked patient, everyone else to themselves.
func OwnerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if RoleFromContext(ctx) == RoleAssistant {
		s, _ := ctx.Value(patientIDKey).(string)
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	}
	return AccountIDFromContext(ctx)
}
