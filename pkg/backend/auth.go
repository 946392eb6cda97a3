package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-storefront/components/storefront"
)

var errMissingToken = errors.New("backend: auth response has no access token")

// Claims are the access token claims the auth service issues.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    json.Number `json:"expires_in"`
	ExpiresAt    json.Number `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

// Auth is the password sign-in flow of the hosted auth service.
type Auth struct {
	client *Client
	now    func() time.Time
}

// Auth returns the authenticator backed by this client.
func (c *Client) Auth() *Auth {
	return &Auth{client: c, now: time.Now}
}

var _ storefront.Authenticator = (*Auth)(nil)

// SignIn exchanges email and password for an access token. The backend's
// rejection message is returned verbatim.
func (a *Auth) SignIn(ctx context.Context, email, password string) (storefront.AuthSession, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return storefront.AuthSession{}, err
	}
	var resp tokenResponse
	err = a.client.send(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/v1/token",
		query:   url.Values{"grant_type": {"password"}},
		body:    bytes.NewReader(body),
		headers: map[string]string{"Content-Type": "application/json"},
	}, &resp)
	if err != nil {
		return storefront.AuthSession{}, err
	}
	if resp.AccessToken == "" {
		return storefront.AuthSession{}, errMissingToken
	}

	claims, err := a.client.ParseToken(resp.AccessToken)
	if err != nil {
		return storefront.AuthSession{}, err
	}
	identity := storefront.Identity{
		ID:    firstNonEmpty(resp.User.ID, claims.Subject),
		Email: firstNonEmpty(resp.User.Email, claims.Email, email),
		Role:  firstNonEmpty(resp.User.Role, claims.Role),
	}
	session := storefront.AuthSession{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    a.expiry(resp, claims),
	}
	identity.ExpiresAt = session.ExpiresAt
	session.Identity = identity
	return session, nil
}

// SignOut revokes the session's access token.
func (a *Auth) SignOut(ctx context.Context, session storefront.AuthSession) error {
	if session.AccessToken == "" {
		return nil
	}
	return a.client.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  session.AccessToken,
	}, nil)
}

func (a *Auth) expiry(resp tokenResponse, claims *Claims) time.Time {
	if at, err := resp.ExpiresAt.Int64(); err == nil && at > 0 {
		return time.Unix(at, 0)
	}
	if in, err := resp.ExpiresIn.Int64(); err == nil && in > 0 {
		return a.now().Add(time.Duration(in) * time.Second)
	}
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Time{}
}

// ParseToken reads the claims of an access token. With a JWT secret the
// HS256 signature and expiry are verified; without one the claims are
// trusted as issued, since the token came straight from the auth service.
func (c *Client) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	if len(c.jwtSecret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("backend: parse access token: %w", err)
		}
		return claims, nil
	}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("backend: verify access token: %w", err)
	}
	return claims, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
