package memstore

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-storefront/components/storefront"
)

// ErrInvalidCredentials mirrors the hosted auth service's rejection message.
var ErrInvalidCredentials = errors.New("Invalid login credentials")

type account struct {
	password string
	identity storefront.Identity
}

// Auth is an in-memory storefront.Authenticator with fixed accounts.
type Auth struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	accounts map[string]account
	tokens   map[string]string
}

// NewAuth returns an authenticator whose sessions last ttl (default 1h).
func NewAuth(ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Auth{
		ttl:      ttl,
		now:      time.Now,
		accounts: map[string]account{},
		tokens:   map[string]string{},
	}
}

var _ storefront.Authenticator = (*Auth)(nil)

// AddUser registers an admin account and returns its identity.
func (a *Auth) AddUser(email, password, role string) storefront.Identity {
	email = strings.ToLower(strings.TrimSpace(email))
	identity := storefront.Identity{ID: uuid.NewString(), Email: email, Role: role}
	a.mu.Lock()
	a.accounts[email] = account{password: password, identity: identity}
	a.mu.Unlock()
	return identity
}

// SignIn checks the password and issues an opaque access token.
func (a *Auth) SignIn(ctx context.Context, email, password string) (storefront.AuthSession, error) {
	if err := ctx.Err(); err != nil {
		return storefront.AuthSession{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	acct, ok := a.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || subtle.ConstantTimeCompare([]byte(acct.password), []byte(password)) != 1 {
		return storefront.AuthSession{}, ErrInvalidCredentials
	}
	token := uuid.NewString()
	a.tokens[token] = acct.identity.ID
	expires := a.now().Add(a.ttl)
	identity := acct.identity
	identity.ExpiresAt = expires
	return storefront.AuthSession{
		AccessToken:  token,
		RefreshToken: uuid.NewString(),
		Identity:     identity,
		ExpiresAt:    expires,
	}, nil
}

// SignOut revokes the session's access token.
func (a *Auth) SignOut(_ context.Context, session storefront.AuthSession) error {
	a.mu.Lock()
	delete(a.tokens, session.AccessToken)
	a.mu.Unlock()
	return nil
}

// Active reports how many access tokens are outstanding.
func (a *Auth) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tokens)
}
