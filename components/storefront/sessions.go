package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuthSession is a signed-in admin as returned by the auth service.
type AuthSession struct {
	AccessToken  string
	RefreshToken string
	Identity     Identity
	ExpiresAt    time.Time
}

// Authenticator signs admins in and out against the auth service.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (AuthSession, error)
	SignOut(ctx context.Context, session AuthSession) error
}

var errMissingCredentials = errors.New("storefront: email and password are required")

// SessionAuth is the per-session AuthProvider handed to a Dashboard. It
// reports the identity until the session expires or is signed out.
type SessionAuth struct {
	now func() time.Time

	mu        sync.Mutex
	session   AuthSession
	signedIn  bool
	listeners map[int]func(Identity, bool)
	next      int
}

// NewSessionAuth wraps a signed-in session.
func NewSessionAuth(session AuthSession, clock func() time.Time) *SessionAuth {
	if clock == nil {
		clock = time.Now
	}
	return &SessionAuth{
		now:       clock,
		session:   session,
		signedIn:  true,
		listeners: map[int]func(Identity, bool){},
	}
}

// CurrentIdentity reports the identity while the session is live.
func (a *SessionAuth) CurrentIdentity(context.Context) (Identity, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.liveLocked() {
		return Identity{}, false, nil
	}
	return a.session.Identity, true, nil
}

// OnIdentityChange registers fn for sign-out and refresh notifications.
func (a *SessionAuth) OnIdentityChange(fn func(Identity, bool)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

// Session returns the wrapped auth session.
func (a *SessionAuth) Session() AuthSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Live reports whether the session is signed in and unexpired.
func (a *SessionAuth) Live() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.liveLocked()
}

func (a *SessionAuth) liveLocked() bool {
	if !a.signedIn {
		return false
	}
	return a.session.ExpiresAt.IsZero() || a.now().Before(a.session.ExpiresAt)
}

// Replace installs a refreshed session and notifies listeners.
func (a *SessionAuth) Replace(session AuthSession) {
	a.mu.Lock()
	a.session = session
	a.signedIn = true
	listeners := a.snapshotLocked()
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(session.Identity, true)
	}
}

// SignOut marks the session signed out and notifies listeners.
func (a *SessionAuth) SignOut() {
	a.mu.Lock()
	if !a.signedIn {
		a.mu.Unlock()
		return
	}
	a.signedIn = false
	listeners := a.snapshotLocked()
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(Identity{}, false)
	}
}

func (a *SessionAuth) snapshotLocked() []func(Identity, bool) {
	out := make([]func(Identity, bool), 0, len(a.listeners))
	for _, fn := range a.listeners {
		out = append(out, fn)
	}
	return out
}

// SessionManagerOptions configures the session manager.
type SessionManagerOptions struct {
	Auth Authenticator
	// DashboardOptions builds the per-session dashboard collaborators, for
	// example a data store bound to the session's access token. Auth is
	// always replaced by the session's SessionAuth.
	DashboardOptions func(session AuthSession) Options
	TTL              time.Duration
	Clock            func() time.Time
	Telemetry        Telemetry
}

type managedSession struct {
	auth      *SessionAuth
	dashboard *Dashboard
	lastSeen  time.Time
}

// SessionManager maps opaque session ids to mounted dashboards.
type SessionManager struct {
	auth      Authenticator
	build     func(AuthSession) Options
	ttl       time.Duration
	now       func() time.Time
	telemetry Telemetry

	mu       sync.Mutex
	sessions map[string]*managedSession
}

// NewSessionManager builds a manager. Idle sessions expire after TTL
// (default 12h).
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DashboardOptions == nil {
		opts.DashboardOptions = func(AuthSession) Options { return Options{} }
	}
	return &SessionManager{
		auth:      opts.Auth,
		build:     opts.DashboardOptions,
		ttl:       opts.TTL,
		now:       opts.Clock,
		telemetry: normalizeTelemetry(opts.Telemetry),
		sessions:  map[string]*managedSession{},
	}
}

// Login signs in and mounts a dashboard for the new session.
func (m *SessionManager) Login(ctx context.Context, email, password string) (string, *Dashboard, error) {
	if m.auth == nil {
		return "", nil, errMissingAuth
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, errMissingCredentials
	}
	session, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		m.telemetry.Record(ctx, "storefront.session.login_error", map[string]any{"email": email, "error": err.Error()})
		return "", nil, err
	}
	auth := NewSessionAuth(session, m.now)
	opts := m.build(session)
	opts.Auth = auth
	if opts.Clock == nil {
		opts.Clock = m.now
	}
	if opts.Telemetry == nil {
		opts.Telemetry = m.telemetry
	}
	dashboard := NewDashboard(opts)
	if err := dashboard.Mount(ctx); err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &managedSession{auth: auth, dashboard: dashboard, lastSeen: m.now()}
	m.mu.Unlock()
	m.telemetry.Record(ctx, "storefront.session.login", map[string]any{"user_id": session.Identity.ID})
	return id, dashboard, nil
}

// Logout signs the session out, unmounts its dashboard and forgets it.
// Unknown ids are ignored.
func (m *SessionManager) Logout(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	var err error
	if m.auth != nil {
		err = m.auth.SignOut(ctx, s.auth.Session())
	}
	s.auth.SignOut()
	s.dashboard.Unmount()
	m.telemetry.Record(ctx, "storefront.session.logout", map[string]any{"user_id": s.auth.Session().Identity.ID})
	return err
}

// Get returns the dashboard for a live session.
func (m *SessionManager) Get(id string) (*Dashboard, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok && (!s.auth.Live() || m.now().Sub(s.lastSeen) > m.ttl) {
		delete(m.sessions, id)
		m.mu.Unlock()
		s.auth.SignOut()
		s.dashboard.Unmount()
		return nil, ErrSessionNotFound
	}
	if ok {
		s.lastSeen = m.now()
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.dashboard, nil
}

// Sweep drops expired and idle sessions and returns how many were removed.
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	var expired []*managedSession
	for id, s := range m.sessions {
		if !s.auth.Live() || m.now().Sub(s.lastSeen) > m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range expired {
		s.auth.SignOut()
		s.dashboard.Unmount()
	}
	return len(expired)
}

// Len reports the number of tracked sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close unmounts every dashboard without calling the auth service.
func (m *SessionManager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*managedSession{}
	m.mu.Unlock()
	for _, s := range sessions {
		s.dashboard.Unmount()
	}
}

type sessionKey struct{}

// ContextWithSession stores the session id on ctx.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext returns the session id stored on ctx.
func SessionFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// Dashboard resolves the dashboard for the session on ctx.
func (m *SessionManager) Dashboard(ctx context.Context) (*Dashboard, error) {
	id, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	d, err := m.Get(id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrUnauthenticated
	}
	return d, err
}

// The methods below run dashboard actions for the session on ctx.

// Delete removes a row from a collection.
func (m *SessionManager) Delete(ctx context.Context, resource Resource, id ID) error {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return err
	}
	return d.Delete(ctx, resource, id)
}

// UpdateOrderStatus changes an order's status.
func (m *SessionManager) UpdateOrderStatus(ctx context.Context, id ID, status OrderStatus) error {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return err
	}
	return d.UpdateOrderStatus(ctx, id, status)
}

// SelectSection switches the displayed panel.
func (m *SessionManager) SelectSection(ctx context.Context, section Section) error {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return err
	}
	return d.SelectSection(section)
}

// OpenProductForm opens the create form.
func (m *SessionManager) OpenProductForm(ctx context.Context) error {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return err
	}
	return d.OpenProductForm()
}

// EditProduct opens the form for a loaded product.
func (m *SessionManager) EditProduct(ctx context.Context, id ID) error {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return err
	}
	return d.EditProductByID(id)
}

// CancelProductForm discards the form.
func (m *SessionManager) CancelProductForm(ctx context.Context) error {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return err
	}
	d.CancelProductForm()
	return nil
}

// SaveProduct records the form fields and submits them.
func (m *SessionManager) SaveProduct(ctx context.Context, input ProductFormInput) error {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return err
	}
	if err := d.SetProductFields(input); err != nil {
		return err
	}
	return d.SubmitProduct(ctx)
}

// DismissNotices clears the banners.
func (m *SessionManager) DismissNotices(ctx context.Context) error {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return err
	}
	d.DismissNotices()
	return nil
}

// Refresh reloads every collection.
func (m *SessionManager) Refresh(ctx context.Context) error {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return err
	}
	return d.Refresh(ctx)
}

// View returns the dashboard snapshot for the session on ctx.
func (m *SessionManager) View(ctx context.Context) (View, error) {
	d, err := m.Dashboard(ctx)
	if err != nil {
		return View{}, err
	}
	return d.View(), nil
}
