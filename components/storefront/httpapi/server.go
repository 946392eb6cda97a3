package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/goliatone/go-storefront/components/storefront"
)

const (
	defaultCookieName = "storefront"
	sessionIDKey      = "sid"
)

// ServerOptions wires the net/http transport.
type ServerOptions struct {
	Sessions   *storefront.SessionManager
	Controller *storefront.Controller
	Handlers   *Handlers
	Broadcast  *storefront.BroadcastHook
	// Cookies stores the opaque session id. Use sessions.NewCookieStore with
	// the configured secret.
	Cookies    sessions.Store
	CookieName string
	Secure     bool
	MaxAge     time.Duration
	Metrics    http.Handler
	// MetricsPath defaults to /metrics.
	MetricsPath string
	Telemetry   storefront.Telemetry
}

// Server serves the catalog, the login flow and the admin dashboard on a
// standard library mux.
type Server struct {
	opts ServerOptions
	mux  *http.ServeMux
}

// NewServer validates the options and registers every route.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Sessions == nil {
		return nil, errors.New("httpapi: session manager is required")
	}
	if opts.Controller == nil {
		return nil, errors.New("httpapi: controller is required")
	}
	if opts.Cookies == nil {
		return nil, errors.New("httpapi: cookie store is required")
	}
	if opts.Handlers == nil {
		opts.Handlers = CommandHandlers(opts.Sessions, opts.Controller.Catalog(), nil)
	}
	if opts.Handlers.Redirect == "" {
		opts.Handlers.Redirect = opts.Controller.BasePath()
	}
	if opts.Handlers.LoginPath == "" {
		opts.Handlers.LoginPath = opts.Controller.LoginPath()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.CookieName == "" {
		opts.CookieName = defaultCookieName
	}
	if opts.Telemetry == nil {
		opts.Telemetry = storefront.SlogTelemetry{}
	}
	s := &Server{opts: opts, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// ServeHTTP dispatches the request and records its outcome.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.opts.Telemetry.Record(r.Context(), "storefront.http.request", map[string]any{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status":      rec.status,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (s *Server) routes() {
	c := s.opts.Controller
	h := s.opts.Handlers
	base := c.BasePath()

	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/products", http.StatusFound)
	})
	s.mux.HandleFunc("GET /products", s.handleCatalog)
	s.mux.HandleFunc("GET /products/{id}", s.handleProduct)
	s.mux.HandleFunc("POST /products/{id}/orders", s.handlePlaceOrder)
	s.mux.HandleFunc("POST /products/{id}/requests", s.handleSubmitRequest)
	if h.Categories != nil {
		s.mux.HandleFunc("GET /categories", h.HandleCategories)
	}
	s.mux.HandleFunc("GET /contact", s.handleContactPage)
	s.mux.HandleFunc("POST /contact", s.handleContact)
	s.mux.HandleFunc("GET "+c.LoginPath(), s.handleLoginPage)
	s.mux.HandleFunc("POST "+c.LoginPath(), s.handleLogin)
	s.mux.HandleFunc("POST "+c.LogoutPath(), s.handleLogout)
	if s.opts.Metrics != nil {
		s.mux.Handle("GET "+s.opts.MetricsPath, s.opts.Metrics)
	}

	admin := func(pattern string, fn http.HandlerFunc) {
		s.mux.Handle(pattern, s.requireSession(fn))
	}
	admin("GET "+base, s.handleDashboard)
	admin("GET "+base+"/_state", h.HandleState)
	admin("POST "+base+"/section", h.HandleSection)
	admin("POST "+base+"/refresh", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRefresh(w, r, false)
	})
	admin("POST "+base+"/dismiss", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRefresh(w, r, true)
	})
	admin("POST "+base+"/products/new", func(w http.ResponseWriter, r *http.Request) {
		h.HandleProductForm(w, r, "open", "")
	})
	admin("POST "+base+"/products/cancel", func(w http.ResponseWriter, r *http.Request) {
		h.HandleProductForm(w, r, "cancel", "")
	})
	admin("POST "+base+"/products/save", h.HandleSaveProduct)
	admin("POST "+base+"/products/{id}/edit", func(w http.ResponseWriter, r *http.Request) {
		h.HandleProductForm(w, r, "edit", r.PathValue("id"))
	})
	admin("POST "+base+"/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		h.HandleOrderStatus(w, r, r.PathValue("id"))
	})
	admin("POST "+base+"/{resource}/{id}/delete", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDelete(w, r, r.PathValue("resource"), r.PathValue("id"))
	})
	admin("DELETE "+base+"/{resource}/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDelete(w, r, r.PathValue("resource"), r.PathValue("id"))
	})
	if s.opts.Broadcast != nil {
		admin("GET "+c.EventsPath(), s.opts.Broadcast.ServeWebSocket)
		admin("GET "+base+"/events", s.opts.Broadcast.ServeSSE)
	}
}

// requireSession binds the cookie's session to the request context. Browsers
// without a live session are sent to the login page; API clients get 401.
func (s *Server) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.sessionID(r)
		if id == "" {
			s.unauthorized(w, r)
			return
		}
		if _, err := s.opts.Sessions.Get(id); err != nil {
			s.unauthorized(w, r)
			return
		}
		next(w, r.WithContext(storefront.ContextWithSession(r.Context(), id)))
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeError(w, storefront.ErrUnauthenticated)
		return
	}
	http.Redirect(w, r, s.opts.Controller.LoginPath(), http.StatusSeeOther)
}

func (s *Server) sessionID(r *http.Request) string {
	session, err := s.opts.Cookies.Get(r, s.opts.CookieName)
	if err != nil || session == nil {
		return ""
	}
	id, _ := session.Values[sessionIDKey].(string)
	return id
}

func (s *Server) saveSessionID(w http.ResponseWriter, r *http.Request, id string) error {
	// A cookie signed with a rotated secret fails to decode; a fresh one
	// replaces it.
	session, _ := s.opts.Cookies.Get(r, s.opts.CookieName)
	if session == nil {
		session = sessions.NewSession(s.opts.Cookies, s.opts.CookieName)
	}
	session.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(s.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if id == "" {
		delete(session.Values, sessionIDKey)
		session.Options.MaxAge = -1
	} else {
		session.Values[sessionIDKey] = id
	}
	return session.Save(r, w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.opts.Sessions.Dashboard(r.Context())
	if err != nil {
		s.unauthorized(w, r)
		return
	}
	if name := r.URL.Query().Get("section"); name != "" {
		section, err := storefront.ParseSection(name)
		if err != nil {
			writeError(w, err)
			return
		}
		_ = d.SelectSection(section)
	}
	s.renderHTML(w, r, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.opts.Controller.RenderDashboard(r.Context(), d, buf)
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) && s.opts.Handlers.Products != nil {
		s.opts.Handlers.HandleListProducts(w, r)
		return
	}
	s.renderHTML(w, r, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.opts.Controller.RenderCatalog(r.Context(), catalogQuery(r), storefront.CatalogPage{}, buf)
	})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) && s.opts.Handlers.Product != nil {
		s.opts.Handlers.HandleProduct(w, r, r.PathValue("id"))
		return
	}
	s.renderProduct(w, r, http.StatusOK, storefront.CatalogPage{})
}

func (s *Server) renderProduct(w http.ResponseWriter, r *http.Request, status int, page storefront.CatalogPage) {
	id := storefront.ID(r.PathValue("id"))
	s.renderHTML(w, r, status, func(buf *bytes.Buffer) error {
		return s.opts.Controller.RenderProduct(r.Context(), id, page, buf)
	})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		s.opts.Handlers.HandlePlaceOrder(w, r, r.PathValue("id"))
		return
	}
	var input storefront.PlaceOrderInput
	if err := decodeInput(r, &input, "customer_name", "message"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input.ProductID = storefront.ID(r.PathValue("id"))
	err := s.opts.Handlers.PlaceOrder.Execute(r.Context(), input)
	status, page := formOutcome(err, "storefront.order.placed")
	s.renderProduct(w, r, status, page)
}

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		s.opts.Handlers.HandleSubmitRequest(w, r)
		return
	}
	var input storefront.RequestInput
	if err := decodeInput(r, &input, "customer_name", "message"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := s.opts.Handlers.Request.Execute(r.Context(), input)
	status, page := formOutcome(err, "storefront.request.received")
	s.renderProduct(w, r, status, page)
}

func (s *Server) handleContactPage(w http.ResponseWriter, r *http.Request) {
	s.renderHTML(w, r, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.opts.Controller.RenderContact(r.Context(), storefront.CatalogPage{}, buf)
	})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		s.opts.Handlers.HandleContact(w, r)
		return
	}
	var input storefront.ContactInput
	if err := decodeInput(r, &input, "name", "email", "message"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := s.opts.Handlers.Contact.Execute(r.Context(), input)
	status, page := formOutcome(err, "storefront.message.sent")
	s.renderHTML(w, r, status, func(buf *bytes.Buffer) error {
		return s.opts.Controller.RenderContact(r.Context(), page, buf)
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderHTML(w, r, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.opts.Controller.RenderLogin(r.Context(), "", "", buf)
	})
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := decodeInput(r, &input, "email", "password"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, _, err := s.opts.Sessions.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		if wantsJSON(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}
		s.renderHTML(w, r, http.StatusUnauthorized, func(buf *bytes.Buffer) error {
			return s.opts.Controller.RenderLogin(r.Context(), input.Email, err.Error(), buf)
		})
		return
	}
	if err := s.saveSessionID(w, r, id); err != nil {
		_ = s.opts.Sessions.Logout(context.WithoutCancel(r.Context()), id)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "session": id})
		return
	}
	http.Redirect(w, r, s.opts.Controller.BasePath(), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := s.sessionID(r); id != "" {
		if err := s.opts.Sessions.Logout(r.Context(), id); err != nil && !errors.Is(err, storefront.ErrSessionNotFound) {
			s.opts.Telemetry.Record(r.Context(), "storefront.session.logout_error", map[string]any{"error": err.Error()})
		}
	}
	_ = s.saveSessionID(w, r, "")
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	http.Redirect(w, r, s.opts.Controller.LoginPath(), http.StatusSeeOther)
}

func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request, status int, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		code := StatusFor(err)
		if code == http.StatusUnauthorized {
			s.unauthorized(w, r)
			return
		}
		http.Error(w, err.Error(), code)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// formOutcome turns a public form result into the page notice. Input errors
// get a generic prompt; backend messages are shown verbatim.
func formOutcome(err error, successKey string) (int, storefront.CatalogPage) {
	switch {
	case err == nil:
		return http.StatusOK, storefront.CatalogPage{Success: storefront.SuccessText(successKey)}
	case storefront.IsInputError(err):
		return http.StatusBadRequest, storefront.CatalogPage{Error: "Please fill in all required fields."}
	}
	return StatusFor(err), storefront.CatalogPage{Error: err.Error()}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("httpapi: response writer does not support hijacking")
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
