// Package fakeapi is an in-memory CRM backend with the routes, session cookie and
// error envelope of the real API. Tests of the client, query, session and dashboard
// packages run against it.
package fakeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
)

type contextKey string

const actorKey contextKey = "actor"

type account struct {
	password    string
	permissions []string
}

type failure struct {
	status  int
	message string
}

// Server holds the state of the fake backend.
type Server struct {
	mu sync.Mutex

	users        *collection[crm.User]
	accounts     map[string]*account
	prospects    *collection[crm.Prospect]
	roles        *collection[crm.Role]
	permissions  *collection[crm.Permission]
	comments     *collection[crm.Comment]
	interactions *collection[crm.Interaction]
	formations   *collection[crm.Formation]
	simulateurs  *collection[crm.Simulateur]
	sessions     map[string]string

	requests map[string]int
	failures map[string]failure
	hook     func(*http.Request)

	router chi.Router
}

// New creates an empty backend.
func New() *Server {
	s := &Server{
		users:        newCollection[crm.User](),
		accounts:     make(map[string]*account),
		prospects:    newCollection[crm.Prospect](),
		roles:        newCollection[crm.Role](),
		permissions:  newCollection[crm.Permission](),
		comments:     newCollection[crm.Comment](),
		interactions: newCollection[crm.Interaction](),
		formations:   newCollection[crm.Formation](),
		simulateurs:  newCollection[crm.Simulateur](),
		sessions:     make(map[string]string),
		requests:     make(map[string]int),
		failures:     make(map[string]failure),
	}

	s.router = s.routes()

	return s
}

// Handler returns the HTTP handler of the backend.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the backend on a loopback listener. The caller closes it.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.router)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", crm.RequestIDHeader},
		AllowCredentials: true,
	}))
	r.Use(s.record)

	r.Post("/auth/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/auth/logout", s.logout)
		r.Get("/auth/me", s.me)

		s.mountProspects(r)
		s.mountUsers(r)
		s.mountRoles(r)
		s.mountPermissions(r)
		s.mountComments(r)
		s.mountInteractions(r)
		s.mountFormations(r)
		s.mountSimulateurs(r)
	})

	return r
}

// record counts the request, runs the hook and answers injected failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := requestKey(r.Method, r.URL.Path)

		s.mu.Lock()
		s.requests[key]++
		hook := s.hook
		injected, failing := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}

		if failing {
			writeError(w, injected.status, injected.message)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(constants.DefaultSessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")

			return
		}

		s.mu.Lock()
		userID, ok := s.sessions[cookie.Value]
		s.mu.Unlock()

		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")

			return
		}

		ctx := context.WithValue(r.Context(), actorKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetHook installs a function called before every request is handled. Tests use it
// to hold a request in flight.
func (s *Server) SetHook(hook func(*http.Request)) {
	s.mu.Lock()
	s.hook = hook
	s.mu.Unlock()
}

// FailNext makes the next request to method and path answer with status and message.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	s.failures[requestKey(method, path)] = failure{status: status, message: message}
	s.mu.Unlock()
}

// Requests returns how many requests reached method and path.
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests[requestKey(method, path)]
}

// TotalRequests returns the number of requests served so far.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, count := range s.requests {
		total += count
	}

	return total
}

// ResetRequests zeroes the request counters.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	s.requests = make(map[string]int)
	s.mu.Unlock()
}

// AddUser seeds a user able to log in with password and holding permissions.
func (s *Server) AddUser(user crm.User, password string, permissions ...string) *crm.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addUserLocked(user, password, permissions...)
}

func (s *Server) addUserLocked(user crm.User, password string, permissions ...string) *crm.User {
	stamp(&user.Resource)

	if user.Role == "" {
		user.Role = crm.UserRoleSalesOfficer
	}

	if user.Status == "" {
		user.Status = crm.GenericStatusActive
		user.IsActive = true
	}

	s.users.put(user.ID, &user)
	s.accounts[user.ID] = &account{password: password, permissions: append([]string(nil), permissions...)}

	stored := user

	return &stored
}

// AddProspect seeds a prospect. Missing statuses default to the initial stage and
// a missing creator to the first seeded user.
func (s *Server) AddProspect(prospect crm.Prospect) *crm.Prospect {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(&prospect.Resource)

	if prospect.CreatedByID == "" {
		prospect.CreatedByID = s.defaultCreatorLocked()
	}

	if creator, ok := s.users.get(prospect.CreatedByID); ok && prospect.CreatedBy == nil {
		prospect.CreatedBy = creator.Summary()
	}

	if prospect.Type == "" {
		prospect.Type = crm.ProspectTypeParticulier
	}

	if prospect.Status == "" {
		prospect.Status = crm.InitialProspectStatus
	}

	if prospect.GenericStatus == "" {
		prospect.GenericStatus = crm.GenericStatusActive
	}

	s.prospects.put(prospect.ID, &prospect)

	stored := prospect

	return &stored
}

// defaultCreatorLocked returns the first seeded user, seeding an administrator
// that cannot log in when there is none.
func (s *Server) defaultCreatorLocked() string {
	if len(s.users.order) > 0 {
		return s.users.order[0]
	}

	system := s.addUserLocked(crm.User{
		Email:     "system@crm.local",
		FirstName: "System",
		Role:      crm.UserRoleDirecteurGeneral,
	}, "")
	delete(s.accounts, system.ID)

	return system.ID
}

// AddPermission seeds a permission.
func (s *Server) AddPermission(name, description string) *crm.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()

	permission := &crm.Permission{ID: uuid.NewString(), Name: name, Description: description}
	s.permissions.put(permission.ID, permission)

	stored := *permission

	return &stored
}

// Prospect returns the stored prospect, bypassing HTTP.
func (s *Server) Prospect(id string) (crm.Prospect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prospect, ok := s.prospects.get(id)
	if !ok {
		return crm.Prospect{}, false
	}

	return *prospect, true
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var request crm.LoginRequest

	if !decodeBody(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.userByEmail(request.Email)
	if !ok || s.accounts[user.ID] == nil || s.accounts[user.ID].password != request.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")

		return
	}

	if !user.IsActive {
		writeError(w, http.StatusForbidden, "Account is disabled")

		return
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now

	token := uuid.NewString()
	s.sessions[token] = user.ID

	http.SetCookie(w, &http.Cookie{
		Name:     constants.DefaultSessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, s.meOf(user))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(constants.DefaultSessionCookie)
	if err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.DefaultSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users.get(actorID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")

		return
	}

	writeJSON(w, http.StatusOK, s.meOf(user))
}

func (s *Server) meOf(user *crm.User) crm.Me {
	permissions := []string{}
	if acct := s.accounts[user.ID]; acct != nil {
		permissions = append(permissions, acct.permissions...)
	}

	if role, ok := s.roles.get(user.RoleID); ok {
		permissions = append(permissions, role.PermissionNames()...)
	}

	return crm.Me{User: *user, Permissions: permissions}
}

func (s *Server) userByEmail(email string) (*crm.User, bool) {
	for _, id := range s.users.order {
		user := s.users.items[id]
		if strings.EqualFold(user.Email, email) {
			return user, true
		}
	}

	return nil, false
}

func (s *Server) can(userID, permission string) bool {
	user, ok := s.users.get(userID)
	if !ok {
		return false
	}

	for _, granted := range s.meOf(user).Permissions {
		if granted == permission {
			return true
		}
	}

	return false
}

func actorID(r *http.Request) string {
	id, _ := r.Context().Value(actorKey).(string)

	return id
}

func requestKey(method, path string) string {
	return method + " " + path
}

func stamp(resource *crm.Resource) {
	now := time.Now().UTC().Truncate(time.Millisecond)

	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}

	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = now
	}

	resource.UpdatedAt = now
}

func touch(resource *crm.Resource) {
	resource.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
}

type errorResponse struct {
	StatusCode int         `json:"statusCode"`
	Message    interface{} `json:"message"`
	Error      string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// writeValidation answers with the list form of the message used for DTO validation.
func writeValidation(w http.ResponseWriter, messages []string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    messages,
		Error:      http.StatusText(http.StatusBadRequest),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(target)
	if err != nil {
		writeValidation(w, []string{err.Error()})

		return false
	}

	return true
}

func paginate[T any](items []T, r *http.Request) []T {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if limit <= 0 {
		return items
	}

	if page <= 0 {
		page = 1
	}

	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}

	end := min(start+limit, len(items))

	return items[start:end]
}
