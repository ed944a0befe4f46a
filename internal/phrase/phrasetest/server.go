/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package phrasetest provides an in-memory fake of the Phrase API endpoints used by phrase-migrate.
package phrasetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
	"go.uber.org/atomic"
)

// Route names used by FailureHook and RequestCount.
const (
	RouteListLocales    = "list_locales"
	RouteCreateKey      = "create_key"
	RouteSetTranslation = "set_translation"
)

// Server is a fake Phrase API. Create it with NewServer and point the client to Server.URL.
type Server struct {
	*httptest.Server

	// Token, when set, is required in the "Authorization: token <Token>" header.
	Token string

	// Latency is added to every request.
	Latency time.Duration

	// FailureHook is called for every authorized request.
	// A non-zero returned status is sent instead of handling the request.
	FailureHook func(route string, r *http.Request) int

	mu       sync.Mutex
	projects map[string]*project
	requests map[string]int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

type project struct {
	locales      []locale
	keys         map[string]string // name -> id
	keyNames     []string
	translations map[string]map[string]string // key name -> locale code -> content
}

type locale struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// NewServer starts a new fake server. It should be closed by the caller.
func NewServer() *Server {
	s := &Server{projects: make(map[string]*project), requests: make(map[string]int)}
	r := chi.NewRouter()
	r.Use(s.observe, s.authorize)
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/locales", s.route(RouteListLocales, s.listLocales))
		r.Post("/keys", s.route(RouteCreateKey, s.createKey))
		r.Post("/translations", s.route(RouteSetTranslation, s.setTranslation))
	})
	s.Server = httptest.NewServer(r)
	return s
}

// AddProject registers a project with the given locale codes. Locale IDs are "<projectID>-<code>".
func (s *Server) AddProject(projectID string, localeCodes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &project{keys: make(map[string]string), translations: make(map[string]map[string]string)}
	for _, code := range localeCodes {
		p.locales = append(p.locales, locale{ID: LocaleID(projectID, code), Name: code, Code: code})
	}
	s.projects[projectID] = p
}

// LocaleID returns the ID the server assigns to a project locale.
func LocaleID(projectID, code string) string {
	return projectID + "-" + code
}

// AddKey creates a key as if it existed before, and returns its ID.
func (s *Server) AddKey(projectID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects[projectID].addKey(name)
}

func (p *project) addKey(name string) string {
	id := xid.New().String()
	p.keys[name] = id
	p.keyNames = append(p.keyNames, name)
	return id
}

// Keys returns the project's key names in creation order.
func (s *Server) Keys(projectID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.projects[projectID].keyNames...)
}

// Translations returns a copy of the project's translations as key name -> locale code -> content.
func (s *Server) Translations(projectID string) map[string]map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make(map[string]map[string]string)
	for key, byLocale := range s.projects[projectID].translations {
		res[key] = make(map[string]string, len(byLocale))
		for code, content := range byLocale {
			res[key][code] = content
		}
	}
	return res
}

// RequestCount returns how many requests were routed to the given route.
func (s *Server) RequestCount(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// MaxInFlight returns the highest number of requests served simultaneously.
func (s *Server) MaxInFlight() int {
	return int(s.maxInFlight.Load())
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		n := s.inFlight.Inc()
		defer s.inFlight.Dec()
		for {
			maxN := s.maxInFlight.Load()
			if n <= maxN || s.maxInFlight.CompareAndSwap(maxN, n) {
				break
			}
		}
		if s.Latency > 0 {
			time.Sleep(s.Latency)
		}
		next.ServeHTTP(rw, r)
	})
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "token "+s.Token {
			writeError(rw, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(rw, r)
	})
}

func (s *Server) route(name string, h func(rw http.ResponseWriter, r *http.Request, p *project)) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[name]++
		s.mu.Unlock()
		if s.FailureHook != nil {
			if status := s.FailureHook(name, r); status != 0 {
				writeError(rw, status, http.StatusText(status))
				return
			}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		p, ok := s.projects[chi.URLParam(r, "projectID")]
		if !ok {
			writeError(rw, http.StatusNotFound, "Not Found")
			return
		}
		h(rw, r, p)
	}
}

func (s *Server) listLocales(rw http.ResponseWriter, r *http.Request, p *project) {
	page, perPage := 1, 25
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		perPage = v
	}
	start := (page - 1) * perPage
	if start > len(p.locales) {
		start = len(p.locales)
	}
	end := start + perPage
	if end > len(p.locales) {
		end = len(p.locales)
	}
	writeJSON(rw, http.StatusOK, p.locales[start:end])
}

func (s *Server) createKey(rw http.ResponseWriter, r *http.Request, p *project) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeValidationError(rw, "Key", "name", "can't be blank")
		return
	}
	if _, exists := p.keys[body.Name]; exists {
		writeValidationError(rw, "Key", "name", "has already been taken")
		return
	}
	id := p.addKey(body.Name)
	writeJSON(rw, http.StatusCreated, map[string]string{"id": id, "name": body.Name})
}

func (s *Server) setTranslation(rw http.ResponseWriter, r *http.Request, p *project) {
	var body struct {
		KeyID    string `json:"key_id"`
		LocaleID string `json:"locale_id"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	keyName := ""
	for name, id := range p.keys {
		if id == body.KeyID {
			keyName = name
			break
		}
	}
	if keyName == "" {
		writeValidationError(rw, "Translation", "key_id", "is invalid")
		return
	}
	idx := -1
	for i := range p.locales {
		if p.locales[i].ID == body.LocaleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeValidationError(rw, "Translation", "locale_id", "is invalid")
		return
	}
	if p.translations[keyName] == nil {
		p.translations[keyName] = make(map[string]string)
	}
	p.translations[keyName][p.locales[idx].Code] = body.Content
	writeJSON(rw, http.StatusCreated, map[string]string{"id": xid.New().String(), "content": body.Content})
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, message string) {
	writeJSON(rw, status, map[string]string{"message": message})
}

func writeValidationError(rw http.ResponseWriter, resource, field, message string) {
	writeJSON(rw, http.StatusUnprocessableEntity, map[string]interface{}{
		"message": "Validation failed",
		"errors":  []map[string]string{{"resource": resource, "field": field, "message": message}},
	})
}

