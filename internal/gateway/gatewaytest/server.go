// Package gatewaytest provides an in-memory persons collection served over
// HTTP for tests of the gateway client and everything built on it.
package gatewaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"phonebook/internal/contact"
)

// Path is where the collection is mounted.
const Path = "/api/persons"

// Call records one request received by the server.
type Call struct {
	Method    string
	ID        contact.ID
	Payload   contact.Payload
	RequestID string
}

type failure struct {
	status  int
	message string
	raw     string
}

// Server is a fake collection. Records keep insertion order.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	records  []contact.Contact
	calls    []Call
	failures map[string][]failure
}

// NewServer starts a server seeded with records. It is closed on test cleanup.
func NewServer(t testing.TB, seed ...contact.Contact) *Server {
	t.Helper()
	s := &Server{
		records:  append([]contact.Contact(nil), seed...),
		failures: make(map[string][]failure),
	}

	r := chi.NewRouter()
	r.Route(Path, func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.remove)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the collection endpoint for gateway.New.
func (s *Server) BaseURL() string { return s.URL + Path }

// FailNext makes the next request with the given method fail with status and
// a JSON body {"error": message}.
func (s *Server) FailNext(method string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], failure{status: status, message: message})
}

// FailNextRaw makes the next request with the given method fail with a body
// that is not the usual error document.
func (s *Server) FailNextRaw(method string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], failure{status: status, raw: body})
}

// Records returns a copy of the current collection.
func (s *Server) Records() []contact.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contact.Contact(nil), s.records...)
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many requests used method.
func (s *Server) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Remove deletes a record behind the client's back.
func (s *Server) Remove(id contact.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = removeByID(s.records, id)
}

func (s *Server) record(r *http.Request, id contact.ID, p contact.Payload) (failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{
		Method:    r.Method,
		ID:        id,
		Payload:   p,
		RequestID: r.Header.Get("X-Request-ID"),
	})
	queue := s.failures[r.Method]
	if len(queue) == 0 {
		return failure{}, false
	}
	s.failures[r.Method] = queue[1:]
	return queue[0], true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.record(r, "", contact.Payload{}); ok {
		writeFailure(w, f)
		return
	}
	writeJSON(w, http.StatusOK, s.Records())
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePayload(w, r)
	if !ok {
		return
	}
	if f, failed := s.record(r, "", p); failed {
		writeFailure(w, f)
		return
	}
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Number) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name or number missing"})
		return
	}

	c := contact.Contact{ID: contact.ID(uuid.NewString()), Name: p.Name, Number: p.Number}
	s.mu.Lock()
	s.records = append(s.records, c)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := contact.ID(chi.URLParam(r, "id"))
	p, ok := decodePayload(w, r)
	if !ok {
		return
	}
	if f, failed := s.record(r, id, p); failed {
		writeFailure(w, f)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Name = p.Name
			s.records[i].Number = p.Number
			writeJSON(w, http.StatusOK, s.records[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Information of " + p.Name + " has already been removed from server"})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := contact.ID(chi.URLParam(r, "id"))
	if f, failed := s.record(r, id, contact.Payload{}); failed {
		writeFailure(w, f)
		return
	}

	s.mu.Lock()
	s.records = removeByID(s.records, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func removeByID(records []contact.Contact, id contact.ID) []contact.Contact {
	out := records[:0]
	for _, c := range records {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func decodePayload(w http.ResponseWriter, r *http.Request) (contact.Payload, bool) {
	var p contact.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return p, false
	}
	return p, true
}

func writeFailure(w http.ResponseWriter, f failure) {
	if f.raw != "" || f.message == "" {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.raw))
		return
	}
	writeJSON(w, f.status, map[string]string{"error": f.message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
