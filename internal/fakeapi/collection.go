package fakeapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// collection keeps items in insertion order.
type collection[T any] struct {
	items map[string]*T
	order []string
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]*T)}
}

func (c *collection[T]) put(id string, item *T) {
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}

	c.items[id] = item
}

func (c *collection[T]) get(id string) (*T, bool) {
	item, ok := c.items[id]

	return item, ok
}

func (c *collection[T]) delete(id string) {
	if _, ok := c.items[id]; !ok {
		return
	}

	delete(c.items, id)

	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}
}

func (c *collection[T]) list(match func(*T) bool) []T {
	items := make([]T, 0, len(c.order))

	for _, id := range c.order {
		item := c.items[id]
		if match == nil || match(item) {
			items = append(items, *item)
		}
	}

	return items
}

// crud describes how one REST collection of the backend behaves.
type crud[T any, C any, U any] struct {
	name  string
	items *collection[T]

	match    func(item *T, query url.Values) bool
	create   func(actor string, request *C) (*T, int, []string)
	update   func(item *T, request *U) (int, string)
	remove   func(id string, item *T)
	decorate func(item *T)
}

// mount registers list, get, create, update and delete under path. Extra routes
// are registered first so static segments such as /stats take precedence.
func mount[T any, C any, U any](s *Server, r chi.Router, path string, res crud[T, C, U], extra func(chi.Router)) {
	notFound := strings.ToUpper(res.name[:1]) + res.name[1:] + " not found"

	r.Route(path, func(r chi.Router) {
		if extra != nil {
			extra(r)
		}

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			defer s.mu.Unlock()

			query := r.URL.Query()
			items := res.items.list(func(item *T) bool {
				return res.match == nil || res.match(item, query)
			})

			for i := range items {
				if res.decorate != nil {
					res.decorate(&items[i])
				}
			}

			writeJSON(w, http.StatusOK, paginate(items, r))
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var request C

			if !decodeBody(w, r, &request) {
				return
			}

			s.mu.Lock()
			defer s.mu.Unlock()

			item, status, messages := res.create(actorID(r), &request)
			if item == nil {
				if status == http.StatusBadRequest {
					writeValidation(w, messages)
				} else {
					writeError(w, status, strings.Join(messages, "; "))
				}

				return
			}

			created := *item
			if res.decorate != nil {
				res.decorate(&created)
			}

			writeJSON(w, http.StatusCreated, created)
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			defer s.mu.Unlock()

			item, ok := res.items.get(chi.URLParam(r, "id"))
			if !ok {
				writeError(w, http.StatusNotFound, notFound)

				return
			}

			found := *item
			if res.decorate != nil {
				res.decorate(&found)
			}

			writeJSON(w, http.StatusOK, found)
		})

		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			var request U

			if !decodeBody(w, r, &request) {
				return
			}

			s.mu.Lock()
			defer s.mu.Unlock()

			item, ok := res.items.get(chi.URLParam(r, "id"))
			if !ok {
				writeError(w, http.StatusNotFound, notFound)

				return
			}

			status, message := res.update(item, &request)
			if status != http.StatusOK {
				writeError(w, status, message)

				return
			}

			updated := *item
			if res.decorate != nil {
				res.decorate(&updated)
			}

			writeJSON(w, http.StatusOK, updated)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			defer s.mu.Unlock()

			id := chi.URLParam(r, "id")

			item, ok := res.items.get(id)
			if !ok {
				writeError(w, http.StatusNotFound, notFound)

				return
			}

			res.remove(id, item)

			removed := *item
			if res.decorate != nil {
				res.decorate(&removed)
			}

			writeJSON(w, http.StatusOK, removed)
		})
	})
}

func matches(want, have string) bool {
	return want == "" || strings.EqualFold(want, have)
}

func contains(search string, fields ...string) bool {
	if search == "" {
		return true
	}

	search = strings.ToLower(search)

	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}

	return false
}
