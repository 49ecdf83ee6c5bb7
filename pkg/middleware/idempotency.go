package middleware

import (
	"bytes"
	"crypto/sha256"
	"io"
	"net/http"
	"sync"
	"time"

	"roomkeeper/pkg/actor"
)

const (
	DefaultIdempotencyHeader = "Idempotency-Key"
	ReplayedHeader           = "Idempotent-Replayed"
)

// IdempotencyStore remembers completed responses per key and tracks keys
// whose first request is still being handled.
type IdempotencyStore interface {
	// Begin claims key for a new request. It returns the cached response if
	// the key already completed, or inFlight if another request holds it.
	Begin(key string, fingerprint [32]byte) (cached *CachedResponse, inFlight bool)
	// Finish releases the claim, caching response when it is non-nil.
	Finish(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode  int
	Headers     http.Header
	Body        []byte
	Fingerprint [32]byte
	CreatedAt   time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	done     map[string]*CachedResponse
	pending  map[string]struct{}
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		done:    make(map[string]*CachedResponse),
		pending: make(map[string]struct{}),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *InMemoryIdempotencyStore) Begin(key string, _ [32]byte) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.done[key]; ok {
		if s.now().Sub(cached.CreatedAt) <= s.ttl {
			return cached, false
		}
		delete(s.done, key)
	}
	if _, busy := s.pending[key]; busy {
		return nil, true
	}
	s.pending[key] = struct{}{}
	return nil, false
}

func (s *InMemoryIdempotencyStore) Finish(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, key)
	if response != nil {
		response.CreatedAt = s.now()
		s.done[key] = response
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, response := range s.done {
				if s.now().Sub(response.CreatedAt) > s.ttl {
					delete(s.done, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated key.
// Keys are scoped to the calling actor and route so two guests cannot
// collide. Reusing a key with a different body is rejected, and a duplicate
// arriving while the first request is still running gets 409.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := idempotencyKey(r, headerName)
			if key == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "Failed to read request body", "INVALID_INPUT")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint := sha256.Sum256(body)

			cached, inFlight := store.Begin(key, fingerprint)
			switch {
			case inFlight:
				writeJSONError(w, http.StatusConflict, "A request with this idempotency key is in progress", "CONFLICT")
				return
			case cached != nil && cached.Fingerprint != fingerprint:
				writeJSONError(w, http.StatusUnprocessableEntity, "Idempotency key reused with a different request body", "VALIDATION_ERROR")
				return
			case cached != nil:
				replay(w, cached)
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			var response *CachedResponse
			defer func() { store.Finish(key, response) }()

			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				response = &CachedResponse{
					StatusCode:  capture.statusCode,
					Headers:     w.Header().Clone(),
					Body:        bytes.Clone(capture.body.Bytes()),
					Fingerprint: fingerprint,
				}
			}
		})
	}
}

func idempotencyKey(r *http.Request, headerName string) string {
	key := r.Header.Get(headerName)
	if key == "" {
		return ""
	}
	return r.Header.Get(actor.HeaderID) + "|" + r.Method + "|" + r.URL.Path + "|" + key
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
