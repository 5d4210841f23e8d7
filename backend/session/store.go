// Package session provides a server-side session store for the admin pages.
// Values live in process memory keyed by a random identifier; only the
// identifier travels to the browser, encoded with securecookie. Keeping the
// identifier server-side is what makes regeneration a real create-new/
// delete-old operation rather than a field update.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

type entry struct {
	values  map[interface{}]interface{}
	expires time.Time
}

// MemoryStore implements gorilla's sessions.Store. Sessions do not survive a
// process restart, which matches the cookie-session security model: only the
// account table is durable.
type MemoryStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	mu   sync.Mutex
	data map[string]*entry
}

func NewMemoryStore(keyPairs ...[]byte) *MemoryStore {
	s := &MemoryStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:   "/",
			MaxAge: 86400,
		},
		data: make(map[string]*entry),
	}
	go s.cleanup()
	return s
}

// Get returns a cached session for the request, creating one if needed.
func (s *MemoryStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie, or starts a fresh
// one when the cookie is missing, invalid or expired. Stored values are
// copied out so concurrent requests never share the live map.
func (s *MemoryStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return session, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[id]
	if !ok || time.Now().After(e.expires) {
		return session, nil
	}
	session.ID = id
	session.Values = copyValues(e.values)
	session.IsNew = false
	return session, nil
}

// Save persists the session values and writes the identifier cookie. A
// negative MaxAge destroys the session server-side and expires the cookie.
func (s *MemoryStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		s.mu.Lock()
		delete(s.data, session.ID)
		s.mu.Unlock()
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newSessionID()
	}

	s.mu.Lock()
	s.data[session.ID] = &entry{
		values:  copyValues(session.Values),
		expires: time.Now().Add(time.Duration(session.Options.MaxAge) * time.Second),
	}
	s.mu.Unlock()

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Regenerate swaps the session onto a fresh identifier and deletes the old
// server-side entry, invalidating any cookie an attacker may have planted.
// Must be called before Save at every authentication-state transition.
func (s *MemoryStore) Regenerate(session *sessions.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.ID != "" {
		delete(s.data, session.ID)
	}
	session.ID = newSessionID()
}

// cleanup evicts expired entries periodically.
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	for range ticker.C {
		now := time.Now()
		s.mu.Lock()
		for id, e := range s.data {
			if now.After(e.expires) {
				delete(s.data, id)
			}
		}
		s.mu.Unlock()
	}
}

func copyValues(src map[interface{}]interface{}) map[interface{}]interface{} {
	dst := make(map[interface{}]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func newSessionID() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
