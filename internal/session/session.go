package session

import "go.mongodb.org/mongo-driver/bson"

// Session is the per-visitor key/value bag. Mutations go through Set,
// Delete or MarkDirty so the dirty flag tracks whether the middleware
// needs to write the session back.
type Session struct {
	ID     string
	values bson.M
	dirty  bool
}

// New creates an empty, clean session with the given id.
func New(id string) *Session {
	return &Session{ID: id, values: bson.M{}}
}

func (s *Session) Get(key string) (interface{}, bool) {
	value, ok := s.values[key]
	return value, ok
}

func (s *Session) Set(key string, value interface{}) {
	s.values[key] = value
	s.dirty = true
}

// Delete is a no-op when the key is absent, so it never dirties a
// session needlessly.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

func (s *Session) MarkDirty() {
	s.dirty = true
}

func (s *Session) Dirty() bool {
	return s.dirty
}
