package session

import "testing"

func TestNewSessionIsClean(t *testing.T) {
	s := New("abc")
	if s.Dirty() {
		t.Fatal("fresh session must not be dirty")
	}
	if _, ok := s.Get("anything"); ok {
		t.Fatal("fresh session must be empty")
	}
}

func TestSetMarksDirty(t *testing.T) {
	s := New("abc")
	s.Set("cart", "value")
	if !s.Dirty() {
		t.Fatal("Set must mark the session dirty")
	}

	value, ok := s.Get("cart")
	if !ok || value != "value" {
		t.Fatalf("expected stored value back, got %v (%v)", value, ok)
	}
}

func TestDeleteAbsentKeyStaysClean(t *testing.T) {
	s := New("abc")
	s.Delete("missing")
	if s.Dirty() {
		t.Fatal("deleting an absent key must not dirty the session")
	}

	s.Set("k", 1)
	s.dirty = false
	s.Delete("k")
	if !s.Dirty() {
		t.Fatal("deleting a present key must dirty the session")
	}
	if _, ok := s.Get("k"); ok {
		t.Fatal("key survived delete")
	}
}
