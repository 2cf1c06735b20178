package common

import (
	"reflect"
	"testing"
)

// TestMapPreservesInsertionOrder tests that keys come back in the order they
// were first set
func TestMapPreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("c", Int(1))
	m.Set("a", Int(2))
	m.Set("b", Int(3))

	expected := []string{"c", "a", "b"}
	if got := m.Keys(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected key order %v, got %v", expected, got)
	}

	var ranged []string
	m.Range(func(key string, v Value) bool {
		ranged = append(ranged, key)
		return true
	})
	if !reflect.DeepEqual(ranged, expected) {
		t.Errorf("Expected range order %v, got %v", expected, ranged)
	}
}

// TestMapOverwriteKeepsPosition tests that overwriting a key updates the
// value without moving the key
func TestMapOverwriteKeepsPosition(t *testing.T) {
	m := NewMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	m.Set("a", Int(99))

	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected key order unchanged after overwrite, got %v", got)
	}
	if m.Len() != 2 {
		t.Errorf("Expected 2 entries after overwrite, got %d", m.Len())
	}
	if got := m.GetInt("a"); got != 99 {
		t.Errorf("Expected overwritten value 99, got %d", got)
	}
}

// TestMapTypedGetters tests the lenient typed accessors
func TestMapTypedGetters(t *testing.T) {
	m := NewMap()
	m.Set("s", String("hello"))
	m.Set("b", Bool(true))
	m.Set("i", Int(-7))

	if got := m.GetString("s"); got != "hello" {
		t.Errorf("Expected hello, got %q", got)
	}
	if !m.GetBool("b") {
		t.Error("Expected true")
	}
	if got := m.GetInt("i"); got != -7 {
		t.Errorf("Expected -7, got %d", got)
	}

	// absent keys and type mismatches yield zero values
	if m.GetString("missing") != "" || m.GetString("i") != "" {
		t.Error("Expected empty string for absent key and type mismatch")
	}
	if m.GetBool("s") || m.GetInt("b") != 0 {
		t.Error("Expected zero values on type mismatch")
	}
}

// TestMapRangeStopsEarly tests that returning false halts iteration
func TestMapRangeStopsEarly(t *testing.T) {
	m := NewMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	m.Set("c", Int(3))

	count := 0
	m.Range(func(key string, v Value) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Errorf("Expected iteration to stop after 2 entries, got %d", count)
	}
}

// TestEnvelopeOutcome tests the head-based outcome accessors
func TestEnvelopeOutcome(t *testing.T) {
	env := NewEnvelope()
	if env.Result() {
		t.Error("Expected a fresh envelope to report result=false")
	}
	if env.Message() != "" {
		t.Error("Expected a fresh envelope to have no message")
	}

	env.Head.Set(HeadResult, Bool(true))
	env.Head.Set(HeadMessage, String("ok"))
	if !env.Result() || env.Message() != "ok" {
		t.Errorf("Unexpected outcome: result=%t message=%q", env.Result(), env.Message())
	}
}
