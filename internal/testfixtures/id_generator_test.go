package testfixtures

import "testing"

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("res")
	if got := gen.Next(); got != "res-1" {
		t.Fatalf("first id = %q, want res-1", got)
	}
	if got := gen.Next(); got != "res-2" {
		t.Fatalf("second id = %q, want res-2", got)
	}
}

func TestIDGeneratorDefaultsPrefix(t *testing.T) {
	gen := NewIDGenerator("")
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("id = %q, want id-1", got)
	}
}

func TestNilIDGeneratorNextFunc(t *testing.T) {
	var gen *IDGenerator
	if got := gen.NextFunc()(); got != "" {
		t.Fatalf("nil generator produced %q", got)
	}
}
