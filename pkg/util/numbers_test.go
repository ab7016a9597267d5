package util

import (
	"encoding/json"
	"testing"
)

func TestToFloatNumber(t *testing.T) {
	got, ok := ToFloat(6.5)
	if !ok || got != 6.5 {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestToFloatNumericString(t *testing.T) {
	got, ok := ToFloat("7.25")
	if !ok || got != 7.25 {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestToFloatJSONNumber(t *testing.T) {
	got, ok := ToFloat(json.Number("28"))
	if !ok || got != 28 {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestToFloatRejectsText(t *testing.T) {
	if _, ok := ToFloat("n/a"); ok {
		t.Fatalf("expected failure")
	}
	if _, ok := ToFloat(nil); ok {
		t.Fatalf("expected failure")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(1.5, 0, 1) != 1 {
		t.Fatalf("expected upper clamp")
	}
	if Clamp(-0.1, 0, 1) != 0 {
		t.Fatalf("expected lower clamp")
	}
	if Clamp(0.42, 0, 1) != 0.42 {
		t.Fatalf("expected passthrough")
	}
}
