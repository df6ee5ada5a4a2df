package version

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"v1.2.3", "1.2.3"},
		{"1.2.3", "1.2.3"},
		{"  v1.2.3  ", "1.2.3"},
		{"  2.0.0", "2.0.0"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseStandardSemver(t *testing.T) {
	p := Parse("1.2.3")
	if !p.IsSemantic() {
		t.Fatal("Expected semantic version")
	}
	if p.Semantic.Major() != 1 || p.Semantic.Minor() != 2 || p.Semantic.Patch() != 3 {
		t.Errorf("Expected 1.2.3, got %s", p.Semantic)
	}
}

func TestParseWithVPrefix(t *testing.T) {
	p := Parse("v2.0.0")
	if !p.IsSemantic() {
		t.Fatal("Expected semantic version")
	}
	if p.Semantic.Major() != 2 || p.Semantic.Minor() != 0 || p.Semantic.Patch() != 0 {
		t.Errorf("Expected 2.0.0, got %s", p.Semantic)
	}
}

func TestParseTwoPartVersion(t *testing.T) {
	p := Parse("1.2")
	if !p.IsSemantic() {
		t.Fatal("Expected semantic version")
	}
	if p.Semantic.Major() != 1 || p.Semantic.Minor() != 2 || p.Semantic.Patch() != 0 {
		t.Errorf("Expected 1.2.0, got %s", p.Semantic)
	}
}

func TestParseBareMajorVersion(t *testing.T) {
	p := Parse("5")
	if !p.IsSemantic() {
		t.Fatal("Expected semantic version")
	}
	if p.Semantic.Major() != 5 || p.Semantic.Minor() != 0 || p.Semantic.Patch() != 0 {
		t.Errorf("Expected 5.0.0, got %s", p.Semantic)
	}
}

func TestParsePrerelease(t *testing.T) {
	p := Parse("1.0.0-alpha.1")
	if !p.IsSemantic() {
		t.Fatal("Expected semantic version")
	}
	if p.Semantic.Prerelease() == "" {
		t.Error("Expected non-empty prerelease tag")
	}
}

func TestParseUnderscoreSuffix(t *testing.T) {
	p := Parse("1.2.3_1")
	if !p.IsSemantic() {
		t.Fatal("Expected semantic version")
	}
	if p.Semantic.Major() != 1 || p.Semantic.Minor() != 2 || p.Semantic.Patch() != 3 {
		t.Errorf("Expected 1.2.3, got %s", p.Semantic)
	}
}

func TestParseFourComponents(t *testing.T) {
	p := Parse("1.2.3.4")
	if !p.IsSemantic() {
		t.Fatal("Expected semantic version")
	}
	if p.Semantic.Major() != 1 || p.Semantic.Minor() != 2 || p.Semantic.Patch() != 3 {
		t.Errorf("Expected 1.2.3, got %s", p.Semantic)
	}
}

func TestParseDateStaysOpaque(t *testing.T) {
	p := Parse("2024-01-15")
	if p.IsSemantic() {
		t.Fatalf("Expected opaque version, got %s", p.Semantic)
	}
	if p.Opaque != "2024-01-15" {
		t.Errorf("Expected opaque '2024-01-15', got '%s'", p.Opaque)
	}
}

func TestParseYearLikeDottedStaysOpaque(t *testing.T) {
	// First component of 1000 or above is treated as a calendar year
	p := Parse("2024.01.15")
	if p.IsSemantic() {
		t.Fatalf("Expected opaque version, got %s", p.Semantic)
	}
}

func TestParseArbitraryStringStaysOpaque(t *testing.T) {
	p := Parse("  v snapshot-build-7a3f  ")
	if p.IsSemantic() {
		t.Fatal("Expected opaque version")
	}
	if p.Opaque != "snapshot-build-7a3f" {
		t.Errorf("Expected normalized opaque string, got '%s'", p.Opaque)
	}
}
