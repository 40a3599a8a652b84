package id

import (
	"database/sql/driver"
	"testing"
)

func TestNewHasPrefix(t *testing.T) {
	tests := []struct {
		name   string
		make   func() ID
		prefix Prefix
	}{
		{"feature", NewFeatureID, PrefixFeature},
		{"feature group", NewFeatureGroupID, PrefixFeatureGroup},
		{"token", NewTokenID, PrefixToken},
		{"grant", NewGrantID, PrefixGrant},
		{"decision log", NewDecisionLogID, PrefixDecisionLog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.make()
			if got.IsNil() {
				t.Fatal("expected non-nil ID")
			}
			if got.Prefix() != tt.prefix {
				t.Fatalf("expected prefix %q, got %q", tt.prefix, got.Prefix())
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	orig := NewFeatureGroupID()

	parsed, err := Parse(orig.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.String() != orig.String() {
		t.Fatalf("round trip mismatch: %s != %s", parsed, orig)
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty string")
	}
}

func TestParseWithPrefixMismatch(t *testing.T) {
	tok := NewTokenID()

	if _, err := ParseFeatureGroupID(tok.String()); err == nil {
		t.Fatal("expected error for wrong prefix")
	}
	if _, err := ParseTokenID(tok.String()); err != nil {
		t.Fatalf("expected matching prefix to parse, got %v", err)
	}
}

func TestNilID(t *testing.T) {
	var zero ID

	if !zero.IsNil() {
		t.Fatal("zero value must be nil")
	}
	if zero.String() != "" {
		t.Fatal("nil ID must render empty")
	}

	v, err := zero.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("nil ID must store NULL, got %v", v)
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	orig := NewGrantID()

	data, err := orig.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var back ID
	if err := back.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if back.String() != orig.String() {
		t.Fatal("text round trip mismatch")
	}
}

func TestScan(t *testing.T) {
	orig := NewTokenID()

	var fromString ID
	if err := fromString.Scan(orig.String()); err != nil {
		t.Fatal(err)
	}
	if fromString.String() != orig.String() {
		t.Fatal("scan from string mismatch")
	}

	var fromBytes ID
	if err := fromBytes.Scan([]byte(orig.String())); err != nil {
		t.Fatal(err)
	}
	if fromBytes.String() != orig.String() {
		t.Fatal("scan from bytes mismatch")
	}

	var fromNil ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !fromNil.IsNil() {
		t.Fatal("scan from nil must yield nil ID")
	}

	var bad ID
	if err := bad.Scan(42); err == nil {
		t.Fatal("expected error scanning int")
	}
}

// Value must satisfy driver.Valuer for grove model fields.
var _ driver.Valuer = ID{}
