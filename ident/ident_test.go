package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clara-graph/rule"
)

func TestIDs(t *testing.T) {
	assert.Equal(t, "0-abc123", ConditionID(0, "abc123"))
	assert.Equal(t, "12-abc123", ConditionID(12, "abc123"))
	assert.Equal(t, "FT-org.example.Order", FactID("org.example.Order"))
	assert.Equal(t, "P-abc123", ProductionID("abc123"))
}

func TestFactSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"org.example.Order", "org.example/->Order"},
		{"org_example.Order", "org.example/->Order"},
		{"Order", "->Order"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FactSymbol(tt.in))
		})
	}
}

func TestConstructedType(t *testing.T) {
	tests := []struct {
		name   string
		sym    string
		want   string
		wantOK bool
	}{
		{"qualified", "org.example/->Shipped", "org.example.Shipped", true},
		{"mangled namespace", "org_example/->Shipped", "org.example.Shipped", true},
		{"bare", "->Shipped", "Shipped", true},
		{"map constructor is not positional", "org.example/map->Shipped", "", false},
		{"plain call", "clara.rules/insert!", "", false},
		{"prefix only", "org.example/->", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConstructedType(rule.ParseSymbol(tt.sym))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFactSymbolRoundTrip(t *testing.T) {
	for _, name := range []string{"org.example.Order", "a.b.c.Deep", "Plain"} {
		got, ok := ConstructedType(rule.ParseSymbol(FactSymbol(name)))
		assert.True(t, ok)
		assert.Equal(t, name, got)
	}
}
