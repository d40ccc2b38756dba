package schema

import (
	"errors"
	"strings"
	"testing"

	"plinth/internal/gateway"
)

func itemsCollection() Collection {
	return Collection{
		Name: "items",
		Key:  "id",
		Columns: []Column{
			{Name: "name", Type: Text, Indexed: true},
			{Name: "price", Type: Double, Nullable: true},
			{Name: "count", Type: Integer, Nullable: true},
			{Name: "active", Type: Boolean, Nullable: true},
			{Name: "created_at", Type: Timestamp, Nullable: true},
			{Name: "meta", Type: JSON, Nullable: true},
		},
	}
}

func TestCollection_ValidateAccepts(t *testing.T) {
	c := itemsCollection()

	rec := gateway.Record{Key: "1", Fields: map[string]any{
		"name":       "a",
		"price":      9.5,
		"count":      float64(3), // JSON numbers decode as float64
		"active":     true,
		"created_at": "2026-08-31T10:00:00Z",
		"meta":       map[string]any{"tag": "x"},
	}}
	if err := c.Validate(rec); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Nullable columns may be absent or explicitly null.
	rec = gateway.Record{Key: "2", Fields: map[string]any{"name": "b", "price": nil}}
	if err := c.Validate(rec); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCollection_ValidateRejects(t *testing.T) {
	c := itemsCollection()

	cases := []struct {
		name string
		rec  gateway.Record
	}{
		{"empty key", gateway.Record{Key: "", Fields: map[string]any{"name": "a"}}},
		{"missing required field", gateway.Record{Key: "1", Fields: map[string]any{"price": 1.0}}},
		{"unknown field", gateway.Record{Key: "1", Fields: map[string]any{"name": "a", "bogus": 1}}},
		{"null required field", gateway.Record{Key: "1", Fields: map[string]any{"name": nil}}},
		{"wrong type", gateway.Record{Key: "1", Fields: map[string]any{"name": 42}}},
		{"fractional integer", gateway.Record{Key: "1", Fields: map[string]any{"name": "a", "count": 1.5}}},
		{"key shadow", gateway.Record{Key: "1", Fields: map[string]any{"name": "a", "id": "2"}}},
	}
	for _, tc := range cases {
		if err := c.Validate(tc.rec); !errors.Is(err, gateway.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestCollection_ValidatePatch(t *testing.T) {
	c := itemsCollection()

	if err := c.ValidatePatch(map[string]any{"price": 2.0}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	// A patch may omit required fields; it only changes what it names.
	if err := c.ValidatePatch(map[string]any{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := c.ValidatePatch(map[string]any{"id": "2"}); !errors.Is(err, gateway.ErrValidation) {
		t.Errorf("expected ErrValidation for key patch, got %v", err)
	}
	if err := c.ValidatePatch(map[string]any{"name": nil}); !errors.Is(err, gateway.ErrValidation) {
		t.Errorf("expected ErrValidation for null on non-nullable, got %v", err)
	}
}

func TestCollection_CreateTableSQL(t *testing.T) {
	c := Collection{
		Name: "items",
		Key:  "id",
		Columns: []Column{
			{Name: "name", Type: Text, Unique: true},
			{Name: "price", Type: Double, Nullable: true},
		},
	}

	sql := c.CreateTableSQL()
	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "items"`,
		`"id" text PRIMARY KEY`,
		`"name" text NOT NULL UNIQUE`,
		`"price" double precision`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("DDL missing %q:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, `"price" double precision NOT NULL`) {
		t.Errorf("nullable column rendered NOT NULL:\n%s", sql)
	}
}

func TestCollection_CreateIndexSQL(t *testing.T) {
	c := itemsCollection()

	stmts := c.CreateIndexSQL()
	if len(stmts) != 1 {
		t.Fatalf("expected 1 index statement, got %d", len(stmts))
	}
	want := `CREATE INDEX IF NOT EXISTS "idx_items_name" ON "items" ("name")`
	if stmts[0] != want {
		t.Errorf("expected %q, got %q", want, stmts[0])
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := QuoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("unexpected quoting: %s", got)
	}
}
