// Package schema describes collections as named, typed columns and
// validates records against them. The Postgres driver also uses it to
// generate DDL for migrate-on-start.
package schema

import (
	"fmt"

	"plinth/internal/gateway"
)

// ColumnType enumerates the supported column types.
type ColumnType int

const (
	Text ColumnType = iota
	Integer
	Double
	Boolean
	Timestamp
	JSON
)

// Column describes one attribute of a collection.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	Unique   bool
	Indexed  bool
}

// Collection describes a persisted collection: its name, the column
// holding the primary key, and the remaining columns.
type Collection struct {
	Name    string
	Key     string
	Columns []Column
}

// Column returns the named column definition, or false.
func (c Collection) Column(name string) (Column, bool) {
	for _, col := range c.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Validate checks rec's fields against the collection definition.
// Unknown fields, missing non-nullable fields, ill-typed values and an
// empty key all yield ErrValidation.
func (c Collection) Validate(rec gateway.Record) error {
	const op = "schema.validate"
	if rec.Key == "" {
		return gateway.WrapKind(op, gateway.ErrValidation, fmt.Errorf("collection %s: empty key", c.Name))
	}
	if err := c.ValidatePatch(rec.Fields); err != nil {
		return err
	}
	for _, col := range c.Columns {
		if col.Nullable {
			continue
		}
		if _, ok := rec.Fields[col.Name]; !ok {
			return gateway.WrapKind(op, gateway.ErrValidation,
				fmt.Errorf("collection %s: missing field %q", c.Name, col.Name))
		}
	}
	return nil
}

// ValidatePatch checks a partial field set: every present field must be a
// known column with a value of the column's type. Absent columns are fine.
func (c Collection) ValidatePatch(fields map[string]any) error {
	const op = "schema.validate"
	for name, val := range fields {
		if name == c.Key {
			return gateway.WrapKind(op, gateway.ErrValidation,
				fmt.Errorf("collection %s: field %q shadows the primary key", c.Name, name))
		}
		col, ok := c.Column(name)
		if !ok {
			return gateway.WrapKind(op, gateway.ErrValidation,
				fmt.Errorf("collection %s: unknown field %q", c.Name, name))
		}
		if val == nil {
			if !col.Nullable {
				return gateway.WrapKind(op, gateway.ErrValidation,
					fmt.Errorf("collection %s: field %q must not be null", c.Name, name))
			}
			continue
		}
		if !typeMatches(col.Type, val) {
			return gateway.WrapKind(op, gateway.ErrValidation,
				fmt.Errorf("collection %s: field %q has wrong type", c.Name, name))
		}
	}
	return nil
}

// typeMatches accepts the Go shapes encoding/json produces. Numbers
// decode as float64, so Integer accepts float64 with a zero fraction.
func typeMatches(t ColumnType, v any) bool {
	switch t {
	case Text, Timestamp:
		_, ok := v.(string)
		return ok
	case Integer:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		default:
			return false
		}
	case Double:
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		default:
			return false
		}
	case Boolean:
		_, ok := v.(bool)
		return ok
	case JSON:
		switch v.(type) {
		case map[string]any, []any:
			return true
		default:
			return false
		}
	default:
		return false
	}
}
