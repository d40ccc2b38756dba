package gateway

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"bare sentinel", ErrNotFound, ErrNotFound},
		{"tagged", NewKind("op", ErrConflict), ErrConflict},
		{"wrapped with cause", WrapKind("op", ErrTransient, errors.New("dial tcp: refused")), ErrTransient},
		{"untagged", errors.New("mystery"), ErrInternal},
		{"deeply wrapped", fmt.Errorf("outer: %w", NewKind("op", ErrValidation)), ErrValidation},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); !errors.Is(got, tc.want) && got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestWrapKindKeepsCause(t *testing.T) {
	cause := errors.New("underlying")
	err := WrapKind("op", ErrConflict, cause)

	if !errors.Is(err, ErrConflict) {
		t.Error("kind lost")
	}
	if !errors.Is(err, cause) {
		t.Error("cause lost")
	}
}

func TestWrapKindNilCause(t *testing.T) {
	err := WrapKind("op", ErrNotFound, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Error("kind lost")
	}
}

func TestRecordClone(t *testing.T) {
	rec := Record{Key: "1", Fields: map[string]any{"name": "a"}}
	dup := rec.Clone()
	dup.Fields["name"] = "b"

	if rec.Fields["name"] != "a" {
		t.Error("clone shares field memory")
	}
	if dup.Key != "1" {
		t.Errorf("clone lost the key: %s", dup.Key)
	}
}
