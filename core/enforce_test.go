package core

import (
	"errors"
	"testing"
)

func TestOneOrError(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := oneOrError("user.get", nil)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Single", func(t *testing.T) {
		rec, err := oneOrError("user.get", []Record{{"id": 1}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec["id"] != 1 {
			t.Errorf("wrong record: %v", rec)
		}
	})

	t.Run("Multiple", func(t *testing.T) {
		_, err := oneOrError("user.findOne", []Record{{"id": 1}, {"id": 2}})
		var cv *CardinalityViolationError
		if !errors.As(err, &cv) {
			t.Fatalf("expected CardinalityViolationError, got %v", err)
		}
		if cv.Actual != 2 || cv.Expected != 1 {
			t.Errorf("violation counts wrong: %+v", cv)
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnprocessable) {
			t.Errorf("fatal error must not match recoverable sentinels")
		}
	})
}

func TestEnforceAffected(t *testing.T) {
	cases := []struct {
		name      string
		affected  int64
		expected  int64
		singleton bool
		want      error
		fatal     bool
	}{
		{name: "ExactSingleton", affected: 1, expected: 1, singleton: true},
		{name: "ExactBulk", affected: 3, expected: 3},
		{name: "ShortSingleton", affected: 0, expected: 1, singleton: true, want: ErrNotFound},
		{name: "ShortBulk", affected: 2, expected: 3, want: ErrUnprocessable},
		{name: "OverSingleton", affected: 2, expected: 1, singleton: true, fatal: true},
		{name: "OverBulk", affected: 5, expected: 3, fatal: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := enforceAffected("user.op", tc.affected, tc.expected, tc.singleton)
			if tc.fatal {
				if !IsFatal(err) {
					t.Fatalf("expected fatal violation, got %v", err)
				}
				return
			}
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}
