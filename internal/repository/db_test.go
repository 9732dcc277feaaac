package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestNotFound(t *testing.T) {
	if got := notFound(pgx.ErrNoRows); !errors.Is(got, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", got)
	}
	other := errors.New("boom")
	if got := notFound(other); got != other {
		t.Fatalf("expected passthrough, got %v", got)
	}
	if got := notFound(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "submissions_quiz_student_key"}
	wrapped := fmt.Errorf("insert: %w", dup)

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"matching constraint", dup, "submissions_quiz_student_key", true},
		{"wrapped", wrapped, "submissions_quiz_student_key", true},
		{"any constraint", dup, "", true},
		{"other constraint", dup, "users_username_key", false},
		{"other code", &pgconn.PgError{Code: "23503"}, "", false},
		{"plain error", errors.New("x"), "", false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Errorf("uniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
