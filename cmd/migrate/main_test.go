package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestDescribeVersion(t *testing.T) {
	tests := []struct {
		name    string
		version uint
		dirty   bool
		err     error
		want    string
		wantErr bool
	}{
		{"applied", 1, false, nil, "Schema version: 1, dirty: false", false},
		{"dirty", 3, true, nil, "Schema version: 3, dirty: true", false},
		{"fresh database", 0, false, migrate.ErrNilVersion, "Schema version: none (no migrations applied)", false},
		{"read failure", 0, false, errors.New("connection refused"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := describeVersion(tt.version, tt.dirty, tt.err)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
