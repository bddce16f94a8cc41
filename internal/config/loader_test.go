package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_HOST", "db.internal")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"env var set", "host: ${TEST_HOST}", "host: db.internal"},
		{"env var set ignores default", "host: ${TEST_HOST:localhost}", "host: db.internal"},
		{"default used", "host: ${TEST_MISSING:localhost}", "host: localhost"},
		{"empty default", "password: ${TEST_MISSING:}", "password: "},
		{"no default kept verbatim", "host: ${TEST_MISSING}", "host: ${TEST_MISSING}"},
		{"plain text untouched", "host: localhost", "host: localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.in))
		})
	}
}
