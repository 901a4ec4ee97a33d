package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
	}{
		{name: "invalid connection string", url: "invalid://connection"},
		{name: "malformed port", url: "postgres://localhost:notaport/db"},
		{name: "unreachable host", url: "postgres://localhost:59999/nonexistent?connect_timeout=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			pool, err := Connect(ctx, tt.url)
			require.Error(t, err)
			require.Nil(t, pool)
		})
	}
}
