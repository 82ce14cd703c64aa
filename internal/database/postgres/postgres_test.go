package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectWithRetry_BlocksUntilConnected(t *testing.T) {
	want := &sqlx.DB{}
	attempts := 0

	got := connectWithRetry(func() (*sqlx.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return want, nil
	}, time.Millisecond)

	require.Same(t, want, got)
	assert.Equal(t, 3, attempts)
	assert.True(t, DBStatus)
}

func TestConnectWithRetry_ImmediateSuccess(t *testing.T) {
	want := &sqlx.DB{}

	got := connectWithRetry(func() (*sqlx.DB, error) {
		return want, nil
	}, time.Hour)

	require.Same(t, want, got)
}
