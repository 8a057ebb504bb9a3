package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("crear traslado: %w", dup)),
		"debe detectarse aunque el error venga envuelto")
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}

func TestIsRetryableAbort(t *testing.T) {
	casos := map[string]bool{
		"40001": true,  // serialization_failure
		"40P01": true,  // deadlock_detected
		"23505": false, // unique_violation no es reintentable
		"23503": false, // foreign_key_violation tampoco
	}
	for code, want := range casos {
		pgErr := &pgconn.PgError{Code: code}
		assert.Equal(t, want, isRetryableAbort(pgErr), "código %s", code)
		assert.Equal(t, want, isRetryableAbort(fmt.Errorf("upsert stock: %w", pgErr)),
			"código %s envuelto", code)
	}
	assert.False(t, isRetryableAbort(errors.New("context canceled")))
}
