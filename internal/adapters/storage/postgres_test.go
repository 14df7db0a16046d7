package storage

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/athebyme/emag-console/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тест требует живой PostgreSQL, адрес передается через EMAG_CONSOLE_TEST_POSTGRES_DSN
func TestAuditStorageRecordAndRecent(t *testing.T) {
	dsn := os.Getenv("EMAG_CONSOLE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EMAG_CONSOLE_TEST_POSTGRES_DSN не задан")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewAuditStorage(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	entry := &interfaces.AuditEntry{
		Command:     "awb_generate",
		AccountType: "main",
		Target:      "42",
		Success:     true,
		Details:     json.RawMessage(`{"awb_number":"AWB1"}`),
	}
	require.NoError(t, s.Record(ctx, entry))
	assert.NotEmpty(t, entry.ID)

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recent)

	var found bool
	for _, e := range recent {
		if e.ID == entry.ID {
			found = true
			assert.Equal(t, "awb_generate", e.Command)
			assert.JSONEq(t, `{"awb_number":"AWB1"}`, string(e.Details))
		}
	}
	assert.True(t, found)
}
