package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/hospitality-reservation/internal/audit"
)

func TestZapAuditor_Record(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a := audit.NewZapAuditor(zap.New(core))

	err := a.Record(context.Background(), audit.Entry{
		Action:     "booking.confirm",
		EntityType: "booking",
		EntityID:   "b-1",
		Old:        map[string]string{"status": "pending"},
		New:        map[string]string{"status": "confirmed"},
		Success:    true,
	})
	require.NoError(t, err)
	err = a.Record(context.Background(), audit.Entry{
		Action:     "booking.cancel",
		EntityType: "booking",
		EntityID:   "b-1",
		Reason:     "booking is completed",
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "audit", entries[0].LoggerName)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "booking.confirm", ctx["action"])
	assert.Equal(t, `{"status":"confirmed"}`, ctx["new"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "booking is completed", entries[1].ContextMap()["reason"])
}
