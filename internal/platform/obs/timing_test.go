package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimeLogsFailureWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ctx := WithRequestID(context.Background(), "abc-123")
	err := errors.New("boom")
	func() {
		defer Time(ctx, "geocode")(&err)
	}()

	entries := logs.FilterMessage("operation failed").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "abc-123", fields["req_id"])
		assert.Equal(t, "geocode", fields["op"])
		assert.Equal(t, "boom", fields["error"])
	}
}

func TestTimeLogsSuccessAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	var err error
	func() {
		defer Time(context.Background(), "plan")(&err)
	}()

	assert.Equal(t, 1, logs.FilterMessage("operation done").Len())
	assert.Equal(t, "", RequestID(context.Background()))
}
