package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScriptRock/pdfwrap/logging"
)

func TestSetLogger(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	var buf bytes.Buffer
	logging.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logging.Logger().Debug("xref rebuilt", slog.Int("objects", 3))
	assert.Contains(t, buf.String(), "xref rebuilt")
	assert.Contains(t, buf.String(), "objects=3")
}

func TestSetLogger_Nil(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	logging.SetLogger(nil)
	l := logging.Logger()
	require.NotNil(t, l)
	assert.True(t, logging.Discards(l))
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}

func TestLogger_Concurrent(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logging.SetLogger(nil)
			_ = logging.Logger()
		}()
	}
	wg.Wait()
	assert.NotNil(t, logging.Logger())
}
