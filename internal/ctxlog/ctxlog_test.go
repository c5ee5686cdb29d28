package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_FallsBackToDiscard(t *testing.T) {
	logger := FromContext(context.Background())
	assert.NotNil(t, logger)
	logger.Info("goes nowhere")
}

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	ctx = With(ctx, "node", "n1")
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "node=n1")
	assert.Contains(t, buf.String(), "msg=hello")
}
