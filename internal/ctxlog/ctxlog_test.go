package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)

	ctx, derived := With(ctx, "member", "Math.Lerp")
	FromContext(ctx).Info("checked")

	assert.Same(t, derived, FromContext(ctx))
	assert.Contains(t, buf.String(), "member=Math.Lerp")
	assert.Contains(t, buf.String(), "msg=checked")
}

func TestDiscard(t *testing.T) {
	ctx := Discard(context.Background())
	assert.NotSame(t, slog.Default(), FromContext(ctx))
	FromContext(ctx).Error("dropped")
}
