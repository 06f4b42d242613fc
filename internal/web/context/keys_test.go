package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetRequestID(ctx))

	ctx = SetRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
}

func TestBackend(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetBackend(ctx))

	ctx = SetBackend(SetRequestID(ctx, "req-1"), "catalog1")
	assert.Equal(t, "catalog1", GetBackend(ctx))
	assert.Equal(t, "req-1", GetRequestID(ctx))
}
