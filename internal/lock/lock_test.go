package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	release, err := l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "sweep", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	_, err = l.Acquire(ctx, "other", time.Minute)
	assert.NoError(t, err)

	release()
	_, err = l.Acquire(ctx, "sweep", time.Minute)
	assert.NoError(t, err)
}

func TestLocalExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocal()
	l.now = func() time.Time { return now }

	_, err := l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = l.Acquire(ctx, "sweep", time.Minute)
	assert.NoError(t, err)
}
