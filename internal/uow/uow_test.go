package uow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kirinyoku/eventhub/internal/clock"
	"github.com/kirinyoku/eventhub/internal/repository/memory"
	"github.com/kirinyoku/eventhub/internal/uow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUoW_HooksRunAfterCommit(t *testing.T) {
	u := uow.NewUoW(memory.NewStore(clock.NewSystem()))

	var order []string
	err := u.Do(context.Background(), func(ctx context.Context, after func(uow.AfterCommit)) error {
		after(func(context.Context) { order = append(order, "first") })
		after(func(context.Context) { order = append(order, "second") })
		order = append(order, "body")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"body", "first", "second"}, order)
}

func TestUoW_HooksSkippedOnRollback(t *testing.T) {
	u := uow.NewUoW(memory.NewStore(clock.NewSystem()))

	ran := false
	boom := errors.New("boom")
	err := u.Do(context.Background(), func(ctx context.Context, after func(uow.AfterCommit)) error {
		after(func(context.Context) { ran = true })
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)
}

func TestUoW_HookContextSurvivesCancel(t *testing.T) {
	u := uow.NewUoW(memory.NewStore(clock.NewSystem()))

	ctx, cancel := context.WithCancel(context.Background())

	var hookErr error
	err := u.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		after(func(ctx context.Context) { hookErr = ctx.Err() })
		cancel()
		return nil
	})
	require.NoError(t, err)

	assert.NoError(t, hookErr)
}
