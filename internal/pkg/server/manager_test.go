package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManagerCancelsSiblingsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	stopped := make(chan struct{})

	m := NewManager(
		Func(func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		}),
		nil,
		Func(func(context.Context) error { return boom }),
	)

	assert.ErrorIs(t, m.Start(context.Background()), boom)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sibling server was not cancelled")
	}
}

func TestManagerReturnsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(Func(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))

	cancel()
	assert.NoError(t, m.Start(ctx))
}
