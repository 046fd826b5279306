package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"multisign-server/internal/service"

	"github.com/stretchr/testify/assert"
)

type countingRemover struct {
	calls atomic.Int32
	err   error
}

func (c *countingRemover) RemoveOldDocuments(_ context.Context, maxAge time.Duration) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestRunSweeper(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "removes periodically"},
		{name: "keeps running after errors", err: errors.New("backend down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remover := &countingRemover{err: tt.err}
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			go func() {
				service.RunSweeper(ctx, remover, time.Millisecond, time.Hour)
				close(done)
			}()

			assert.Eventually(t, func() bool { return remover.calls.Load() >= 2 }, time.Second, time.Millisecond)
			cancel()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("sweeper did not stop")
			}
		})
	}
}
