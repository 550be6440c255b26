package goroutine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

type recordingLogger struct {
	logger.Interface
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Errorw(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	log := &recordingLogger{Interface: logger.NewNopLogger()}

	SafeGo(log, "boom", func() { panic("boom") })

	assert.Eventually(t, func() bool {
		return len(log.messages()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"goroutine panicked"}, log.messages())
}

func TestSafeGoContext(t *testing.T) {
	t.Run("cancellation is silent", func(t *testing.T) {
		log := &recordingLogger{Interface: logger.NewNopLogger()}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		SafeGoContext(ctx, log, "loop", func(ctx context.Context) error {
			defer close(done)
			<-ctx.Done()
			return ctx.Err()
		})
		cancel()

		<-done
		time.Sleep(10 * time.Millisecond)
		assert.Empty(t, log.messages())
	})

	t.Run("other errors are logged", func(t *testing.T) {
		log := &recordingLogger{Interface: logger.NewNopLogger()}

		SafeGoContext(context.Background(), log, "loop", func(context.Context) error {
			return errors.New("subscribe failed")
		})

		assert.Eventually(t, func() bool {
			return len(log.messages()) == 1
		}, time.Second, 10*time.Millisecond)
	})
}
