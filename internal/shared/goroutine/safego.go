// Package goroutine launches background work that must not take the process
// down when it panics.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine. A panic is logged with its stack and
// swallowed.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer recoverAndLog(log, name)
		fn()
	}()
}

// SafeGoContext runs fn like SafeGo and logs the error it returns, unless the
// error only reports that ctx was cancelled.
func SafeGoContext(ctx context.Context, log logger.Interface, name string, fn func(ctx context.Context) error) {
	SafeGo(log, name, func() {
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("background task exited", "goroutine", name, "error", err)
		}
	})
}

func recoverAndLog(log logger.Interface, name string) {
	if r := recover(); r != nil {
		log.Errorw("goroutine panicked",
			"goroutine", name,
			"panic", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)
	}
}
