package timeout

import (
	"context"
	"time"

	"github.com/udtalk/push-backend/internal/utils/errors"
)

//Run Executes op under the given deadline, derived from ctx so that the
//caller's cancellation also applies. The result is bounded even when op
//ignores its context; an overrun or cancellation is converted into a
//TimeoutError carrying the label. A non-positive timeout runs op directly.
func Run(ctx context.Context, timeout time.Duration, label string, op func(context.Context) error) error {
	if timeout <= 0 {
		return op(ctx)
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(opCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-opCtx.Done():
		return &errors.TimeoutError{Label: label, Timeout: timeout, Aborted: ctx.Err() != nil}
	}
}
