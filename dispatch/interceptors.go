package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// AccessLog logs every dispatched action with its outcome and duration.
func AccessLog(logger *zap.Logger) Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, action *Action) (*Result, error) {
			now := time.Now()
			result, err := next(ctx, action)

			fields := []zap.Field{
				zap.String("type", action.Type),
				zap.String("uuid", action.Uuid),
				zap.Duration("elapsed", time.Since(now)),
			}
			if err != nil {
				logger.Warn("action failed", append(fields, zap.Error(err))...)
				return result, err
			}
			if result != nil {
				fields = append(fields, zap.String("id", result.ID))
			}
			logger.Info("action dispatched", fields...)

			return result, nil
		}
	}
}

// RecoverFromPanic turns a panic down the chain into an ErrPanic error.
func RecoverFromPanic(next Handler) Handler {
	return func(ctx context.Context, action *Action) (result *Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				result = nil
				err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
			}
		}()
		return next(ctx, action)
	}
}
