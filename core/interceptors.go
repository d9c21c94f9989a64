package core

import (
	"context"

	"go.uber.org/zap"
)

// ######################################################
//
//	INVOCATION INTERCEPTORS
//
// ######################################################

// doBeforeInvoke runs the entry interceptor first, then the user-defined hook.
func (i *Invoker) doBeforeInvoke(ctx context.Context, entry Entry, args []any) error {
	if i.verbose {
		i.logger.Info("invocation start",
			zap.String("component", entry.Component),
			zap.String("method", entry.Method),
			zap.Int("args", len(args)))
	}
	if entry.Interceptor != nil {
		if err := entry.Interceptor.BeforeInvoke(ctx, entry, args); err != nil {
			return err
		}
	}
	// User-defined callback
	if i.config.BeforeInvokeFn != nil {
		return i.config.BeforeInvokeFn(ctx, entry, args)
	}
	return nil
}

// doAfterInvoke runs the entry interceptor first, then the user-defined hook.
// Either may replace the result; a nil replacement keeps the previous one.
func (i *Invoker) doAfterInvoke(ctx context.Context, entry Entry, res *Result) (*Result, error) {
	if entry.Interceptor != nil {
		replaced, err := entry.Interceptor.AfterInvoke(ctx, res)
		if err != nil {
			return res, err
		}
		if replaced != nil {
			res = replaced
		}
	}
	// User-defined callback
	if i.config.AfterInvokeFn != nil {
		replaced, err := i.config.AfterInvokeFn(ctx, res)
		if err != nil {
			return res, err
		}
		if replaced != nil {
			res = replaced
		}
	}
	return res, nil
}
