package log

import (
	"context"
	"log/slog"

	scierrors "github.com/YuminosukeSato/scitree/pkg/errors"
	"github.com/cockroachdb/errors"
)

// ErrFmtHandler is a slog handler to format stacktrace from cockroachdb/errors.
// Records carrying a library error also get an ErrorCodeKey attribute unless
// the caller set one.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler function wraps the standard slog handler.
// This function returns the slog handler which emits logs with a stacktrace attribute.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var (
		stacktrace string
		code       string
		hasCode    bool
	)
	r.Attrs(func(attr slog.Attr) bool {
		switch attr.Key {
		case ErrAttrKey:
			if err, ok := attr.Value.Any().(error); ok {
				stacktrace = extractStacktrace(err)
				code = errorCode(err)
			}
		case ErrorCodeKey:
			hasCode = true
		}
		return true
	})
	if stacktrace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
	}
	if code != "" && !hasCode {
		r.AddAttrs(slog.String(ErrorCodeKey, code))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
// errorCode classifies err into one of the Error* codes, or "" when it is
// not a library error.
func errorCode(err error) string {
	var (
		modelErr     *scierrors.ModelError
		notFittedErr *scierrors.NotFittedError
		dimErr       *scierrors.DimensionError
	)
	switch {
	case scierrors.IsInvalidArgument(err):
		return ErrorInvalidInput
	case errors.As(err, &notFittedErr):
		return ErrorNotFitted
	case errors.As(err, &dimErr):
		return ErrorDimensionMismatch
	case errors.As(err, &modelErr) && modelErr.Kind == "induction aborted":
		return ErrorInductionAborted
	}
	return ""
}
