package feedback

import "context"

type scope struct {
	loadingKey     string
	loadingMessage string
	label          string
}

type ScopeOption func(*scope)

// WithLoading sets the named loading flag for the duration of the operation.
func WithLoading(key, message string) ScopeOption {
	return func(s *scope) {
		s.loadingKey = key
		s.loadingMessage = message
	}
}

// WithContext labels the operation in classified errors.
func WithContext(label string) ScopeOption {
	return func(s *scope) { s.label = label }
}

// WithErrorHandling runs op under c. On failure the error is classified and
// queued, and the zero value is returned with ok == false. The loading flag,
// if any, is cleared on every exit path.
func WithErrorHandling[T any](
	ctx context.Context,
	c *Coordinator,
	op func(context.Context) (T, error),
	opts ...ScopeOption,
) (result T, ok bool) {
	var sc scope
	for _, opt := range opts {
		opt(&sc)
	}

	if sc.loadingKey != "" {
		c.SetLoading(sc.loadingKey, true, sc.loadingMessage)
		defer c.SetLoading(sc.loadingKey, false, "")
	}

	res, err := op(ctx)
	if err != nil {
		retry := func(ctx context.Context) error {
			if _, ok := WithErrorHandling(ctx, c, op, opts...); !ok {
				return ErrRetryFailed
			}
			return nil
		}
		c.handleAPIError(ctx, err, sc.label, retry)
		var zero T
		return zero, false
	}
	return res, true
}
