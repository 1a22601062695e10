package obs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// Time reports the duration and outcome of a named operation when the
// returned func is deferred. Pass a pointer to the operation's named error
// return so the final value is observed.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		evt := log.Debug()
		if errp != nil && *errp != nil {
			evt = log.Warn().Err(*errp)
		}
		evt.Str("req_id", reqID).Str("op", name).Int64("dur_ms", dur.Milliseconds()).Msg("Operation finished")
	}
}
