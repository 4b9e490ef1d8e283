package mid

import (
	"context"
	"net/http"

	"github.com/dalyulbam/Class101LLL/business/sys/metrics"
	"github.com/dalyulbam/Class101LLL/foundation/web"
)

// Metrics updates program counters.
func Metrics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			metrics.AddRequests()

			err := handler(ctx, w, r)
			if err != nil {
				metrics.AddErrors()
			}

			return err
		}

		return h
	}

	return m
}
