package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/dalyulbam/Class101LLL/business/sys/validate"
	"github.com/dalyulbam/Class101LLL/business/web/errs"
	"github.com/dalyulbam/Class101LLL/business/web/mid"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/state"
	"github.com/dalyulbam/Class101LLL/foundation/web"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestMiddleware(t *testing.T) {
	log := zap.NewNop().Sugar()

	app := web.NewApp(make(chan os.Signal, 1),
		mid.Logger(log),
		mid.Errors(log),
		mid.Metrics(),
		mid.Cors("*"),
		mid.Panics(),
	)

	app.Handle(http.MethodGet, "v1", "/ok", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, "ok", http.StatusOK)
	})
	app.Handle(http.MethodGet, "v1", "/trusted", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errs.NewTrusted(errors.New("bad input"), http.StatusBadRequest)
	})
	app.Handle(http.MethodGet, "v1", "/funds", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return fmt.Errorf("sending: %w", state.ErrInsufficientFunds)
	})
	app.Handle(http.MethodGet, "v1", "/fields", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return validate.FieldErrors{{Field: "to", Error: "to is a required field"}}
	})
	app.Handle(http.MethodGet, "v1", "/untrusted", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errors.New("database password is hunter2")
	})
	app.Handle(http.MethodGet, "v1", "/panic", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})

	tt := []struct {
		name   string
		path   string
		status int
		msg    string
		field  string
	}{
		{"ok", "/v1/ok", http.StatusOK, "", ""},
		{"trusted", "/v1/trusted", http.StatusBadRequest, "bad input", ""},
		{"ledger", "/v1/funds", http.StatusUnprocessableEntity, "sending: insufficient funds", ""},
		{"fields", "/v1/fields", http.StatusBadRequest, "data validation error", "to"},
		{"untrusted", "/v1/untrusted", http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), ""},
		{"panic", "/v1/panic", http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), ""},
	}

	t.Log("Given the need to handle errors uniformly.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				r := httptest.NewRequest(http.MethodGet, tst.path, nil)
				w := httptest.NewRecorder()
				app.ServeHTTP(w, r)

				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould receive a status code of %d, got %d.", failed, testID, tst.status, w.Code)
				}
				t.Logf("\t%s\tTest %d:\tShould receive a status code of %d.", success, testID, tst.status)

				if w.Header().Get("Access-Control-Allow-Origin") != "*" {
					t.Fatalf("\t%s\tTest %d:\tShould set the CORS header.", failed, testID)
				}

				if tst.msg == "" {
					return
				}

				var resp errs.Response
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to decode the response: %s", failed, testID, err)
				}

				if resp.Error != tst.msg {
					t.Fatalf("\t%s\tTest %d:\tShould get message %q, got %q.", failed, testID, tst.msg, resp.Error)
				}
				t.Logf("\t%s\tTest %d:\tShould get message %q.", success, testID, tst.msg)

				if tst.field != "" {
					if _, exists := resp.Fields[tst.field]; !exists {
						t.Fatalf("\t%s\tTest %d:\tShould get a field error for %s.", failed, testID, tst.field)
					}
					t.Logf("\t%s\tTest %d:\tShould get a field error for %s.", success, testID, tst.field)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
