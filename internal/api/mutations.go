package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/arsenal/internal/events"
	"github.com/erazemk/arsenal/internal/metrics"
	"github.com/erazemk/arsenal/internal/model"
	"github.com/erazemk/arsenal/internal/store"
)

// publishTimeout bounds the broker call made after a commit.
const publishTimeout = 2 * time.Second

// ledgerWriter is shared by every handler that mutates the stock ledger.
type ledgerWriter struct {
	DB        *sql.DB
	Timeout   time.Duration
	Publisher events.Publisher
	Metrics   *metrics.Metrics
}

// ctx bounds a ledger mutation. Running out of time is reported as a
// conflict the client may retry.
func (lw *ledgerWriter) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), lw.Timeout)
}

// refused counts a mutation the store turned down.
func (lw *ledgerWriter) refused(err error) {
	var reason string
	switch {
	case errors.Is(err, store.ErrInsufficientStock):
		reason = "insufficient_stock"
	case errors.Is(err, store.ErrInvalidState):
		reason = "invalid_state"
	case errors.Is(err, store.ErrConflict):
		reason = "conflict"
	case errors.Is(err, store.ErrUnauthorized):
		reason = "unauthorized"
	case errors.Is(err, store.ErrValidation):
		reason = "validation"
	default:
		return
	}
	lw.Metrics.RecordRefusal(reason)
}

// committed records and announces a successful mutation. Publishing is best
// effort; a broker failure is logged and never reported to the client.
func (lw *ledgerWriter) committed(r *http.Request, typ string, payload any, evs []model.LedgerEvent) {
	lw.Metrics.RecordEvents(evs)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), publishTimeout)
	defer cancel()

	actor := actorFrom(r)
	err := lw.Publisher.Publish(ctx, events.NewMessage(typ, actor.Username, payload))
	lw.Metrics.RecordPublish(err)
	if err != nil {
		slog.Warn("publishing ledger event failed", "type", typ, "error", err, "request_id", RequestID(r.Context()))
	}
}

// respond finishes a ledger mutation handler: errors go through
// writeStoreError, successes are announced and returned with status.
func respond[T any](lw *ledgerWriter, w http.ResponseWriter, r *http.Request, action, typ string, status int, m *model.Mutation[T], err error) bool {
	if err != nil {
		lw.refused(err)
		writeStoreError(w, r, action, err)
		return false
	}
	lw.committed(r, typ, m, m.Events)
	jsonResponse(w, status, m)
	return true
}
