package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/arsenal/internal/auth"
	"github.com/erazemk/arsenal/internal/events"
	"github.com/erazemk/arsenal/internal/metrics"
	"github.com/erazemk/arsenal/internal/model"
)

// DefaultLedgerTimeout bounds a single ledger mutation when Options leaves it unset.
const DefaultLedgerTimeout = 5 * time.Second

// Options configures the router. Zero values select defaults.
type Options struct {
	RequireReceipt bool
	LedgerTimeout  time.Duration
	TokenTTL       time.Duration
	Publisher      events.Publisher
	Metrics        *metrics.Metrics
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, opts Options) http.Handler {
	if opts.LedgerTimeout <= 0 {
		opts.LedgerTimeout = DefaultLedgerTimeout
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = auth.TokenExpiry
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	mux := http.NewServeMux()
	rv := newRevocations(db)
	lw := &ledgerWriter{DB: db, Timeout: opts.LedgerTimeout, Publisher: opts.Publisher, Metrics: opts.Metrics}

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret, TokenTTL: opts.TokenTTL, revocations: rv}
	usersHandler := &UsersHandler{DB: db}
	basesHandler := &BasesHandler{DB: db}
	equipmentHandler := &EquipmentHandler{DB: db}
	assetsHandler := &AssetsHandler{ledgerWriter: lw}
	assignmentsHandler := &AssignmentsHandler{ledgerWriter: lw}
	expendituresHandler := &ExpendituresHandler{ledgerWriter: lw}
	transfersHandler := &TransfersHandler{ledgerWriter: lw, RequireReceipt: opts.RequireReceipt}
	ledgerHandler := &LedgerHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, rv)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireCommander := RequireRole(model.RoleBaseCommander)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /healthz", healthHandler(db))
	mux.Handle("GET /metrics", opts.Metrics.Handler())

	// Session.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Bases: read (all roles), write (admin).
	mux.Handle("GET /api/bases", authed(basesHandler.List))
	mux.Handle("GET /api/bases/{id}", authed(basesHandler.Get))
	mux.Handle("POST /api/bases", authMW(requireAdmin(http.HandlerFunc(basesHandler.Create))))
	mux.Handle("PUT /api/bases/{id}", authMW(requireAdmin(http.HandlerFunc(basesHandler.Update))))

	// Equipment types.
	mux.Handle("GET /api/assets/categories", authed(equipmentHandler.List))
	mux.Handle("POST /api/assets/categories", authMW(requireAdmin(http.HandlerFunc(equipmentHandler.Create))))
	mux.Handle("PUT /api/assets/categories/{id}/photo", authMW(requireAdmin(http.HandlerFunc(equipmentHandler.UploadPhoto))))
	mux.Handle("GET /api/assets/categories/{id}/photo", authed(equipmentHandler.GetPhoto))

	// Assets and stock. Base scoping of writes is enforced by the store.
	mux.Handle("POST /api/assets", authed(assetsHandler.Create))
	mux.Handle("GET /api/assets/{id}", authed(assetsHandler.Get))
	mux.Handle("GET /api/assets/base/{baseId}", authed(assetsHandler.ListByBase))
	mux.Handle("GET /api/stock", authed(assetsHandler.Stock))

	// Assignments.
	mux.Handle("GET /api/assignments", authed(assignmentsHandler.List))
	mux.Handle("GET /api/assignments/{id}", authed(assignmentsHandler.Get))
	mux.Handle("POST /api/assignments", authMW(requireCommander(http.HandlerFunc(assignmentsHandler.Create))))
	mux.Handle("PUT /api/assignments/{id}/return", authMW(requireCommander(http.HandlerFunc(assignmentsHandler.Return))))

	// Expenditures.
	mux.Handle("GET /api/expenditures", authed(expendituresHandler.List))
	mux.Handle("POST /api/expenditures", authMW(requireCommander(http.HandlerFunc(expendituresHandler.Create))))

	// Transfers: any role may request, commanders decide.
	mux.Handle("POST /api/transfers/request", authed(transfersHandler.Request))
	mux.Handle("GET /api/transfers", authed(transfersHandler.List))
	mux.Handle("GET /api/transfers/{id}", authed(transfersHandler.Get))
	mux.Handle("PUT /api/transfers/{id}/approve", authMW(requireCommander(http.HandlerFunc(transfersHandler.Approve))))
	mux.Handle("PUT /api/transfers/{id}/reject", authMW(requireCommander(http.HandlerFunc(transfersHandler.Reject))))
	mux.Handle("PUT /api/transfers/{id}/complete", authMW(requireCommander(http.HandlerFunc(transfersHandler.Complete))))

	// Audit trail.
	mux.Handle("GET /api/ledger/events", authMW(requireCommander(http.HandlerFunc(ledgerHandler.Events))))

	return LoggingMiddleware(opts.Metrics)(mux)
}
