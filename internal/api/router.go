package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/M3PH1S69/warehouse-monitoring/internal/backup"
	"github.com/M3PH1S69/warehouse-monitoring/internal/imaging"
	"github.com/M3PH1S69/warehouse-monitoring/internal/ledger"
	"github.com/M3PH1S69/warehouse-monitoring/internal/metrics"
	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
	"github.com/M3PH1S69/warehouse-monitoring/internal/ratelimit"
)

// Deps holds everything the API needs. DB, JWTSecret and Ledger are
// required; the rest have usable zero values.
type Deps struct {
	DB          *sql.DB
	JWTSecret   string
	TokenExpiry time.Duration
	Ledger      *ledger.Ledger

	// LoginLimiter throttles login attempts per client address.
	LoginLimiter *ratelimit.Limiter
	// APILimiter throttles authenticated requests per user.
	APILimiter *ratelimit.Limiter

	Metrics *metrics.Metrics
	Images  *imaging.Processor
	// Backups enables the backup endpoints when set.
	Backups *backup.Runner
	// Clock is used for the dashboard window. Defaults to time.Now.
	Clock func() time.Time
}

// NewRouter creates the API router with all endpoints registered, wrapped in
// request logging.
func NewRouter(deps Deps) http.Handler {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Images == nil {
		deps.Images = imaging.New(0)
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: deps.DB, JWTSecret: deps.JWTSecret, TokenExpiry: deps.TokenExpiry, Limiter: deps.LoginLimiter}
	usersHandler := &UsersHandler{DB: deps.DB}
	categoriesHandler := &CategoriesHandler{DB: deps.DB}
	devicesHandler := &DevicesHandler{DB: deps.DB, Images: deps.Images}
	transactionsHandler := &TransactionsHandler{DB: deps.DB, Ledger: deps.Ledger}
	dashboardHandler := &DashboardHandler{DB: deps.DB, Clock: deps.Clock}
	exportHandler := &ExportHandler{DB: deps.DB, Clock: deps.Clock}
	backupsHandler := &BackupsHandler{Runner: deps.Backups}

	authMW := AuthMiddleware(deps.JWTSecret, deps.DB)
	apiLimit := RateLimit(deps.APILimiter)
	requireAdmin := RequireRole(model.RoleAdministrator)

	// authed is reachable by every signed-in user, admin by administrators only.
	authed := func(h http.HandlerFunc) http.Handler { return authMW(apiLimit(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(apiLimit(requireAdmin(h))) }

	// Public.
	mux.Handle("POST /api/auth/login", RateLimit(deps.LoginLimiter)(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /healthz", (&HealthHandler{DB: deps.DB}).Check)
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	// Session.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Users.
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Categories.
	mux.Handle("GET /api/categories", authed(categoriesHandler.List))
	mux.Handle("POST /api/categories", admin(categoriesHandler.Create))
	mux.Handle("GET /api/categories/{id}", authed(categoriesHandler.Get))
	mux.Handle("PUT /api/categories/{id}", admin(categoriesHandler.Update))
	mux.Handle("DELETE /api/categories/{id}", admin(categoriesHandler.Delete))
	mux.Handle("GET /api/categories/{id}/deletable", authed(categoriesHandler.Deletable))

	// Devices.
	mux.Handle("GET /api/devices", authed(devicesHandler.List))
	mux.Handle("POST /api/devices", admin(devicesHandler.Create))
	mux.Handle("GET /api/devices/{id}", authed(devicesHandler.Get))
	mux.Handle("PUT /api/devices/{id}", admin(devicesHandler.Update))
	mux.Handle("DELETE /api/devices/{id}", admin(devicesHandler.Delete))
	mux.Handle("PUT /api/devices/{id}/image", admin(devicesHandler.UploadImage))
	mux.Handle("GET /api/devices/{id}/image", authed(devicesHandler.GetImage))
	mux.Handle("GET /api/devices/{id}/transactions", authed(transactionsHandler.ListForDevice))

	// Transactions.
	mux.Handle("GET /api/transactions", authed(transactionsHandler.List))
	mux.Handle("POST /api/transactions", admin(transactionsHandler.Create))
	mux.Handle("GET /api/transactions/{id}", authed(transactionsHandler.Get))

	// Reporting.
	mux.Handle("GET /api/dashboard", authed(dashboardHandler.Get))
	mux.Handle("GET /api/export/devices.csv", authed(exportHandler.Devices))
	mux.Handle("GET /api/export/transactions.csv", authed(exportHandler.Transactions))

	// Backups.
	mux.Handle("GET /api/backups", admin(backupsHandler.List))
	mux.Handle("POST /api/backups", admin(backupsHandler.Create))

	return LoggingMiddleware(deps.Metrics, mux)
}
