package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrJamesThe3rd/icpledger/internal/auth"
	accessHandler "github.com/MrJamesThe3rd/icpledger/internal/http/access"
	"github.com/MrJamesThe3rd/icpledger/internal/http/export"
	"github.com/MrJamesThe3rd/icpledger/internal/http/httputil"
	"github.com/MrJamesThe3rd/icpledger/internal/http/importcsv"
	ledgerHandler "github.com/MrJamesThe3rd/icpledger/internal/http/ledger"
	personHandler "github.com/MrJamesThe3rd/icpledger/internal/http/person"
	"github.com/MrJamesThe3rd/icpledger/internal/metrics"
)

type Options struct {
	Logger      *slog.Logger
	JWTSecret   []byte
	CORSOrigins []string
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
}

func New(
	opts Options,
	personsV1 *personHandler.Handler,
	entriesV1 *ledgerHandler.Handler,
	accessV1 *accessHandler.Handler,
	importV1 *importcsv.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", httputil.HeaderAdminToken, httputil.HeaderUserToken},
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}

	router.Use(auth.Middleware(opts.JWTSecret))

	if opts.Logger != nil {
		router.Use(requestLogger(opts.Logger))
	}

	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if opts.Gatherer != nil {
		router.Method(http.MethodGet, "/metrics", metrics.Handler(opts.Gatherer))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/persons", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				personsV1.Routes(r)
			})

			r.Route("/{id}/import", importV1.Routes)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			entriesV1.Routes(r)
			exportV1.Routes(r)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			accessV1.MeRoutes(r)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			accessV1.UserRoutes(r)
		})
	})

	return router
}
