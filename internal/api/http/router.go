package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/linkforge/linkforge/internal/models"
	"github.com/linkforge/linkforge/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LinkResolver is the redirect resolution flow consumed by the slug routes.
type LinkResolver interface {
	Resolve(ctx context.Context, slug string, visit service.Visit) (*service.Resolution, error)
	ResolveWithPassword(ctx context.Context, slug, password string, visit service.Visit) (*service.Resolution, error)
}

// LinkShortener is the link management surface consumed by the API routes.
type LinkShortener interface {
	CreateLink(ctx context.Context, slug string, params service.LinkParams) (*models.Link, error)
	GetLink(ctx context.Context, slug string) (*models.Link, error)
	UpdateLink(ctx context.Context, slug string, isActive bool, params service.LinkParams) (*models.Link, error)
	DeactivateLink(ctx context.Context, slug string) error
	GetLinkStats(ctx context.Context, slug string) (*models.Link, []*models.ClickEvent, error)
}

func NewRouter(logger *httplog.Logger, resolver LinkResolver, shortener LinkShortener) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/ping", handlePing)

		r.Route("/links", func(r chi.Router) {
			r.Post("/", handleCreateLink(shortener, validate))

			r.Route("/{slug}", func(r chi.Router) {
				r.Get("/", handleGetLink(shortener))
				r.Put("/", handleUpdateLink(shortener, validate))
				r.Delete("/", handleDeactivateLink(shortener))
				r.Get("/stats", handleGetLinkStats(shortener))
			})
		})
	})

	r.Get("/{slug}", handleRedirect(resolver))
	r.Post("/{slug}", handleVerifyPassword(resolver, validate))

	return r
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}
