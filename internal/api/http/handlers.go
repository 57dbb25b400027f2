package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/linkforge/linkforge/internal/database"
	"github.com/linkforge/linkforge/internal/service"
	"github.com/linkforge/linkforge/pkg/response"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

func visitFromRequest(r *http.Request) service.Visit {
	return service.Visit{
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		IPAddress: r.RemoteAddr,
	}
}

// renderBlocked maps a resolution gate failure to its HTTP response and
// reports whether it handled the error.
func renderBlocked(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, database.ErrLinkNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
	case errors.Is(err, service.ErrLinkExpired):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, response.LinkExpiredResponse)
	case errors.Is(err, service.ErrClickLimitReached):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, response.ClickLimitReachedResponse)
	case errors.Is(err, service.ErrPasswordRequired):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.PasswordRequiredResponse)
	case errors.Is(err, service.ErrInvalidPassword):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.InvalidPasswordResponse)
	default:
		return false
	}

	return true
}

// handleRedirect handles GET requests to a short slug.
//
// A passing resolution answers with a 302 to the computed target. Gate
// failures map to user-visible errors; password-protected links answer 401
// until the password is submitted via POST.
func handleRedirect(svc LinkResolver) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		res, err := svc.Resolve(r.Context(), slug, visitFromRequest(r))
		if err != nil {
			if renderBlocked(w, r, err) {
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, res.TargetURL, http.StatusFound)
	}
}

// handleVerifyPassword handles POST requests to a short slug carrying the
// password for a protected link.
//
// A wrong password answers 401 and may be retried indefinitely; a match
// completes the resolution exactly like an unprotected redirect.
func handleVerifyPassword(svc LinkResolver, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleVerifyPassword"

	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		slug := chi.URLParam(r, "slug")

		res, err := svc.ResolveWithPassword(r.Context(), slug, req.Password, visitFromRequest(r))
		if err != nil {
			if renderBlocked(w, r, err) {
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, res.TargetURL, http.StatusFound)
	}
}
