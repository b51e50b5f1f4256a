package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/user-access-management/internal"
	"github.com/frahmantamala/user-access-management/internal/metrics"
	"github.com/frahmantamala/user-access-management/internal/transport"
	"github.com/frahmantamala/user-access-management/internal/user"
	"github.com/frahmantamala/user-access-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Auth         *Service
	Registration *RegistrationService
	Tokens       TokenGenerator
	Policy       *Policy
}

func NewHandler(auth *Service, registration *RegistrationService, tokens TokenGenerator, policy *Policy) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler:  transport.NewBaseHandler(lg),
		Auth:         auth,
		Registration: registration,
		Tokens:       tokens,
		Policy:       policy,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.LoginDuration.Observe(time.Since(start).Seconds()) }()

	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_input").Inc()
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_input").Inc()
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := internal.WithTimeout(r.Context(), 0)
	defer cancel()

	principal, err := h.Auth.Authenticate(ctx, dto.Username, dto.Password)
	if err != nil {
		logger.From(r.Context()).Warn("authentication failed", "username", dto.Username, "error", err)

		switch {
		case errors.Is(err, ErrInvalidInput):
			metrics.LoginsTotal.WithLabelValues("invalid_input").Inc()
			h.WriteError(w, http.StatusBadRequest, "username and password are required")
		case errors.Is(err, ErrUserNotFound):
			// same response as a wrong password so usernames cannot be probed
			metrics.LoginsTotal.WithLabelValues("not_found").Inc()
			h.WriteAppError(w, internal.ErrInvalidCredentials)
		case errors.Is(err, ErrBadCredential):
			metrics.LoginsTotal.WithLabelValues("bad_credential").Inc()
			h.WriteAppError(w, internal.ErrInvalidCredentials)
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	session, err := h.Tokens.GenerateSessionToken(*principal)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		logger.From(r.Context()).Error("session token generation failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	if _, err := h.Tokens.ValidateToken(token); err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	// stateless sessions: the principal dies with the token
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	acting, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authenticated principal")
		return
	}

	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := internal.WithTimeout(r.Context(), 0)
	defer cancel()

	created, err := h.Registration.Register(ctx, acting, dto)
	if err != nil {
		logger.From(r.Context()).Warn("registration failed", "username", dto.Username, "error", err)

		switch {
		case errors.Is(err, ErrAccessDenied):
			metrics.RegistrationsTotal.WithLabelValues("denied").Inc()
			h.WriteAppError(w, internal.ErrAccessDenied)
		case errors.Is(err, user.ErrDuplicateUsername):
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			h.WriteAppError(w, internal.ErrDuplicateUsername)
		case errors.Is(err, ErrInvalidInput):
			metrics.RegistrationsTotal.WithLabelValues("invalid_input").Inc()
			h.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			var vErr ValidationError
			if errors.As(err, &vErr) {
				metrics.RegistrationsTotal.WithLabelValues("invalid_input").Inc()
				h.WriteError(w, http.StatusBadRequest, vErr.Error())
				return
			}
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authenticated principal")
		return
	}
	h.WriteJSON(w, http.StatusOK, principal)
}

// SessionMiddleware validates the bearer token and attaches the resulting
// Principal to the request context.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Tokens.ValidateToken(token)
		if err != nil {
			logger.From(r.Context()).Warn("token validation failed", "error", err)
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		principal, err := PrincipalFromClaims(claims)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := ContextWithPrincipal(r.Context(), principal)
		ctx = logger.With(ctx, "username", principal.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireResource authorizes the request principal against a policy
// resource pattern before the wrapped handler runs.
func (h *Handler) RequireResource(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := PrincipalFromContext(r.Context())

			if err := h.Policy.Authorize(principal, resource); err != nil {
				metrics.AuthzDecisionsTotal.WithLabelValues("deny").Inc()
				if !principal.Authenticated {
					h.WriteError(w, http.StatusUnauthorized, "authentication required")
					return
				}
				// the request logger already carries the username
				logger.From(r.Context()).Warn("access denied",
					"role", principal.Role.String(),
					"resource", resource)
				h.WriteAppError(w, internal.ErrAccessDenied)
				return
			}

			metrics.AuthzDecisionsTotal.WithLabelValues("allow").Inc()
			next.ServeHTTP(w, r)
		})
	}
}
