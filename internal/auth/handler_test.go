package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/user-access-management/internal/auth"
	"github.com/frahmantamala/user-access-management/internal/user"
	userMemory "github.com/frahmantamala/user-access-management/internal/user/memory"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Auth Handler Integration", func() {
	var (
		store   *userMemory.Store
		handler *auth.Handler
		router  *chi.Mux
	)

	BeforeEach(func() {
		store = userMemory.New()

		adminHash, err := bcrypt.GenerateFromPassword([]byte("bar"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		operatorHash, err := bcrypt.GenerateFromPassword([]byte("bar2"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())

		store.Seed(
			user.User{ID: 1, Username: "foo", PasswordHash: string(adminHash), Role: user.RoleAdministrator},
			user.User{ID: 2, Username: "foo2", PasswordHash: string(operatorHash), Role: user.RoleOperator},
		)

		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		tokens := auth.NewJWTTokenGenerator("integration-test-secret-0123456789ab", 15*time.Minute)
		handler = auth.NewHandler(
			auth.NewService(store, hasher),
			auth.NewRegistrationService(store, hasher),
			tokens,
			auth.DefaultPolicy(),
		)

		router = chi.NewRouter()
		router.Post("/auth/login", handler.Login)
		router.Post("/auth/logout", handler.Logout)
		router.Group(func(r chi.Router) {
			r.Use(handler.SessionMiddleware)
			r.Get("/users/me", handler.Me)
			r.Group(func(ar chi.Router) {
				ar.Use(handler.RequireResource("/admin"))
				ar.Post("/users", handler.Register)
			})
		})
	})

	login := func(username, password string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(auth.LoginDTO{Username: username, Password: password})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	sessionFor := func(username, password string) string {
		w := login(username, password)
		Expect(w.Code).To(Equal(http.StatusOK))

		var session auth.SessionToken
		Expect(json.NewDecoder(w.Body).Decode(&session)).To(Succeed())
		Expect(session.Token).NotTo(BeEmpty())
		return session.Token
	}

	Describe("POST /auth/login", func() {
		It("should return a session token for valid credentials", func() {
			w := login("foo", "bar")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var session auth.SessionToken
			Expect(json.NewDecoder(w.Body).Decode(&session)).To(Succeed())
			Expect(session.Token).NotTo(BeEmpty())
			Expect(session.ExpiresAt).To(BeTemporally(">", time.Now()))
		})

		It("should return 401 for a wrong password", func() {
			w := login("foo", "wrong")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should answer unknown users and wrong passwords identically", func() {
			unknown := login("no-such-user", "whatever")
			wrongPw := login("foo", "wrong")

			Expect(unknown.Code).To(Equal(http.StatusUnauthorized))
			Expect(unknown.Code).To(Equal(wrongPw.Code))
			Expect(unknown.Body.String()).To(Equal(wrongPw.Body.String()))
		})

		It("should return 400 for missing fields", func() {
			w := login("foo", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 400 for a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{not-json")))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /auth/logout", func() {
		It("should accept a valid session token", func() {
			token := sessionFor("foo2", "bar2")

			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNoContent))
		})

		It("should return 401 without a token", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("GET /users/me", func() {
		It("should return the authenticated principal", func() {
			token := sessionFor("foo", "bar")

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var principal auth.Principal
			Expect(json.NewDecoder(w.Body).Decode(&principal)).To(Succeed())
			Expect(principal.Username).To(Equal("foo"))
			Expect(principal.Role).To(Equal(user.RoleAdministrator))
			Expect(principal.Authenticated).To(BeTrue())
		})

		It("should return 401 for a garbage token", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer not.a.token")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("POST /users", func() {
		registerReq := func(token string, dto auth.RegisterDTO) *httptest.ResponseRecorder {
			body, _ := json.Marshal(dto)
			req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("should let an administrator create a user", func() {
			token := sessionFor("foo", "bar")

			w := registerReq(token, auth.RegisterDTO{Username: "newuser", Password: "secret", Role: "OPERATOR"})

			Expect(w.Code).To(Equal(http.StatusCreated))

			var created user.User
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
			Expect(created.Username).To(Equal("newuser"))
			Expect(created.ID).To(BeNumerically(">", 2))

			// the response never carries the hash
			Expect(w.Body.String()).NotTo(ContainSubstring("secret"))

			// and the new user can log in right away
			Expect(login("newuser", "secret").Code).To(Equal(http.StatusOK))
		})

		It("should return 403 for an operator", func() {
			token := sessionFor("foo2", "bar2")

			w := registerReq(token, auth.RegisterDTO{Username: "newuser", Password: "secret", Role: "OPERATOR"})

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("should return 401 without a session", func() {
			w := registerReq("", auth.RegisterDTO{Username: "newuser", Password: "secret", Role: "OPERATOR"})
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should return 409 for a duplicate username", func() {
			token := sessionFor("foo", "bar")

			w := registerReq(token, auth.RegisterDTO{Username: "foo2", Password: "other", Role: "OPERATOR"})

			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("should return 400 for an unknown role", func() {
			token := sessionFor("foo", "bar")

			w := registerReq(token, auth.RegisterDTO{Username: "newuser", Password: "secret", Role: "SUPERUSER"})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
