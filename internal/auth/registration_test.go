package auth

import (
	"context"

	"github.com/frahmantamala/user-access-management/internal/user"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("RegistrationService", func() {
	var (
		service     *RegistrationService
		authService *Service
		mockStore   *mockUserStore
		admin       Principal
		operator    Principal
		ctx         context.Context
	)

	ginkgo.BeforeEach(func() {
		mockStore = newMockUserStore()
		hasher := NewBcryptHasher(bcrypt.MinCost)
		service = NewRegistrationService(mockStore, hasher)
		authService = NewService(mockStore, hasher)
		admin = Principal{Username: "foo", Role: user.RoleAdministrator, Authenticated: true}
		operator = Principal{Username: "foo2", Role: user.RoleOperator, Authenticated: true}
		ctx = context.Background()
	})

	ginkgo.Describe("Register", func() {
		ginkgo.Context("when the acting principal is an administrator", func() {
			ginkgo.It("should create the user with a fresh id", func() {
				// Given
				dto := RegisterDTO{Username: "newuser", Password: "secret", Role: "OPERATOR"}

				// When
				created, err := service.Register(ctx, admin, dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created.ID).To(gomega.BeNumerically(">", 2))
				gomega.Expect(created.Username).To(gomega.Equal("newuser"))
				gomega.Expect(created.Role).To(gomega.Equal(user.RoleOperator))
			})

			ginkgo.It("should store a hash, never the plaintext", func() {
				// Given
				dto := RegisterDTO{Username: "newuser", Password: "secret", Role: "OPERATOR"}

				// When
				created, err := service.Register(ctx, admin, dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created.PasswordHash).ToNot(gomega.Equal("secret"))
				gomega.Expect(created.PasswordHash).ToNot(gomega.BeEmpty())
			})

			ginkgo.It("should leave the new user able to authenticate with the given role", func() {
				// Given
				dto := RegisterDTO{Username: "newadmin", Password: "adminpw", Role: "ADMINISTRATOR"}

				// When
				_, err := service.Register(ctx, admin, dto)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				principal, err := authService.Authenticate(ctx, "newadmin", "adminpw")

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(principal.Role).To(gomega.Equal(user.RoleAdministrator))
				gomega.Expect(principal.Authenticated).To(gomega.BeTrue())
			})
		})

		ginkgo.Context("when the acting principal is not an administrator", func() {
			ginkgo.It("should deny operators before touching the store", func() {
				// Given
				dto := RegisterDTO{Username: "newuser", Password: "secret", Role: "OPERATOR"}

				// When
				created, err := service.Register(ctx, operator, dto)

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrAccessDenied))
				gomega.Expect(created).To(gomega.BeNil())

				exists, _ := mockStore.Exists(ctx, "newuser")
				gomega.Expect(exists).To(gomega.BeFalse())
			})

			ginkgo.It("should deny unauthenticated principals", func() {
				// Given
				dto := RegisterDTO{Username: "newuser", Password: "secret", Role: "OPERATOR"}

				// When
				created, err := service.Register(ctx, Anonymous(), dto)

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrAccessDenied))
				gomega.Expect(created).To(gomega.BeNil())
			})

			ginkgo.It("should deny even when the request is otherwise invalid", func() {
				// When
				created, err := service.Register(ctx, operator, RegisterDTO{})

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrAccessDenied))
				gomega.Expect(created).To(gomega.BeNil())
			})
		})

		ginkgo.Context("when the username is taken", func() {
			ginkgo.It("should return ErrDuplicateUsername and keep the original record", func() {
				// Given
				dto := RegisterDTO{Username: "foo2", Password: "other", Role: "ADMINISTRATOR"}

				// When
				created, err := service.Register(ctx, admin, dto)

				// Then
				gomega.Expect(err).To(gomega.Equal(user.ErrDuplicateUsername))
				gomega.Expect(created).To(gomega.BeNil())

				existing, err := mockStore.GetByUsername(ctx, "foo2")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(existing.Role).To(gomega.Equal(user.RoleOperator))

				principal, err := authService.Authenticate(ctx, "foo2", "bar2")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(principal.Authenticated).To(gomega.BeTrue())
			})
		})

		ginkgo.Context("when the request is invalid", func() {
			ginkgo.It("should return validation error for missing username", func() {
				// When
				created, err := service.Register(ctx, admin, RegisterDTO{Password: "x", Role: "OPERATOR"})

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.Equal("username is required"))
				gomega.Expect(created).To(gomega.BeNil())
			})

			ginkgo.It("should return validation error for missing password", func() {
				// When
				created, err := service.Register(ctx, admin, RegisterDTO{Username: "x", Role: "OPERATOR"})

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.Equal("password is required"))
				gomega.Expect(created).To(gomega.BeNil())
			})

			ginkgo.It("should reject an unknown role", func() {
				// Given
				dto := RegisterDTO{Username: "newuser", Password: "secret", Role: "SUPERUSER"}

				// When
				created, err := service.Register(ctx, admin, dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err).To(gomega.BeAssignableToTypeOf(ValidationError{}))
				gomega.Expect(created).To(gomega.BeNil())
			})
		})
	})
})
