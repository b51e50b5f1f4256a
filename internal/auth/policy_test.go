package auth

import (
	"github.com/frahmantamala/user-access-management/internal/user"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Policy", func() {
	var (
		admin    Principal
		operator Principal
	)

	ginkgo.BeforeEach(func() {
		admin = Principal{Username: "foo", Role: user.RoleAdministrator, Authenticated: true}
		operator = Principal{Username: "foo2", Role: user.RoleOperator, Authenticated: true}
	})

	ginkgo.Describe("DefaultPolicy", func() {
		var policy *Policy

		ginkgo.BeforeEach(func() {
			policy = DefaultPolicy()
		})

		ginkgo.Context("for the admin area", func() {
			ginkgo.It("should allow administrators", func() {
				gomega.Expect(policy.IsAllowed(admin, "/admin")).To(gomega.BeTrue())
			})

			ginkgo.It("should deny operators", func() {
				gomega.Expect(policy.IsAllowed(operator, "/admin")).To(gomega.BeFalse())
			})

			ginkgo.It("should deny unauthenticated principals", func() {
				gomega.Expect(policy.IsAllowed(Anonymous(), "/admin")).To(gomega.BeFalse())
			})
		})

		ginkgo.Context("for ordinary resources", func() {
			ginkgo.It("should allow any authenticated principal", func() {
				gomega.Expect(policy.IsAllowed(operator, "/index")).To(gomega.BeTrue())
				gomega.Expect(policy.IsAllowed(admin, "/index")).To(gomega.BeTrue())
			})

			ginkgo.It("should cover nested paths", func() {
				gomega.Expect(policy.IsAllowed(operator, "/reports/monthly/2026")).To(gomega.BeTrue())
			})

			ginkgo.It("should deny unauthenticated principals", func() {
				gomega.Expect(policy.IsAllowed(Anonymous(), "/index")).To(gomega.BeFalse())
			})
		})

		ginkgo.Context("for public resources", func() {
			ginkgo.It("should allow login and logout without authentication", func() {
				gomega.Expect(policy.IsAllowed(Anonymous(), "/login")).To(gomega.BeTrue())
				gomega.Expect(policy.IsAllowed(Anonymous(), "/logout")).To(gomega.BeTrue())
			})

			ginkgo.It("should allow login for authenticated principals too", func() {
				gomega.Expect(policy.IsAllowed(operator, "/login")).To(gomega.BeTrue())
			})
		})
	})

	ginkgo.Describe("custom rule sets", func() {
		ginkgo.It("should let deny override allow on the same pattern", func() {
			// Given
			policy := NewPolicy().
				Allow("/tools/*", user.RoleOperator).
				Deny("/tools/*")

			// Then
			gomega.Expect(policy.IsAllowed(admin, "/tools/export")).To(gomega.BeFalse())
			gomega.Expect(policy.IsAllowed(operator, "/tools/export")).To(gomega.BeFalse())
		})

		ginkgo.It("should decide on an exact rule before a wildcard rule", func() {
			// Given
			policy := NewPolicy().
				Allow("/reports/**", user.RoleOperator).
				Deny("/reports/secret")

			// Then
			gomega.Expect(policy.IsAllowed(operator, "/reports/monthly")).To(gomega.BeTrue())
			gomega.Expect(policy.IsAllowed(operator, "/reports/secret")).To(gomega.BeFalse())
			gomega.Expect(policy.IsAllowed(admin, "/reports/secret")).To(gomega.BeFalse())
		})

		ginkgo.It("should let an exact allow win over a wildcard requiring more", func() {
			// Given
			policy := NewPolicy().
				Allow("/admin/**", user.RoleAdministrator).
				Allow("/admin/status", user.RoleOperator)

			// Then
			gomega.Expect(policy.IsAllowed(operator, "/admin/status")).To(gomega.BeTrue())
			gomega.Expect(policy.IsAllowed(operator, "/admin/users")).To(gomega.BeFalse())
		})

		ginkgo.It("should grant administrators everything operators can reach", func() {
			// Given
			policy := NewPolicy().Allow("/ops", user.RoleOperator)

			// Then
			gomega.Expect(policy.IsAllowed(admin, "/ops")).To(gomega.BeTrue())
		})

		ginkgo.It("should deny resources no rule matches", func() {
			// Given
			policy := NewPolicy().Allow("/known", user.RoleOperator)

			// Then
			gomega.Expect(policy.IsAllowed(admin, "/unknown")).To(gomega.BeFalse())
		})

		ginkgo.It("should deny principals carrying an invalid role", func() {
			// Given
			policy := DefaultPolicy()
			crooked := Principal{Username: "x", Role: user.Role("SUPERUSER"), Authenticated: true}

			// Then
			gomega.Expect(policy.IsAllowed(crooked, "/index")).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("Authorize", func() {
		ginkgo.It("should return nil when access is allowed", func() {
			gomega.Expect(DefaultPolicy().Authorize(admin, "/admin")).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should return ErrAccessDenied when it is not", func() {
			err := DefaultPolicy().Authorize(operator, "/admin")
			gomega.Expect(err).To(gomega.Equal(ErrAccessDenied))
		})
	})
})
