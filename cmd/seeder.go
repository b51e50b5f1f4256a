package cmd

import (
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/user-access-management/internal/user"
)

// sampleUsers are the development fixture accounts: foo/bar as
// administrator and foo2/bar2 as operator. The seed command installs them
// into SQL backends; the memory store gets them at boot.
var sampleUsers = []struct {
	Username string
	Password string
	Role     user.Role
}{
	{"foo", "bar", user.RoleAdministrator},
	{"foo2", "bar2", user.RoleOperator},
}

// seedCmd loads the fixture accounts. Idempotent; safe to re-run.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample users",
	Long:  `Seed the database with sample users for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := sqlx.Connect("pgx", cfg.Database.Source)
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		defer db.Close()

		for _, f := range sampleUsers {
			var exists int
			if err := db.QueryRow("SELECT 1 FROM users WHERE username = $1", f.Username).Scan(&exists); err == nil {
				fmt.Printf("user %s already exists, skipping\n", f.Username)
				continue
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), cfg.Security.BCryptCost)
			if err != nil {
				log.Fatalf("failed to hash password for %s: %v", f.Username, err)
			}

			var id int64
			if err := db.QueryRow("UPDATE user_id_seq SET last_id = last_id + 1 RETURNING last_id").Scan(&id); err != nil {
				log.Fatalf("failed to allocate id for %s: %v", f.Username, err)
			}

			if _, err := db.Exec(
				"INSERT INTO users (id, username, password_hash, role, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, true, now(), now())",
				id, f.Username, string(hash), f.Role.String(),
			); err != nil {
				log.Fatalf("failed to insert user %s: %v", f.Username, err)
			}
			fmt.Printf("seeded user %s with role %s\n", f.Username, f.Role)
		}
	},
}
