package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"column:username;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;not null"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

// IDAllocation is the single-row monotonic id allocator. A plain
// autoincrement would also work for inserts, but the allocator keeps the
// UserStore contract (allocate first, insert later) portable across
// postgres and sqlite.
type IDAllocation struct {
	LastID int64 `gorm:"column:last_id;not null"`
}

func (IDAllocation) TableName() string { return "user_id_seq" }
