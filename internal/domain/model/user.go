package model

import "time"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`

	//表示名
	Forename string `gorm:"type:varchar(50)" json:"forename"`
	Surname  string `gorm:"type:varchar(50)" json:"surname"`

	ContactNumber string `gorm:"type:varchar(20)" json:"contact_number"`

	Role Role `gorm:"type:varchar(20);not null;default:'CUSTOMER'" json:"role"`

	//無効化されたユーザーはログイン不可
	IsEnabled bool `gorm:"not null;default:true" json:"is_enabled"`

	//外部IDログイン（Google）のsubject。未連携ならNULL
	GoogleSubject *string `gorm:"type:varchar(255);uniqueIndex" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
