package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"         json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null"     json:"name"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"     json:"id"`
	Username     string `gorm:"size:80;uniqueIndex;not null"  json:"username"`
	Email        string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:120;not null"             json:"-"`
	RoleID       uint   `gorm:"index;not null"                json:"role_id"`
	Role         *Role  `gorm:"constraint:OnDelete:RESTRICT"  json:"-"`
}

type Token struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID    uint      `gorm:"index;not null"              json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Token     string    `gorm:"size:512;uniqueIndex;not null" json:"token"`
	CreatedAt time.Time `gorm:"not null"                    json:"created_at"`
}

type Service struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// UserService grants a user access to a service.
type UserService struct {
	ID        uint     `gorm:"primaryKey;autoIncrement"                 json:"id"`
	UserID    uint     `gorm:"not null;uniqueIndex:idx_user_service"    json:"user_id"`
	ServiceID uint     `gorm:"not null;uniqueIndex:idx_user_service"    json:"service_id"`
	User      *User    `gorm:"constraint:OnDelete:CASCADE"              json:"-"`
	Service   *Service `gorm:"constraint:OnDelete:CASCADE"              json:"-"`
}

func (UserService) TableName() string { return "user_services" }

// SystemFlag rows are one-shot claims. The primary key makes a claim an
// atomic compare-and-set across every instance sharing the database.
type SystemFlag struct {
	Name      string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"not null"`
}

const FlagBootstrapAdmin = "bootstrap_admin"

func All() []any {
	return []any{&Role{}, &User{}, &Token{}, &Service{}, &UserService{}, &SystemFlag{}}
}
