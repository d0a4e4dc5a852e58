package models

import (
	"time"
)

// User 用户模型
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string    `gorm:"size:254" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`

	// 关联
	Submissions []Submission `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"submissions,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
