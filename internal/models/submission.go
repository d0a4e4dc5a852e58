package models

import (
	"time"
)

// Submission 标注提交模型
type Submission struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	DatasetID   uint      `gorm:"not null;index" json:"dataset_id"`
	LabelID     uint      `gorm:"not null;index" json:"label_id"`
	Image       string    `gorm:"size:255;not null" json:"image"` // 存储后端中的对象key
	ContentType string    `gorm:"size:100" json:"content_type"`
	Size        int64     `gorm:"not null;default:0" json:"size"`
	CreatedAt   time.Time `gorm:"index;not null" json:"created_at"`

	// 关联
	User User `gorm:"foreignKey:UserID" json:"user"`
}

// TableName 指定表名
func (Submission) TableName() string {
	return "submissions"
}
