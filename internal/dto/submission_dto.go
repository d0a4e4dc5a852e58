package dto

import "time"

// SubmissionResponse 提交响应
type SubmissionResponse struct {
	ID        uint      `json:"id"`
	User      UserInfo  `json:"user"`
	Dataset   uint      `json:"dataset"`
	Label     uint      `json:"label"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardResponse 个人统计响应
type DashboardResponse struct {
	TotalSubmissions int                  `json:"total_submissions"`
	Submissions      []SubmissionResponse `json:"submissions"`
}

// CreateSubmissionRequest 创建提交的表单字段，图片通过 image 文件字段上传
type CreateSubmissionRequest struct {
	Dataset string `form:"dataset"`
	Label   string `form:"label"`
}
