package dto

import "time"

// AdminUserInfo 管理员可见的用户信息
type AdminUserInfo struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListResponse 用户列表响应
type UserListResponse struct {
	Users   []AdminUserInfo `json:"users"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// SubmissionListResponse 提交列表响应（管理员）
type SubmissionListResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	PerPage     int                  `json:"per_page"`
}

// SubmissionQuery 管理员查询提交的参数
type SubmissionQuery struct {
	Dataset  uint   `form:"dataset"`
	Label    uint   `form:"label"`
	Username string `form:"username"`
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
}
