package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"required,password"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse 刷新令牌响应
type RefreshResponse struct {
	Access string `json:"access"`
}

// UserInfo 用户公开信息
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
