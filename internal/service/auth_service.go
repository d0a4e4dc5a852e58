package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labelhub/internal/apperr"
	"labelhub/internal/config"
	"labelhub/internal/dto"
	"labelhub/internal/metrics"
	"labelhub/internal/models"
	"labelhub/internal/repository"
	"labelhub/internal/utils"
)

// ErrInvalidCredentials 用户不存在与密码错误使用同一个错误
var ErrInvalidCredentials = apperr.Authentication("invalid credentials")

// AuthService 认证服务
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *utils.JWTManager
	cfg        *config.Config
	metrics    *metrics.Metrics
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo *repository.UserRepository, jwtManager *utils.JWTManager, cfg *config.Config, m *metrics.Metrics) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		cfg:        cfg,
		metrics:    m,
	}
}

// ValidateRegister 校验并规范化注册请求
func ValidateRegister(req *dto.RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)

	if err := utils.ValidateStruct(req); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

// normalizeEmail 去除空白并将域名部分转为小写
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserInfo, error) {
	if err := ValidateRegister(req); err != nil {
		s.metrics.ObserveRegistration("invalid")
		return nil, err
	}

	// 验证用户名是否已存在
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		s.metrics.ObserveRegistration("error")
		return nil, apperr.Internal("failed to check username", err)
	}
	if exists {
		s.metrics.ObserveRegistration("invalid")
		return nil, errUsernameTaken()
	}

	// 哈希密码
	hashedPassword, err := utils.HashPassword(req.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		s.metrics.ObserveRegistration("invalid")
		return nil, apperr.Validation(fmt.Sprintf("password: must be at most %d bytes", utils.MaxPasswordBytes))
	}
	if err != nil {
		s.metrics.ObserveRegistration("error")
		return nil, apperr.Internal("failed to hash password", err)
	}

	// 创建用户
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 并发注册同名用户时由唯一约束兜底
		if repository.IsDuplicate(err) {
			s.metrics.ObserveRegistration("invalid")
			return nil, errUsernameTaken()
		}
		s.metrics.ObserveRegistration("error")
		return nil, apperr.Internal("failed to create user", err)
	}

	s.metrics.ObserveRegistration("success")
	return toUserInfo(user), nil
}

func errUsernameTaken() error {
	return apperr.Validation("username: a user with that username already exists")
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 获取用户
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.metrics.ObserveLogin("error")
			return nil, apperr.Internal("failed to load user", err)
		}
		utils.CheckPasswordDummy(req.Password)
		s.metrics.ObserveLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	// 验证密码
	if err := utils.CheckPassword(req.Password, user.PasswordHash); err != nil {
		s.metrics.ObserveLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	// 生成Token
	pair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		s.metrics.ObserveLogin("error")
		return nil, apperr.Internal("failed to issue tokens", err)
	}

	s.metrics.ObserveLogin("success")
	return &dto.LoginResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
	}, nil
}

// Refresh 使用刷新令牌换取新的访问令牌
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.RefreshResponse, error) {
	if req.Refresh == "" {
		return nil, apperr.Validation("refresh: this field is required")
	}

	claims, err := s.jwtManager.ValidateToken(req.Refresh, utils.RefreshToken)
	if err != nil {
		return nil, apperr.Authentication("token is invalid or expired")
	}

	user, err := s.loadUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	access, err := s.jwtManager.GenerateToken(utils.AccessToken, user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	return &dto.RefreshResponse{Access: access}, nil
}

// Authenticate 校验访问令牌并返回对应用户
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtManager.ValidateToken(token, utils.AccessToken)
	if err != nil {
		return nil, apperr.Authentication("token is invalid or expired")
	}
	return s.loadUser(ctx, claims.UserID)
}

func (s *AuthService) loadUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.Authentication("user not found")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	return user, nil
}

// Me 获取当前用户信息
func (s *AuthService) Me(ctx context.Context, userID uint) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	return toUserInfo(user), nil
}

// InitAdmin 初始化管理员账户，未配置密码时跳过
func (s *AuthService) InitAdmin(ctx context.Context) error {
	if s.cfg.Admin.Password == "" {
		return nil
	}

	// 检查是否已有管理员
	admin, err := s.userRepo.GetAdmin(ctx)
	if err == nil && admin != nil {
		return nil
	}
	if err != nil && !repository.IsNotFound(err) {
		return fmt.Errorf("查询管理员失败: %w", err)
	}

	// 配置中的密码可以是bcrypt哈希
	passwordHash := s.cfg.Admin.Password
	if !utils.IsBcryptHash(passwordHash) {
		hashedPassword, err := utils.HashPassword(s.cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("密码哈希失败: %w", err)
		}
		passwordHash = hashedPassword
	}

	user := &models.User{
		Username:     s.cfg.Admin.Username,
		PasswordHash: passwordHash,
		IsAdmin:      true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("创建管理员失败: %w", err)
	}

	return nil
}

func toUserInfo(u *models.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
