package service

import (
	"context"

	"labelhub/internal/apperr"
	"labelhub/internal/dto"
	"labelhub/internal/repository"
	"labelhub/internal/storage"

	"github.com/sirupsen/logrus"
)

// AdminService 管理员服务
type AdminService struct {
	userRepo *repository.UserRepository
	store    storage.Store
	logger   *logrus.Logger
}

// NewAdminService 创建管理员服务
func NewAdminService(userRepo *repository.UserRepository, store storage.Store, logger *logrus.Logger) *AdminService {
	return &AdminService{
		userRepo: userRepo,
		store:    store,
		logger:   logger,
	}
}

// ListUsers 分页获取用户列表
func (s *AdminService) ListUsers(ctx context.Context, page, perPage int) (*dto.UserListResponse, error) {
	page, perPage = normalizePage(page, perPage)

	users, total, err := s.userRepo.List(ctx, (page-1)*perPage, perPage)
	if err != nil {
		return nil, apperr.Internal("failed to load users", err)
	}

	result := make([]dto.AdminUserInfo, len(users))
	for i, u := range users {
		result[i] = dto.AdminUserInfo{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			IsAdmin:   u.IsAdmin,
			CreatedAt: u.CreatedAt,
		}
	}

	return &dto.UserListResponse{
		Users:   result,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// DeleteUser 删除用户及其提交，并清理提交的图片
func (s *AdminService) DeleteUser(ctx context.Context, callerID, userID uint) error {
	if callerID == userID {
		return apperr.Validation("cannot delete your own account")
	}

	images, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal("failed to delete user", err)
	}

	removeBlobs(ctx, s.store, s.logger, images)
	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"deleted_by":  callerID,
		"submissions": len(images),
	}).Info("删除用户")
	return nil
}
