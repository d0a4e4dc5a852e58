package repository

import (
	"context"

	"labelhub/internal/models"

	"gorm.io/gorm"
)

// SubmissionFilter 管理员查询提交的过滤条件
type SubmissionFilter struct {
	DatasetID uint
	LabelID   uint
	Username  string
}

// SubmissionRepository 提交数据访问层
type SubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建提交Repository
func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create 创建提交
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("User").Create(submission).Error
}

// GetByID 根据ID获取提交
func (r *SubmissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).Preload("User").First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListByUserID 获取用户的提交，按创建时间倒序
func (r *SubmissionRepository) ListByUserID(ctx context.Context, userID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&submissions).Error
	return submissions, err
}

// CountByUserID 统计用户的提交数
func (r *SubmissionRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// List 按条件获取提交列表
func (r *SubmissionRepository) List(ctx context.Context, filter SubmissionFilter, offset, limit int) ([]models.Submission, int64, error) {
	var submissions []models.Submission
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Submission{})
	if filter.DatasetID != 0 {
		query = query.Where("submissions.dataset_id = ?", filter.DatasetID)
	}
	if filter.LabelID != 0 {
		query = query.Where("submissions.label_id = ?", filter.LabelID)
	}
	if filter.Username != "" {
		query = query.Joins("JOIN users ON users.id = submissions.user_id").
			Where("users.username = ?", filter.Username)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").
		Order("submissions.created_at DESC").Order("submissions.id DESC").
		Offset(offset).Limit(limit).
		Find(&submissions).Error
	return submissions, total, err
}

// Delete 删除提交
func (r *SubmissionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Submission{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
