package repository

import (
	"context"

	"labelhub/internal/models"

	"gorm.io/gorm"
)

// LabelRepository 标签数据访问层
type LabelRepository struct {
	db *gorm.DB
}

// NewLabelRepository 创建标签Repository
func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// GetByID 根据ID获取标签
func (r *LabelRepository) GetByID(ctx context.Context, id uint) (*models.Label, error) {
	var label models.Label
	if err := r.db.WithContext(ctx).First(&label, id).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

// ListByDataset 获取数据集下的标签
func (r *LabelRepository) ListByDataset(ctx context.Context, datasetID uint) ([]models.Label, error) {
	var labels []models.Label
	err := r.db.WithContext(ctx).Where("dataset_id = ?", datasetID).Order("id ASC").Find(&labels).Error
	return labels, err
}

// FirstOrCreate 按 (dataset, name) 查找标签，不存在则创建
func (r *LabelRepository) FirstOrCreate(ctx context.Context, datasetID uint, name string) (*models.Label, bool, error) {
	label := models.Label{DatasetID: datasetID, Name: name}
	res := r.db.WithContext(ctx).
		Where("dataset_id = ? AND name = ?", datasetID, name).
		FirstOrCreate(&label)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return &label, res.RowsAffected > 0, nil
}

// DeleteExcept 删除数据集中不在 keep 列表内的标签及其提交，返回删除的标签数和图片key
func (r *LabelRepository) DeleteExcept(ctx context.Context, datasetID uint, keep []uint) (int64, []string, error) {
	var deleted int64
	var images []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&models.Label{}).Select("id").Where("dataset_id = ?", datasetID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := tx.Model(&models.Submission{}).Where("label_id IN (?)", stale).Pluck("image", &images).Error; err != nil {
			return err
		}
		if err := tx.Where("label_id IN (?)", stale).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		q := tx.Where("dataset_id = ?", datasetID)
		if len(keep) > 0 {
			q = q.Where("id NOT IN ?", keep)
		}
		res := q.Delete(&models.Label{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, nil, err
	}
	return deleted, images, nil
}
