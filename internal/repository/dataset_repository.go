package repository

import (
	"context"

	"labelhub/internal/models"

	"gorm.io/gorm"
)

// DatasetRepository 数据集数据访问层
type DatasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository 创建数据集Repository
func NewDatasetRepository(db *gorm.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create 创建数据集
func (r *DatasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	return r.db.WithContext(ctx).Omit("Labels").Create(dataset).Error
}

// UpdateDescription 更新数据集描述
func (r *DatasetRepository) UpdateDescription(ctx context.Context, id uint, description string) error {
	return r.db.WithContext(ctx).Model(&models.Dataset{}).Where("id = ?", id).Update("description", description).Error
}

// GetByID 根据ID获取数据集
func (r *DatasetRepository) GetByID(ctx context.Context, id uint) (*models.Dataset, error) {
	var dataset models.Dataset
	if err := r.db.WithContext(ctx).First(&dataset, id).Error; err != nil {
		return nil, err
	}
	return &dataset, nil
}

// GetByName 根据名称获取数据集
func (r *DatasetRepository) GetByName(ctx context.Context, name string) (*models.Dataset, error) {
	var dataset models.Dataset
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&dataset).Error; err != nil {
		return nil, err
	}
	return &dataset, nil
}

// ListWithLabels 获取全部数据集及其标签
func (r *DatasetRepository) ListWithLabels(ctx context.Context) ([]models.Dataset, error) {
	var datasets []models.Dataset
	err := r.db.WithContext(ctx).
		Preload("Labels", func(db *gorm.DB) *gorm.DB {
			return db.Order("labels.id ASC")
		}).
		Order("datasets.id ASC").
		Find(&datasets).Error
	return datasets, err
}

// Delete 删除数据集及其标签和提交，返回被删除提交的图片key
func (r *DatasetRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var images []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Submission{}).Where("dataset_id = ?", id).Pluck("image", &images).Error; err != nil {
			return err
		}
		if err := tx.Where("dataset_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		// 其他数据集的提交也可能引用这些标签
		labelIDs := tx.Model(&models.Label{}).Select("id").Where("dataset_id = ?", id)
		var labelImages []string
		if err := tx.Model(&models.Submission{}).Where("label_id IN (?)", labelIDs).Pluck("image", &labelImages).Error; err != nil {
			return err
		}
		images = append(images, labelImages...)
		if err := tx.Where("label_id IN (?)", labelIDs).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("dataset_id = ?", id).Delete(&models.Label{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Dataset{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}
