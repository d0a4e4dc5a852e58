package service

import (
	"context"
	"time"

	"labelhub/internal/apperr"
	"labelhub/internal/dto"
	"labelhub/internal/metrics"
	"labelhub/internal/repository"

	"github.com/patrickmn/go-cache"
)

const datasetsCacheKey = "datasets"

// DatasetService 数据集服务
type DatasetService struct {
	datasetRepo *repository.DatasetRepository
	cache       *cache.Cache // 为nil时不缓存
	ttl         time.Duration
	metrics     *metrics.Metrics
}

// NewDatasetService 创建数据集服务，ttl为0时不缓存
func NewDatasetService(datasetRepo *repository.DatasetRepository, ttl time.Duration, m *metrics.Metrics) *DatasetService {
	s := &DatasetService{
		datasetRepo: datasetRepo,
		ttl:         ttl,
		metrics:     m,
	}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// ListDatasets 获取全部数据集及其标签
func (s *DatasetService) ListDatasets(ctx context.Context) ([]dto.DatasetResponse, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(datasetsCacheKey); ok {
			s.metrics.ObserveDatasetCache(true)
			return cached.([]dto.DatasetResponse), nil
		}
		s.metrics.ObserveDatasetCache(false)
	}

	datasets, err := s.datasetRepo.ListWithLabels(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to load datasets", err)
	}

	result := make([]dto.DatasetResponse, len(datasets))
	for i, ds := range datasets {
		labels := make([]dto.LabelResponse, len(ds.Labels))
		for j, l := range ds.Labels {
			labels[j] = dto.LabelResponse{ID: l.ID, Name: l.Name}
		}
		result[i] = dto.DatasetResponse{
			ID:          ds.ID,
			Name:        ds.Name,
			Description: ds.Description,
			Labels:      labels,
		}
	}

	if s.cache != nil {
		s.cache.SetDefault(datasetsCacheKey, result)
	}
	return result, nil
}

// Invalidate 清除数据集缓存
func (s *DatasetService) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(datasetsCacheKey)
	}
}
