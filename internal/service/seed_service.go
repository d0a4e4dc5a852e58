package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"labelhub/internal/models"
	"labelhub/internal/repository"
	"labelhub/internal/storage"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// SeedFile 数据集定义文件
//
//	datasets:
//	  - name: animals
//	    description: Animal photos
//	    labels: [cat, dog]
type SeedFile struct {
	Datasets []SeedDataset `yaml:"datasets"`
}

// SeedDataset 数据集定义
type SeedDataset struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Labels      []string `yaml:"labels"`
}

// SeedResult 导入结果
type SeedResult struct {
	DatasetsCreated int
	DatasetsUpdated int
	DatasetsDeleted int
	LabelsCreated   int
	LabelsDeleted   int
}

// LoadSeedFile 读取并校验数据集定义文件
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据集文件失败: %w", err)
	}
	return ParseSeedFile(data)
}

// ParseSeedFile 解析数据集定义，拒绝未知字段
func ParseSeedFile(data []byte) (*SeedFile, error) {
	var file SeedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("解析数据集文件失败: %w", err)
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *SeedFile) validate() error {
	seen := make(map[string]bool, len(f.Datasets))
	for i := range f.Datasets {
		ds := &f.Datasets[i]
		ds.Name = strings.TrimSpace(ds.Name)
		if ds.Name == "" {
			return fmt.Errorf("第%d个数据集缺少name", i+1)
		}
		if utf8.RuneCountInString(ds.Name) > 100 {
			return fmt.Errorf("数据集名称过长: %s", ds.Name)
		}
		if seen[ds.Name] {
			return fmt.Errorf("数据集名称重复: %s", ds.Name)
		}
		seen[ds.Name] = true

		labels := make([]string, 0, len(ds.Labels))
		seenLabels := make(map[string]bool, len(ds.Labels))
		for _, l := range ds.Labels {
			l = strings.TrimSpace(l)
			if l == "" {
				return fmt.Errorf("数据集 %s 包含空标签", ds.Name)
			}
			if utf8.RuneCountInString(l) > 50 {
				return fmt.Errorf("标签名称过长: %s", l)
			}
			if seenLabels[l] {
				continue
			}
			seenLabels[l] = true
			labels = append(labels, l)
		}
		ds.Labels = labels
	}
	return nil
}

// SeedService 数据集导入服务
type SeedService struct {
	datasetRepo *repository.DatasetRepository
	labelRepo   *repository.LabelRepository
	store       storage.Store
	logger      *logrus.Logger
}

// NewSeedService 创建数据集导入服务
func NewSeedService(datasetRepo *repository.DatasetRepository, labelRepo *repository.LabelRepository, store storage.Store, logger *logrus.Logger) *SeedService {
	return &SeedService{
		datasetRepo: datasetRepo,
		labelRepo:   labelRepo,
		store:       store,
		logger:      logger,
	}
}

// Seed 按名称创建或更新数据集和标签
// prune 为 true 时删除文件中不存在的数据集和标签，相关提交及图片一并删除
func (s *SeedService) Seed(ctx context.Context, file *SeedFile, prune bool) (*SeedResult, error) {
	result := &SeedResult{}
	keep := make(map[string]bool, len(file.Datasets))

	for _, def := range file.Datasets {
		keep[def.Name] = true

		dataset, err := s.upsertDataset(ctx, def, result)
		if err != nil {
			return result, err
		}

		labelIDs := make([]uint, 0, len(def.Labels))
		for _, name := range def.Labels {
			label, created, err := s.labelRepo.FirstOrCreate(ctx, dataset.ID, name)
			if err != nil {
				return result, fmt.Errorf("创建标签 %s/%s 失败: %w", def.Name, name, err)
			}
			if created {
				result.LabelsCreated++
			}
			labelIDs = append(labelIDs, label.ID)
		}

		if prune {
			deleted, images, err := s.labelRepo.DeleteExcept(ctx, dataset.ID, labelIDs)
			if err != nil {
				return result, fmt.Errorf("清理数据集 %s 的标签失败: %w", def.Name, err)
			}
			result.LabelsDeleted += int(deleted)
			removeBlobs(ctx, s.store, s.logger, images)
		}
	}

	if prune {
		existing, err := s.datasetRepo.ListWithLabels(ctx)
		if err != nil {
			return result, fmt.Errorf("获取数据集失败: %w", err)
		}
		for _, ds := range existing {
			if keep[ds.Name] {
				continue
			}
			images, err := s.datasetRepo.Delete(ctx, ds.ID)
			if err != nil {
				return result, fmt.Errorf("删除数据集 %s 失败: %w", ds.Name, err)
			}
			result.DatasetsDeleted++
			result.LabelsDeleted += len(ds.Labels)
			removeBlobs(ctx, s.store, s.logger, images)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"datasets_created": result.DatasetsCreated,
		"datasets_updated": result.DatasetsUpdated,
		"datasets_deleted": result.DatasetsDeleted,
		"labels_created":   result.LabelsCreated,
		"labels_deleted":   result.LabelsDeleted,
	}).Info("数据集导入完成")
	return result, nil
}

func (s *SeedService) upsertDataset(ctx context.Context, def SeedDataset, result *SeedResult) (*models.Dataset, error) {
	dataset, err := s.datasetRepo.GetByName(ctx, def.Name)
	if err == nil {
		if dataset.Description != def.Description {
			if err := s.datasetRepo.UpdateDescription(ctx, dataset.ID, def.Description); err != nil {
				return nil, fmt.Errorf("更新数据集 %s 失败: %w", def.Name, err)
			}
			dataset.Description = def.Description
			result.DatasetsUpdated++
		}
		return dataset, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("查询数据集 %s 失败: %w", def.Name, err)
	}

	dataset = &models.Dataset{Name: def.Name, Description: def.Description}
	if err := s.datasetRepo.Create(ctx, dataset); err != nil {
		return nil, fmt.Errorf("创建数据集 %s 失败: %w", def.Name, err)
	}
	result.DatasetsCreated++
	return dataset, nil
}
