package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"labelhub/internal/apperr"
	"labelhub/internal/config"
	"labelhub/internal/dto"
	"labelhub/internal/metrics"
	"labelhub/internal/models"
	"labelhub/internal/repository"
	"labelhub/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

// sniffLen 识别文件类型读取的字节数
const sniffLen = 3072

// allowedImageTypes 允许上传的图片类型
var allowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// ImageUpload 上传的图片
type ImageUpload struct {
	Reader   io.Reader
	Size     int64
	Filename string
}

// SubmissionService 提交服务
type SubmissionService struct {
	submissionRepo *repository.SubmissionRepository
	datasetRepo    *repository.DatasetRepository
	labelRepo      *repository.LabelRepository
	store          storage.Store
	cfg            *config.Config
	metrics        *metrics.Metrics
	logger         *logrus.Logger
	now            func() time.Time
}

// NewSubmissionService 创建提交服务
func NewSubmissionService(
	submissionRepo *repository.SubmissionRepository,
	datasetRepo *repository.DatasetRepository,
	labelRepo *repository.LabelRepository,
	store storage.Store,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		datasetRepo:    datasetRepo,
		labelRepo:      labelRepo,
		store:          store,
		cfg:            cfg,
		metrics:        m,
		logger:         logger,
		now:            time.Now,
	}
}

// ValidateSubmission 校验提交表单，返回数据集ID和标签ID
func ValidateSubmission(req *dto.CreateSubmissionRequest, upload *ImageUpload) (uint, uint, error) {
	var problems []string

	datasetID, err := parseID(req.Dataset)
	if err != nil {
		problems = append(problems, "dataset: "+err.Error())
	}
	labelID, err := parseID(req.Label)
	if err != nil {
		problems = append(problems, "label: "+err.Error())
	}
	if upload == nil || upload.Reader == nil {
		problems = append(problems, "image: no file was submitted")
	} else if upload.Size == 0 {
		problems = append(problems, "image: the submitted file is empty")
	}

	if len(problems) > 0 {
		return 0, 0, apperr.Validation(strings.Join(problems, "; "))
	}
	return datasetID, labelID, nil
}

func parseID(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("this field is required")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid pk %q", raw)
	}
	return uint(id), nil
}

// sniffImage 识别图片类型，返回类型、扩展名以及包含已读字节的reader
func sniffImage(r io.Reader) (string, string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", nil, apperr.Validation("image: failed to read upload")
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	for _, allowed := range allowedImageTypes {
		if mtype.Is(allowed) {
			return allowed, mtype.Extension(), io.MultiReader(bytes.NewReader(head), r), nil
		}
	}
	return "", "", nil, apperr.Validation("image: upload a valid image. The file you uploaded was either not an image or a corrupted image")
}

// CreateSubmission 创建提交
func (s *SubmissionService) CreateSubmission(ctx context.Context, userID uint, req *dto.CreateSubmissionRequest, upload *ImageUpload) (*dto.SubmissionResponse, error) {
	datasetID, labelID, err := ValidateSubmission(req, upload)
	if err != nil {
		return nil, err
	}
	if upload.Size > s.cfg.Storage.GetMaxUploadBytes() {
		return nil, apperr.Validation(fmt.Sprintf("image: file is larger than %d MB", s.cfg.Storage.MaxUploadMB))
	}

	// 校验引用的数据集和标签
	if _, err := s.datasetRepo.GetByID(ctx, datasetID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.Validation(fmt.Sprintf("dataset: invalid pk \"%d\" - object does not exist", datasetID))
		}
		return nil, apperr.Internal("failed to load dataset", err)
	}
	label, err := s.labelRepo.GetByID(ctx, labelID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.Validation(fmt.Sprintf("label: invalid pk \"%d\" - object does not exist", labelID))
		}
		return nil, apperr.Internal("failed to load label", err)
	}
	if s.cfg.Submissions.EnforceLabelDataset && label.DatasetID != datasetID {
		return nil, apperr.Validation("label: label does not belong to the selected dataset")
	}

	contentType, ext, body, err := sniffImage(upload.Reader)
	if err != nil {
		return nil, err
	}

	// 写入存储
	now := s.now()
	key := storage.NewKey(now, ext)
	start := time.Now()
	err = s.store.Put(ctx, key, contentType, body, upload.Size)
	s.metrics.ObserveStorageWrite(s.store.Name(), err, time.Since(start))
	if err != nil {
		return nil, apperr.Storage("failed to store image", err)
	}

	submission := &models.Submission{
		UserID:      userID,
		DatasetID:   datasetID,
		LabelID:     labelID,
		Image:       key,
		ContentType: contentType,
		Size:        upload.Size,
		CreatedAt:   now,
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		removeBlobs(ctx, s.store, s.logger, []string{key})
		return nil, apperr.Internal("failed to save submission", err)
	}

	created, err := s.submissionRepo.GetByID(ctx, submission.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load submission", err)
	}

	s.metrics.ObserveSubmission()
	s.logger.WithFields(logrus.Fields{
		"submission_id": created.ID,
		"user_id":       userID,
		"dataset_id":    datasetID,
		"label_id":      labelID,
		"key":           key,
	}).Info("创建提交")

	resp := s.toResponse(created)
	return &resp, nil
}

// ListSubmissions 获取用户自己的提交，按创建时间倒序
func (s *SubmissionService) ListSubmissions(ctx context.Context, userID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load submissions", err)
	}
	return s.toResponses(submissions), nil
}

// Dashboard 获取用户的提交统计
func (s *SubmissionService) Dashboard(ctx context.Context, userID uint) (*dto.DashboardResponse, error) {
	submissions, err := s.ListSubmissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.DashboardResponse{
		TotalSubmissions: len(submissions),
		Submissions:      submissions,
	}, nil
}

// AdminList 按条件分页获取全部提交
func (s *SubmissionService) AdminList(ctx context.Context, q *dto.SubmissionQuery) (*dto.SubmissionListResponse, error) {
	page, perPage := normalizePage(q.Page, q.PerPage)

	filter := repository.SubmissionFilter{
		DatasetID: q.Dataset,
		LabelID:   q.Label,
		Username:  strings.TrimSpace(q.Username),
	}
	submissions, total, err := s.submissionRepo.List(ctx, filter, (page-1)*perPage, perPage)
	if err != nil {
		return nil, apperr.Internal("failed to load submissions", err)
	}

	return &dto.SubmissionListResponse{
		Submissions: s.toResponses(submissions),
		Total:       total,
		Page:        page,
		PerPage:     perPage,
	}, nil
}

// removeBlobs 尽力删除存储中的对象，失败只记录日志
func removeBlobs(ctx context.Context, store storage.Store, logger *logrus.Logger, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			logger.WithError(err).WithField("key", key).Warn("删除图片失败")
		}
	}
}

func (s *SubmissionService) toResponses(submissions []models.Submission) []dto.SubmissionResponse {
	result := make([]dto.SubmissionResponse, len(submissions))
	for i := range submissions {
		result[i] = s.toResponse(&submissions[i])
	}
	return result
}

func (s *SubmissionService) toResponse(sub *models.Submission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		ID:        sub.ID,
		User:      *toUserInfo(&sub.User),
		Dataset:   sub.DatasetID,
		Label:     sub.LabelID,
		Image:     s.store.URL(sub.Image),
		CreatedAt: sub.CreatedAt,
	}
}

// normalizePage 规范化分页参数
func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
