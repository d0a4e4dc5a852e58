package handler

import (
	"errors"
	"fmt"
	"net/http"

	"labelhub/internal/config"
	"labelhub/internal/dto"
	"labelhub/internal/middleware"
	"labelhub/internal/service"
	"labelhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// multipartOverhead 表单字段和边界占用的额外字节
const multipartOverhead = 1 << 20

// SubmissionHandler 提交处理器
type SubmissionHandler struct {
	submissionService *service.SubmissionService
	storageCfg        *config.StorageConfig
}

// NewSubmissionHandler 创建提交处理器
func NewSubmissionHandler(submissionService *service.SubmissionService, storageCfg *config.StorageConfig) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		storageCfg:        storageCfg,
	}
}

// ListSubmissions 获取当前用户的提交
// @Summary 获取我的提交
// @Tags 提交
// @Produce json
// @Success 200 {array} dto.SubmissionResponse
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	submissions, err := h.submissionService.ListSubmissions(c.Request.Context(), userID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.OK(c, submissions)
}

// CreateSubmission 创建提交
// @Summary 上传标注图片
// @Tags 提交
// @Accept multipart/form-data
// @Produce json
// @Param dataset formData int true "数据集ID"
// @Param label formData int true "标签ID"
// @Param image formData file true "图片"
// @Success 201 {object} dto.SubmissionResponse
// @Router /submissions [post]
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.storageCfg.GetMaxUploadBytes()+multipartOverhead)

	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.BadRequest(c, fmt.Sprintf("image: file is larger than %d MB", h.storageCfg.MaxUploadMB))
			return
		}
		utils.BadRequest(c, "expected a multipart form with dataset, label and image")
		return
	}

	var upload *service.ImageUpload
	header, err := c.FormFile("image")
	if err == nil {
		src, err := header.Open()
		if err != nil {
			utils.BadRequest(c, "image: failed to read upload")
			return
		}
		defer src.Close()
		upload = &service.ImageUpload{Reader: src, Size: header.Size, Filename: header.Filename}
	}

	submission, err := h.submissionService.CreateSubmission(c.Request.Context(), userID, &req, upload)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Created(c, submission)
}

// Dashboard 获取当前用户的提交统计
// @Summary 个人统计
// @Tags 提交
// @Produce json
// @Success 200 {object} dto.DashboardResponse
// @Router /dashboard [get]
func (h *SubmissionHandler) Dashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	dashboard, err := h.submissionService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.OK(c, dashboard)
}
