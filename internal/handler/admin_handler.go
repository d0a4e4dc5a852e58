package handler

import (
	"net/http"
	"strconv"

	"labelhub/internal/dto"
	"labelhub/internal/middleware"
	"labelhub/internal/service"
	"labelhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理员处理器
type AdminHandler struct {
	adminService      *service.AdminService
	submissionService *service.SubmissionService
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(adminService *service.AdminService, submissionService *service.SubmissionService) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		submissionService: submissionService,
	}
}

// ListUsers 获取用户列表
// @Summary 获取用户列表
// @Tags 管理员
// @Produce json
// @Param page query int false "页码"
// @Param per_page query int false "每页数量"
// @Success 200 {object} dto.UserListResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	resp, err := h.adminService.ListUsers(c.Request.Context(), page, perPage)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.OK(c, resp)
}

// DeleteUser 删除用户及其提交
// @Summary 删除用户
// @Tags 管理员
// @Param id path int true "用户ID"
// @Success 204
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	callerID, _ := middleware.GetUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), callerID, uint(id)); err != nil {
		utils.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSubmissions 按条件获取全部提交
// @Summary 获取全部提交
// @Tags 管理员
// @Produce json
// @Param dataset query int false "数据集ID"
// @Param label query int false "标签ID"
// @Param username query string false "用户名"
// @Success 200 {object} dto.SubmissionListResponse
// @Router /admin/submissions [get]
func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	var q dto.SubmissionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, "invalid query parameters")
		return
	}

	resp, err := h.submissionService.AdminList(c.Request.Context(), &q)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.OK(c, resp)
}
