package handler

import (
	"labelhub/internal/service"
	"labelhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// DatasetHandler 数据集处理器
type DatasetHandler struct {
	datasetService *service.DatasetService
}

// NewDatasetHandler 创建数据集处理器
func NewDatasetHandler(datasetService *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
	}
}

// ListDatasets 获取数据集及标签
// @Summary 获取数据集列表
// @Tags 数据集
// @Produce json
// @Success 200 {array} dto.DatasetResponse
// @Router /datasets [get]
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	datasets, err := h.datasetService.ListDatasets(c.Request.Context())
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.OK(c, datasets)
}
