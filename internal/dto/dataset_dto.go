package dto

// DatasetResponse 数据集响应
type DatasetResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Labels      []LabelResponse `json:"labels"`
}

// LabelResponse 标签响应
type LabelResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
