package models

// Dataset 数据集模型，由 seed 命令维护
type Dataset struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	// 关联
	Labels      []Label      `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"labels"`
	Submissions []Submission `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Dataset) TableName() string {
	return "datasets"
}

// Label 标签模型，属于一个数据集
type Label struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	DatasetID uint   `gorm:"not null;index" json:"dataset_id"`
	Name      string `gorm:"size:50;not null" json:"name"`

	// 关联
	Submissions []Submission `gorm:"foreignKey:LabelID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Label) TableName() string {
	return "labels"
}
