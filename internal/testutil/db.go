// Package testutil 提供测试共用的数据库辅助函数
package testutil

import (
	"path/filepath"
	"testing"

	"labelhub/internal/config"
	"labelhub/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB 创建临时目录下的SQLite数据库并完成迁移，测试结束时关闭
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := models.InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, models.AutoMigrate(db), "failed to migrate test database")

	t.Cleanup(func() {
		_ = models.Close(db)
	})
	return db
}

// CreateDataset 创建数据集及其标签
func CreateDataset(t *testing.T, db *gorm.DB, name string, labels ...string) *models.Dataset {
	t.Helper()

	dataset := &models.Dataset{Name: name, Description: name + " images"}
	require.NoError(t, db.Omit("Labels").Create(dataset).Error)
	for _, l := range labels {
		label := models.Label{DatasetID: dataset.ID, Name: l}
		require.NoError(t, db.Create(&label).Error)
		dataset.Labels = append(dataset.Labels, label)
	}
	return dataset
}

// CreateUser 直接插入用户（密码哈希为占位值）
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}
