// Package storage 保存提交的图片，数据库中只记录对象key
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"labelhub/internal/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubmissionsPrefix 提交图片的key前缀
const SubmissionsPrefix = "submissions/"

// ErrInvalidKey key为空、绝对路径或包含 ".."
var ErrInvalidKey = errors.New("invalid object key")

// Store 图片存储后端
type Store interface {
	// Put 写入对象，失败时不会留下部分写入的对象
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	// Delete 删除对象，对象不存在时不报错
	Delete(ctx context.Context, key string) error
	// URL 返回对象的可访问地址
	URL(key string) string
	// Name 后端名称
	Name() string
}

// New 根据配置创建存储后端
func New(cfg *config.StorageConfig, log *logrus.Logger) (Store, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg.Local.Root, cfg.PublicBaseURL)
	case "sftp":
		return NewSFTPStore(&cfg.SFTP, cfg.PublicBaseURL, log)
	case "ftp":
		return NewFTPStore(&cfg.FTP, cfg.PublicBaseURL, log)
	default:
		return nil, fmt.Errorf("不支持的存储后端: %s", cfg.Backend)
	}
}

// NewKey 生成提交图片的key，例如 submissions/2024/05/<uuid>.png
func NewKey(now time.Time, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s%04d/%02d/%s%s", SubmissionsPrefix, now.Year(), int(now.Month()), uuid.NewString(), ext)
}

// ValidateKey 检查key是否为安全的相对路径
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	if path.Clean(key) != key {
		return ErrInvalidKey
	}
	return nil
}

// joinURL 拼接公开地址和key
func joinURL(base, key string) string {
	if base == "" {
		return key
	}
	return strings.TrimRight(base, "/") + "/" + key
}

// tempName 生成同目录下的临时文件名
func tempName(key string) string {
	return path.Join(path.Dir(key), ".upload-"+uuid.NewString())
}
