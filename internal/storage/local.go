package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	localDirPerm  = 0o755
	localFilePerm = 0o644
)

// DefaultMediaURL 本地存储默认的访问前缀，由路由提供静态文件服务
const DefaultMediaURL = "/media/"

// LocalStore 本地文件系统存储
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore 创建本地存储，root 不存在时自动创建
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("local: root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("local: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, localDirPerm); err != nil {
		return nil, fmt.Errorf("local: create root: %w", err)
	}
	if baseURL == "" {
		baseURL = DefaultMediaURL
	}
	return &LocalStore{root: abs, baseURL: baseURL}, nil
}

// Name 后端名称
func (s *LocalStore) Name() string {
	return "local"
}

// Root 存储根目录
func (s *LocalStore) Root() string {
	return s.root
}

// URL 返回对象的访问地址
func (s *LocalStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}

// Put 先写入临时文件再重命名
func (s *LocalStore) Put(ctx context.Context, key, _ string, r io.Reader, _ int64) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), localDirPerm); err != nil {
		return fmt.Errorf("local: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("local: create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("local: write file: %w", err)
	}
	if err := tmp.Chmod(localFilePerm); err != nil {
		return fmt.Errorf("local: set permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("local: sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("local: close file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("local: rename file: %w", err)
	}

	success = true
	return nil
}

// Delete 删除对象
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local: delete file: %w", err)
	}
	return nil
}
