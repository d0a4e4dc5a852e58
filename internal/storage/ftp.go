package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"path"
	"strings"
	"time"

	"labelhub/internal/config"

	"github.com/jlaffaye/ftp"
	"github.com/sirupsen/logrus"
)

// FTPStore FTP存储，每次操作建立一个连接
type FTPStore struct {
	host     string
	port     int
	username string
	password string
	basePath string
	timeout  time.Duration
	baseURL  string
	log      *logrus.Entry
}

// NewFTPStore 创建FTP存储
func NewFTPStore(cfg *config.FTPConfig, baseURL string, log *logrus.Logger) (*FTPStore, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ftp: host is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &FTPStore{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		basePath: strings.TrimRight(cfg.BasePath, "/"),
		timeout:  time.Duration(cfg.Timeout) * time.Second,
		baseURL:  baseURL,
		log:      log.WithField("storage", "ftp"),
	}
	if s.port == 0 {
		s.port = 21
	}
	if s.timeout == 0 {
		s.timeout = 30 * time.Second
	}
	return s, nil
}

// Name 后端名称
func (s *FTPStore) Name() string {
	return "ftp"
}

// URL 返回对象的访问地址
func (s *FTPStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}

func (s *FTPStore) remotePath(key string) string {
	if s.basePath == "" {
		return key
	}
	return path.Join(s.basePath, key)
}

// connect 建立连接并登录
func (s *FTPStore) connect(ctx context.Context) (*ftp.ServerConn, error) {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(s.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp: connection failed: %w", err)
	}

	if s.username != "" {
		if err := conn.Login(s.username, s.password); err != nil {
			if quitErr := conn.Quit(); quitErr != nil {
				s.log.WithError(quitErr).Warn("failed to quit FTP connection after login error")
			}
			return nil, fmt.Errorf("ftp: login failed: %w", err)
		}
	}
	return conn, nil
}

// mkdirAll 逐级创建目录，已存在的目录忽略错误
func (s *FTPStore) mkdirAll(conn *ftp.ServerConn, dir string) error {
	current := ""
	if strings.HasPrefix(dir, "/") {
		current = "/"
	}
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "" {
			continue
		}
		current = path.Join(current, part)
		if err := conn.MakeDir(current); err != nil && !isFTPExists(err) {
			return fmt.Errorf("ftp: failed to create directory %s: %w", current, err)
		}
	}
	return nil
}

// isFTPExists 550 表示目录已存在（或无权限，后续写入时会再次报错）
func isFTPExists(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code == ftp.StatusFileUnavailable
	}
	return strings.Contains(strings.ToLower(err.Error()), "exists")
}

// Put 上传到临时文件后重命名
func (s *FTPStore) Put(ctx context.Context, key, _ string, r io.Reader, _ int64) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			s.log.WithError(err).Debug("failed to quit FTP connection")
		}
	}()

	target := s.remotePath(key)
	if err := s.mkdirAll(conn, path.Dir(target)); err != nil {
		return err
	}

	tmp := s.remotePath(tempName(key))
	if err := conn.Stor(tmp, r); err != nil {
		_ = conn.Delete(tmp)
		return fmt.Errorf("ftp: failed to store file: %w", err)
	}
	if err := conn.Rename(tmp, target); err != nil {
		_ = conn.Delete(tmp)
		return fmt.Errorf("ftp: failed to rename temporary file: %w", err)
	}

	s.log.WithField("key", key).Debug("stored object")
	return nil
}

// Delete 删除对象
func (s *FTPStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Delete(s.remotePath(key)); err != nil && !isFTPExists(err) {
		return fmt.Errorf("ftp: failed to delete file: %w", err)
	}
	return nil
}
