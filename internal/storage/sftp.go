package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"labelhub/internal/config"

	"github.com/pkg/sftp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// SFTPStore SFTP存储，每次操作建立一个连接
type SFTPStore struct {
	host     string
	port     int
	username string
	auth     []ssh.AuthMethod
	basePath string
	timeout  time.Duration
	baseURL  string
	log      *logrus.Entry
}

// NewSFTPStore 创建SFTP存储
func NewSFTPStore(cfg *config.SFTPConfig, baseURL string, log *logrus.Logger) (*SFTPStore, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("sftp: host is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &SFTPStore{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		basePath: strings.TrimRight(cfg.BasePath, "/"),
		timeout:  time.Duration(cfg.Timeout) * time.Second,
		baseURL:  baseURL,
		log:      log.WithField("storage", "sftp"),
	}
	if s.port == 0 {
		s.port = 22
	}
	if s.timeout == 0 {
		s.timeout = 30 * time.Second
	}

	// 设置认证方式
	switch {
	case cfg.KeyFile != "":
		key, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("sftp: failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("sftp: failed to parse private key: %w", err)
		}
		s.auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	case cfg.Password != "":
		s.auth = []ssh.AuthMethod{ssh.Password(cfg.Password)}
	default:
		return nil, fmt.Errorf("sftp: no authentication method provided")
	}

	return s, nil
}

// Name 后端名称
func (s *SFTPStore) Name() string {
	return "sftp"
}

// URL 返回对象的访问地址
func (s *SFTPStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}

func (s *SFTPStore) remotePath(key string) string {
	if s.basePath == "" {
		return key
	}
	return path.Join(s.basePath, key)
}

// connect 建立SFTP连接，支持取消
func (s *SFTPStore) connect(ctx context.Context) (*sftp.Client, func(), error) {
	type connResult struct {
		conn   *ssh.Client
		client *sftp.Client
		err    error
	}
	resultChan := make(chan connResult, 1)

	go func() {
		sshConfig := &ssh.ClientConfig{
			User:            s.username,
			Auth:            s.auth,
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // 存储主机由运维配置
			Timeout:         s.timeout,
		}

		addr := fmt.Sprintf("%s:%d", s.host, s.port)
		conn, err := ssh.Dial("tcp", addr, sshConfig)
		if err != nil {
			resultChan <- connResult{err: fmt.Errorf("sftp: failed to connect: %w", err)}
			return
		}

		client, err := sftp.NewClient(conn)
		if err != nil {
			_ = conn.Close()
			resultChan <- connResult{err: fmt.Errorf("sftp: failed to create client: %w", err)}
			return
		}
		resultChan <- connResult{conn: conn, client: client}
	}()

	select {
	case <-ctx.Done():
		// 连接完成后再关闭，避免泄漏
		go func() {
			if res := <-resultChan; res.err == nil {
				_ = res.client.Close()
				_ = res.conn.Close()
			}
		}()
		return nil, nil, ctx.Err()
	case res := <-resultChan:
		if res.err != nil {
			return nil, nil, res.err
		}
		closeFn := func() {
			_ = res.client.Close()
			_ = res.conn.Close()
		}
		return res.client, closeFn, nil
	}
}

// Put 上传到临时文件后重命名
func (s *SFTPStore) Put(ctx context.Context, key, _ string, r io.Reader, _ int64) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	client, closeFn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	target := s.remotePath(key)
	if err := client.MkdirAll(path.Dir(target)); err != nil {
		return fmt.Errorf("sftp: failed to create directory: %w", err)
	}

	tmp := s.remotePath(tempName(key))
	dst, err := client.Create(tmp)
	if err != nil {
		return fmt.Errorf("sftp: failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		_ = client.Remove(tmp)
		return fmt.Errorf("sftp: failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = client.Remove(tmp)
		return fmt.Errorf("sftp: failed to close file: %w", err)
	}
	if err := client.PosixRename(tmp, target); err != nil {
		_ = client.Remove(tmp)
		return fmt.Errorf("sftp: failed to rename file: %w", err)
	}

	s.log.WithField("key", key).Debug("stored object")
	return nil
}

// Delete 删除对象
func (s *SFTPStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	client, closeFn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := client.Remove(s.remotePath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("sftp: failed to delete file: %w", err)
	}
	return nil
}
