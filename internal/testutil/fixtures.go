package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"labelhub/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// Config 返回测试用配置
func Config() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8000},
		JWT: config.JWTConfig{
			SecretKey:            "test-secret",
			Algorithm:            "HS256",
			AccessExpireMinutes:  5,
			RefreshExpireMinutes: 60,
		},
		Admin: config.AdminConfig{Username: "admin"},
		Storage: config.StorageConfig{
			Backend:     "local",
			MaxUploadMB: 1,
		},
	}
}

// Logger 返回丢弃输出的日志
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// PNG 生成一张小的PNG图片
func PNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
