package config

import (
	"fmt"
	"time"
)

// Config 应用配置结构
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Admin       AdminConfig       `mapstructure:"admin"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Submissions SubmissionsConfig `mapstructure:"submissions"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ProductionMode bool   `mapstructure:"production_mode"`
	// BasePath 路由前缀，例如 "/api"
	BasePath        string `mapstructure:"base_path"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

// GetAddress 获取服务器地址
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetShutdownTimeout 获取优雅关闭超时
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite, mysql
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// GetMySQLDSN 获取MySQL连接串
func (d *DatabaseConfig) GetMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Name)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Host                 string `mapstructure:"host"`
	Port                 int    `mapstructure:"port"`
	DB                   int    `mapstructure:"db"`
	Password             string `mapstructure:"password"`
	MaxConcurrentUploads int    `mapstructure:"max_concurrent_uploads"`
	SlotTTL              int    `mapstructure:"slot_ttl"`
}

// GetAddress 获取Redis地址
func (r *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GetSlotTTL 获取上传槽位过期时间
func (r *RedisConfig) GetSlotTTL() time.Duration {
	return time.Duration(r.SlotTTL) * time.Second
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey            string `mapstructure:"secret_key"`
	Algorithm            string `mapstructure:"algorithm"`
	AccessExpireMinutes  int    `mapstructure:"access_expire_minutes"`
	RefreshExpireMinutes int    `mapstructure:"refresh_expire_minutes"`
}

// GetAccessExpireDuration 获取访问令牌过期时间
func (j *JWTConfig) GetAccessExpireDuration() time.Duration {
	return time.Duration(j.AccessExpireMinutes) * time.Minute
}

// GetRefreshExpireDuration 获取刷新令牌过期时间
func (j *JWTConfig) GetRefreshExpireDuration() time.Duration {
	return time.Duration(j.RefreshExpireMinutes) * time.Minute
}

// AdminConfig 管理员配置
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CORSConfig CORS配置
type CORSConfig struct {
	Origins          []string `mapstructure:"origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
}

// StorageConfig 图片存储配置
type StorageConfig struct {
	Backend       string      `mapstructure:"backend"` // local, sftp, ftp
	MaxUploadMB   int         `mapstructure:"max_upload_mb"`
	PublicBaseURL string      `mapstructure:"public_base_url"`
	Local         LocalConfig `mapstructure:"local"`
	SFTP          SFTPConfig  `mapstructure:"sftp"`
	FTP           FTPConfig   `mapstructure:"ftp"`
}

// GetMaxUploadBytes 获取上传大小上限
func (s *StorageConfig) GetMaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// LocalConfig 本地存储配置
type LocalConfig struct {
	Root string `mapstructure:"root"`
}

// SFTPConfig SFTP存储配置
type SFTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	KeyFile  string `mapstructure:"key_file"`
	BasePath string `mapstructure:"base_path"`
	Timeout  int    `mapstructure:"timeout"`
}

// FTPConfig FTP存储配置
type FTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	BasePath string `mapstructure:"base_path"`
	Timeout  int    `mapstructure:"timeout"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	// DatasetsTTLSeconds 数据集列表缓存时间，0 表示不缓存
	DatasetsTTLSeconds int `mapstructure:"datasets_ttl_seconds"`
}

// GetDatasetsTTL 获取数据集缓存时间
func (c *CacheConfig) GetDatasetsTTL() time.Duration {
	return time.Duration(c.DatasetsTTLSeconds) * time.Second
}

// SubmissionsConfig 提交配置
type SubmissionsConfig struct {
	// EnforceLabelDataset 要求标签属于所提交的数据集
	EnforceLabelDataset bool `mapstructure:"enforce_label_dataset"`
}

// SentryConfig Sentry配置
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}
