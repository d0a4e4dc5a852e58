package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 LABELHUB_JWT_SECRET_KEY
const EnvPrefix = "LABELHUB"

// LoadConfig 加载配置文件
func LoadConfig(configFile string) (*Config, error) {
	return LoadWithViper(viper.New(), configFile)
}

// LoadWithViper 使用给定的viper实例加载配置（命令行参数已绑定到该实例）
func LoadWithViper(v *viper.Viper, configFile string) (*Config, error) {
	// 设置配置文件路径
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		// 默认查找 config.yaml
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// 读取环境变量
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// 读取配置文件，未指定文件且找不到时只使用默认值和环境变量
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 验证配置
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置默认值
// 所有键都需要注册默认值，AutomaticEnv 才能在 Unmarshal 时生效
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.production_mode", false)
	v.SetDefault("server.base_path", "")
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./database/labelhub.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "labelhub")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379) // 标准 Redis 端口
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.max_concurrent_uploads", 4)
	v.SetDefault("redis.slot_ttl", 120)

	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.access_expire_minutes", 5)
	v.SetDefault("jwt.refresh_expire_minutes", 24*60)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "")

	v.SetDefault("cors.origins", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.allow_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allow_headers", []string{"Authorization", "Content-Type"})

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.max_upload_mb", 10)
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.local.root", "./media")
	v.SetDefault("storage.sftp.host", "")
	v.SetDefault("storage.sftp.port", 22)
	v.SetDefault("storage.sftp.username", "")
	v.SetDefault("storage.sftp.password", "")
	v.SetDefault("storage.sftp.key_file", "")
	v.SetDefault("storage.sftp.base_path", "labelhub")
	v.SetDefault("storage.sftp.timeout", 30)
	v.SetDefault("storage.ftp.host", "")
	v.SetDefault("storage.ftp.port", 21)
	v.SetDefault("storage.ftp.username", "")
	v.SetDefault("storage.ftp.password", "")
	v.SetDefault("storage.ftp.base_path", "labelhub")
	v.SetDefault("storage.ftp.timeout", 30)

	v.SetDefault("cache.datasets_ttl_seconds", 60)
	v.SetDefault("submissions.enforce_label_dataset", false)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")

	v.SetDefault("log.level", "info")
}

// validateConfig 验证配置
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务器端口: %d", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "" {
		cfg.Server.BasePath = "/" + strings.Trim(cfg.Server.BasePath, "/")
	}

	if cfg.JWT.SecretKey == "" {
		return fmt.Errorf("JWT密钥不能为空")
	}
	switch cfg.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("不支持的JWT签名算法: %s", cfg.JWT.Algorithm)
	}
	if cfg.JWT.AccessExpireMinutes <= 0 || cfg.JWT.RefreshExpireMinutes <= 0 {
		return fmt.Errorf("JWT过期时间必须大于0")
	}

	switch cfg.Database.Driver {
	case "sqlite":
		// 检查数据库目录是否存在
		if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
			return fmt.Errorf("创建数据库目录失败: %w", err)
		}
	case "mysql":
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("MySQL需要配置host和name")
		}
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}

	if cfg.Storage.MaxUploadMB <= 0 {
		return fmt.Errorf("上传大小上限必须大于0")
	}
	switch cfg.Storage.Backend {
	case "local":
		if cfg.Storage.Local.Root == "" {
			return fmt.Errorf("本地存储需要配置root")
		}
	case "sftp":
		if cfg.Storage.SFTP.Host == "" {
			return fmt.Errorf("SFTP存储需要配置host")
		}
		if cfg.Storage.SFTP.Password == "" && cfg.Storage.SFTP.KeyFile == "" {
			return fmt.Errorf("SFTP存储需要配置password或key_file")
		}
		if cfg.Storage.PublicBaseURL == "" {
			return fmt.Errorf("SFTP存储需要配置public_base_url")
		}
	case "ftp":
		if cfg.Storage.FTP.Host == "" {
			return fmt.Errorf("FTP存储需要配置host")
		}
		if cfg.Storage.PublicBaseURL == "" {
			return fmt.Errorf("FTP存储需要配置public_base_url")
		}
	default:
		return fmt.Errorf("不支持的存储后端: %s", cfg.Storage.Backend)
	}

	if cfg.Redis.Enabled && cfg.Redis.MaxConcurrentUploads <= 0 {
		return fmt.Errorf("max_concurrent_uploads必须大于0")
	}

	return nil
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
