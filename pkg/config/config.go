package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/yleoer/keepsake/pkg/library"
)

const (
	BackendFS    = "fs"
	BackendMinio = "minio"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config 是 keepsake 服务端的配置
type Config struct {
	ListenAddr     string              `env:"LISTEN_ADDR" env-default:":5000" env-description:"HTTP 监听地址"`
	AudioDir       string              `env:"AUDIO_DIR" env-default:"client/public" env-description:"音频文件目录"`
	PublicDir      string              `env:"PUBLIC_DIR" env-default:"client/public" env-description:"静态资源目录"`
	StorageBackend string              `env:"STORAGE_BACKEND" env-default:"fs" env-description:"曲库存储：fs 或 minio"`
	Minio          library.MinioConfig
	CatalogT2S     bool                `env:"CATALOG_T2S" env-default:"false" env-description:"曲名繁体转简体"`
	WatchDebounce  time.Duration       `env:"WATCH_DEBOUNCE" env-default:"2s" env-description:"目录变化后等待多久重新扫描"`
	StatusMessage  string              `env:"STATUS_MESSAGE" env-default:"For Warisha" env-description:"/api/status 返回的消息"`
	MemoriesDSN    string              `env:"MEMORIES_DSN" env-default:":memory:" env-description:"回忆时间线的 SQLite 数据源"`
	LogLevel       string              `env:"LOG_LEVEL" env-default:"info"`
	LogDevelopment bool                `env:"LOG_DEVELOPMENT" env-default:"false"`
}

// PlayerConfig 是 jukebox 终端播放器的配置
type PlayerConfig struct {
	ServerURL   string        `env:"SERVER_URL" env-default:"http://localhost:5000" env-description:"keepsake 服务地址"`
	Volume      float64       `env:"PLAYER_VOLUME" env-default:"0.7" env-description:"音量，0 到 1"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" env-default:"30s" env-description:"HTTP 请求超时，下载音频时只限制等待响应头的时间"`
	DebugLog    string        `env:"DEBUG_LOG" env-description:"调试日志文件，为空时不记录"`
}

// LoadConfig 依次读取 .env、环境变量和命令行参数
func LoadConfig(args []string) (*Config, error) {
	// 尝试加载 .env 文件
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	fs := flag.NewFlagSet("keepsake", flag.ContinueOnError)
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")
	fs.StringVar(&cfg.AudioDir, "audio-dir", cfg.AudioDir, "directory holding the audio files")
	fs.StringVar(&cfg.PublicDir, "public-dir", cfg.PublicDir, "directory holding static assets")
	fs.StringVar(&cfg.StorageBackend, "backend", cfg.StorageBackend, "audio storage backend: fs or minio")
	fs.BoolVar(&cfg.CatalogT2S, "t2s", cfg.CatalogT2S, "convert traditional Chinese titles to simplified")
	fs.DurationVar(&cfg.WatchDebounce, "watch-debounce", cfg.WatchDebounce, "delay before rescanning a changed audio directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.LogDevelopment, "log-development", cfg.LogDevelopment, "human readable logs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if cfg.StorageBackend != BackendFS && cfg.StorageBackend != BackendMinio {
		return nil, fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, cfg.StorageBackend)
	}
	if cfg.WatchDebounce <= 0 {
		return nil, fmt.Errorf("%w: watch debounce must be positive, got %v", ErrInvalidConfig, cfg.WatchDebounce)
	}
	var err error
	if cfg.AudioDir, err = filepath.Abs(cfg.AudioDir); err != nil {
		return nil, fmt.Errorf("failed to resolve audio directory: %w", err)
	}
	if cfg.PublicDir, err = filepath.Abs(cfg.PublicDir); err != nil {
		return nil, fmt.Errorf("failed to resolve public directory: %w", err)
	}
	return cfg, nil
}

// LoadPlayerConfig 依次读取 .env、环境变量和命令行参数
func LoadPlayerConfig(args []string) (*PlayerConfig, error) {
	_ = godotenv.Load()

	cfg := &PlayerConfig{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	fs := flag.NewFlagSet("jukebox", flag.ContinueOnError)
	fs.StringVarP(&cfg.ServerURL, "server", "s", cfg.ServerURL, "keepsake server address")
	fs.Float64VarP(&cfg.Volume, "volume", "v", cfg.Volume, "playback volume between 0 and 1")
	fs.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP request timeout")
	fs.StringVar(&cfg.DebugLog, "debug-log", cfg.DebugLog, "write debug logs to this file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Volume < 0 || cfg.Volume > 1 {
		return nil, fmt.Errorf("%w: volume must be between 0 and 1, got %v", ErrInvalidConfig, cfg.Volume)
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("%w: http timeout must be positive, got %v", ErrInvalidConfig, cfg.HTTPTimeout)
	}
	if cfg.DebugLog != "" {
		p, err := filepath.Abs(cfg.DebugLog)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve debug log path: %w", err)
		}
		cfg.DebugLog = p
	}
	return cfg, nil
}
