package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/catalog"
	"github.com/yleoer/keepsake/pkg/config"
	"github.com/yleoer/keepsake/pkg/converter"
	"github.com/yleoer/keepsake/pkg/events"
	"github.com/yleoer/keepsake/pkg/library"
	"github.com/yleoer/keepsake/pkg/logger"
	"github.com/yleoer/keepsake/pkg/memories"
	"github.com/yleoer/keepsake/pkg/server"
	"github.com/yleoer/keepsake/pkg/util"
	"github.com/yleoer/keepsake/pkg/watcher"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}
	// 2. 初始化日志器
	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)
	log.Info(ctx, "Configuration loaded",
		zap.String("backend", cfg.StorageBackend),
		zap.String("audio_dir", cfg.AudioDir),
		zap.String("public_dir", cfg.PublicDir))

	// 3. 初始化所有依赖服务
	// 3.1 曲库存储
	var audioLib library.Library
	switch cfg.StorageBackend {
	case config.BackendMinio:
		client, err := library.NewMinioClient(cfg.Minio)
		if err != nil {
			log.Fatal(ctx, "Failed to initialize MinIO client", zap.Error(err))
		}
		audioLib = library.NewMinio(client, cfg.Minio.Bucket, cfg.Minio.Prefix)
	default:
		audioLib = library.NewFS(cfg.AudioDir)
	}
	// 3.2 繁简体转换器，初始化失败时不转换
	tc := converter.Identity()
	if cfg.CatalogT2S {
		if t2s, err := converter.NewOpenCCConverter(log); err != nil {
			log.Warn(ctx, "Failed to initialize OpenCC converter, titles are kept as-is", zap.Error(err))
		} else {
			tc = t2s
		}
	}
	// 3.3 播放列表服务
	svc := catalog.NewService(audioLib, catalog.DefaultAllowList, catalog.DefaultOverrides, tc, log)
	// 3.4 回忆时间线
	store, err := memories.NewSQLiteStore(cfg.MemoriesDSN, log)
	if err != nil {
		log.Fatal(ctx, "Failed to initialize memories store", zap.Error(err))
	}
	defer store.Close()
	// 3.5 曲库变化通知
	hub := events.NewHub(log)

	// 4. 启动目录监听器（仅本地目录）
	if cfg.StorageBackend == config.BackendFS {
		if !util.IsDirectory(cfg.AudioDir) {
			log.Warn(ctx, "Audio directory does not exist, not watching it", zap.String("dir", cfg.AudioDir))
		} else {
			w, err := watcher.New(cfg.AudioDir, cfg.WatchDebounce, svc, hub, log)
			if err != nil {
				log.Fatal(ctx, "Failed to start file watcher", zap.Error(err))
			}
			defer w.Close()
			go w.Run(ctx)
		}
	}

	// 5. 初始扫描，仅用于日志
	if tracks, err := svc.ListTracks(ctx); err != nil {
		log.Warn(ctx, "Initial catalog scan failed", zap.Error(err))
	} else {
		log.Info(ctx, "Initial catalog scan completed", zap.Int("tracks", len(tracks)))
	}

	// 6. 启动 HTTP 服务
	srv := server.New(server.Deps{
		Catalog:  svc,
		Public:   library.NewFS(cfg.PublicDir),
		Events:   hub,
		Memories: store,
		Status:   cfg.StatusMessage,
		Logger:   log,
	})
	if err := srv.Run(ctx, cfg.ListenAddr); err != nil {
		log.Error(ctx, "Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "Server stopped")
}
