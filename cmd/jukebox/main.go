package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/audio"
	"github.com/yleoer/keepsake/pkg/client"
	"github.com/yleoer/keepsake/pkg/config"
	"github.com/yleoer/keepsake/pkg/logger"
	"github.com/yleoer/keepsake/pkg/player"
	"github.com/yleoer/keepsake/pkg/tui"
)

func main() {
	cfg, err := config.LoadPlayerConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// 终端由界面占用，只在指定了文件时记录日志
	log := logger.Nop()
	if cfg.DebugLog != "" {
		if log, err = logger.NewFile(cfg.DebugLog); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open debug log: %v\n", err)
			os.Exit(1)
		}
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := client.New(cfg.ServerURL, cfg.HTTPTimeout, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// 下载整首曲目可能很慢，音频使用单独的客户端，超时只限制响应头
	device := audio.NewDevice(audio.NewHTTPClient(cfg.HTTPTimeout), cfg.Volume, log)
	p := player.New(ctx, c, device, log)
	defer p.Close()

	// 没有事件流时照常播放，只是收不到曲库变化提示
	lib, err := c.Subscribe(ctx)
	if err != nil {
		log.Warn(ctx, "Library events unavailable", zap.Error(err))
	}

	if _, err := tea.NewProgram(tui.New(p, lib), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		log.Error(ctx, "Player exited with error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
