package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/catalog"
	"github.com/yleoer/keepsake/pkg/events"
	"github.com/yleoer/keepsake/pkg/logger"
	"github.com/yleoer/keepsake/pkg/util"
)

// Lister 由 catalog.Service 实现
type Lister interface {
	ListTracks(ctx context.Context) ([]catalog.Track, error)
}

// Publisher 接收曲库变化通知
type Publisher interface {
	Publish(ev events.Event)
}

// Watcher 监听音频目录，在变化平息后重新生成曲目列表并广播
type Watcher struct {
	dir      string
	debounce time.Duration
	lister   Lister
	pub      Publisher
	logger   *logger.Logger

	fsw *fsnotify.Watcher

	scanMutex    sync.Mutex // 保护扫描过程
	pendingMutex sync.Mutex // 保护 pending
	pending      *time.Timer
	closed       bool
}

// New 创建 Watcher 并开始监听 dir（只监听一级目录）
func New(dir string, debounce time.Duration, lister Lister, pub Publisher, log *logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		lister:   lister,
		pub:      pub,
		logger:   log,
		fsw:      fsw,
	}, nil
}

// Run 处理文件系统事件，直到 ctx 结束或 Close 被调用
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info(ctx, "Watching audio directory", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug(ctx, "Watcher event", zap.String("op", event.Op.String()), zap.String("name", event.Name))
			w.TriggerRescan()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error(ctx, "Watcher error", zap.Error(err))
		}
	}
}

// relevant 只关注音频文件的变化，忽略 chmod 以及隐藏文件（编辑器临时文件等）
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if base == "" || base[0] == '.' {
		return false
	}
	return util.IsRelevantMusicFile(base)
}

// TriggerRescan 安排一次延迟扫描；已有的待定扫描会被重置计时
func (w *Watcher) TriggerRescan() {
	w.pendingMutex.Lock()
	defer w.pendingMutex.Unlock()
	if w.closed {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, func() {
		w.pendingMutex.Lock()
		w.pending = nil
		w.pendingMutex.Unlock()
		w.rescan()
	})
}

// rescan 重新生成曲目列表并发布 catalog-changed
func (w *Watcher) rescan() {
	w.scanMutex.Lock()
	defer w.scanMutex.Unlock()
	ctx := context.Background()
	tracks, err := w.lister.ListTracks(ctx)
	if err != nil {
		w.logger.Error(ctx, "Rescan failed", zap.Error(err))
		return
	}
	w.logger.Info(ctx, "Audio library changed", zap.Int("tracks", len(tracks)))
	w.pub.Publish(events.Event{
		Type:       events.TypeCatalogChanged,
		TrackCount: len(tracks),
		At:         time.Now().UTC(),
	})
}

// Close 停止监听并取消待定扫描
func (w *Watcher) Close() error {
	w.pendingMutex.Lock()
	w.closed = true
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.pendingMutex.Unlock()
	return w.fsw.Close()
}
