// Package server 通过 HTTP 提供播放列表、音频流、回忆时间线和静态资源
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/catalog"
	"github.com/yleoer/keepsake/pkg/library"
	"github.com/yleoer/keepsake/pkg/logger"
	"github.com/yleoer/keepsake/pkg/memories"
)

const shutdownTimeout = 10 * time.Second

// Catalog 由 catalog.Service 实现
type Catalog interface {
	ListTracks(ctx context.Context) ([]catalog.Track, error)
	StreamTrack(ctx context.Context, filename string) (*library.Object, error)
}

// Deps 是 Server 依赖的服务
type Deps struct {
	Catalog  Catalog
	Public   library.Library
	Events   http.Handler
	Memories memories.Store
	Status   string
	Logger   *logger.Logger
}

type Server struct {
	deps    Deps
	handler http.Handler
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	s := &Server{deps: deps}
	s.handler = s.middleware(s.routes())
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/audio-files", s.handleAudioFiles)
	mux.HandleFunc("GET "+catalog.StreamPrefix+"{filename}", s.handleAudio)
	if s.deps.Events != nil {
		mux.Handle("GET /api/events", s.deps.Events)
	}
	if s.deps.Memories != nil {
		mux.HandleFunc("GET /api/memories", s.handleListMemories)
		mux.HandleFunc("POST /api/memories", s.handleAddMemory)
	}
	mux.HandleFunc("GET /placeholder-image.svg", serveSVG(placeholderSVG))
	mux.HandleFunc("GET /heart.svg", serveSVG(heartSVG))
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /{name}", s.handleStatic)
	return mux
}

// Handler 返回带请求日志的根处理器
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run 监听 addr，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.deps.Logger.Info(ctx, "Starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server stopped: %w", err)
	case <-ctx.Done():
	}

	s.deps.Logger.Info(ctx, "Shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
