package player

import (
	"context"

	"github.com/yleoer/keepsake/pkg/catalog"
)

// Fetcher 获取播放列表
type Fetcher interface {
	Tracks(ctx context.Context) ([]catalog.Track, error)
}

// Media 把曲目 URL 加载为可播放的流，Load 会阻塞到可以开始播放或加载失败
type Media interface {
	Load(ctx context.Context, url string) (Stream, error)
}

// Stream 是一首已加载曲目的播放句柄
type Stream interface {
	// Play 开始或继续播放，阻塞到播放开始或被拒绝
	Play(ctx context.Context) error
	Pause()
	// 曲目播放到结尾时关闭 Done
	Done() <-chan struct{}
	Close() error
}

// Tagged 由能读取专辑名的流实现
type Tagged interface {
	Album() string
}

// Event 是异步操作的结果，通过 Player.Handle 送回
type Event interface {
	isEvent()
}

// Cmd 是产生一个 Event 的异步操作，要在事件循环之外执行，结果再交回事件循环
type Cmd func() Event

// CatalogFetched 是获取播放列表的结果
type CatalogFetched struct {
	Tracks []catalog.Track
	Err    error
}

func (CatalogFetched) isEvent() {}

// LoadFinished 是标记为 Seq 的加载结果
type LoadFinished struct {
	Seq    uint64
	Stream Stream
	Err    error
}

func (LoadFinished) isEvent() {}

// PlayFinished 是对加载 Seq 发起播放请求的结果
type PlayFinished struct {
	Seq uint64
	Err error
}

func (PlayFinished) isEvent() {}

// TrackEnded 在加载 Seq 的曲目播放结束时从 Player.Events 发出
type TrackEnded struct {
	Seq uint64
}

func (TrackEnded) isEvent() {}
