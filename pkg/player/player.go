// Package player 实现播放器状态机：获取一次播放列表，把曲目加载到唯一的播放句柄，
// 处理播放、暂停、切歌和自动下一首，所有失败都转换为状态
package player

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/catalog"
	"github.com/yleoer/keepsake/pkg/logger"
)

var errNoStream = errors.New("no stream returned")

// Player 持有播放状态和播放句柄
//
// Player 不能并发使用，所有方法都要在同一个事件循环中调用。
// 会阻塞的操作以 Cmd 返回，曲目结束通知从 Events 发出，结果都要交给 Handle
type Player struct {
	ctx    context.Context
	cancel context.CancelFunc

	fetcher Fetcher
	media   Media
	logger  *logger.Logger

	state   State
	tracks  []catalog.Track
	current int
	loaded  bool
	playing bool
	lastErr error

	// seq 标记当前持有句柄的加载，其他 seq 的结果都已过期
	seq    uint64
	stream Stream
	stop   chan struct{}
	resume bool

	fetched bool
	closed  bool
	events  chan Event
}

// New 创建播放器，调用 Start 之前不做任何事
func New(ctx context.Context, fetcher Fetcher, media Media, log *logger.Logger) *Player {
	ctx, cancel := context.WithCancel(ctx)
	return &Player{
		ctx:     ctx,
		cancel:  cancel,
		fetcher: fetcher,
		media:   media,
		logger:  log,
		state:   StateIdle,
		current: -1,
		events:  make(chan Event, 4),
	}
}

// Events 发出 TrackEnded 通知
func (p *Player) Events() <-chan Event {
	return p.events
}

// Snapshot 返回当前状态的副本
func (p *Player) Snapshot() Snapshot {
	s := Snapshot{
		State:   p.state,
		Tracks:  append([]catalog.Track(nil), p.tracks...),
		Current: p.current,
		Loaded:  p.loaded,
		Playing: p.playing,
		Err:     p.lastErr,
	}
	if p.lastErr != nil {
		s.LastError = message(p.lastErr, p.tracks, p.current)
	}
	if t, ok := p.stream.(Tagged); ok && p.loaded {
		s.Album = t.Album()
	}
	return s
}

// Start 请求播放列表，只有第一次调用有效
func (p *Player) Start() []Cmd {
	if p.fetched || p.closed {
		return nil
	}
	p.fetched = true
	ctx, fetcher := p.ctx, p.fetcher
	return []Cmd{func() Event {
		tracks, err := fetcher.Tracks(ctx)
		return CatalogFetched{Tracks: tracks, Err: err}
	}}
}

// Handle 处理 Cmd 的结果或 Events 中的通知
func (p *Player) Handle(ev Event) []Cmd {
	if p.closed {
		if lf, ok := ev.(LoadFinished); ok && lf.Stream != nil {
			lf.Stream.Close()
		}
		return nil
	}
	switch ev := ev.(type) {
	case CatalogFetched:
		return p.onCatalog(ev)
	case LoadFinished:
		return p.onLoaded(ev)
	case PlayFinished:
		p.onPlayed(ev)
	case TrackEnded:
		return p.onEnded(ev)
	}
	return nil
}

func (p *Player) onCatalog(ev CatalogFetched) []Cmd {
	if ev.Err != nil {
		p.logger.Warn(p.ctx, "Failed to fetch song list", zap.Error(ev.Err))
		p.lastErr = fmt.Errorf("%w: %w", ErrCatalogFetch, ev.Err)
		p.loaded = true
		p.state = StateLoadError
		return nil
	}
	p.tracks = append([]catalog.Track(nil), ev.Tracks...)
	if len(p.tracks) == 0 {
		p.logger.Info(p.ctx, "Song list is empty")
		p.lastErr = nil
		p.loaded = true
		p.state = StateIdle
		return nil
	}
	p.logger.Info(p.ctx, "Song list fetched", zap.Int("tracks", len(p.tracks)))
	return p.load(0, false)
}

// load 把句柄指向 tracks[index]，autoplay 或加载前正在播放时，加载成功后自动播放
func (p *Player) load(index int, autoplay bool) []Cmd {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	// 替换未完成的加载时沿用其自动播放标记
	p.resume = autoplay || p.playing || (p.state == StateLoading && p.resume)
	p.release()
	p.seq++
	p.current = index
	p.loaded = false
	p.playing = false
	p.lastErr = nil
	p.state = StateLoading

	seq, ctx, media, url := p.seq, p.ctx, p.media, p.tracks[index].URL
	p.logger.Debug(ctx, "Loading track", zap.Int("index", index), zap.String("url", url), zap.Uint64("seq", seq))
	return []Cmd{func() Event {
		stream, err := media.Load(ctx, url)
		return LoadFinished{Seq: seq, Stream: stream, Err: err}
	}}
}

func (p *Player) onLoaded(ev LoadFinished) []Cmd {
	if ev.Seq != p.seq {
		p.logger.Debug(p.ctx, "Discarding stale load", zap.Uint64("seq", ev.Seq), zap.Uint64("current", p.seq))
		if ev.Stream != nil {
			ev.Stream.Close()
		}
		return nil
	}
	p.loaded = true
	if ev.Err != nil || ev.Stream == nil {
		err := ev.Err
		if err == nil {
			err = errNoStream
		}
		if ev.Stream != nil {
			ev.Stream.Close()
		}
		p.logger.Warn(p.ctx, "Failed to load track", zap.Int("index", p.current), zap.Error(err))
		p.lastErr = fmt.Errorf("%w: %w", ErrLoadFailed, err)
		p.state = StateLoadError
		p.resume = false
		return nil
	}
	p.stream = ev.Stream
	p.stop = make(chan struct{})
	p.state = StateReady
	p.watch(ev.Seq, ev.Stream, p.stop)
	if p.resume {
		p.resume = false
		return p.play()
	}
	return nil
}

// watch 把曲目自然结束转发到 Events，stop 关闭后退出
func (p *Player) watch(seq uint64, s Stream, stop <-chan struct{}) {
	ctx, events := p.ctx, p.events
	go func() {
		select {
		case <-s.Done():
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
		select {
		case events <- TrackEnded{Seq: seq}:
		case <-stop:
		case <-ctx.Done():
		}
	}()
}

func (p *Player) play() []Cmd {
	if p.stream == nil || !p.loaded {
		return nil
	}
	seq, ctx, stream := p.seq, p.ctx, p.stream
	return []Cmd{func() Event {
		return PlayFinished{Seq: seq, Err: stream.Play(ctx)}
	}}
}

func (p *Player) onPlayed(ev PlayFinished) {
	if ev.Seq != p.seq || p.stream == nil {
		return
	}
	if ev.Err != nil {
		p.logger.Warn(p.ctx, "Playback rejected", zap.Error(ev.Err))
		p.playing = false
		p.lastErr = fmt.Errorf("%w: %w", ErrPlaybackRejected, ev.Err)
		p.state = StatePlayError
		return
	}
	p.playing = true
	p.lastErr = nil
	p.state = StatePlaying
}

func (p *Player) onEnded(ev TrackEnded) []Cmd {
	if ev.Seq != p.seq || len(p.tracks) == 0 {
		return nil
	}
	next := (p.current + 1) % len(p.tracks)
	p.logger.Debug(p.ctx, "Track ended, advancing", zap.Int("next", next))
	p.playing = false
	return p.load(next, true)
}

// Toggle 暂停正在播放的曲目，或播放已加载的曲目
func (p *Player) Toggle() []Cmd {
	if p.closed || p.stream == nil || !p.loaded {
		return nil
	}
	if p.playing {
		p.Pause()
		return nil
	}
	return p.play()
}

// Play 在曲目已加载且未播放时请求播放
func (p *Player) Play() []Cmd {
	if p.closed || p.playing {
		return nil
	}
	return p.play()
}

// Pause 立即暂停
func (p *Player) Pause() {
	if p.closed || p.stream == nil || !p.playing {
		return
	}
	p.stream.Pause()
	p.playing = false
	p.state = StatePaused
}

// Next 切到下一首，最后一首之后回到第一首
func (p *Player) Next() []Cmd {
	if p.closed || len(p.tracks) <= 1 {
		return nil
	}
	return p.load((p.current+1)%len(p.tracks), false)
}

// Prev 切到上一首，第一首之前回到最后一首
func (p *Player) Prev() []Cmd {
	if p.closed || len(p.tracks) <= 1 {
		return nil
	}
	n := len(p.tracks)
	return p.load((p.current-1+n)%n, false)
}

// Select 加载指定曲目并在加载后播放
func (p *Player) Select(index int) []Cmd {
	if p.closed {
		return nil
	}
	return p.load(index, true)
}

// Retry 重新加载当前曲目
func (p *Player) Retry() []Cmd {
	if p.closed || p.current < 0 {
		return nil
	}
	p.lastErr = nil
	return p.load(p.current, false)
}

// Close 释放播放句柄，之后的事件都被忽略
func (p *Player) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	var err error
	if p.stream != nil {
		close(p.stop)
		err = p.stream.Close()
		p.stream = nil
	}
	p.cancel()
	return err
}

func (p *Player) release() {
	if p.stream == nil {
		return
	}
	close(p.stop)
	if err := p.stream.Close(); err != nil {
		p.logger.Warn(p.ctx, "Failed to close stream", zap.Error(err))
	}
	p.stream = nil
	p.stop = nil
}
