// Package audio 通过 HTTP 下载曲目并用本机声卡播放
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/logger"
	"github.com/yleoer/keepsake/pkg/player"
)

const resampleQuality = 4

var errClosed = errors.New("stream is closed")

// Device 是基于 beep speaker 的播放句柄，同一时间只播放一个流
type Device struct {
	client *http.Client
	volume float64
	logger *logger.Logger

	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
}

// NewHTTPClient 创建下载音频用的客户端，超时只作用于等待响应头，
// 读取整首曲目的时间不受限制，取消依赖 context
func NewHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

// NewDevice 创建播放设备，volume 为线性音量，0 静音，1 为原始音量
func NewDevice(client *http.Client, volume float64, log *logger.Logger) *Device {
	if client == nil {
		client = http.DefaultClient
	}
	return &Device{client: client, volume: volume, logger: log}
}

// Load 下载整首曲目并准备解码器
func (d *Device) Load(ctx context.Context, rawURL string) (player.Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid track url %q: %w", rawURL, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", rawURL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response for %s", rawURL)
	}

	album := ""
	if m, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		album = m.Album()
	} else {
		d.logger.Debug(ctx, "No tags found", zap.String("url", rawURL), zap.Error(err))
	}

	streamer, format, err := decode(formatOf(rawURL, resp.Header.Get("Content-Type")), data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", rawURL, err)
	}
	d.logger.Debug(ctx, "Track loaded",
		zap.String("url", rawURL),
		zap.Int("bytes", len(data)),
		zap.Duration("length", format.SampleRate.D(streamer.Len()).Round(time.Second)))

	return &stream{
		device:   d,
		streamer: streamer,
		format:   format,
		album:    album,
		done:     make(chan struct{}),
	}, nil
}

// init 以第一首曲目的采样率打开 speaker，之后的曲目重采样到该采样率
func (d *Device) init(format beep.Format) (beep.SampleRate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return 0, err
		}
		d.sampleRate = format.SampleRate
		d.initialized = true
	}
	return d.sampleRate, nil
}

type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

func decode(ext string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	rc := readSeekCloser{bytes.NewReader(data)}
	switch ext {
	case ".mp3":
		return mp3.Decode(rc)
	case ".flac":
		return flac.Decode(rc)
	case ".ogg":
		return vorbis.Decode(rc)
	case ".wav":
		return wav.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported format %q, only mp3, flac, wav and ogg are supported", ext)
	}
}

// formatOf 根据 URL 扩展名选择解码器，没有扩展名时看 Content-Type
func formatOf(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
			return ext
		}
	}
	switch {
	case strings.HasPrefix(contentType, "audio/mpeg"):
		return ".mp3"
	case strings.HasPrefix(contentType, "audio/flac"):
		return ".flac"
	case strings.HasPrefix(contentType, "audio/ogg"):
		return ".ogg"
	case strings.HasPrefix(contentType, "audio/wav"), strings.HasPrefix(contentType, "audio/x-wav"):
		return ".wav"
	}
	return ""
}

type stream struct {
	device   *Device
	streamer beep.StreamSeekCloser
	format   beep.Format
	album    string

	mu      sync.Mutex
	ctrl    *beep.Ctrl
	started bool
	closed  bool

	done    chan struct{}
	endOnce sync.Once
}

func (s *stream) Album() string { return s.album }

func (s *stream) Done() <-chan struct{} { return s.done }

func (s *stream) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	if s.started {
		speaker.Lock()
		s.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}

	rate, err := s.device.init(s.format)
	if err != nil {
		return fmt.Errorf("speaker unavailable: %w", err)
	}
	var src beep.Streamer = s.streamer
	if rate != s.format.SampleRate {
		src = beep.Resample(resampleQuality, s.format.SampleRate, rate, s.streamer)
	}
	s.ctrl = &beep.Ctrl{Streamer: src}
	speaker.Play(beep.Seq(s.device.applyVolume(s.ctrl), beep.Callback(func() {
		s.endOnce.Do(func() { close(s.done) })
	})))
	s.started = true
	return nil
}

func (s *stream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.closed {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.started {
		// Clear 内部会自己加 speaker 锁
		speaker.Clear()
	}
	speaker.Lock()
	err := s.streamer.Close()
	speaker.Unlock()
	return err
}

func (d *Device) applyVolume(s beep.Streamer) beep.Streamer {
	if d.volume >= 1 {
		return s
	}
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   math.Log2(math.Max(d.volume, 0.0001)),
		Silent:   d.volume <= 0,
	}
}
