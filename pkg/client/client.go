// Package client 访问 keepsake 服务端，获取播放列表并订阅曲库变化事件
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/catalog"
	"github.com/yleoer/keepsake/pkg/events"
	"github.com/yleoer/keepsake/pkg/logger"
)

const (
	tracksPath = "/api/audio-files"
	eventsPath = "/api/events"
)

// ErrUnexpectedStatus 表示服务端返回了非 200 状态码
var ErrUnexpectedStatus = errors.New("unexpected response status")

type audioFilesResponse struct {
	AudioFiles []catalog.Track `json:"audioFiles"`
}

// Client 可以并发使用
type Client struct {
	base       *url.URL
	httpClient *http.Client
	logger     *logger.Logger
}

// New 创建访问 baseURL 的客户端
func New(baseURL string, timeout time.Duration, log *logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	return &Client{
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}, nil
}

// Tracks 获取播放列表，曲目 URL 会解析为服务端的绝对地址
func (c *Client) Tracks(ctx context.Context) ([]catalog.Track, error) {
	endpoint := c.resolve(tracksPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch song list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	var body audioFilesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode song list: %w", err)
	}
	tracks := make([]catalog.Track, 0, len(body.AudioFiles))
	for _, t := range body.AudioFiles {
		t.URL = c.resolve(t.URL)
		tracks = append(tracks, t)
	}
	c.logger.Debug(ctx, "Song list fetched", zap.Int("tracks", len(tracks)))
	return tracks, nil
}

// Subscribe 连接事件流，连接断开或 ctx 结束时关闭返回的通道
func (c *Client) Subscribe(ctx context.Context) (<-chan events.Event, error) {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + eventsPath

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", u.String(), err)
	}

	out := make(chan events.Event)
	go func() {
		defer close(out)
		defer conn.CloseNow()
		for {
			var ev events.Event
			if err := wsjson.Read(ctx, conn, &ev); err != nil {
				if ctx.Err() == nil {
					c.logger.Debug(ctx, "Event stream closed", zap.Error(err))
				}
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) resolve(ref string) string {
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.base.ResolveReference(r).String()
}
