package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/converter"
	"github.com/yleoer/keepsake/pkg/library"
	"github.com/yleoer/keepsake/pkg/logger"
	"github.com/yleoer/keepsake/pkg/util"
)

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrNotFound           = errors.New("audio file not found")
)

// StreamPrefix 是曲目流地址的路由前缀
const StreamPrefix = "/api/audio/"

// DefaultAllowList 是可以出现在播放列表中的文件
var DefaultAllowList = []string{
	"blue.mp3",
	"Daniel Caesar - Best Part.mp3",
	"Dayglow - Can I Call You Tonight？.mp3",
	"Laufey - From The Start.mp3",
	"keshi - like i need u.mp3",
	"Frank Ocean - Pink + White.mp3",
}

// Track 表示一首可播放的歌曲
type Track struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	URL      string `json:"url"`
}

// StreamURL 由文件名生成曲目的流地址
func StreamURL(filename string) string {
	return StreamPrefix + url.PathEscape(filename)
}

// Service 负责生成播放列表并提供音频内容
type Service struct {
	lib       library.Library
	allowed   map[string]struct{}
	overrides map[string]Meta
	converter converter.TextConverter
	logger    *logger.Logger
}

// NewService 创建一个新的 Service 实例
func NewService(
	lib library.Library,
	allowList []string,
	overrides map[string]Meta,
	tc converter.TextConverter,
	logger *logger.Logger,
) *Service {
	allowed := make(map[string]struct{}, len(allowList))
	for _, name := range allowList {
		allowed[util.NormalizeName(name)] = struct{}{}
	}
	normalized := make(map[string]Meta, len(overrides))
	for name, meta := range overrides {
		normalized[util.NormalizeName(name)] = meta
	}
	if tc == nil {
		tc = converter.Identity()
	}
	return &Service{
		lib:       lib,
		allowed:   allowed,
		overrides: normalized,
		converter: tc,
		logger:    logger,
	}
}

// ListTracks 扫描曲库，返回在允许列表中且非空的文件，顺序与目录一致
func (s *Service) ListTracks(ctx context.Context) ([]Track, error) {
	entries, err := s.lib.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	tracks := make([]Track, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		if _, ok := s.allowed[util.NormalizeName(entry.Name)]; !ok {
			continue
		}
		if entry.Size <= 0 {
			s.logger.Debug(ctx, "Skipping empty audio file", zap.String("filename", entry.Name))
			continue
		}
		tracks = append(tracks, s.track(entry.Name))
	}
	return tracks, nil
}

func (s *Service) track(filename string) Track {
	key := util.NormalizeName(filename)
	meta := deriveMeta(key)
	meta.Title = s.converter.TradToSim(meta.Title)
	meta.Artist = s.converter.TradToSim(meta.Artist)
	meta = applyOverride(meta, s.overrides[key])
	return Track{
		Filename: filename,
		Title:    meta.Title,
		Artist:   meta.Artist,
		URL:      StreamURL(filename),
	}
}

// StreamTrack 打开曲库中的一个文件
func (s *Service) StreamTrack(ctx context.Context, filename string) (*library.Object, error) {
	obj, err := s.lib.Open(ctx, filename)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	return obj, nil
}
