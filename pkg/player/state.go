package player

import (
	"errors"

	"github.com/yleoer/keepsake/pkg/catalog"
)

var (
	ErrLoadFailed       = errors.New("track could not be loaded")
	ErrPlaybackRejected = errors.New("playback was rejected")
	ErrCatalogFetch     = errors.New("song list could not be fetched")
)

// State 表示播放状态
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateLoadError
	StatePlayError
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateLoadError:
		return "LoadError"
	case StatePlayError:
		return "PlayError"
	default:
		return "Unknown"
	}
}

// Snapshot 是用于渲染的只读状态副本
type Snapshot struct {
	State     State
	Tracks    []catalog.Track
	Current   int // 未选中曲目时为 -1
	Loaded    bool
	Playing   bool
	LastError string
	Err       error
	Album     string
}

// Track 返回当前选中的曲目
func (s Snapshot) Track() (catalog.Track, bool) {
	if s.Current < 0 || s.Current >= len(s.Tracks) {
		return catalog.Track{}, false
	}
	return s.Tracks[s.Current], true
}

// CanPlay 表示播放/暂停切换是否有效
func (s Snapshot) CanPlay() bool {
	return s.Loaded && s.State != StateLoadError && s.Current >= 0 && s.State != StateIdle
}
