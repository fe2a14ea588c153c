package player

import (
	"errors"
	"fmt"

	"github.com/yleoer/keepsake/pkg/catalog"
)

// message 把播放器错误转换为显示给用户的文字
func message(err error, tracks []catalog.Track, current int) string {
	switch {
	case errors.Is(err, ErrCatalogFetch):
		return "Could not load the song list."
	case errors.Is(err, ErrLoadFailed):
		if current >= 0 && current < len(tracks) {
			return fmt.Sprintf("Could not load %q. Retry or skip to another song.", tracks[current].Title)
		}
		return "Could not load the song. Retry or skip to another song."
	case errors.Is(err, ErrPlaybackRejected):
		return "Playback could not start. Press play to try again."
	default:
		return err.Error()
	}
}
