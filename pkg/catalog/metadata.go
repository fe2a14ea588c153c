package catalog

import (
	"strings"

	"github.com/yleoer/keepsake/pkg/util"
)

const (
	UnknownArtist = "Unknown Artist"
	separator     = " - "
)

// Meta 是从文件名推断出的展示信息
type Meta struct {
	Title  string
	Artist string
}

// DefaultOverrides 记录无法按 "艺术家 - 标题" 约定推断的已知文件。
// 空字段表示该字段仍按约定推断。
var DefaultOverrides = map[string]Meta{
	"blue.mp3": {Title: "Blue", Artist: "Yung Kai"},
	// Windows 不允许文件名中出现 "?"，上传时被替换成了全角问号
	"Dayglow - Can I Call You Tonight？.mp3": {Title: "Can I Call You Tonight?"},
}

// Describe 根据文件名推断标题和艺术家。
// 优先级：覆盖表 > "Artist - Title" 分隔符 > Unknown Artist 兜底。
func Describe(filename string, overrides map[string]Meta) Meta {
	return applyOverride(deriveMeta(filename), overrides[filename])
}

func applyOverride(meta, o Meta) Meta {
	if o.Title != "" {
		meta.Title = o.Title
	}
	if o.Artist != "" {
		meta.Artist = o.Artist
	}
	return meta
}

func deriveMeta(filename string) Meta {
	base := util.TrimExt(filename)
	if artist, title, ok := strings.Cut(base, separator); ok {
		return Meta{Title: strings.TrimSpace(title), Artist: strings.TrimSpace(artist)}
	}
	return Meta{Title: base, Artist: UnknownArtist}
}
