package util

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// contentTypes 静态资源扩展名到 Content-Type 的映射
var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
}

// ContentType 按扩展名推断 Content-Type，未知扩展名返回 application/octet-stream
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// NormalizeName 将文件名统一为 NFC 形式。
// macOS 上的文件系统会以 NFD 形式返回带重音的文件名，直接比较会与允许列表不一致。
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// CleanName 校验一个目录内的条目名，拒绝路径分隔符和 . / ..
func CleanName(name string) (string, bool) {
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", false
	}
	return name, true
}

// TrimExt 去掉文件扩展名
func TrimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// IsDirectory 辅助函数，检查路径是否为目录
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsRelevantMusicFile 辅助函数，判断文件是否为播放器关心的音频文件
func IsRelevantMusicFile(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".wav", ".flac", ".mp3", ".m4a", ".aac", ".ogg":
		return true
	default:
		return false
	}
}
