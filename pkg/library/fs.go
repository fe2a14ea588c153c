package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yleoer/keepsake/pkg/util"
)

// FS 是基于本地目录的 Library
type FS struct {
	root string
}

func NewFS(root string) *FS {
	return &FS{root: root}
}

func (l *FS) Root() string { return l.root }

// List 按目录顺序列出条目；单个条目读取信息失败时大小记为 0
func (l *FS) List(ctx context.Context) ([]Entry, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", l.root, err)
	}
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, l.entryOf(entry))
	}
	return out, nil
}

// entryOf 读取条目信息，符号链接按链接目标计算，目标不存在时大小为 0
func (l *FS) entryOf(entry fs.DirEntry) Entry {
	e := Entry{Name: entry.Name(), IsDir: entry.IsDir()}
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(filepath.Join(l.root, entry.Name()))
		if err != nil {
			return e
		}
		e.Size = info.Size()
		e.IsDir = info.IsDir()
		return e
	}
	if info, err := entry.Info(); err == nil {
		e.Size = info.Size()
	}
	return e
}

// Open 打开目录中的一个文件，名称不合法、不存在或是目录时返回 ErrNotFound
func (l *FS) Open(ctx context.Context, name string) (*Object, error) {
	clean, ok := util.CleanName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	path := filepath.Join(l.root, clean)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, clean)
	}
	return &Object{ReadSeekCloser: f, Name: clean, Size: info.Size(), ModTime: info.ModTime()}, nil
}
