// Package library 抽象音频和静态资源的读取位置：本地目录或 MinIO 存储桶前缀
package library

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("library: object not found")

// Entry 是列表中的一个条目
type Entry struct {
	Name  string
	Size  int64 // 无法读取时为 0
	IsDir bool
}

// Object 是已打开、可 Seek 的资源
type Object struct {
	io.ReadSeekCloser
	Name    string
	Size    int64
	ModTime time.Time
}

// Library 在单层目录中列出和打开资源
type Library interface {
	List(ctx context.Context) ([]Entry, error)
	Open(ctx context.Context, name string) (*Object, error)
}
