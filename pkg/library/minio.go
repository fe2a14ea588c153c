package library

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yleoer/keepsake/pkg/util"
)

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:"minio"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:"minio123"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"keepsake"`
	Prefix    string `yaml:"prefix" env:"MINIO_PREFIX" env-default:"audio/"`
}

// NewMinioClient 根据配置创建 MinIO 客户端
func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", cfg.Endpoint, err)
	}
	return client, nil
}

// Minio 是基于对象存储前缀的 Library，前缀下的一级对象视为目录条目
type Minio struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinio(client *minio.Client, bucket, prefix string) *Minio {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Minio{client: client, bucket: bucket, prefix: prefix}
}

func (l *Minio) List(ctx context.Context) ([]Entry, error) {
	ok, err := l.client.BucketExists(ctx, l.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", l.bucket, err)
	}
	if !ok {
		return nil, fmt.Errorf("bucket %s does not exist", l.bucket)
	}
	// 提前返回时取消上下文，让 ListObjects 的后台协程退出
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var out []Entry
	for obj := range l.client.ListObjects(ctx, l.bucket, minio.ListObjectsOptions{Prefix: l.prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", l.bucket, l.prefix, obj.Err)
		}
		if e, ok := entryFor(l.prefix, obj.Key, obj.Size); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// entryFor 把对象键转换为相对前缀的条目，以 / 结尾的键是目录
func entryFor(prefix, key string, size int64) (Entry, bool) {
	name := strings.TrimPrefix(key, prefix)
	if name == "" {
		return Entry{}, false
	}
	if strings.HasSuffix(name, "/") {
		return Entry{Name: strings.TrimSuffix(name, "/"), IsDir: true}, true
	}
	return Entry{Name: name, Size: size}, true
}

func (l *Minio) Open(ctx context.Context, name string) (*Object, error) {
	clean, ok := util.CleanName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	key := l.prefix + clean
	obj, err := l.client.GetObject(ctx, l.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", l.bucket, key, err)
	}
	// GetObject 是惰性的，Stat 才会真正访问服务端
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return nil, fmt.Errorf("failed to stat %s/%s: %w", l.bucket, key, err)
	}
	return &Object{ReadSeekCloser: obj, Name: clean, Size: info.Size, ModTime: info.LastModified}, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
