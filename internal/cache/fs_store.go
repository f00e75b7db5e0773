package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// NewStore 以 basePath 为根目录构建磁盘缓存，整个进程复用一份实例。
// ttl 是读取时的新鲜度窗口，写入不受其影响。
func NewStore(basePath string, ttl time.Duration) (Store, error) {
	if basePath == "" {
		return nil, errors.New("cache dir required")
	}
	if ttl <= 0 {
		return nil, errors.New("cache ttl must be positive")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &fileStore{
		basePath: abs,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// fileStore 不持有进程内锁：并发写同一条目时由 rename 保证“最后写入者胜”，
// 读侧最多观察到上一份完整正文。
type fileStore struct {
	basePath string
	ttl      time.Duration
	now      func() time.Time
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	filePath, err := s.entryPath(key)
	if err != nil {
		return nil, err
	}

	// 文件缺失、不可 stat、非普通文件、超龄、读失败统统按 miss 处理，
	// 磁盘层只是优化，不把局部故障上抛。
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, ErrNotFound
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}
	if s.now().Sub(info.ModTime()) >= s.ttl {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, ErrNotFound
	}
	return data, nil
}

func (s *fileStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	filePath, err := s.entryPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".cache-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, writeErr := tempFile.Write(data)
	closeErr := tempFile.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tempName)
		return writeErr
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

// entryPath 将缓存键映射到磁盘路径，并拦截越出缓存根目录的键。
func (s *fileStore) entryPath(key string) (string, error) {
	rel := strings.TrimPrefix(path.Clean("/"+key), "/")
	if rel == "" || rel == "." {
		return "", errors.New("invalid cache key")
	}

	filePath := filepath.Join(s.basePath, filepath.FromSlash(rel))
	if !strings.HasPrefix(filePath, s.basePath+string(filepath.Separator)) {
		return "", errors.New("invalid cache path")
	}
	return filePath, nil
}
