package cache

import (
	"context"
	"errors"
)

// Store 负责管理磁盘缓存的读写。磁盘布局遵循：
//
//	<CacheDir>/<server>/<datafile>    # 最近一次成功回源的正文
//
// 每个条目仅由正文文件组成，新鲜度由文件系统 ModTime 提供，过期是读取时的
// 判定而非删除动作：超龄文件不再被返回，但会继续占用磁盘空间。
type Store interface {
	// Get 返回 key 对应的缓存正文。文件缺失、不是普通文件、ModTime 超出
	// 过期窗口或读取失败时，一律返回 ErrNotFound。
	Get(ctx context.Context, key string) ([]byte, error)

	// Put 将正文写入缓存，按需创建父目录并覆盖旧内容。实现需通过临时文件 +
	// rename 保证单个文件的写入原子性。
	Put(ctx context.Context, key string, data []byte) error
}

// ErrNotFound 表示缓存不存在或已过期。
var ErrNotFound = errors.New("cache entry not found")
