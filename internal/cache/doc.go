// Package cache 实现代理的三层缓存：容量受限的内存层（MemoryCache）、
// 以文件 ModTime 作为新鲜度时间戳的磁盘层（Store/fileStore），以及记录
// 最近一次回源失败的负缓存（FailureCache）。三层共享同一个过期窗口，
// 各自独立加锁，之间没有跨层事务。代理层按 失败缓存 → 内存 → 磁盘 →
// 回源 的顺序消费本包。
package cache
