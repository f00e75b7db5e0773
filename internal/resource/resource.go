// Package resource 定义世界数据文件的标识与校验规则。所有进入缓存与回源
// 流程的 (server, datafile) 都必须先经过 Parse，避免代理被当作任意路径的
// 开放代理使用。
package resource

import (
	"errors"
	"path"
	"regexp"
)

// serverPattern 约束游戏世界标识：两位字母 + 1~3 位数字，例如 en123、de5。
var serverPattern = regexp.MustCompile(`^[A-Za-z]{2}\d{1,3}$`)

// datafileWhitelist 是上游公开的世界数据文件清单，白名单外一律拒绝。
var datafileWhitelist = map[string]struct{}{
	"players.txt":   {},
	"towns.txt":     {},
	"alliances.txt": {},
	"islands.txt":   {},
}

// ErrInvalidResource 表示 server 或 datafile 未通过校验，HTTP 层应映射为 404。
var ErrInvalidResource = errors.New("invalid resource identifier")

// Resource 唯一标识一个世界数据文件，只能通过 Parse 构造。
type Resource struct {
	Server   string
	Datafile string
}

// Parse 校验原始的 server/datafile 并构造 Resource。校验失败返回
// ErrInvalidResource，不产生任何副作用。
func Parse(server, datafile string) (Resource, error) {
	if !serverPattern.MatchString(server) {
		return Resource{}, ErrInvalidResource
	}
	if _, ok := datafileWhitelist[datafile]; !ok {
		return Resource{}, ErrInvalidResource
	}
	return Resource{Server: server, Datafile: datafile}, nil
}

// Key 返回缓存键，同时也是磁盘缓存的相对路径，例如 "en123/towns.txt"。
func (r Resource) Key() string {
	return path.Join(r.Server, r.Datafile)
}

// Datafiles 返回白名单内的文件名集合副本，供诊断接口输出。
func Datafiles() []string {
	result := make([]string, 0, len(datafileWhitelist))
	for name := range datafileWhitelist {
		result = append(result, name)
	}
	return result
}
