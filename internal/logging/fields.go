package logging

import "github.com/sirupsen/logrus"

// 请求日志里 reason 字段的取值，标记响应由哪一层产出。
const (
	ReasonFailedCache = "failed_cache"
	ReasonRAMCache    = "ram_cache"
	ReasonFileCache   = "file_cache"
	ReasonUpstream    = "upstream"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供 server/datafile/结果归属等字段，供代理请求日志复用。
// result 取 success/fail，reason 标记命中层级（见 Reason* 常量）。
func RequestFields(server, datafile, result, reason string) logrus.Fields {
	return logrus.Fields{
		"server":   server,
		"datafile": datafile,
		"result":   result,
		"reason":   reason,
	}
}
