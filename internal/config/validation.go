package config

import (
	"errors"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		return newFieldError("CacheDir", "不能为空")
	}
	if c.CacheTTL.DurationValue() <= 0 {
		return newFieldError("CacheTTL", "必须大于 0")
	}
	if c.MemoryCacheCapacity <= 0 {
		return newFieldError("MemoryCacheCapacity", "必须大于 0")
	}
	if err := validateDomain(c.UpstreamDomain); err != nil {
		return err
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		return newFieldError("UserAgent", "不能为空")
	}
	if c.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("UpstreamTimeout", "必须大于 0")
	}

	return nil
}

// validateDomain 仅做形态校验：非空、无协议前缀、无路径分隔符。
// 上游域名会拼接进 https://<server>.<domain>/data/<datafile>，
// 带斜杠或协议的值会生成无法解析的 URL。
func validateDomain(domain string) error {
	trimmed := strings.TrimSpace(domain)
	if trimmed == "" {
		return newFieldError("UpstreamDomain", "不能为空")
	}
	if strings.Contains(trimmed, "://") {
		return newFieldError("UpstreamDomain", "不应包含协议前缀")
	}
	if strings.ContainsAny(trimmed, "/ ") {
		return newFieldError("UpstreamDomain", "不应包含路径或空格")
	}
	return nil
}
