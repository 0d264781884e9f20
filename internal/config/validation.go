package config

import (
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate 校验配置字段的合法性，返回首个带字段路径的错误。
func (c Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return newFieldError("ListenPort", "must be between 1 and 65535")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return newFieldError("LogLevel", "unknown log level: "+c.LogLevel)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return newFieldError("DataDir", "must not be empty")
	}
	if c.MaxRetries < 1 {
		return newFieldError("MaxRetries", "must be at least 1")
	}
	if c.FetchTimeout.DurationValue() < 0 {
		return newFieldError("FetchTimeout", "must not be negative")
	}
	if c.InitialBackoff.DurationValue() < 0 {
		return newFieldError("InitialBackoff", "must not be negative")
	}

	base := strings.TrimSpace(c.APIBaseURL)
	if base == "" {
		return newFieldError("APIBaseURL", "must not be empty")
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return newFieldError("APIBaseURL", "must be an absolute http(s) url")
	}

	return nil
}
