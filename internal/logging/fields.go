package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供请求日志的公共字段，供 HTTP 层复用。
func RequestFields(method, path, requestID string, status int, durationMS int64) logrus.Fields {
	return logrus.Fields{
		"method":      method,
		"path":        path,
		"request_id":  requestID,
		"status":      status,
		"duration_ms": durationMS,
	}
}
