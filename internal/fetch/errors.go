package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNotFound 表示上游确定性地返回 404，调用方不应重试，也不得缓存该结果。
var ErrNotFound = errors.New("resource not found")

// StatusError 记录非 2xx 响应的状态码，供瞬时/永久错误分类使用。
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// transientStatus 与上游限流/过载场景对应，命中后允许退避重试。
var transientStatus = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// IsTransient 判断错误是否属于可重试的瞬时失败：限流、服务端故障，
// 以及连接级错误与超时。404、其它 4xx 和 JSON 解析失败均视为永久失败。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		_, ok := transientStatus[statusErr.Code]
		return ok
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
