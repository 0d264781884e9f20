package store

import "github.com/dexcache/dexcache/internal/atomicfile"

// FileWriter 抽象落盘动作，测试可注入计数实现来断言持久化次数。
type FileWriter interface {
	WriteJSON(path string, value any) error
}

// atomicWriter 是默认实现，直接复用 atomicfile 的临时文件 + rename 语义。
type atomicWriter struct{}

func (atomicWriter) WriteJSON(path string, value any) error {
	return atomicfile.WriteJSON(path, value)
}
