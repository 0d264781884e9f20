// Package atomicfile persists JSON documents with crash-safe semantics: the
// payload is written to a temp file in the target directory, flushed to
// stable storage, then renamed over the target. A reader never observes a
// partially written file, and a failure at any step leaves the previous
// version untouched. The package also sweeps temp files left behind by an
// interrupted write on a previous run.
package atomicfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TempPattern 是临时文件的命名模板，崩溃残留文件按该前缀清理。
const TempPattern = ".dexcache-*"

// WriteJSON 将 value 以紧凑 JSON 原子写入 path：临时文件 + fsync + rename。
// 序列化或落盘失败时删除临时文件并返回错误，绝不覆盖目标文件。
func WriteJSON(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, TempPattern)
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write temp file for %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SweepTemp 删除 dir 下上次崩溃遗留的临时文件，返回被删除的路径。
func SweepTemp(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, TempPattern))
	if err != nil {
		return nil
	}
	var removed []string
	for _, p := range matches {
		if err := os.Remove(p); err == nil {
			removed = append(removed, p)
		}
	}
	return removed
}
