package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dexcache/dexcache/internal/atomicfile"
)

// Load 构造并加载一个 store：读取落盘文件，解析失败时隔离损坏文件并回落
// 到空 store；随后补齐必需分区、清理崩溃残留的临时文件，并确保落盘文件存在。
// 进程内任何读取/解析问题都不会让加载失败，只有目录不可用才返回错误。
func Load(cfg Config) (*Store, error) {
	if cfg.Name == "" {
		return nil, errors.New("store name required")
	}
	if cfg.Path == "" {
		return nil, errors.New("store path required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	writer := cfg.Writer
	if writer == nil {
		writer = atomicWriter{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	s := &Store{
		name:     cfg.Name,
		path:     cfg.Path,
		required: append([]Section(nil), cfg.Required...),
		logger:   logger,
		writer:   writer,
		now:      now,
		verbose:  cfg.Verbose,
	}

	for _, p := range atomicfile.SweepTemp(dir) {
		logger.WithFields(logrus.Fields{
			"action": "sweep_temp",
			"store":  cfg.Name,
			"path":   p,
		}).Info("removed stale temp file")
	}

	s.sections = s.loadSections()
	for _, section := range s.required {
		if s.sections[section] == nil {
			s.sections[section] = map[string]json.RawMessage{}
		}
	}

	if _, err := os.Stat(cfg.Path); errors.Is(err, fs.ErrNotExist) {
		if err := s.Save(); err != nil {
			logger.WithFields(logrus.Fields{
				"action": "initial_save",
				"store":  cfg.Name,
			}).Error(err.Error())
		}
	}

	return s, nil
}

// loadSections 读取并解析落盘文件；损坏文件改名隔离后返回空内容。
func (s *Store) loadSections() map[Section]map[string]json.RawMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithFields(logrus.Fields{
				"action": "load",
				"store":  s.name,
				"path":   s.path,
			}).Error(err.Error())
			s.quarantine()
		}
		return freshSections(s.required)
	}

	var sections map[Section]map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		s.logger.WithFields(logrus.Fields{
			"action": "load",
			"store":  s.name,
			"path":   s.path,
		}).Error(err.Error())
		s.quarantine()
		return freshSections(s.required)
	}
	if sections == nil {
		sections = freshSections(s.required)
	}
	return sections
}

// quarantine 将无法解析的落盘文件改名保留，避免覆盖现场。
func (s *Store) quarantine() {
	bad := fmt.Sprintf("%s.corrupt.%s", s.path, s.now().Format("20060102_150405"))
	if err := os.Rename(s.path, bad); err != nil {
		s.logger.WithFields(logrus.Fields{
			"action": "quarantine",
			"store":  s.name,
		}).Error(err.Error())
		return
	}
	s.logger.WithFields(logrus.Fields{
		"action": "quarantine",
		"store":  s.name,
		"path":   bad,
	}).Warn("quarantined corrupt store file")
}
