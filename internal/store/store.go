package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Section 是 store 内的命名分区标识，每个分区存放一类资源的条目。
type Section string

// FetchFunc 在缓存未命中时取回条目内容；返回错误表示资源当前不可用，
// 该结果不会被缓存（负结果不落盘，避免瞬时故障污染缓存）。
type FetchFunc func(key string) (json.RawMessage, error)

// Config 描述单个 store 的构造参数。Writer/Now 为空时使用默认实现。
type Config struct {
	Name     string
	Path     string
	Required []Section
	Logger   *logrus.Logger
	Verbose  bool
	Writer   FileWriter
	Now      func() time.Time
}

// Store 持有内存态分区与落盘路径，verbose 开关随实例存在，互不串扰。
type Store struct {
	name     string
	path     string
	required []Section
	logger   *logrus.Logger
	writer   FileWriter
	now      func() time.Time

	mu       sync.Mutex
	sections map[Section]map[string]json.RawMessage
	verbose  bool
}

// Name 返回 store 的标识名，同时作为快照文件的前缀。
func (s *Store) Name() string {
	return s.name
}

// Path 返回当前状态对应的落盘文件路径。
func (s *Store) Path() string {
	return s.path
}

// SetVerbose 在运行期切换命中日志开关。
func (s *Store) SetVerbose(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verbose = on
}

// Verbose 返回当前命中日志开关状态。
func (s *Store) Verbose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verbose
}

// Get 返回 section 中 key 对应的条目，key 先做小写归一化。
func (s *Store) Get(section Section, key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.sectionMap(section)[normalizeKey(key)]
	return value, ok
}

// Put 写入条目并立即持久化。落盘失败时内存态保留新值并返回错误，
// 后续任意一次成功的持久化仍会带上该条目。
func (s *Store) Put(section Section, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sectionMap(section)[normalizeKey(key)] = value
	return s.saveLocked()
}

// PutStaged 仅写入内存，不触发持久化，供批量解析等延迟落盘场景使用。
func (s *Store) PutStaged(section Section, key string, value json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sectionMap(section)[normalizeKey(key)] = value
}

// Save 将当前内存态整体持久化到落盘文件。
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// GetOrFetch 命中时直接返回；未命中时调用 fn 取回，成功后写入并持久化。
// fn 失败或返回空内容时不缓存、不落盘，错误原样交由调用方处理。
func (s *Store) GetOrFetch(section Section, key string, fn FetchFunc) (json.RawMessage, error) {
	return s.getOrFetch(section, key, fn, true)
}

// GetOrFetchStaged 与 GetOrFetch 语义一致，但新条目只进内存不落盘。
func (s *Store) GetOrFetchStaged(section Section, key string, fn FetchFunc) (json.RawMessage, error) {
	return s.getOrFetch(section, key, fn, false)
}

func (s *Store) getOrFetch(section Section, key string, fn FetchFunc, autosave bool) (json.RawMessage, error) {
	normalized := normalizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.sectionMap(section)[normalized]; ok {
		if s.verbose {
			s.logger.WithFields(s.entryFields("cache_hit", section, normalized)).Debug("cache hit")
		}
		return value, nil
	}

	s.logger.WithFields(s.entryFields("cache_miss", section, normalized)).Info("cache miss, fetching from remote")

	value, err := fn(normalized)
	if err != nil {
		s.logger.WithFields(s.entryFields("fetch_failed", section, normalized)).Warn(err.Error())
		return nil, err
	}
	if len(value) == 0 {
		return nil, nil
	}

	s.sectionMap(section)[normalized] = value
	if autosave {
		s.saveLocked()
	}
	return value, nil
}

// Refresh 将指定分区清空并持久化，不影响其它分区。
func (s *Store) Refresh(sections ...Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, section := range sections {
		s.sections[section] = map[string]json.RawMessage{}
	}
	s.logger.WithFields(logrus.Fields{
		"action":   "refresh_sections",
		"store":    s.name,
		"sections": sections,
	}).Info("sections refreshed")
	return s.saveLocked()
}

// RefreshKeys 删除 section 内的指定 key 并持久化；不给 key 时清空整个分区。
func (s *Store) RefreshKeys(section Section, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.sectionMap(section)
	if len(keys) == 0 {
		s.sections[section] = map[string]json.RawMessage{}
	} else {
		for _, key := range keys {
			delete(m, normalizeKey(key))
		}
	}
	s.logger.WithFields(logrus.Fields{
		"action":  "refresh_keys",
		"store":   s.name,
		"section": section,
		"keys":    keys,
	}).Info("section keys refreshed")
	return s.saveLocked()
}

// RefreshAll 将全部分区重置为必需但为空的形态，并删除落盘文件。
// 文件在下一次写入前保持缺失，重新加载时会回到同样的空形态。
func (s *Store) RefreshAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = freshSections(s.required)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.WithFields(logrus.Fields{
			"action": "refresh_all",
			"store":  s.name,
		}).Error(err.Error())
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	s.logger.WithFields(logrus.Fields{
		"action": "refresh_all",
		"store":  s.name,
	}).Info("store refreshed")
	return nil
}

func (s *Store) saveLocked() error {
	if err := s.writer.WriteJSON(s.path, s.sections); err != nil {
		s.logger.WithFields(logrus.Fields{
			"action": "save",
			"store":  s.name,
			"path":   s.path,
		}).Error(err.Error())
		return fmt.Errorf("save store %s: %w", s.name, err)
	}
	if s.verbose {
		s.logger.WithFields(logrus.Fields{
			"action": "save",
			"store":  s.name,
		}).Debug("store saved to disk")
	}
	return nil
}

// sectionMap 返回分区映射，缺失时就地创建，保证写入路径永不落空。
func (s *Store) sectionMap(section Section) map[string]json.RawMessage {
	m, ok := s.sections[section]
	if !ok {
		m = map[string]json.RawMessage{}
		s.sections[section] = m
	}
	return m
}

func (s *Store) entryFields(action string, section Section, key string) logrus.Fields {
	return logrus.Fields{
		"action":  action,
		"store":   s.name,
		"section": section,
		"key":     key,
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func freshSections(required []Section) map[Section]map[string]json.RawMessage {
	s := make(map[Section]map[string]json.RawMessage, len(required))
	for _, section := range required {
		s[section] = map[string]json.RawMessage{}
	}
	return s
}
