package pokecache

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/dexcache/dexcache/internal/pokeapi"
)

// DefaultVariety 将 species 名解析为其默认形态的 pokemon 名。单次查询只
// 进内存不落盘；解析失败或回源失败时退回输入名本身。
func (c *Cache) DefaultVariety(ctx context.Context, speciesName string) string {
	key := normalize(speciesName)
	if raw, ok := c.extra.Get(SectionDefaultVariety, key); ok {
		return decodeVariety(raw, key)
	}
	resolved := c.resolveVariety(ctx, key)
	if encoded, err := json.Marshal(resolved); err == nil {
		c.extra.PutStaged(SectionDefaultVariety, key, encoded)
	}
	return resolved
}

// BulkDefaultVarieties 批量解析默认形态。逐名处理时只暂存内存（species
// 回源也不落盘），整批结束后若有新增则恰好持久化一次并输出一条汇总日志。
func (c *Cache) BulkDefaultVarieties(ctx context.Context, speciesNames []string) []string {
	out := make([]string, 0, len(speciesNames))
	added := 0
	for _, name := range speciesNames {
		key := normalize(name)
		if raw, ok := c.extra.Get(SectionDefaultVariety, key); ok {
			out = append(out, decodeVariety(raw, key))
			continue
		}
		resolved := c.resolveVariety(ctx, key)
		if encoded, err := json.Marshal(resolved); err == nil {
			c.extra.PutStaged(SectionDefaultVariety, key, encoded)
		}
		out = append(out, resolved)
		added++
	}

	if added > 0 {
		c.extra.Save()
		c.logger.WithFields(logrus.Fields{
			"action": "bulk_default_varieties",
			"added":  added,
			"total":  len(speciesNames),
		}).Info("bulk default varieties resolved")
	}
	return out
}

// resolveVariety 读取 species 文档并取第一个 is_default 形态；取不到时
// 用输入 key 兜底（几乎所有 species 的默认形态与自身同名）。
func (c *Cache) resolveVariety(ctx context.Context, key string) string {
	doc, err := c.speciesStaged(ctx, key)
	if err != nil || doc == nil {
		return key
	}
	if name := pokeapi.DefaultVariety(doc); name != "" {
		return name
	}
	return key
}

func decodeVariety(raw json.RawMessage, fallback string) string {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil || name == "" {
		return fallback
	}
	return name
}
