// Package pokecache is the domain layer over the two sectioned stores: the
// primary store holds full pokemon documents, the extra store holds species,
// evolution chains, trimmed type/generation views, resolved default
// varieties and the large name lists. Every operation follows the same
// fetch-on-miss pattern; a remote failure surfaces as an ordinary error the
// caller handles as "resource unavailable".
package pokecache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dexcache/dexcache/internal/pokeapi"
	"github.com/dexcache/dexcache/internal/store"
)

// 分区标识固定枚举；两个 store 的必需分区集合在构造时即确定。
const (
	SectionPokemon        store.Section = "pokemon"
	SectionSpecies        store.Section = "species"
	SectionEvolution      store.Section = "evolution"
	SectionType           store.Section = "type"
	SectionGeneration     store.Section = "generation"
	SectionDefaultVariety store.Section = "default-variety"
	SectionLists          store.Section = "lists"
)

// PrimarySections 返回主 store 的必需分区。
func PrimarySections() []store.Section {
	return []store.Section{SectionPokemon}
}

// ExtraSections 返回次级 store 的必需分区。
func ExtraSections() []store.Section {
	return []store.Section{
		SectionSpecies,
		SectionEvolution,
		SectionType,
		SectionGeneration,
		SectionDefaultVariety,
		SectionLists,
	}
}

// ErrNoChainURL 表示 species 文档中没有进化链链接可用。
var ErrNoChainURL = errors.New("species document has no evolution chain url")

// Cache 组合两个 store 与远端客户端，对外提供各资源类别的缓存读取。
type Cache struct {
	primary *store.Store
	extra   *store.Store
	api     *pokeapi.Client
	logger  *logrus.Logger
}

// New 构造域缓存；primary/extra 分别对应主缓存文件与次级缓存文件。
func New(primary, extra *store.Store, api *pokeapi.Client, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{
		primary: primary,
		extra:   extra,
		api:     api,
		logger:  logger,
	}
}

// Pokemon 返回完整的 pokemon 文档，未命中时回源并持久化。
func (c *Cache) Pokemon(ctx context.Context, name string) (json.RawMessage, error) {
	return c.primary.GetOrFetch(SectionPokemon, name, func(key string) (json.RawMessage, error) {
		return c.api.Pokemon(ctx, key)
	})
}

// Species 返回完整的 species 文档，未命中时回源并持久化。
func (c *Cache) Species(ctx context.Context, name string) (json.RawMessage, error) {
	return c.extra.GetOrFetch(SectionSpecies, name, func(key string) (json.RawMessage, error) {
		return c.api.Species(ctx, key)
	})
}

// speciesStaged 与 Species 一致，但新条目只进内存，由批量路径统一落盘。
func (c *Cache) speciesStaged(ctx context.Context, name string) (json.RawMessage, error) {
	return c.extra.GetOrFetchStaged(SectionSpecies, name, func(key string) (json.RawMessage, error) {
		return c.api.Species(ctx, key)
	})
}

// EvolutionChain 以 species 文档内的链接为 key 缓存进化链文档。
func (c *Cache) EvolutionChain(ctx context.Context, speciesDoc json.RawMessage) (json.RawMessage, error) {
	chainURL := pokeapi.EvolutionChainURL(speciesDoc)
	if chainURL == "" {
		return nil, ErrNoChainURL
	}
	return c.extra.GetOrFetch(SectionEvolution, chainURL, func(string) (json.RawMessage, error) {
		return c.api.EvolutionChainByURL(ctx, chainURL)
	})
}

// Generation 返回裁剪后的 generation 视图。
func (c *Cache) Generation(ctx context.Context, id int) (pokeapi.GenerationView, error) {
	raw, err := c.extra.GetOrFetch(SectionGeneration, strconv.Itoa(id), func(string) (json.RawMessage, error) {
		view, err := c.api.Generation(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(view)
	})
	if err != nil {
		return pokeapi.GenerationView{}, err
	}
	var view pokeapi.GenerationView
	if err := json.Unmarshal(raw, &view); err != nil {
		return pokeapi.GenerationView{}, err
	}
	return view, nil
}

// Type 返回裁剪后的 type 视图。旧缓存条目缺失成员列表时，命中路径会
// 补取一次并只更新该字段；补取失败则降级返回已有内容。
func (c *Cache) Type(ctx context.Context, name string) (pokeapi.TypeView, error) {
	raw, err := c.extra.GetOrFetch(SectionType, name, func(key string) (json.RawMessage, error) {
		view, err := c.api.Type(ctx, key)
		if err != nil {
			return nil, err
		}
		return json.Marshal(view)
	})
	if err != nil {
		return pokeapi.TypeView{}, err
	}

	var view pokeapi.TypeView
	if err := json.Unmarshal(raw, &view); err != nil {
		return pokeapi.TypeView{}, err
	}

	if view.Pokemon == nil {
		view = c.backfillTypeMembers(ctx, normalize(name), view)
	}
	return view, nil
}

// backfillTypeMembers 为缺失成员列表的旧条目补取该字段并持久化。
func (c *Cache) backfillTypeMembers(ctx context.Context, key string, view pokeapi.TypeView) pokeapi.TypeView {
	fresh, err := c.api.Type(ctx, key)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"action": "type_backfill",
			"key":    key,
		}).Warn(err.Error())
		return view
	}

	view.Pokemon = fresh.Pokemon
	encoded, err := json.Marshal(view)
	if err != nil {
		return view
	}
	if err := c.extra.Put(SectionType, key, encoded); err == nil {
		c.logger.WithFields(logrus.Fields{
			"action": "type_backfill",
			"key":    key,
		}).Info("backfilled type member list")
	}
	return view
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
