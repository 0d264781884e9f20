package pokecache

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/sirupsen/logrus"
)

// lists 分区内的固定 key。
const (
	ListAllPokemon        = "all_pokemon"
	ListAllTypes          = "all_types"
	ListAllTypesNoSpecial = "all_types_no_special"
)

// typeOrder 是属性列表的固定展示顺序；远端新增的属性追加在末尾。
var typeOrder = []string{
	"grass", "fire", "water", "electric", "psychic", "dark", "fairy", "ice", "dragon",
	"normal", "flying", "fighting", "bug", "poison", "ground", "rock", "ghost", "steel",
	"stellar", "unknown",
}

// specialTypes 不参与对战展示，excludeSpecial 时从列表中剔除。
var specialTypes = map[string]struct{}{
	"stellar": {},
	"unknown": {},
}

// AllPokemonNames 返回全量名称列表，首次取回后缓存于 lists/all_pokemon。
func (c *Cache) AllPokemonNames(ctx context.Context) ([]string, error) {
	raw, err := c.extra.GetOrFetch(SectionLists, ListAllPokemon, func(string) (json.RawMessage, error) {
		names, err := c.api.PokemonNames(ctx)
		if err != nil {
			return nil, err
		}
		c.logger.WithFields(logrus.Fields{
			"action": "prime_list",
			"key":    ListAllPokemon,
			"count":  len(names),
		}).Info("primed pokemon name list")
		return json.Marshal(names)
	})
	if err != nil {
		return nil, err
	}
	return decodeNameList(raw)
}

// AllTypes 返回按固定顺序排列的属性列表。远端不可用时退回静态顺序且不缓存。
func (c *Cache) AllTypes(ctx context.Context, excludeSpecial bool) []string {
	key := ListAllTypes
	if excludeSpecial {
		key = ListAllTypesNoSpecial
	}

	raw, err := c.extra.GetOrFetch(SectionLists, key, func(string) (json.RawMessage, error) {
		names, err := c.api.TypeNames(ctx)
		if err != nil {
			return nil, err
		}
		ordered := orderTypes(names, excludeSpecial)
		c.logger.WithFields(logrus.Fields{
			"action": "prime_list",
			"key":    key,
			"count":  len(ordered),
		}).Info("primed type list")
		return json.Marshal(ordered)
	})
	if err != nil {
		return fallbackTypes(excludeSpecial)
	}

	names, err := decodeNameList(raw)
	if err != nil {
		return fallbackTypes(excludeSpecial)
	}
	return names
}

// RefreshLists 删除指定的列表 key 并持久化；不给 key 时清空整个 lists 分区。
// 其它分区不受影响。
func (c *Cache) RefreshLists(keys ...string) error {
	return c.extra.RefreshKeys(SectionLists, keys...)
}

// orderTypes 先按固定顺序挑出远端返回的属性，再把未知的新属性排序追加。
func orderTypes(apiNames []string, excludeSpecial bool) []string {
	seen := make(map[string]struct{}, len(apiNames))
	for _, n := range apiNames {
		seen[n] = struct{}{}
	}

	known := make(map[string]struct{}, len(typeOrder))
	ordered := make([]string, 0, len(apiNames))
	for _, n := range typeOrder {
		known[n] = struct{}{}
		if _, ok := seen[n]; ok {
			ordered = append(ordered, n)
		}
	}

	var extras []string
	for _, n := range apiNames {
		if _, ok := known[n]; !ok {
			extras = append(extras, n)
		}
	}
	sort.Strings(extras)
	ordered = append(ordered, extras...)

	if excludeSpecial {
		ordered = dropSpecial(ordered)
	}
	return ordered
}

func fallbackTypes(excludeSpecial bool) []string {
	out := append([]string(nil), typeOrder...)
	if excludeSpecial {
		out = dropSpecial(out)
	}
	return out
}

func dropSpecial(names []string) []string {
	out := names[:0]
	for _, n := range names {
		if _, ok := specialTypes[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

func decodeNameList(raw json.RawMessage) ([]string, error) {
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, err
	}
	return names, nil
}
