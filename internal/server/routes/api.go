// Package routes registers the public JSON API and the /-/ operator surface
// on a Fiber application built by the server package.
package routes

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dexcache/dexcache/internal/pokeapi"
	"github.com/dexcache/dexcache/internal/pokecache"
	"github.com/dexcache/dexcache/internal/typeeff"
)

// Options 汇总路由处理所需的依赖。
type Options struct {
	Logger *logrus.Logger
	Cache  *pokecache.Cache
}

const maxPageSize = 200

// pokemonDoc 仅投影接口层需要的 pokemon 文档字段。
type pokemonDoc struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
	Types []struct {
		Type pokeapi.NamedResource `json:"type"`
	} `json:"types"`
	Stats []struct {
		BaseStat int                   `json:"base_stat"`
		Stat     pokeapi.NamedResource `json:"stat"`
	} `json:"stats"`
}

type pokedexEntry struct {
	Name   string   `json:"name"`
	ID     int      `json:"id"`
	Sprite string   `json:"sprite"`
	Types  []string `json:"types"`
}

// RegisterAPIRoutes 挂载面向应用的 JSON 查询接口。
func RegisterAPIRoutes(app *fiber.App, opts Options) {
	if app == nil {
		return
	}

	app.Get("/api/pokedex", func(c fiber.Ctx) error {
		return handlePokedex(c, opts)
	})
	app.Get("/api/pokemon/:name", func(c fiber.Ctx) error {
		return handlePokemonDetail(c, opts)
	})
	app.Get("/api/types", func(c fiber.Ctx) error {
		exclude := queryBool(c, "exclude_special", false)
		return c.JSON(fiber.Map{
			"types": opts.Cache.AllTypes(c.Context(), exclude),
		})
	})
}

// handlePokedex 按页读取名称列表，批量解析默认形态后输出图鉴摘要。
func handlePokedex(c fiber.Ctx, opts Options) error {
	ctx := c.Context()

	limit := queryInt(c, "limit", 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	sortBy := c.Query("sort", "id")
	typeFilter := strings.ToLower(strings.TrimSpace(c.Query("type")))

	names, err := opts.Cache.AllPokemonNames(ctx)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "pokemon_list_unavailable"})
	}
	if offset >= len(names) {
		return c.JSON(fiber.Map{"count": 0, "results": []pokedexEntry{}})
	}
	end := offset + limit
	if end > len(names) {
		end = len(names)
	}

	varieties := opts.Cache.BulkDefaultVarieties(ctx, names[offset:end])

	entries := make([]pokedexEntry, 0, len(varieties))
	for _, name := range varieties {
		raw, err := opts.Cache.Pokemon(ctx, name)
		if err != nil || raw == nil {
			continue
		}
		var doc pokemonDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		types := typeNames(doc)
		if typeFilter != "" && !contains(types, typeFilter) {
			continue
		}
		entries = append(entries, pokedexEntry{
			Name:   doc.Name,
			ID:     doc.ID,
			Sprite: doc.Sprites.FrontDefault,
			Types:  types,
		})
	}

	if sortBy == "name" {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	} else {
		sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	}

	return c.JSON(fiber.Map{
		"count":   len(entries),
		"results": entries,
		"types":   opts.Cache.AllTypes(ctx, true),
	})
}

// handlePokemonDetail 输出单只宝可梦的详情：属性、种族值、描述与倍率矩阵。
func handlePokemonDetail(c fiber.Ctx, opts Options) error {
	ctx := c.Context()
	name := c.Params("name")

	raw, err := opts.Cache.Pokemon(ctx, name)
	if err != nil || raw == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "pokemon_not_found"})
	}

	var doc pokemonDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "pokemon_decode_failed"})
	}

	description := "No description available."
	if species, err := opts.Cache.Species(ctx, name); err == nil && species != nil {
		description = pokeapi.FlavorText(species)
	}

	types := typeNames(doc)
	matrix, err := typeeff.Build(ctx, opts.Cache, types)
	if err != nil {
		opts.Logger.WithFields(logrus.Fields{
			"action": "effectiveness",
			"key":    doc.Name,
		}).Warn(err.Error())
	}

	stats := make(map[string]int, len(doc.Stats))
	for _, s := range doc.Stats {
		stats[s.Stat.Name] = s.BaseStat
	}

	sprite := doc.Sprites.Other.OfficialArtwork.FrontDefault
	if sprite == "" {
		sprite = doc.Sprites.FrontDefault
	}

	return c.JSON(fiber.Map{
		"id":            doc.ID,
		"name":          doc.Name,
		"sprite":        sprite,
		"types":         types,
		"stats":         stats,
		"description":   description,
		"effectiveness": matrix,
	})
}

func typeNames(doc pokemonDoc) []string {
	names := make([]string, 0, len(doc.Types))
	for _, t := range doc.Types {
		if t.Type.Name != "" {
			names = append(names, t.Type.Name)
		}
	}
	return names
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func queryInt(c fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func queryBool(c fiber.Ctx, key string, fallback bool) bool {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
