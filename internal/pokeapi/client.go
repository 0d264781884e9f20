// Package pokeapi wraps the remote read-only JSON API. Large payloads are
// projected onto declared views (TypeView, GenerationView) so the set of
// retained fields is an explicit contract instead of ad hoc field access.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dexcache/dexcache/internal/fetch"
)

// DefaultBaseURL 指向公共 PokeAPI 实例。
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Client 基于共享的重试客户端构造资源 URL 并取回文档。
type Client struct {
	base    string
	fetcher *fetch.Client
}

// NewClient 构造远端 API 客户端；baseURL 为空时使用 DefaultBaseURL。
func NewClient(baseURL string, fetcher *fetch.Client) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{base: base, fetcher: fetcher}
}

// Pokemon 取回单个 pokemon 文档，保留完整 payload（与既有缓存结构兼容）。
func (c *Client) Pokemon(ctx context.Context, name string) (json.RawMessage, error) {
	return c.fetcher.GetJSON(ctx, c.resourceURL("pokemon", name))
}

// Species 取回单个 pokemon-species 文档，保留完整 payload。
func (c *Client) Species(ctx context.Context, name string) (json.RawMessage, error) {
	return c.fetcher.GetJSON(ctx, c.resourceURL("pokemon-species", name))
}

// EvolutionChainByURL 按 species 文档内嵌的链接取回进化链文档。
func (c *Client) EvolutionChainByURL(ctx context.Context, chainURL string) (json.RawMessage, error) {
	return c.fetcher.GetJSON(ctx, chainURL)
}

// Generation 取回 generation 资源并裁剪为 GenerationView。
func (c *Client) Generation(ctx context.Context, id int) (GenerationView, error) {
	raw, err := c.fetcher.GetJSON(ctx, c.resourceURL("generation", strconv.Itoa(id)))
	if err != nil {
		return GenerationView{}, err
	}
	var view GenerationView
	if err := json.Unmarshal(raw, &view); err != nil {
		return GenerationView{}, fmt.Errorf("decode generation %d: %w", id, err)
	}
	if view.PokemonSpecies == nil {
		view.PokemonSpecies = []NamedResource{}
	}
	return view, nil
}

// Type 取回 type 资源并裁剪为 TypeView，成员列表保证非 nil。
func (c *Client) Type(ctx context.Context, name string) (TypeView, error) {
	raw, err := c.fetcher.GetJSON(ctx, c.resourceURL("type", name))
	if err != nil {
		return TypeView{}, err
	}
	var view TypeView
	if err := json.Unmarshal(raw, &view); err != nil {
		return TypeView{}, fmt.Errorf("decode type %s: %w", name, err)
	}
	if view.Name == "" {
		view.Name = strings.ToLower(strings.TrimSpace(name))
	}
	if view.Pokemon == nil {
		view.Pokemon = []json.RawMessage{}
	}
	return view, nil
}

// PokemonNames 取回全量名称列表（单次大查询，结果交由上层缓存）。
func (c *Client) PokemonNames(ctx context.Context) ([]string, error) {
	raw, err := c.fetcher.GetJSON(ctx, c.base+"/pokemon?limit=10000&offset=0")
	if err != nil {
		return nil, err
	}
	return decodeNames(raw)
}

// TypeNames 取回全部属性名称。
func (c *Client) TypeNames(ctx context.Context) ([]string, error) {
	raw, err := c.fetcher.GetJSON(ctx, c.base+"/type")
	if err != nil {
		return nil, err
	}
	return decodeNames(raw)
}

func decodeNames(raw json.RawMessage) ([]string, error) {
	var list resourceList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode resource list: %w", err)
	}
	names := make([]string, 0, len(list.Results))
	for _, r := range list.Results {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return names, nil
}

// DefaultVariety 从 species 文档中解析默认形态名；解析不到时返回空串。
func DefaultVariety(speciesDoc json.RawMessage) string {
	var sp speciesVarieties
	if err := json.Unmarshal(speciesDoc, &sp); err != nil {
		return ""
	}
	for _, v := range sp.Varieties {
		if v.IsDefault && v.Pokemon.Name != "" {
			return v.Pokemon.Name
		}
	}
	return ""
}

// EvolutionChainURL 从 species 文档中取出进化链地址。
func EvolutionChainURL(speciesDoc json.RawMessage) string {
	var sp speciesChain
	if err := json.Unmarshal(speciesDoc, &sp); err != nil {
		return ""
	}
	return sp.EvolutionChain.URL
}

// FlavorText 返回 species 文档里第一条英文图鉴描述，换行符展平为空格。
func FlavorText(speciesDoc json.RawMessage) string {
	var sp speciesFlavor
	if err := json.Unmarshal(speciesDoc, &sp); err != nil {
		return "No description available."
	}
	for _, e := range sp.FlavorTextEntries {
		if e.Language.Name == "en" {
			text := strings.ReplaceAll(e.FlavorText, "\n", " ")
			return strings.ReplaceAll(text, "\f", " ")
		}
	}
	return "No description available."
}

func (c *Client) resourceURL(kind, id string) string {
	return fmt.Sprintf("%s/%s/%s/", c.base, kind, url.PathEscape(strings.ToLower(strings.TrimSpace(id))))
}
