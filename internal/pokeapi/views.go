package pokeapi

import "encoding/json"

// NamedResource 是远端 API 中随处出现的 {name, url} 引用。
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// DamageRelations 描述单个属性的攻防倍率关系矩阵。
type DamageRelations struct {
	DoubleDamageFrom []NamedResource `json:"double_damage_from"`
	HalfDamageFrom   []NamedResource `json:"half_damage_from"`
	NoDamageFrom     []NamedResource `json:"no_damage_from"`
	DoubleDamageTo   []NamedResource `json:"double_damage_to"`
	HalfDamageTo     []NamedResource `json:"half_damage_to"`
	NoDamageTo       []NamedResource `json:"no_damage_to"`
}

// TypeView 是 type 资源裁剪后的落盘形态：保留名称、倍率矩阵与成员列表。
// Pokemon 为 nil 表示旧缓存条目缺失该字段，读取路径会触发一次补取。
type TypeView struct {
	Name            string            `json:"name"`
	DamageRelations DamageRelations   `json:"damage_relations"`
	Pokemon         []json.RawMessage `json:"pokemon"`
}

// GenerationView 是 generation 资源裁剪后的落盘形态。
type GenerationView struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	PokemonSpecies []NamedResource `json:"pokemon_species"`
}

// resourceList 对应 /pokemon、/type 等列表端点的响应外层。
type resourceList struct {
	Results []NamedResource `json:"results"`
}

// speciesVarieties 仅投影 species 文档中解析默认形态所需的字段。
type speciesVarieties struct {
	Varieties []struct {
		IsDefault bool          `json:"is_default"`
		Pokemon   NamedResource `json:"pokemon"`
	} `json:"varieties"`
}

// speciesFlavor 仅投影 species 文档中的图鉴描述条目。
type speciesFlavor struct {
	FlavorTextEntries []struct {
		FlavorText string        `json:"flavor_text"`
		Language   NamedResource `json:"language"`
	} `json:"flavor_text_entries"`
}

// speciesChain 仅投影 species 文档中指向进化链的 URL。
type speciesChain struct {
	EvolutionChain struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
}
