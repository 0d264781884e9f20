// Package typeeff computes attack/defense effectiveness multipliers from the
// cached type damage-relation views.
package typeeff

import (
	"context"

	"github.com/dexcache/dexcache/internal/pokeapi"
)

// Types 是参与倍率计算的 18 个标准属性。
var Types = []string{
	"normal", "fire", "water", "electric", "grass", "ice", "fighting", "poison", "ground",
	"flying", "psychic", "bug", "rock", "ghost", "dragon", "dark", "steel", "fairy",
}

// TypeSource 提供单个属性的裁剪视图，通常由域缓存实现。
type TypeSource interface {
	Type(ctx context.Context, name string) (pokeapi.TypeView, error)
}

// Matrix 汇总一只宝可梦的受击倍率与本系招式的打击倍率。
type Matrix struct {
	// Defense：来袭攻击属性 → 对该宝可梦的伤害倍率（双属性相乘）。
	Defense map[string]float64 `json:"defense"`
	// Offense：自身每个属性的招式 → 对各单属性防守方的伤害倍率。
	Offense map[string]map[string]float64 `json:"offense"`
}

// Build 根据宝可梦自身属性计算完整倍率矩阵；任一属性视图取不到时返回错误。
func Build(ctx context.Context, src TypeSource, pokemonTypes []string) (Matrix, error) {
	defense := make(map[string]float64, len(Types))
	for _, atk := range Types {
		defense[atk] = 1.0
	}
	offense := make(map[string]map[string]float64, len(pokemonTypes))

	for _, ptype := range pokemonTypes {
		view, err := src.Type(ctx, ptype)
		if err != nil {
			return Matrix{}, err
		}
		rel := relationSets(view.DamageRelations)

		for _, atk := range Types {
			switch {
			case rel.noFrom[atk]:
				defense[atk] *= 0.0
			case rel.doubleFrom[atk]:
				defense[atk] *= 2.0
			case rel.halfFrom[atk]:
				defense[atk] *= 0.5
			}
		}

		row := make(map[string]float64, len(Types))
		for _, def := range Types {
			switch {
			case rel.noTo[def]:
				row[def] = 0.0
			case rel.doubleTo[def]:
				row[def] = 2.0
			case rel.halfTo[def]:
				row[def] = 0.5
			default:
				row[def] = 1.0
			}
		}
		offense[ptype] = row
	}

	return Matrix{Defense: defense, Offense: offense}, nil
}

type relations struct {
	doubleFrom, halfFrom, noFrom map[string]bool
	doubleTo, halfTo, noTo       map[string]bool
}

func relationSets(rel pokeapi.DamageRelations) relations {
	return relations{
		doubleFrom: nameSet(rel.DoubleDamageFrom),
		halfFrom:   nameSet(rel.HalfDamageFrom),
		noFrom:     nameSet(rel.NoDamageFrom),
		doubleTo:   nameSet(rel.DoubleDamageTo),
		halfTo:     nameSet(rel.HalfDamageTo),
		noTo:       nameSet(rel.NoDamageTo),
	}
}

func nameSet(resources []pokeapi.NamedResource) map[string]bool {
	set := make(map[string]bool, len(resources))
	for _, r := range resources {
		set[r.Name] = true
	}
	return set
}
