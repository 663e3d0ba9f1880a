package game

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

var (
	itemNames   []string
	itemByName  map[string]string
	traitNames  []string
	traitByName map[string]string
)

func init() {
	itemByName = make(map[string]string, len(Items))
	for id, item := range Items {
		itemByName[strings.ToLower(item.Name)] = id
		itemNames = append(itemNames, item.Name)
	}
	traitByName = make(map[string]string, len(Traits))
	for id, trait := range Traits {
		traitByName[strings.ToLower(trait.Name)] = id
		traitNames = append(traitNames, trait.Name)
	}
}

// ItemIDByName resolves a human-typed item name to an item id. Exact
// case-insensitive matches win; otherwise the best fuzzy match is taken so
// "iron ingt" still finds Iron Ingot.
func ItemIDByName(name string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "", false
	}
	if id, ok := itemByName[lower]; ok {
		return id, true
	}
	matches := fuzzy.Find(lower, itemNames)
	if len(matches) == 0 {
		return "", false
	}
	return itemByName[strings.ToLower(matches[0].Str)], true
}

// TraitIDByName resolves a trait name the same way.
func TraitIDByName(name string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "", false
	}
	if id, ok := traitByName[lower]; ok {
		return id, true
	}
	matches := fuzzy.Find(lower, traitNames)
	if len(matches) == 0 {
		return "", false
	}
	return traitByName[strings.ToLower(matches[0].Str)], true
}

// LootboxIDByName resolves a crate name, exact case-insensitive only since
// crate names are short and shown verbatim in the shop.
func LootboxIDByName(name string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for id, lb := range Lootboxes {
		if strings.ToLower(lb.Name) == lower {
			return id, true
		}
	}
	return "", false
}
