package reward

import (
	"fmt"

	"github.com/junovette/driftbit/driftbit/game"
)

// Engine resolves every weighted-random outcome in the game: trait rolls,
// crate contents, secondary trait procs, event selection.
type Engine struct {
	src Source
}

func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// WeightedEntry pairs an arbitrary key with a positive weight.
type WeightedEntry struct {
	Key    string
	Weight int64
}

// PickWeighted draws one entry proportionally to weight. The last entry
// catches any remainder so the walk always terminates on a valid entry.
func (e *Engine) PickWeighted(entries []WeightedEntry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no entries to pick from")
	}
	var total int64
	for _, entry := range entries {
		if entry.Weight <= 0 {
			return "", fmt.Errorf("entry %q has non-positive weight %d", entry.Key, entry.Weight)
		}
		total += entry.Weight
	}
	draw := e.src.Int64n(total)
	for _, entry := range entries[:len(entries)-1] {
		if draw < entry.Weight {
			return entry.Key, nil
		}
		draw -= entry.Weight
	}
	return entries[len(entries)-1].Key, nil
}

// Chance rolls a percentage check. Fractional percentages resolve at a
// tenth-of-a-percent granularity.
func (e *Engine) Chance(percent float64) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return e.src.Int64n(1000) < int64(percent*10)
}

// Shuffle runs a Fisher-Yates pass over n elements through swap.
func (e *Engine) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(e.src.Int64n(int64(i + 1)))
		swap(i, j)
	}
}

// Between draws uniformly in [min, max] inclusive.
func (e *Engine) Between(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + e.src.Int64n(max-min+1)
}

// traitEntries builds the weighted table in registry order so a seeded
// source reproduces identical rolls.
func traitEntries() []WeightedEntry {
	entries := make([]WeightedEntry, 0, len(game.TraitOrder))
	for _, id := range game.TraitOrder {
		entries = append(entries, WeightedEntry{Key: id, Weight: game.Traits[id].Weight})
	}
	return entries
}

// RolledTrait is one freshly drawn trait slot.
type RolledTrait struct {
	TraitID string
	Level   int
}

// RollTraits draws a full trait set: one independent weighted draw per slot,
// each at a uniform level in [1, MaxLevel]. Duplicates across slots are
// allowed and stack.
func (e *Engine) RollTraits() ([]RolledTrait, error) {
	entries := traitEntries()
	rolled := make([]RolledTrait, 0, game.TraitSlotCount)
	for i := 0; i < game.TraitSlotCount; i++ {
		id, err := e.PickWeighted(entries)
		if err != nil {
			return nil, err
		}
		level := int(e.src.Int64n(int64(game.Traits[id].MaxLevel))) + 1
		rolled = append(rolled, RolledTrait{TraitID: id, Level: level})
	}
	return rolled, nil
}

// LootboxReward is the resolved contents of one opened crate.
type LootboxReward struct {
	Kind     game.LootboxRewardKind
	ItemID   string
	Quantity int64
}

// OpenLootbox resolves a crate: weighted entry selection, then a uniform
// quantity draw inside the entry's range.
func (e *Engine) OpenLootbox(lootboxID string) (LootboxReward, error) {
	box, ok := game.Lootboxes[lootboxID]
	if !ok {
		return LootboxReward{}, fmt.Errorf("unknown lootbox %q", lootboxID)
	}
	var total int64
	for _, c := range box.Contents {
		total += c.Weight
	}
	draw := e.src.Int64n(total)
	idx := len(box.Contents) - 1
	for i, c := range box.Contents[:len(box.Contents)-1] {
		if draw < c.Weight {
			idx = i
			break
		}
		draw -= c.Weight
	}
	entry := box.Contents[idx]
	return LootboxReward{
		Kind:     entry.Kind,
		ItemID:   entry.ItemID,
		Quantity: e.Between(entry.MinQty, entry.MaxQty),
	}, nil
}

// tokenAlphabet skips ambiguous glyphs so codes survive being read aloud.
const tokenAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Token draws a short random code, used for clan codes and verification
// codes.
func (e *Engine) Token(length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = tokenAlphabet[e.src.Int64n(int64(len(tokenAlphabet)))]
	}
	return string(out)
}

// PickEvent draws uniformly from the event catalog.
func (e *Engine) PickEvent() game.EventDef {
	id := game.EventOrder[e.src.Int64n(int64(len(game.EventOrder)))]
	return game.Events[id]
}
