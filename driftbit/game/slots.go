package game

// SlotSymbols is the reel strip; all three reels share it.
var SlotSymbols = []string{"cherry", "lemon", "orange", "melon", "star", "bell", "gem", "coin", "skull"}

const (
	SlotsJackpotSymbol     = "gem"
	SlotsThreeOfAKindMult  = 15.0
	SlotsTwoOfAKindMult    = 3.5
	SlotsJackpotMultiplier = 50.0
)
