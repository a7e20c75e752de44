package rules

const HoldemName = "holdem"

// Holdem is standard no-limit hold'em and uses every default.
type Holdem struct{}

func (Holdem) Name() string { return HoldemName }
