package report

// Bracket is an inclusive age range counted as one report column.
type Bracket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Contains reports whether age lies in [Min, Max].
func (b Bracket) Contains(age float64) bool {
	return age >= b.Min && age <= b.Max
}

// DefaultBrackets returns the five survey age brackets in column order.
func DefaultBrackets() []Bracket {
	return []Bracket{
		{Label: "1-15", Min: 1, Max: 15},
		{Label: "16-39", Min: 16, Max: 39},
		{Label: "40-49", Min: 40, Max: 49},
		{Label: "50-59", Min: 50, Max: 59},
		{Label: "60+", Min: 60, Max: 150},
	}
}

// BracketIndex returns the index of the first bracket containing age, or -1.
func BracketIndex(brackets []Bracket, age float64) int {
	for i, b := range brackets {
		if b.Contains(age) {
			return i
		}
	}
	return -1
}
