package report

import "github.com/okian/riskpoll/internal/domain/model"

// Category is a gender tally column.
type Category int

// Gender tally columns, in report order.
const (
	CategoryMale Category = iota
	CategoryFemale
	CategoryOther
)

// Default recognised gender literals.
const (
	DefaultMaleValue   = "male"
	DefaultFemaleValue = "female"
)

// GenderClassifier maps submitted gender text onto tally columns. Matching is
// exact; anything else, including the empty string, is CategoryOther.
type GenderClassifier struct {
	Male   string
	Female string
}

// DefaultGenderClassifier recognises "male" and "female".
func DefaultGenderClassifier() GenderClassifier {
	return GenderClassifier{Male: DefaultMaleValue, Female: DefaultFemaleValue}
}

// Classify returns the tally column for g.
func (c GenderClassifier) Classify(g model.Gender) Category {
	switch string(g) {
	case c.Male:
		return CategoryMale
	case c.Female:
		return CategoryFemale
	default:
		return CategoryOther
	}
}
