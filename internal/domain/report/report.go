// Package report aggregates stored survey groups into per-risk tallies and
// renders them.
package report

import "github.com/okian/riskpoll/internal/domain/model"

// Row is the tally for one risk-percentage group.
type Row struct {
	RiskPercentage string `json:"riskPercentage"`
	Male           int    `json:"male"`
	Female         int    `json:"female"`
	Other          int    `json:"other"`
	// Ages holds one counter per bracket, in bracket order.
	Ages []int `json:"ages"`
}

// Report is the aggregated view of the whole store.
type Report struct {
	Brackets     []Bracket `json:"brackets"`
	Rows         []Row     `json:"rows"`
	TotalRecords int       `json:"totalRecords"`
}

// Builder aggregates groups with a fixed bracket set and gender classifier.
type Builder struct {
	brackets   []Bracket
	classifier GenderClassifier
}

// Option configures a Builder.
type Option func(*Builder)

// WithBrackets replaces the default age brackets.
func WithBrackets(brackets []Bracket) Option {
	return func(b *Builder) {
		if len(brackets) > 0 {
			b.brackets = append([]Bracket(nil), brackets...)
		}
	}
}

// WithGenderClassifier replaces the recognised gender literals.
func WithGenderClassifier(c GenderClassifier) Option {
	return func(b *Builder) {
		if c.Male != "" && c.Female != "" {
			b.classifier = c
		}
	}
}

// NewBuilder returns a Builder using the default brackets and literals.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		brackets:   DefaultBrackets(),
		classifier: DefaultGenderClassifier(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Brackets returns a copy of the configured brackets.
func (b *Builder) Brackets() []Bracket {
	return append([]Bracket(nil), b.brackets...)
}

// Build tallies every group. Rows follow the order of groups; a record whose
// age is in no bracket still counts toward its gender column.
func (b *Builder) Build(groups model.Groups) Report {
	r := Report{
		Brackets: b.Brackets(),
		Rows:     make([]Row, 0, len(groups)),
	}
	for _, g := range groups {
		row := Row{RiskPercentage: g.RiskPercentage, Ages: make([]int, len(b.brackets))}
		for _, rec := range g.Records {
			switch b.classifier.Classify(rec.Gender) {
			case CategoryMale:
				row.Male++
			case CategoryFemale:
				row.Female++
			default:
				row.Other++
			}
			if i := BracketIndex(b.brackets, rec.Age); i >= 0 {
				row.Ages[i]++
			}
		}
		r.TotalRecords += len(g.Records)
		r.Rows = append(r.Rows, row)
	}
	return r
}

// Row returns the row for risk, if present.
func (r Report) Row(risk string) (Row, bool) {
	for _, row := range r.Rows {
		if row.RiskPercentage == risk {
			return row, true
		}
	}
	return Row{}, false
}
