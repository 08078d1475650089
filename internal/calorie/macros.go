package calorie

import (
	"math"

	"fitwell/backend/internal/domain"
)

const (
	KcalPerGramProtein = 4.0
	KcalPerGramCarbs   = 4.0
	KcalPerGramFat     = 9.0
)

// Split is a macronutrient distribution as fractions of total energy.
type Split struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// DefaultSplit is used when there is no observed intake to derive one from.
var DefaultSplit = Split{Protein: 0.25, Carbs: 0.50, Fat: 0.25}

// Grams converts the split into gram targets for kcal calories.
func (s Split) Grams(kcal int) domain.Macros {
	e := float64(kcal)
	return domain.Macros{
		Calories: e,
		Protein:  math.Round(e * s.Protein / KcalPerGramProtein),
		Carbs:    math.Round(e * s.Carbs / KcalPerGramCarbs),
		Fat:      math.Round(e * s.Fat / KcalPerGramFat),
	}
}

// SplitOf returns the energy fractions contributed by each macronutrient in m.
// When m carries no macronutrient energy the default split is returned.
func SplitOf(m domain.Macros) Split {
	p := m.Protein * KcalPerGramProtein
	c := m.Carbs * KcalPerGramCarbs
	f := m.Fat * KcalPerGramFat
	total := p + c + f
	if total <= 0 {
		return DefaultSplit
	}
	return Split{Protein: p / total, Carbs: c / total, Fat: f / total}
}
