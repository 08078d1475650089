// Package imagegen renders plan-unit cards as PNG images.
package imagegen

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/fogleman/gg"

	"fitwell/backend/internal/domain"
)

const (
	cardWidth  = 640
	cardHeight = 360
)

// Renderer draws meal item cards.
type Renderer interface {
	RenderMealItem(mealType domain.MealType, item domain.MealItem) ([]byte, error)
}

// CardRenderer draws a flat card with the item name and its macros.
type CardRenderer struct{}

func NewCardRenderer() *CardRenderer { return &CardRenderer{} }

var palette = [][3]float64{
	{0.98, 0.80, 0.45},
	{0.55, 0.80, 0.60},
	{0.50, 0.70, 0.95},
	{0.95, 0.60, 0.55},
	{0.75, 0.65, 0.90},
}

func (r *CardRenderer) RenderMealItem(mealType domain.MealType, item domain.MealItem) ([]byte, error) {
	dc := gg.NewContext(cardWidth, cardHeight)

	bg := palette[colorIndex(item.Name)]
	dc.SetRGB(bg[0], bg[1], bg[2])
	dc.Clear()

	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRoundedRectangle(24, 24, cardWidth-48, cardHeight-48, 18)
	dc.Fill()

	dc.SetRGB(0.15, 0.15, 0.15)
	dc.DrawStringAnchored(strings.ToUpper(string(mealType)), cardWidth/2, 70, 0.5, 0.5)
	dc.DrawStringWrapped(item.Name, cardWidth/2, 130, 0.5, 0.5, cardWidth-120, 1.4, gg.AlignCenter)

	lines := []string{
		fmt.Sprintf("%.0f kcal", item.Calories),
		fmt.Sprintf("Protein %.0fg   Carbs %.0fg   Fat %.0fg", item.Protein, item.Carbs, item.Fat),
	}
	for i, l := range lines {
		dc.DrawStringAnchored(l, cardWidth/2, float64(220+i*36), 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func colorIndex(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % uint32(len(palette)))
}
