package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealPlanSchemaVersion is stamped on every stored meal.
const MealPlanSchemaVersion = 1

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

// MealTypes lists meal slots in serving order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner}

// PlanSource records whether plan content came from the AI service or from
// the local templates.
type PlanSource string

const (
	SourceAI       PlanSource = "ai"
	SourceFallback PlanSource = "fallback"
)

// Macros is an energy/macronutrient tuple. Calories in kcal, the rest in grams.
type Macros struct {
	Calories float64 `bson:"calories" json:"calories"`
	Protein  float64 `bson:"protein" json:"protein"`
	Carbs    float64 `bson:"carbs" json:"carbs"`
	Fat      float64 `bson:"fat" json:"fat"`
}

func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

func (m Macros) Scale(f float64) Macros {
	return Macros{Calories: m.Calories * f, Protein: m.Protein * f, Carbs: m.Carbs * f, Fat: m.Fat * f}
}

type MealItem struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Macros   `bson:",inline"`
	ImageKey string `bson:"imageKey,omitempty" json:"-"`
}

// Meal is one slot (breakfast, lunch or dinner) of one day of a generated
// plan. All meals from one generation share a BatchID.
type Meal struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	BatchID       string             `bson:"batchId" json:"batchId"`
	Date          time.Time          `bson:"date" json:"date"`
	MealType      MealType           `bson:"mealType" json:"mealType"`
	Items         []MealItem         `bson:"items" json:"items"`
	Source        PlanSource         `bson:"source" json:"source"`
	SchemaVersion int                `bson:"schemaVersion" json:"schemaVersion"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// Item returns the item with the given id.
func (m *Meal) Item(id primitive.ObjectID) (*MealItem, bool) {
	for i := range m.Items {
		if m.Items[i].ID == id {
			return &m.Items[i], true
		}
	}
	return nil, false
}

type TrackingStatus string

const (
	StatusEaten   TrackingStatus = "eaten"
	StatusSkipped TrackingStatus = "skipped"
	// StatusPending is reported for items with no tracking record. It is
	// never stored.
	StatusPending TrackingStatus = "pending"
)

// MealItemTracking is one append-only tracking event. The current state of an
// item is its latest event by Timestamp.
type MealItemTracking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	MealID        primitive.ObjectID `bson:"mealId" json:"mealId"`
	ItemID        primitive.ObjectID `bson:"itemId" json:"itemId"`
	MealDate      time.Time          `bson:"mealDate" json:"mealDate"`
	Status        TrackingStatus     `bson:"status" json:"status"`
	QuantityRatio float64            `bson:"quantityRatio" json:"quantityRatio"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
}
