package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/calorie"
	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/feedback"
	"fitwell/backend/internal/imagegen"
	"fitwell/backend/internal/intake"
	"fitwell/backend/internal/lock"
	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/planner"
	"fitwell/backend/internal/repository"
	"fitwell/backend/internal/storage"
)

type GenerateMealPlanInput struct {
	Days          int                  `json:"days"`
	ActivityLevel domain.ActivityLevel `json:"activityLevel"`
	DietType      string               `json:"dietType"`
	ForceNew      bool                 `json:"forceNew"`
}

type RecalculateMealPlanInput struct {
	Days          int                  `json:"days"`
	ActivityLevel domain.ActivityLevel `json:"activityLevel"`
	DietType      string               `json:"dietType"`
}

// MealPlanResult describes a freshly stored batch.
type MealPlanResult struct {
	BatchID       string               `json:"batchId"`
	StartDate     string               `json:"startDate"`
	EndDate       string               `json:"endDate"`
	DailyCalories int                  `json:"dailyCalories"`
	MacroTargets  domain.Macros        `json:"macroTargets"`
	Source        domain.PlanSource    `json:"source"`
	ReplacedMeals int64                `json:"replacedMeals"`
	Meals         []domain.Meal        `json:"meals"`
	Adjustment    *feedback.Adjustment `json:"adjustment,omitempty"`
}

// TrackedItem is a meal item with its current tracking state.
type TrackedItem struct {
	domain.MealItem
	Status        domain.TrackingStatus `json:"status"`
	QuantityRatio float64               `json:"quantityRatio"`
	HasImage      bool                  `json:"hasImage"`
}

type TrackedMeal struct {
	ID       primitive.ObjectID `json:"id"`
	MealType domain.MealType    `json:"mealType"`
	Items    []TrackedItem      `json:"items"`
	Totals   domain.Macros      `json:"totals"`
}

type DayMealPlan struct {
	Date    string        `json:"date"`
	BatchID string        `json:"batchId"`
	Meals   []TrackedMeal `json:"meals"`
	Totals  domain.Macros `json:"totals"`
}

type ActivePlanInfo struct {
	BatchID       string            `json:"batchId"`
	StartDate     string            `json:"startDate"`
	EndDate       string            `json:"endDate"`
	TotalDays     int               `json:"totalDays"`
	RemainingDays int               `json:"remainingDays"`
	TotalMeals    int               `json:"totalMeals"`
	Source        domain.PlanSource `json:"source"`
}

type TrackItemInput struct {
	Status        domain.TrackingStatus `json:"status"`
	QuantityRatio *float64              `json:"quantityRatio"`
}

type DailyNutrition struct {
	Date         string        `json:"date"`
	Planned      domain.Macros `json:"planned"`
	Consumed     domain.Macros `json:"consumed"`
	Remaining    float64       `json:"remainingCalories"`
	ItemsEaten   int           `json:"itemsEaten"`
	ItemsSkipped int           `json:"itemsSkipped"`
	ItemsPending int           `json:"itemsPending"`
	ProgressPct  float64       `json:"progressPct"`
}

type MealPlanService interface {
	Generate(ctx context.Context, userID string, in GenerateMealPlanInput) (*MealPlanResult, error)
	Recalculate(ctx context.Context, userID string, in RecalculateMealPlanInput) (*MealPlanResult, error)
	GetForDate(ctx context.Context, userID string, date time.Time) (*DayMealPlan, error)
	ActivePlan(ctx context.Context, userID string) (*ActivePlanInfo, error)
	TrackItem(ctx context.Context, userID, itemID string, in TrackItemInput) (*domain.MealItemTracking, error)
	DailyNutrition(ctx context.Context, userID string, date time.Time) (*DailyNutrition, error)
	GenerateItemImage(ctx context.Context, userID, itemID string) (string, error)
}

// MealPlanDeps collects the collaborators of the meal plan service.
type MealPlanDeps struct {
	Users      repository.UserRepository
	Meals      repository.MealPlanRepository
	Tracking   repository.MealTrackingRepository
	UnitOfWork repository.UnitOfWork
	Generator  planner.Generator
	Locker     lock.Locker
	Images     storage.ImageStore
	Renderer   imagegen.Renderer
	Log        *logger.Logger
	Settings   PlanSettings
	Now        Clock
}

type mealPlanService struct {
	users     repository.UserRepository
	meals     repository.MealPlanRepository
	tracking  repository.MealTrackingRepository
	uow       repository.UnitOfWork
	generator planner.Generator
	locker    lock.Locker
	images    storage.ImageStore
	renderer  imagegen.Renderer
	log       *logger.Logger
	settings  PlanSettings
	now       Clock
}

func NewMealPlanService(d MealPlanDeps) MealPlanService {
	if d.Now == nil {
		d.Now = systemClock
	}
	if d.Renderer == nil {
		d.Renderer = imagegen.NewCardRenderer()
	}
	return &mealPlanService{
		users:     d.Users,
		meals:     d.Meals,
		tracking:  d.Tracking,
		uow:       d.UnitOfWork,
		generator: d.Generator,
		locker:    d.Locker,
		images:    d.Images,
		renderer:  d.Renderer,
		log:       d.Log,
		settings:  d.Settings.withDefaults(),
		now:       d.Now,
	}
}

func (s *mealPlanService) today() time.Time { return domain.DateOnly(s.now()) }

// Generate creates a new meal plan starting today. An existing active plan
// is only replaced when in.ForceNew is set. Intake tracked over the history
// window is passed to the generator.
func (s *mealPlanService) Generate(ctx context.Context, userID string, in GenerateMealPlanInput) (*MealPlanResult, error) {
	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	target, err := calorie.ForProfile(user.Profile, in.ActivityLevel, today)
	if err != nil {
		return nil, err
	}
	days, err := s.settings.planDays(in.Days)
	if err != nil {
		return nil, err
	}

	recent, err := s.recentIntake(ctx, user.ID, today)
	if err != nil {
		return nil, err
	}

	req := planner.MealRequest{
		Days:          days,
		DailyCalories: target,
		Split:         calorie.DefaultSplit,
		DietType:      firstNonEmpty(in.DietType, user.Profile.DietType),
		Goal:          user.Profile.FitnessGoal,
		Allergies:     user.Profile.Allergies,
	}
	if avg, err := recent.DailyAverage(); err == nil {
		req.Recent = &planner.IntakeFeedback{DaysTracked: recent.DaysTracked, DailyAverage: roundMacros(avg)}
	}
	rule := replaceAny
	if !in.ForceNew {
		rule = requireNoPlan
	}
	return s.replacePlan(ctx, user.ID, today, req, rule, nil)
}

// Recalculate adjusts the calorie target from the tracked intake of the
// trailing history window and regenerates the active plan with it.
func (s *mealPlanService) Recalculate(ctx context.Context, userID string, in RecalculateMealPlanInput) (*MealPlanResult, error) {
	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	target, err := calorie.ForProfile(user.Profile, in.ActivityLevel, today)
	if err != nil {
		return nil, err
	}
	days, err := s.settings.planDays(in.Days)
	if err != nil {
		return nil, err
	}

	recent, err := s.recentIntake(ctx, user.ID, today)
	if err != nil {
		return nil, err
	}
	adj, err := feedback.Recalculate(target, recent)
	if err != nil {
		return nil, err
	}
	s.log.Info("Recalculated meal target",
		"user_id", user.ID.Hex(), "previous", adj.PreviousTarget, "new", adj.NewTarget,
		"average_intake", adj.AverageIntake, "days_tracked", adj.DaysTracked)

	req := planner.MealRequest{
		Days:          days,
		DailyCalories: adj.NewTarget,
		Split:         adj.Split,
		DietType:      firstNonEmpty(in.DietType, user.Profile.DietType),
		Goal:          user.Profile.FitnessGoal,
		Allergies:     user.Profile.Allergies,
		Note:          adj.Note,
	}
	return s.replacePlan(ctx, user.ID, today, req, requireActivePlan, &adj)
}

// recentIntake aggregates the tracked intake of the history window ending
// before today.
func (s *mealPlanService) recentIntake(ctx context.Context, userID primitive.ObjectID, today time.Time) (intake.Summary, error) {
	window := intake.Trailing(today, s.settings.HistoryDays, false)
	meals, err := s.meals.ListRange(ctx, userID, window.From, window.To)
	if err != nil {
		return intake.Summary{}, err
	}
	records, _, err := s.intakeRecords(ctx, userID, meals)
	if err != nil {
		return intake.Summary{}, err
	}
	return intake.Aggregate(records, window), nil
}

// planRule says what replacePlan expects of the meals dated today or later.
type planRule int

const (
	replaceAny planRule = iota
	requireNoPlan
	requireActivePlan
)

// replacePlan generates content and swaps it in for every meal dated today or
// later, after checking rule against the current active plan.
func (s *mealPlanService) replacePlan(ctx context.Context, userID primitive.ObjectID, today time.Time, req planner.MealRequest, rule planRule, adj *feedback.Adjustment) (*MealPlanResult, error) {
	var result *MealPlanResult
	err := withUserLock(ctx, s.locker, s.log, "meal", userID, s.settings.LockTTL, func() error {
		if rule != replaceAny {
			active, err := s.meals.CountFrom(ctx, userID, today)
			if err != nil {
				return err
			}
			if rule == requireNoPlan && active > 0 {
				return apperr.ActivePlanConflict("meal", active)
			}
			if rule == requireActivePlan && active == 0 {
				return apperr.NoActivePlan("meal")
			}
		}

		plan, err := s.generator.GenerateMealPlan(ctx, req)
		if err != nil {
			if _, ok := apperr.As(err); ok {
				return err
			}
			return apperr.ExternalGenerationFailure(err)
		}

		meals := buildMeals(userID, today, plan, s.now().UTC())
		if len(meals) == 0 {
			return apperr.ExternalGenerationFailure(errors.New("generator returned an empty plan"))
		}
		var replaced int64
		err = s.uow.WithinTx(ctx, func(txCtx context.Context) error {
			n, err := s.meals.DeleteFrom(txCtx, userID, today)
			if err != nil {
				return err
			}
			replaced = n
			return s.meals.InsertMany(txCtx, meals)
		})
		if err != nil {
			return err
		}

		result = &MealPlanResult{
			BatchID:       meals[0].BatchID,
			StartDate:     today.Format(domain.DateLayout),
			EndDate:       domain.AddDays(today, len(plan.Days)-1).Format(domain.DateLayout),
			DailyCalories: req.DailyCalories,
			MacroTargets:  req.Split.Grams(req.DailyCalories),
			Source:        plan.Source,
			ReplacedMeals: replaced,
			Meals:         meals,
			Adjustment:    adj,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Stored meal plan",
		"user_id", userID.Hex(), "batch_id", result.BatchID, "meals", len(result.Meals),
		"source", result.Source, "replaced", result.ReplacedMeals)

	if s.settings.RenderImages {
		s.renderBatchImages(ctx, userID, result.Meals)
	}
	return result, nil
}

func buildMeals(userID primitive.ObjectID, start time.Time, plan *planner.MealPlan, now time.Time) []domain.Meal {
	batchID := uuid.NewString()
	meals := make([]domain.Meal, 0, len(plan.Days)*len(domain.MealTypes))
	for i, day := range plan.Days {
		date := domain.AddDays(start, i)
		for _, mt := range domain.MealTypes {
			planned := day.For(mt)
			items := make([]domain.MealItem, len(planned))
			for j, p := range planned {
				items[j] = domain.MealItem{ID: primitive.NewObjectID(), Name: p.Name, Macros: p.Macros()}
			}
			meals = append(meals, domain.Meal{
				ID:            primitive.NewObjectID(),
				UserID:        userID,
				BatchID:       batchID,
				Date:          date,
				MealType:      mt,
				Items:         items,
				Source:        plan.Source,
				SchemaVersion: domain.MealPlanSchemaVersion,
				CreatedAt:     now,
			})
		}
	}
	return meals
}

// renderBatchImages draws and stores a card for every item. Failures are
// logged per item and never fail the batch.
func (s *mealPlanService) renderBatchImages(ctx context.Context, userID primitive.ObjectID, meals []domain.Meal) {
	var g errgroup.Group
	g.SetLimit(s.settings.ImageConcurrency)
	for i := range meals {
		meal := &meals[i]
		for j := range meal.Items {
			item := &meal.Items[j]
			g.Go(func() error {
				key, err := s.storeItemImage(ctx, userID, meal, *item)
				if err != nil {
					s.log.Warn("Failed to render meal item image",
						"user_id", userID.Hex(), "item_id", item.ID.Hex(), "error", err)
					return nil
				}
				item.ImageKey = key
				return nil
			})
		}
	}
	_ = g.Wait()
}

func itemImageKey(userID, itemID primitive.ObjectID) string {
	return fmt.Sprintf("meal-images/%s/%s.png", userID.Hex(), itemID.Hex())
}

func (s *mealPlanService) storeItemImage(ctx context.Context, userID primitive.ObjectID, meal *domain.Meal, item domain.MealItem) (string, error) {
	png, err := s.renderer.RenderMealItem(meal.MealType, item)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	key := itemImageKey(userID, item.ID)
	if err := s.images.PutObject(ctx, key, "image/png", png); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if err := s.meals.SetItemImage(ctx, meal.ID, item.ID, key); err != nil {
		return "", fmt.Errorf("save image key: %w", err)
	}
	return key, nil
}

// intakeRecords joins the tracking history of every item in meals with the
// item macros. It also returns the latest event per item.
func (s *mealPlanService) intakeRecords(ctx context.Context, userID primitive.ObjectID, meals []domain.Meal) ([]intake.Record, map[primitive.ObjectID]domain.MealItemTracking, error) {
	type located struct {
		date   time.Time
		macros domain.Macros
	}
	items := make(map[primitive.ObjectID]located)
	ids := make([]primitive.ObjectID, 0)
	for _, m := range meals {
		for _, it := range m.Items {
			items[it.ID] = located{date: m.Date, macros: it.Macros}
			ids = append(ids, it.ID)
		}
	}
	latest := make(map[primitive.ObjectID]domain.MealItemTracking)
	if len(ids) == 0 {
		return nil, latest, nil
	}

	events, err := s.tracking.ListByItems(ctx, userID, ids)
	if err != nil {
		return nil, nil, err
	}
	records := make([]intake.Record, 0, len(events))
	for _, ev := range events {
		loc, ok := items[ev.ItemID]
		if !ok {
			continue
		}
		records = append(records, intake.Record{
			ItemID:        ev.ItemID.Hex(),
			Date:          loc.date,
			Status:        ev.Status,
			QuantityRatio: ev.QuantityRatio,
			Timestamp:     ev.Timestamp,
			Macros:        loc.macros,
		})
		if prev, ok := latest[ev.ItemID]; !ok || !ev.Timestamp.Before(prev.Timestamp) {
			latest[ev.ItemID] = ev
		}
	}
	return records, latest, nil
}

func (s *mealPlanService) GetForDate(ctx context.Context, userID string, date time.Time) (*DayMealPlan, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	day := domain.DateOnly(date)
	meals, err := s.meals.ListRange(ctx, uid, day, domain.AddDays(day, 1))
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, apperr.NoActivePlan("meal")
	}
	_, latest, err := s.intakeRecords(ctx, uid, meals)
	if err != nil {
		return nil, err
	}

	out := &DayMealPlan{Date: day.Format(domain.DateLayout), BatchID: meals[0].BatchID}
	for _, m := range orderMeals(meals) {
		tm := TrackedMeal{ID: m.ID, MealType: m.MealType, Items: make([]TrackedItem, 0, len(m.Items))}
		for _, it := range m.Items {
			ti := TrackedItem{MealItem: it, Status: domain.StatusPending, QuantityRatio: 1, HasImage: it.ImageKey != ""}
			if ev, ok := latest[it.ID]; ok {
				ti.Status, ti.QuantityRatio = ev.Status, ev.QuantityRatio
			}
			tm.Items = append(tm.Items, ti)
			tm.Totals = tm.Totals.Add(it.Macros)
		}
		tm.Totals = roundMacros(tm.Totals)
		out.Totals = out.Totals.Add(tm.Totals)
		out.Meals = append(out.Meals, tm)
	}
	out.Totals = roundMacros(out.Totals)
	return out, nil
}

// orderMeals sorts one day's meals into serving order.
func orderMeals(meals []domain.Meal) []domain.Meal {
	out := make([]domain.Meal, 0, len(meals))
	for _, mt := range domain.MealTypes {
		for _, m := range meals {
			if m.MealType == mt {
				out = append(out, m)
			}
		}
	}
	return out
}

func (s *mealPlanService) ActivePlan(ctx context.Context, userID string) (*ActivePlanInfo, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	today := s.today()
	meals, err := s.meals.ListFrom(ctx, uid, today)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, apperr.NoActivePlan("meal")
	}

	start, end := meals[0].Date, meals[0].Date
	for _, m := range meals[1:] {
		if m.Date.Before(start) {
			start = m.Date
		}
		if m.Date.After(end) {
			end = m.Date
		}
	}
	return &ActivePlanInfo{
		BatchID:       meals[0].BatchID,
		StartDate:     start.Format(domain.DateLayout),
		EndDate:       end.Format(domain.DateLayout),
		TotalDays:     domain.DaysBetween(start, end) + 1,
		RemainingDays: domain.DaysBetween(today, end) + 1,
		TotalMeals:    len(meals),
		Source:        meals[0].Source,
	}, nil
}

// TrackItem appends a tracking event for a meal item. Earlier events for the
// item are kept; the newest one is authoritative.
func (s *mealPlanService) TrackItem(ctx context.Context, userID, itemID string, in TrackItemInput) (*domain.MealItemTracking, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	iid, err := parseObjectID(itemID, "item")
	if err != nil {
		return nil, err
	}
	if in.Status != domain.StatusEaten && in.Status != domain.StatusSkipped {
		return nil, apperr.Validation("status must be %q or %q", domain.StatusEaten, domain.StatusSkipped)
	}
	ratio := 1.0
	if in.QuantityRatio != nil {
		ratio = *in.QuantityRatio
	}
	if ratio < 0 || ratio > 1 {
		return nil, apperr.Validation("quantityRatio must be between 0 and 1")
	}

	meal, err := s.meals.GetByItemID(ctx, uid, iid)
	if err != nil {
		return nil, notFound(err, "meal item")
	}

	rec := &domain.MealItemTracking{
		UserID:        uid,
		MealID:        meal.ID,
		ItemID:        iid,
		MealDate:      meal.Date,
		Status:        in.Status,
		QuantityRatio: ratio,
		Timestamp:     s.now().UTC(),
	}
	if err := s.tracking.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *mealPlanService) DailyNutrition(ctx context.Context, userID string, date time.Time) (*DailyNutrition, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	window := intake.Day(date)
	meals, err := s.meals.ListRange(ctx, uid, window.From, window.To)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, apperr.NoActivePlan("meal")
	}
	records, latest, err := s.intakeRecords(ctx, uid, meals)
	if err != nil {
		return nil, err
	}

	var planned domain.Macros
	total := 0
	for _, m := range meals {
		for _, it := range m.Items {
			planned = planned.Add(it.Macros)
			total++
		}
	}
	summary := intake.Aggregate(records, window)

	out := &DailyNutrition{
		Date:         window.From.Format(domain.DateLayout),
		Planned:      roundMacros(planned),
		Consumed:     roundMacros(summary.Totals),
		Remaining:    round1(planned.Calories - summary.Totals.Calories),
		ItemsEaten:   summary.Eaten,
		ItemsSkipped: summary.Skipped,
		ItemsPending: total - len(latest),
	}
	if planned.Calories > 0 {
		out.ProgressPct = round1(summary.Totals.Calories / planned.Calories * 100)
	}
	return out, nil
}

// GenerateItemImage returns a presigned URL for the item's card, rendering
// and storing it first when it does not exist yet.
func (s *mealPlanService) GenerateItemImage(ctx context.Context, userID, itemID string) (string, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return "", err
	}
	iid, err := parseObjectID(itemID, "item")
	if err != nil {
		return "", err
	}
	meal, err := s.meals.GetByItemID(ctx, uid, iid)
	if err != nil {
		return "", notFound(err, "meal item")
	}
	item, ok := meal.Item(iid)
	if !ok {
		return "", apperr.NotFound("meal item")
	}

	key := item.ImageKey
	if key == "" {
		key, err = s.storeItemImage(ctx, uid, meal, *item)
		if err != nil {
			return "", apperr.Internal(err)
		}
	}
	url, err := s.images.PresignedURL(ctx, key, s.settings.ImageURLExpiry)
	if errors.Is(err, storage.ErrObjectNotFound) {
		// The key outlived its object; draw the card again.
		s.log.Warn("Meal item image missing, re-rendering", "user_id", uid.Hex(), "item_id", iid.Hex(), "key", key)
		if key, err = s.storeItemImage(ctx, uid, meal, *item); err != nil {
			return "", apperr.Internal(err)
		}
		url, err = s.images.PresignedURL(ctx, key, s.settings.ImageURLExpiry)
	}
	if err != nil {
		return "", apperr.Internal(err)
	}
	return url, nil
}
