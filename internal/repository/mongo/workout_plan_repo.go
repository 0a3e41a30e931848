package mongo

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	planCollectionName         = "workout_plans"
	planExerciseCollectionName = "workout_plan_exercises"
)

// mongoWorkoutPlanRepository implements repository.WorkoutPlanRepository
type mongoWorkoutPlanRepository struct {
	plans     *mongo.Collection
	schedules *mongo.Collection
}

// NewMongoWorkoutPlanRepository creates a new WorkoutPlan repository.
func NewMongoWorkoutPlanRepository(db *mongo.Database) repository.WorkoutPlanRepository {
	return &mongoWorkoutPlanRepository{
		plans:     db.Collection(planCollectionName),
		schedules: db.Collection(planExerciseCollectionName),
	}
}

// Create inserts a new workout plan.
func (r *mongoWorkoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (string, error) {
	if plan.CreatedBy == "" || plan.Name == "" {
		return "", errors.New("plan requires createdBy and name")
	}
	plan.ID = primitive.NewObjectID().Hex()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if _, err := r.plans.InsertOne(ctx, plan); err != nil {
		return "", err
	}
	return plan.ID, nil
}

// GetByID retrieves a single workout plan by its ID.
func (r *mongoWorkoutPlanRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	err := r.plans.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListVisible retrieves public plans and the caller's own plans, newest first.
func (r *mongoWorkoutPlanRepository) ListVisible(ctx context.Context, userID string) ([]domain.WorkoutPlan, error) {
	plans := []domain.WorkoutPlan{}
	filter := bson.M{"$or": bson.A{
		bson.M{"isPublic": true},
		bson.M{"createdBy": userID},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.plans.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Update modifies the plan fields. The createdBy filter keeps the update owner-only.
func (r *mongoWorkoutPlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	if plan.ID == "" {
		return errors.New("workout plan ID is required for update")
	}

	filter := bson.M{"_id": plan.ID, "createdBy": plan.CreatedBy}
	plan.UpdatedAt = time.Now().UTC()
	updateDoc := bson.M{
		"$set": bson.M{
			"name":            plan.Name,
			"description":     plan.Description,
			"difficultyLevel": plan.DifficultyLevel,
			"durationWeeks":   plan.DurationWeeks,
			"isPublic":        plan.IsPublic,
			"updatedAt":       plan.UpdatedAt,
		},
	}

	result, err := r.plans.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the plan owned by ownerID and cascades to its schedule.
func (r *mongoWorkoutPlanRepository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.plans.DeleteOne(ctx, bson.M{"_id": id, "createdBy": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	_, err = r.schedules.DeleteMany(ctx, bson.M{"workoutPlanId": id})
	return err
}

// ReplaceExercises drops the current schedule and inserts items in one batch.
func (r *mongoWorkoutPlanRepository) ReplaceExercises(ctx context.Context, planID string, items []domain.WorkoutPlanExercise) error {
	if _, err := r.schedules.DeleteMany(ctx, bson.M{"workoutPlanId": planID}); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	docs := make([]interface{}, len(items))
	for i := range items {
		items[i].ID = primitive.NewObjectID().Hex()
		items[i].WorkoutPlanID = planID
		docs[i] = items[i]
	}
	_, err := r.schedules.InsertMany(ctx, docs)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetExercises retrieves the plan schedule ordered by day and position.
func (r *mongoWorkoutPlanRepository) GetExercises(ctx context.Context, planID string) ([]domain.WorkoutPlanExercise, error) {
	items := []domain.WorkoutPlanExercise{}
	findOptions := options.Find().SetSort(bson.D{{Key: "dayNumber", Value: 1}, {Key: "orderInDay", Value: 1}})

	cursor, err := r.schedules.Find(ctx, bson.M{"workoutPlanId": planID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// EnsureWorkoutPlanIndexes creates necessary indexes for plans and their schedule.
func EnsureWorkoutPlanIndexes(ctx context.Context, plans, schedules *mongo.Collection) {
	_, err := plans.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	logIndexError(plans, err)

	_, err = schedules.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// order_in_day is unique within a plan day
			Keys:    bson.D{{Key: "workoutPlanId", Value: 1}, {Key: "dayNumber", Value: 1}, {Key: "orderInDay", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	logIndexError(schedules, err)
}
