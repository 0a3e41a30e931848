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

const sessionCollectionName = "workout_sessions"

// mongoWorkoutSessionRepository implements repository.WorkoutSessionRepository
type mongoWorkoutSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutSessionRepository creates a new WorkoutSession repository.
func NewMongoWorkoutSessionRepository(db *mongo.Database) repository.WorkoutSessionRepository {
	return &mongoWorkoutSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new, active session. StartedAt is kept when set by the caller.
func (r *mongoWorkoutSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (string, error) {
	if session.UserID == "" || session.WorkoutPlanID == "" {
		return "", errors.New("workout session requires userId and workoutPlanId")
	}
	session.ID = primitive.NewObjectID().Hex()
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	session.StartedAt = session.StartedAt.UTC()
	session.CompletedAt = nil

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return "", err
	}
	return session.ID, nil
}

// GetByID retrieves a session owned by userID.
func (r *mongoWorkoutSessionRepository) GetByID(ctx context.Context, id, userID string) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListByUser retrieves the user's sessions, most recent first.
func (r *mongoWorkoutSessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.WorkoutSession, error) {
	sessions := []domain.WorkoutSession{}
	findOptions := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Complete ends the session. The completedAt: null filter makes it a one-shot mutation.
func (r *mongoWorkoutSessionRepository) Complete(ctx context.Context, id, userID string, completedAt time.Time, notes string) error {
	filter := bson.M{"_id": id, "userId": userID, "completedAt": nil}
	update := bson.M{"$set": bson.M{"completedAt": completedAt.UTC(), "notes": notes}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 1 {
		return nil
	}

	// Nothing matched: either the session does not exist for this user or it is already ended.
	if _, err := r.GetByID(ctx, id, userID); err != nil {
		return err
	}
	return repository.ErrAlreadyCompleted
}

// CountByPlan counts sessions of every user referencing the plan.
func (r *mongoWorkoutSessionRepository) CountByPlan(ctx context.Context, planID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"workoutPlanId": planID})
}

// EnsureWorkoutSessionIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startedAt", Value: -1}}},
		{Keys: bson.D{{Key: "workoutPlanId", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	logIndexError(collection, err)
}
