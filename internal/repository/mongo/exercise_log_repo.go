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

const exerciseLogCollectionName = "exercise_logs"

// mongoExerciseLogRepository implements repository.ExerciseLogRepository
type mongoExerciseLogRepository struct {
	collection *mongo.Collection
	sessions   *mongo.Collection
	tx         repository.Transactor
}

// NewMongoExerciseLogRepository creates a new ExerciseLog repository backed by MongoDB.
func NewMongoExerciseLogRepository(db *mongo.Database) repository.ExerciseLogRepository {
	return &mongoExerciseLogRepository{
		collection: db.Collection(exerciseLogCollectionName),
		sessions:   db.Collection(sessionCollectionName),
		tx:         NewTransactor(db.Client()),
	}
}

// Create appends a log. There is no upsert: a retried exercise gets a second row.
// The session must still be open; the check and the insert share a transaction,
// so an end committed meanwhile aborts it with a write conflict.
func (r *mongoExerciseLogRepository) Create(ctx context.Context, entry *domain.ExerciseLog) (string, error) {
	if entry.SessionID == "" || entry.ExerciseID == "" {
		return "", errors.New("exercise log requires sessionId and exerciseId")
	}
	entry.ID = primitive.NewObjectID().Hex()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.touchOpenSession(ctx, entry.SessionID, entry.CreatedAt); err != nil {
			return err
		}
		_, err := r.collection.InsertOne(ctx, entry)
		return err
	})
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

// touchOpenSession stamps lastLoggedAt on a session whose completedAt is still null.
func (r *mongoExerciseLogRepository) touchOpenSession(ctx context.Context, sessionID string, at time.Time) error {
	filter := bson.M{"_id": sessionID, "completedAt": nil}
	result, err := r.sessions.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"lastLoggedAt": at}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := r.sessions.CountDocuments(ctx, bson.M{"_id": sessionID})
	if err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrAlreadyCompleted
}

// ListBySession retrieves the logs of one session in insertion order.
func (r *mongoExerciseLogRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.ExerciseLog, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID})
}

// ListBySessions retrieves the logs of several sessions in insertion order.
func (r *mongoExerciseLogRepository) ListBySessions(ctx context.Context, sessionIDs []string) ([]domain.ExerciseLog, error) {
	if len(sessionIDs) == 0 {
		return []domain.ExerciseLog{}, nil
	}
	return r.find(ctx, bson.M{"sessionId": bson.M{"$in": sessionIDs}})
}

func (r *mongoExerciseLogRepository) find(ctx context.Context, filter bson.M) ([]domain.ExerciseLog, error) {
	logs := []domain.ExerciseLog{}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// EnsureExerciseLogIndexes creates necessary indexes for the exercise_logs collection.
func EnsureExerciseLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	logIndexError(collection, err)
}
