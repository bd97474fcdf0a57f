package calendarRepo

import (
	"context"
	"fmt"
	"time"

	"freshfade/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCalendarRepo stores appointments in the "appointments" collection.
type MongoCalendarRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoCalendarRepo constructs a repo on the given database.
func NewMongoCalendarRepo(db *mongo.Database, timeout time.Duration) *MongoCalendarRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MongoCalendarRepo{
		coll:    db.Collection("appointments"),
		timeout: timeout,
	}
}

// overlapFilter matches documents whose [start, end) intersects [start, end).
func overlapFilter(start, end time.Time) bson.M {
	return bson.M{
		"start": bson.M{"$lt": end},
		"end":   bson.M{"$gt": start},
	}
}

// ListOverlapping returns bookings that intersect [start, end).
func (repo *MongoCalendarRepo) ListOverlapping(ctx context.Context, start, end time.Time) ([]models.BookingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := repo.coll.Find(ctx, overlapFilter(start, end), opts)
	if err != nil {
		return nil, fmt.Errorf("error querying appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.BookingRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return records, nil
}

// Insert writes a new appointment document and returns its reference.
func (repo *MongoCalendarRepo) Insert(ctx context.Context, record *models.BookingRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if _, err := repo.coll.InsertOne(ctx, record); err != nil {
		return "", fmt.Errorf("error creating appointment: %w", err)
	}
	return record.ID, nil
}

// EnsureIndexes creates the indexes the overlap query relies on.
func (repo *MongoCalendarRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "start", Value: 1}, {Key: "end", Value: 1}},
			Options: options.Index().SetName("start_end_idx"),
		},
		{
			Keys:    bson.D{{Key: "confirmation_code", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("confirmation_code_idx"),
		},
	}
	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}
	return nil
}
