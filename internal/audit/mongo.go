package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hr-rag-assistant/internal/logger"
)

const collectionName = "audit_logs"

// MongoRecorder stores events insert-only in one hash chain ordered by Seq.
type MongoRecorder struct {
	col      *mongo.Collection
	mu       sync.Mutex
	lastHash string
	lastSeq  int64
}

// NewMongoRecorder ensures indexes and resumes the chain from the newest stored event.
func NewMongoRecorder(ctx context.Context, db *mongo.Database) (*MongoRecorder, error) {
	col := db.Collection(collectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "request_id", Value: 1}}},
	}
	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create audit indexes: %w", err)
	}

	r := &MongoRecorder{col: col}

	var last Event
	err := col.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})).Decode(&last)
	switch {
	case err == nil:
		r.lastHash = last.CurrentHash
		r.lastSeq = last.Seq
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return nil, fmt.Errorf("load audit chain head: %w", err)
	}

	return r, nil
}

func (r *MongoRecorder) Record(ctx context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stamp(e, r.lastHash, r.lastSeq+1)

	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	r.lastHash = e.CurrentHash
	r.lastSeq = e.Seq

	logger.Debug("Audit event stored", "action", e.Action, "resource", e.Resource, "audit_id", e.ID)
	return nil
}

// Verify walks the stored chain and reports whether it is intact.
func (r *MongoRecorder) Verify(ctx context.Context) (bool, int, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return false, 0, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return false, 0, err
	}

	if broken := VerifyChain(events); broken >= 0 {
		logger.Error("Audit chain broken", "audit_id", events[broken].ID, "position", broken)
		return false, len(events), nil
	}
	return true, len(events), nil
}

func stamp(e *Event, previous string, seq int64) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	// Mongo stores millisecond precision; truncate so stored hashes re-verify.
	e.Timestamp = time.Now().UTC().Truncate(time.Millisecond)
	e.Seq = seq
	e.PreviousHash = previous
	e.CurrentHash = e.ComputeHash()
}
