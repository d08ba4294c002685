package audit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func chain(n int) []Event {
	events := make([]Event, n)
	previous := ""
	for i := range events {
		events[i] = Event{Actor: "admin", Action: ActionUpload, Resource: "leave.pdf", Success: true, Status: 200}
		stamp(&events[i], previous, int64(i+1))
		previous = events[i].CurrentHash
	}
	return events
}

func TestComputeHash(t *testing.T) {
	e := Event{ID: "1", Timestamp: time.Unix(1700000000, 0), Actor: "admin", Action: ActionDelete, Resource: "x.txt"}
	h := e.ComputeHash()
	assert.Len(t, h, 64)
	assert.Equal(t, h, e.ComputeHash())

	e.Success = true
	assert.NotEqual(t, h, e.ComputeHash())

	h = e.ComputeHash()
	e.Seq = 2
	assert.NotEqual(t, h, e.ComputeHash())
}

func TestVerifyChain(t *testing.T) {
	assert.Equal(t, -1, VerifyChain(nil))
	assert.Equal(t, -1, VerifyChain(chain(4)))

	tampered := chain(4)
	tampered[2].Resource = "other.pdf"
	assert.Equal(t, 2, VerifyChain(tampered))

	removed := chain(4)
	removed = append(removed[:1], removed[2:]...)
	assert.Equal(t, 1, VerifyChain(removed))

	renumbered := chain(3)
	renumbered[1].Seq = 7
	assert.Equal(t, 1, VerifyChain(renumbered))
}

func TestVerifyChain_SameMillisecond(t *testing.T) {
	events := chain(3)
	ts := events[0].Timestamp
	previous := ""
	for i := range events {
		events[i].Timestamp = ts
		events[i].PreviousHash = previous
		events[i].CurrentHash = events[i].ComputeHash()
		previous = events[i].CurrentHash
	}

	assert.Equal(t, -1, VerifyChain(events))

	swapped := []Event{events[1], events[0], events[2]}
	assert.NotEqual(t, -1, VerifyChain(swapped))
}

func TestLogRecorder(t *testing.T) {
	e := &Event{Actor: "admin", Action: ActionLogin, Success: false, Status: 401}
	require.NoError(t, LogRecorder{}.Record(context.Background(), e))
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, e.ComputeHash(), e.CurrentHash)
}

func TestMongoRecorder(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database("hr_assistant_test_" + uuid.NewString()[:8])
	defer db.Drop(ctx)

	rec, err := NewMongoRecorder(ctx, db)
	require.NoError(t, err)
	for _, action := range []string{ActionLogin, ActionUpload, ActionRebuild} {
		require.NoError(t, rec.Record(ctx, &Event{Actor: "admin", Action: action, Success: true, Status: 200}))
	}

	ok, n, err := rec.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	resumed, err := NewMongoRecorder(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, rec.lastHash, resumed.lastHash)
	assert.Equal(t, int64(3), resumed.lastSeq)
}
