package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"hr-rag-assistant/internal/logger"
)

// Actions recorded by the gateway.
const (
	ActionLogin   = "login"
	ActionUpload  = "upload"
	ActionDelete  = "delete"
	ActionRebuild = "rebuild"
)

// Event is an immutable record of one login attempt or corpus mutation.
type Event struct {
	ID           string    `bson:"_id" json:"id"`
	Seq          int64     `bson:"seq" json:"seq"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	Actor        string    `bson:"actor" json:"actor"`
	Action       string    `bson:"action" json:"action"`
	Resource     string    `bson:"resource" json:"resource"`
	Success      bool      `bson:"success" json:"success"`
	Status       int       `bson:"status" json:"status"`
	RequestID    string    `bson:"request_id" json:"request_id"`
	IPAddress    string    `bson:"ip_address" json:"ip_address"`
	UserAgent    string    `bson:"user_agent" json:"user_agent"`
	PreviousHash string    `bson:"previous_hash" json:"previous_hash"`
	CurrentHash  string    `bson:"current_hash" json:"current_hash"`
}

// ComputeHash covers every field except CurrentHash itself.
func (e *Event) ComputeHash() string {
	data := fmt.Sprintf("%s|%d|%s|%s|%s|%s|%t|%d|%s|%s|%s",
		e.ID,
		e.Seq,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Actor,
		e.Action,
		e.Resource,
		e.Success,
		e.Status,
		e.RequestID,
		e.IPAddress,
		e.PreviousHash,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// VerifyChain checks that events, in sequence order, link by hash and are
// unaltered. It returns the index of the first broken event, or -1.
func VerifyChain(events []Event) int {
	var previous string
	for i := range events {
		if i > 0 && (events[i].PreviousHash != previous || events[i].Seq <= events[i-1].Seq) {
			return i
		}
		if events[i].CurrentHash != events[i].ComputeHash() {
			return i
		}
		previous = events[i].CurrentHash
	}
	return -1
}

// Recorder persists audit events. Implementations fill in ID, Timestamp and hashes.
type Recorder interface {
	Record(ctx context.Context, event *Event) error
}

// LogRecorder writes audit events to the structured logger.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, e *Event) error {
	stamp(e, "", 0)
	logger.Info("Audit event",
		"audit_id", e.ID,
		"actor", e.Actor,
		"action", e.Action,
		"resource", e.Resource,
		"success", e.Success,
		"status", e.Status,
		"request_id", e.RequestID,
		"ip", e.IPAddress,
	)
	return nil
}
