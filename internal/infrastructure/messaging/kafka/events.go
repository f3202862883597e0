package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/molgen/pkg/errors"
)

// EventSnapshotPublished is the event_type header of SnapshotEvent messages.
const EventSnapshotPublished = "molgen.snapshot.published"

// SnapshotEvent announces a fitted distribution snapshot.
type SnapshotEvent struct {
	RunID      string    `json:"run_id"`
	Dataset    string    `json:"dataset"`
	URI        string    `json:"uri"`
	NodeCounts []int     `json:"node_counts"`
	Properties []string  `json:"properties,omitempty"`
	BinCount   int       `json:"bin_count,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher is what the fit command needs from a producer.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// PublishSnapshot encodes ev as JSON and publishes it keyed by dataset, so
// events for one dataset stay ordered on a partition.
func PublishSnapshot(ctx context.Context, p Publisher, ev *SnapshotEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode snapshot event")
	}
	return p.Publish(ctx, &Message{
		Key:   []byte(ev.Dataset),
		Value: value,
		Headers: map[string]string{
			"event_type": EventSnapshotPublished,
			"run_id":     ev.RunID,
		},
		Timestamp: ev.CreatedAt,
	})
}

//Personal.AI order the ending
