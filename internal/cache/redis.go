// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list (queue) name for lobby action logs.
const DefaultQueueName = "quest_actions"

const (
	pendingSize    = 1024
	publishTimeout = 2 * time.Second
)

// LobbyActionRecord is one accepted action or phase change in a lobby.
type LobbyActionRecord struct {
	LobbyID       string                 `json:"lobby_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       uuid.UUID              `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Journal appends lobby action records to a Redis list. A nil *Journal is valid
// and drops every record.
type Journal struct {
	client *redis.Client
	queue  string

	// Logger reports records the background writer failed to push.
	Logger logrus.FieldLogger

	mu      sync.Mutex
	closed  bool
	started bool
	pending chan LobbyActionRecord
	done    chan struct{}
}

// NewJournal wraps an existing client. An empty queue name falls back to DefaultQueueName.
func NewJournal(client *redis.Client, queue string) *Journal {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Journal{
		client:  client,
		queue:   queue,
		Logger:  logrus.StandardLogger(),
		pending: make(chan LobbyActionRecord, pendingSize),
		done:    make(chan struct{}),
	}
}

// ConnectJournal dials Redis at addr and verifies the connection with a PING.
func ConnectJournal(ctx context.Context, addr string, db int, queue string) (*Journal, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return NewJournal(client, queue), nil
}

// Queue returns the name of the Redis list records are pushed to.
func (j *Journal) Queue() string {
	if j == nil {
		return ""
	}
	return j.queue
}

// Publish serializes the record to JSON, then pushes it to the Redis queue.
func (j *Journal) Publish(ctx context.Context, record LobbyActionRecord) error {
	if j == nil || j.client == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal LobbyActionRecord: %w", err)
	}
	if err := j.client.RPush(ctx, j.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", j.queue, err)
	}
	return nil
}

// Enqueue hands record to the background writer without blocking. Records are
// pushed in the order they were enqueued. It returns false when the record was
// dropped because the journal is closed or its buffer is full.
func (j *Journal) Enqueue(record LobbyActionRecord) bool {
	if j == nil || j.client == nil {
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return false
	}
	if !j.started {
		j.started = true
		go j.writeLoop()
	}
	select {
	case j.pending <- record:
		return true
	default:
		j.Logger.WithFields(logrus.Fields{
			"lobby":  record.LobbyID,
			"action": record.ActionIndex,
		}).Warn("Journal buffer full, dropped action")
		return false
	}
}

func (j *Journal) writeLoop() {
	defer close(j.done)
	for rec := range j.pending {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := j.Publish(ctx, rec); err != nil {
			j.Logger.WithError(err).WithField("lobby", rec.LobbyID).Warnf("Failed to journal action %d", rec.ActionIndex)
		}
		cancel()
	}
}

// Close drains the records already enqueued, then releases the underlying client.
func (j *Journal) Close() error {
	if j == nil || j.client == nil {
		return nil
	}
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	started := j.started
	close(j.pending)
	j.mu.Unlock()

	if started {
		<-j.done
	}
	return j.client.Close()
}
