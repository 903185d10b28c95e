// internal/historian/historian.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/quest/internal/cache"
	"github.com/jason-s-yu/quest/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ActionLobbyIdle is the action type the historian writes when a lobby has been
// silent longer than the inactivity threshold.
const ActionLobbyIdle = "lobby_idle"

// Sink receives flushed batches.
type Sink interface {
	WriteBatch(ctx context.Context, records []cache.LobbyActionRecord) error
}

// JSONLinesSink writes one JSON object per record.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

func (s *JSONLinesSink) WriteBatch(_ context.Context, records []cache.LobbyActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if err := s.enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode action %d of lobby %s: %w", rec.ActionIndex, rec.LobbyID, err)
		}
	}
	return nil
}

// Options tunes batching and idle detection.
type Options struct {
	BatchSize   int
	FlushDelay  time.Duration
	Inactivity  time.Duration
	PollTimeout time.Duration
	Logger      logrus.FieldLogger
}

// Service drains the action journal, batches records and hands them to a Sink.
// Lobbies whose journal goes quiet are reported once with a lobby_idle record.
type Service struct {
	client *redis.Client
	queue  string
	sink   Sink
	opts   Options

	batchMu sync.Mutex
	batch   []cache.LobbyActionRecord

	activityMu   sync.Mutex
	lastActivity map[string]time.Time
	// decided holds lobbies whose game reached a verdict, keyed to when it did.
	decided map[string]time.Time
}

// NewService builds a consumer for queue. client may be nil when records are
// fed through Ingest directly.
func NewService(client *redis.Client, queue string, sink Sink, opts Options) *Service {
	if queue == "" {
		queue = cache.DefaultQueueName
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Service{
		client:       client,
		queue:        queue,
		sink:         sink,
		opts:         opts,
		batch:        make([]cache.LobbyActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[string]time.Time),
		decided:      make(map[string]time.Time),
	}
}

// Run consumes until ctx is cancelled, then flushes what is buffered.
func (hs *Service) Run(ctx context.Context) error {
	if hs.client == nil {
		return errors.New("historian has no redis client")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hs.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		hs.inactivityLoop(ctx)
	}()

	hs.opts.Logger.Infof("Historian consuming %q", hs.queue)
	hs.readLoop(ctx)
	wg.Wait()

	if err := hs.Flush(context.Background()); err != nil {
		return err
	}
	hs.opts.Logger.Info("Historian stopped")
	return nil
}

func (hs *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := hs.client.BLPop(ctx, hs.opts.PollTimeout, hs.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			hs.opts.Logger.WithError(err).Error("BLPOP failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if len(res) < 2 {
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		if err := hs.Ingest(ctx, res[1]); err != nil {
			hs.opts.Logger.WithError(err).Warn("Failed to ingest journal record")
		}
	}
}

func (hs *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(hs.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := hs.Flush(ctx); err != nil {
				hs.opts.Logger.WithError(err).Error("Flush failed")
			}
		}
	}
}

func (hs *Service) inactivityLoop(ctx context.Context) {
	interval := hs.opts.Inactivity / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			hs.SweepIdle(ctx, now)
		}
	}
}

// Ingest decodes one journal payload and buffers it, flushing when the batch is full.
func (hs *Service) Ingest(ctx context.Context, payload string) error {
	var record cache.LobbyActionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return fmt.Errorf("invalid action record: %w", err)
	}
	if record.LobbyID == "" {
		return errors.New("invalid action record: missing lobby_id")
	}

	now := time.Now()
	hs.activityMu.Lock()
	switch _, decided := hs.decided[record.LobbyID]; {
	case finished(record.ActionType):
		delete(hs.lastActivity, record.LobbyID)
		hs.decided[record.LobbyID] = now
	case record.ActionIndex == 1:
		// First action of a new session reusing the code.
		delete(hs.decided, record.LobbyID)
		hs.lastActivity[record.LobbyID] = now
	case decided:
		// Players leaving after the verdict.
	default:
		hs.lastActivity[record.LobbyID] = now
	}
	hs.activityMu.Unlock()

	return hs.append(ctx, record)
}

// Pending returns how many records wait for the next flush.
func (hs *Service) Pending() int {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	return len(hs.batch)
}

// Tracked returns how many lobbies are being watched for inactivity.
func (hs *Service) Tracked() int {
	hs.activityMu.Lock()
	defer hs.activityMu.Unlock()
	return len(hs.lastActivity)
}

// SweepIdle reports and forgets lobbies silent since before now minus the
// inactivity threshold. It returns the lobby codes it reported. Decided lobbies
// are never reported.
func (hs *Service) SweepIdle(ctx context.Context, now time.Time) []string {
	hs.activityMu.Lock()
	var idle []string
	for id, last := range hs.lastActivity {
		if now.Sub(last) > hs.opts.Inactivity {
			idle = append(idle, id)
			delete(hs.lastActivity, id)
		}
	}
	for id, at := range hs.decided {
		if now.Sub(at) > hs.opts.Inactivity {
			delete(hs.decided, id)
		}
	}
	hs.activityMu.Unlock()

	for _, id := range idle {
		hs.opts.Logger.WithField("lobby", id).Info("Lobby went idle")
		rec := cache.LobbyActionRecord{
			LobbyID:       id,
			ActionType:    ActionLobbyIdle,
			ActionPayload: map[string]interface{}{"inactivity": hs.opts.Inactivity.String()},
			Timestamp:     now.UnixMilli(),
		}
		if err := hs.append(ctx, rec); err != nil {
			hs.opts.Logger.WithError(err).Error("Flush failed")
		}
	}
	return idle
}

func (hs *Service) append(ctx context.Context, record cache.LobbyActionRecord) error {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()

	hs.batch = append(hs.batch, record)
	if len(hs.batch) >= hs.opts.BatchSize {
		return hs.flushLocked(ctx)
	}
	return nil
}

// Flush writes every buffered record to the sink.
func (hs *Service) Flush(ctx context.Context) error {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	return hs.flushLocked(ctx)
}

func (hs *Service) flushLocked(ctx context.Context) error {
	if len(hs.batch) == 0 {
		return nil
	}
	batchCopy := make([]cache.LobbyActionRecord, len(hs.batch))
	copy(batchCopy, hs.batch)

	// The batch is kept on failure and retried by the next flush.
	if err := hs.sink.WriteBatch(ctx, batchCopy); err != nil {
		return fmt.Errorf("failed to flush %d actions: %w", len(batchCopy), err)
	}
	hs.batch = hs.batch[:0]
	hs.opts.Logger.Debugf("Flushed %d actions", len(batchCopy))
	return nil
}

// finished reports whether actionType records the move into a victory phase.
func finished(actionType string) bool {
	name, ok := strings.CutPrefix(actionType, "phase_")
	if !ok {
		return false
	}
	var p game.Phase
	if err := p.UnmarshalText([]byte(name)); err != nil {
		return false
	}
	return p.IsTerminal()
}
