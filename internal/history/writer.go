// Package history persists snapshots of uncached fetches to Postgres so
// line movement can be analyzed after the fact. The writer batches rows and
// flushes on a ticker; a failed flush is logged and dropped, never surfaced
// to the request path.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/itzcole03/atlas/internal/unified"
	"github.com/itzcole03/atlas/pkg/models"
)

var _ unified.Recorder = (*Writer)(nil)

const (
	defaultBatchSize     = 200
	defaultFlushInterval = 5 * time.Second
)

// Writer batches snapshot inserts. Implements unified.Recorder.
type Writer struct {
	db     *sql.DB
	logger *slog.Logger

	batchSize     int
	flushInterval time.Duration

	oppBuffer  []models.BettingOpportunity
	propBuffer []models.PlayerProp
	mu         sync.Mutex

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWriter creates a batching snapshot writer.
func NewWriter(db *sql.DB, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		db:            db,
		logger:        logger,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the background flush ticker.
func (w *Writer) Start(ctx context.Context) {
	ticker := time.NewTicker(w.flushInterval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := w.Flush(ctx); err != nil {
					w.logger.Warn("history flush failed", "error", err)
				}
			case <-w.stopChan:
				// Final flush on shutdown
				if err := w.Flush(ctx); err != nil {
					w.logger.Warn("final history flush failed", "error", err)
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop flushes remaining rows and shuts the writer down.
func (w *Writer) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

// RecordOpportunities buffers opportunity snapshots.
func (w *Writer) RecordOpportunities(ctx context.Context, items []models.BettingOpportunity) {
	if len(items) == 0 {
		return
	}

	w.mu.Lock()
	w.oppBuffer = append(w.oppBuffer, items...)
	shouldFlush := len(w.oppBuffer) >= w.batchSize
	w.mu.Unlock()

	if shouldFlush {
		if err := w.Flush(ctx); err != nil {
			w.logger.Warn("history flush failed", "error", err)
		}
	}
}

// RecordProps buffers prop snapshots.
func (w *Writer) RecordProps(ctx context.Context, items []models.PlayerProp) {
	if len(items) == 0 {
		return
	}

	w.mu.Lock()
	w.propBuffer = append(w.propBuffer, items...)
	shouldFlush := len(w.propBuffer) >= w.batchSize
	w.mu.Unlock()

	if shouldFlush {
		if err := w.Flush(ctx); err != nil {
			w.logger.Warn("history flush failed", "error", err)
		}
	}
}

// Flush writes both buffers in one transaction.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	opps := w.oppBuffer
	props := w.propBuffer
	w.oppBuffer = nil
	w.propBuffer = nil
	w.mu.Unlock()

	if len(opps) == 0 && len(props) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := w.insertOpportunities(ctx, tx, opps); err != nil {
		return fmt.Errorf("insert opportunities: %w", err)
	}
	if err := w.insertProps(ctx, tx, props); err != nil {
		return fmt.Errorf("insert props: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// insertOpportunities batch-inserts via UNNEST to keep one round trip per
// flush.
func (w *Writer) insertOpportunities(ctx context.Context, tx *sql.Tx, items []models.BettingOpportunity) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO opportunity_history (
			opportunity_id, sport, event_name, market_key, book_key,
			outcome_name, price, point, confidence, commence_time, received_at
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::text[],
			$6::text[], $7::int[], $8::decimal[], $9::decimal[], $10::timestamptz[], $11::timestamptz[]
		)
	`

	ids := make([]string, len(items))
	sportsCol := make([]string, len(items))
	eventNames := make([]string, len(items))
	marketKeys := make([]string, len(items))
	bookKeys := make([]string, len(items))
	outcomeNames := make([]string, len(items))
	prices := make([]int, len(items))
	points := make([]*float64, len(items))
	confidences := make([]float64, len(items))
	commenceTimes := make([]time.Time, len(items))
	receivedAts := make([]time.Time, len(items))

	for i, item := range items {
		ids[i] = item.ID
		sportsCol[i] = item.Sport
		eventNames[i] = item.EventName
		marketKeys[i] = item.MarketKey
		bookKeys[i] = item.BookKey
		outcomeNames[i] = item.OutcomeName
		prices[i] = item.Price
		points[i] = item.Point
		confidences[i] = item.Confidence
		commenceTimes[i] = item.CommenceTime
		receivedAts[i] = item.ReceivedAt
	}

	_, err := tx.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(sportsCol), pq.Array(eventNames), pq.Array(marketKeys), pq.Array(bookKeys),
		pq.Array(outcomeNames), pq.Array(prices), pq.Array(points), pq.Array(confidences),
		pq.Array(commenceTimes), pq.Array(receivedAts),
	)
	return err
}

func (w *Writer) insertProps(ctx context.Context, tx *sql.Tx, items []models.PlayerProp) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO prop_history (
			prop_id, sport, player_name, team, stat_type,
			line, confidence, source, game_time, received_at
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::text[],
			$6::decimal[], $7::decimal[], $8::text[], $9::timestamptz[], $10::timestamptz[]
		)
	`

	ids := make([]string, len(items))
	sportsCol := make([]string, len(items))
	playerNames := make([]string, len(items))
	teams := make([]string, len(items))
	statTypes := make([]string, len(items))
	lines := make([]float64, len(items))
	confidences := make([]float64, len(items))
	sources := make([]string, len(items))
	gameTimes := make([]time.Time, len(items))
	receivedAts := make([]time.Time, len(items))

	for i, item := range items {
		ids[i] = item.ID
		sportsCol[i] = item.Sport
		playerNames[i] = item.PlayerName
		teams[i] = item.Team
		statTypes[i] = item.StatType
		lines[i] = item.Line
		confidences[i] = item.Confidence
		sources[i] = item.Source
		gameTimes[i] = item.GameTime
		receivedAts[i] = item.ReceivedAt
	}

	_, err := tx.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(sportsCol), pq.Array(playerNames), pq.Array(teams), pq.Array(statTypes),
		pq.Array(lines), pq.Array(confidences), pq.Array(sources), pq.Array(gameTimes), pq.Array(receivedAts),
	)
	return err
}
