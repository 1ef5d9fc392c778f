package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gasspot/gasspot-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
)

// LogWriter persists a batch of log rows.
type LogWriter interface {
	WriteLogs(ctx context.Context, batch []models.SystemLog) error
}

// GormWriter stores log rows in the system_logs table.
type GormWriter struct {
	db *gorm.DB
}

func NewGormWriter(db *gorm.DB) *GormWriter {
	return &GormWriter{db: db}
}

func (w *GormWriter) WriteLogs(ctx context.Context, batch []models.SystemLog) error {
	if err := w.db.WithContext(ctx).CreateInBatches(batch, defaultBatchSize).Error; err != nil {
		return fmt.Errorf("failed to write system logs: %w", err)
	}
	return nil
}

// dbSink is the buffer shared by a DBHandler and the handlers derived from it.
type dbSink struct {
	writer    LogWriter
	batchSize int
	fallback  *slog.Logger

	mu     sync.Mutex
	buffer []models.SystemLog

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// DBHandler is an slog.Handler that batches ERROR+ records into a LogWriter.
// Records are flushed when the batch fills, on a timer and on Stop.
type DBHandler struct {
	sink  *dbSink
	attrs []groupedAttr
	group string
}

type groupedAttr struct {
	group string
	attr  slog.Attr
}

func NewDBHandler(writer LogWriter) *DBHandler {
	return newDBHandler(writer, defaultBatchSize, defaultFlushInterval)
}

func newDBHandler(writer LogWriter, batchSize int, interval time.Duration) *DBHandler {
	s := &dbSink{
		writer:    writer,
		batchSize: batchSize,
		fallback:  slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		buffer:    make([]models.SystemLog, 0, batchSize),
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.flushLoop()
	return &DBHandler{sink: s}
}

func (s *dbSink) flushLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *dbSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.SystemLog, 0, s.batchSize)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Failures go to stderr; logging them through slog would feed them back here.
	if err := s.writer.WriteLogs(ctx, batch); err != nil {
		s.fallback.Error("failed to flush system logs", "error", err, "count", len(batch))
	}
}

// Stop flushes what is buffered and waits for the flush loop to exit.
func (h *DBHandler) Stop() {
	h.sink.stopOnce.Do(func() {
		h.sink.ticker.Stop()
		close(h.sink.done)
	})
	h.sink.wg.Wait()
}

// Enabled only handles ERROR and above.
func (h *DBHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *DBHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	for _, ga := range h.attrs {
		applyAttr(&entry, extra, ga.group, ga.attr)
	}
	record.Attrs(func(a slog.Attr) bool {
		applyAttr(&entry, extra, h.group, a)
		return true
	})

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	s := h.sink
	s.mu.Lock()
	s.buffer = append(s.buffer, entry)
	needFlush := len(s.buffer) >= s.batchSize
	s.mu.Unlock()

	if needFlush {
		go s.flush()
	}
	return nil
}

// applyAttr maps well-known top-level keys onto columns; everything else,
// including grouped attributes, lands in extra.
func applyAttr(entry *models.SystemLog, extra map[string]interface{}, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if group != "" {
		extra[group+"."+a.Key] = a.Value.Any()
		return
	}
	switch a.Key {
	case "request_id":
		entry.RequestID = a.Value.String()
	case "user_id":
		s := a.Value.String()
		entry.UserID = &s
	case "platform":
		entry.Platform = a.Value.String()
	case "action":
		entry.Action = a.Value.String()
	case "error":
		entry.Error = a.Value.String()
	case "latency_ms":
		switch a.Value.Kind() {
		case slog.KindFloat64:
			entry.LatencyMs = int(math.Round(a.Value.Float64()))
		case slog.KindInt64:
			entry.LatencyMs = int(a.Value.Int64())
		}
	default:
		extra[a.Key] = a.Value.Any()
	}
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	merged := make([]groupedAttr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, groupedAttr{group: h.group, attr: a})
	}
	return &DBHandler{sink: h.sink, attrs: merged, group: h.group}
}

// WithGroup nests subsequent attributes under name in the extra column.
func (h *DBHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &DBHandler{sink: h.sink, attrs: h.attrs, group: group}
}
