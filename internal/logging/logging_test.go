package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gasspot/gasspot-backend/internal/auth"
	"github.com/gasspot/gasspot-backend/internal/models"
	"github.com/gasspot/gasspot-backend/internal/requestctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memWriter struct {
	mu      sync.Mutex
	batches [][]models.SystemLog
}

func (w *memWriter) WriteLogs(_ context.Context, batch []models.SystemLog) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, batch)
	return nil
}

func (w *memWriter) rows() []models.SystemLog {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []models.SystemLog
	for _, b := range w.batches {
		out = append(out, b...)
	}
	return out
}

func TestDBHandler_OnlyErrorsAreStored(t *testing.T) {
	w := &memWriter{}
	h := newDBHandler(w, 10, time.Hour)
	log := slog.New(h)

	log.Info("ignored")
	log.Warn("ignored too")
	log.Error("boom",
		"action", "auth.login",
		"user_id", "u-1",
		"platform", "iOS",
		"error", errors.New("db down"),
		"latency_ms", 12.6,
		"attempt", 3,
	)
	h.Stop()

	rows := w.rows()
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "ERROR", row.Level)
	assert.Equal(t, "boom", row.Message)
	assert.Equal(t, "auth.login", row.Action)
	require.NotNil(t, row.UserID)
	assert.Equal(t, "u-1", *row.UserID)
	assert.Equal(t, "iOS", row.Platform)
	assert.Equal(t, "db down", row.Error)
	assert.Equal(t, 13, row.LatencyMs)

	var extra map[string]interface{}
	require.NoError(t, json.Unmarshal(row.Extra, &extra))
	assert.EqualValues(t, 3, extra["attempt"])
}

func TestDBHandler_FlushesFullBatch(t *testing.T) {
	w := &memWriter{}
	h := newDBHandler(w, 2, time.Hour)
	defer h.Stop()
	log := slog.New(h)

	log.Error("one")
	log.Error("two")

	assert.Eventually(t, func() bool { return len(w.rows()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestDBHandler_WithAttrsAndGroup(t *testing.T) {
	w := &memWriter{}
	h := newDBHandler(w, 10, time.Hour)
	log := slog.New(h).With("action", "user.signup").WithGroup("req")

	log.Error("failed", "path", "/api/users")
	h.Stop()
	h.Stop()

	rows := w.rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "user.signup", rows[0].Action)
	assert.Contains(t, string(rows[0].Extra), `"req.path":"/api/users"`)
}

type failingHandler struct{ err error }

func (f failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (f failingHandler) Handle(context.Context, slog.Record) error { return f.err }
func (f failingHandler) WithAttrs([]slog.Attr) slog.Handler        { return f }
func (f failingHandler) WithGroup(string) slog.Handler             { return f }

func TestMultiHandler_KeepsGoingOnError(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("sink down")
	m := NewMultiHandler(failingHandler{err: boom}, slog.NewJSONHandler(&buf, nil))

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	err := m.Handle(context.Background(), rec)

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestMultiHandler_Enabled(t *testing.T) {
	w := &memWriter{}
	db := newDBHandler(w, 10, time.Hour)
	defer db.Stop()

	var buf bytes.Buffer
	m := NewMultiHandler(db, slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	assert.False(t, m.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, m.Enabled(context.Background(), slog.LevelWarn))
}

func TestContextHandler_AddsRequestIdentity(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	userID := uuid.New()
	ctx := requestctx.WithRequestID(context.Background(), "req-42")
	log.InfoContext(ctx, "plain")
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.NotContains(t, buf.String(), "user_id")

	buf.Reset()
	log.InfoContext(requestctx.WithUser(ctx, userID, auth.PlatformWeb), "with user")
	assert.Contains(t, buf.String(), `"user_id":"`+userID.String()+`"`)
	assert.Contains(t, buf.String(), `"platform":"Web"`)
}

func TestContextHandler_KeepsExplicitAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	userID := uuid.New()
	ctx := requestctx.WithUser(requestctx.WithRequestID(context.Background(), "req-7"), userID, auth.PlatformIOS)
	log.InfoContext(ctx, "login", "platform", auth.PlatformIOS, "user_id", userID)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `"user_id"`))
	assert.Equal(t, 1, strings.Count(out, `"platform"`))
	assert.Equal(t, 1, strings.Count(out, `"request_id"`))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, userID.String(), entry["user_id"])
	assert.Equal(t, "req-7", entry["request_id"])
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormWriter_WriteLogs(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO "system_logs"`).WillReturnResult(sqlmock.NewResult(0, 2))

	err := NewGormWriter(db).WriteLogs(context.Background(), []models.SystemLog{
		{ID: uuid.New(), Timestamp: time.Now(), Level: "ERROR", Message: "a"},
		{ID: uuid.New(), Timestamp: time.Now(), Level: "ERROR", Message: "b"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	cutoff := time.Now().AddDate(0, 0, -30)
	mock.ExpectExec(`DELETE FROM "system_logs" WHERE timestamp < \$1`).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := DeleteOlderThan(context.Background(), db, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOlderThan_Error(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`DELETE FROM "system_logs"`).WillReturnError(errors.New("conn reset"))

	_, err := DeleteOlderThan(context.Background(), db, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete old system logs")
}
