package gorm_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marketplace-tools/permd/internal/logger"
	adapter "github.com/marketplace-tools/permd/internal/logger/adapter/gorm"
)

func newTestLogger(cfg logger.Log) (*adapter.Logger, *bytes.Buffer) {
	var buf bytes.Buffer

	zl := zerolog.New(&buf).Level(zerolog.TraceLevel)

	return adapter.New(cfg).WithLogger(zl), &buf
}

func TestTrace(t *testing.T) {
	fc := func() (string, int64) { return "SELECT * FROM roles", 3 }

	testCases := []struct {
		name     string
		cfg      logger.Log
		begin    time.Time
		err      error
		contains []string
		empty    bool
	}{
		{
			name:     "failed query is an error",
			begin:    time.Now(),
			err:      errors.New("no such table: roles"),
			contains: []string{`"level":"error"`, "query failed", "SELECT * FROM roles"},
		},
		{
			name:  "record not found is ignored",
			begin: time.Now(),
			err:   gorm.ErrRecordNotFound,
			empty: true,
		},
		{
			name:     "slow query is a warning",
			cfg:      logger.Log{SlowQueryThreshold: time.Millisecond},
			begin:    time.Now().Add(-time.Second),
			contains: []string{`"level":"warn"`, "slow query", `"rows":3`},
		},
		{
			name:  "fast query without sql logging is silent",
			cfg:   logger.Log{SlowQueryThreshold: time.Hour},
			begin: time.Now(),
			empty: true,
		},
		{
			name:     "sql logging traces every query",
			cfg:      logger.Log{LogSQL: true},
			begin:    time.Now(),
			contains: []string{`"level":"trace"`, `"sql":"SELECT * FROM roles"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, buf := newTestLogger(tc.cfg)
			l.Trace(context.Background(), tc.begin, fc, tc.err)

			if tc.empty {
				assert.Empty(t, buf.String())
				return
			}

			for _, want := range tc.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestLogModeSilent(t *testing.T) {
	l, buf := newTestLogger(logger.Log{LogSQL: true})

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	silent.Error(context.Background(), "failed %s", "x")

	assert.Empty(t, buf.String())
}

func TestMessages(t *testing.T) {
	l, buf := newTestLogger(logger.Log{})

	l.Info(context.Background(), "migrated %d tables", 4)
	assert.Empty(t, buf.String(), "info is below the default warn level")

	l.Warn(context.Background(), "column %s is deprecated", "seq")
	assert.Contains(t, buf.String(), "column seq is deprecated")
}
