package postgres

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"edu-ai-api/internal/config"
	"edu-ai-api/pkg/logger"
)

func TestGormLogLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"Error":  gormlogger.Error,
		" info ": gormlogger.Info,
		"warn":   gormlogger.Warn,
		"":       gormlogger.Warn,
		"trace":  gormlogger.Warn,
	}
	for in, want := range cases {
		assert.Equal(t, want, gormLogLevel(in), in)
	}
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(&config.PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "edu",
		Password: "p@ss word'1",
		Database: "edu_ai",
	})
	assert.Equal(t, `host=db port=5432 user=edu password='p@ss word\'1' dbname=edu_ai sslmode=disable application_name=edu-ai-api TimeZone=UTC`, dsn)
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	logger.Setup(logger.Options{Level: "debug", Writer: &buf})
	t.Cleanup(func() { logger.Setup(logger.Options{Level: "info"}) })

	l := newGormLogger(gormlogger.Warn, 50*time.Millisecond)
	fc := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), fc, errors.New("connection refused"))
	assert.Contains(t, buf.String(), "sql failed")
	buf.Reset()

	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "slow sql")
	buf.Reset()

	l.Trace(ctx, time.Now(), fc, nil)
	assert.Empty(t, buf.String())

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), fc, errors.New("ignored"))
	assert.Empty(t, buf.String())
}

func TestGetTxFromContext(t *testing.T) {
	assert.Nil(t, getTxFromContext(context.Background()))
}
