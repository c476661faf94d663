package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options tune how a connection is opened.
type Options struct {
	// Logger receives gorm query logs. Nil disables query logging.
	Logger *zap.Logger
	// Verbose lowers the gorm log threshold from Silent to Warn.
	Verbose bool
	// MaxRetries bounds connect attempts.
	MaxRetries int
}

// Dialector picks the gorm dialect for dsn. postgres:// and postgresql://
// URLs use the pgx-backed postgres driver; sqlite: and file: DSNs use the
// pure-Go SQLite driver with foreign keys enforced.
func Dialector(dsn string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(sqliteDSN(strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//"))), nil
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(sqliteDSN(dsn)), nil
	default:
		return nil, fmt.Errorf("unsupported database url %q", redact(dsn))
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open opens a Gorm connection with retry and sane pooling defaults.
func Open(ctx context.Context, dsn string, opts Options) (*gorm.DB, error) {
	dialector, err := Dialector(dsn)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Silent
	if opts.Verbose {
		logLevel = gormlogger.Warn
	}
	zl := opts.Logger
	if zl == nil {
		zl = zap.NewNop()
	}

	b := backoff{
		maxRetries: opts.MaxRetries,
		delay:      500 * time.Millisecond,
		maxDelay:   5 * time.Second,
	}
	if b.maxRetries <= 0 {
		b.maxRetries = 5
	}

	var db *gorm.DB
	for attempt := 0; ; attempt++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: zapLogger{zap: zl, level: logLevel},
		})
		if err == nil {
			break
		}
		if attempt >= b.maxRetries {
			return nil, fmt.Errorf("open database failed after retries: %w", err)
		}
		zl.Warn("database open failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("open database canceled: %w", ctx.Err())
		case <-time.After(b.nextDelay(attempt)):
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db db() error: %w", err)
	}

	if db.Dialector.Name() == "sqlite" {
		// SQLite serializes writers; one connection keeps in-memory databases shared.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctxPing); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

// Ping checks connectivity within the context deadline.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// redact hides credentials in a DSN before it reaches logs or errors.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	return dsn[:scheme+3] + "***" + dsn[at:]
}

type zapLogger struct {
	zap   *zap.Logger
	level gormlogger.LogLevel
}

func (l zapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface { l.level = level; return l }
func (l zapLogger) Info(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.zap.Sugar().Infof(s, args...)
	}
}
func (l zapLogger) Warn(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.zap.Sugar().Warnf(s, args...)
	}
}
func (l zapLogger) Error(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.zap.Sugar().Errorf(s, args...)
	}
}
func (l zapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	sql, rows := fc()
	dur := time.Since(begin)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.zap.Error("gorm query error", zap.Duration("duration", dur), zap.Int64("rows", rows), zap.String("sql", sql), zap.Error(err))
		return
	}
	l.zap.Debug("gorm query", zap.Duration("duration", dur), zap.Int64("rows", rows), zap.String("sql", sql))
}

type backoff struct {
	maxRetries int
	delay      time.Duration
	maxDelay   time.Duration
}

func (b backoff) nextDelay(attempt int) time.Duration {
	d := b.delay << attempt
	if d > b.maxDelay {
		return b.maxDelay
	}
	return d
}
