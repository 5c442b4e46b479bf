package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// QueryLogConfig controls which statements reach the log.
type QueryLogConfig struct {
	SlowThreshold time.Duration
	// LogAll emits every statement at debug level.
	LogAll bool
}

// QueryLogger routes gorm output through zap with the request fields of the
// statement's context. Bound values are never logged.
type QueryLogger struct {
	base  *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func NewQueryLogger(base *zap.Logger, cfg QueryLogConfig) *QueryLogger {
	if base == nil {
		base = zap.NewNop()
	}
	level := gormlogger.Warn
	if cfg.LogAll {
		level = gormlogger.Info
	}
	return &QueryLogger{
		base:  base.Named("gorm"),
		level: level,
		slow:  cfg.SlowThreshold,
	}
}

func (l *QueryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *QueryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger(ctx).Sugar().Infof(msg, data...)
	}
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger(ctx).Sugar().Warnf(msg, data...)
	}
}

func (l *QueryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger(ctx).Sugar().Errorf(msg, data...)
	}
}

// Trace logs failed statements as errors and slow ones as warnings. Missing
// rows are not failures; repositories turn them into nil results.
func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow

	switch {
	case failed && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger(ctx).Error("query failed", append(queryFields(sql, rows, elapsed), zap.Error(err))...)
	case slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger(ctx).Warn("slow query", append(queryFields(sql, rows, elapsed), zap.Duration("threshold", l.slow))...)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger(ctx).Debug("query", queryFields(sql, rows, elapsed)...)
	}
}

func (l *QueryLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *QueryLogger) logger(ctx context.Context) *zap.Logger {
	return WithContext(ctx, l.base)
}

func queryFields(sql string, rows int64, elapsed time.Duration) []zap.Field {
	sql = strings.TrimSpace(sql)
	op, table := describeSQL(sql)
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.String("operation", op),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if table != "" {
		fields = append(fields, zap.String("table", table))
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	return fields
}

// describeSQL returns the statement verb and the first table it touches.
func describeSQL(sql string) (string, string) {
	tokens := strings.Fields(sql)
	op := ""
	for i, raw := range tokens {
		token := strings.ToUpper(strings.Trim(raw, "();"))
		switch {
		case op == "" && (token == "SELECT" || token == "INSERT" || token == "UPDATE" || token == "DELETE"):
			op = token
			if token == "UPDATE" && i+1 < len(tokens) {
				return op, cleanTable(tokens[i+1])
			}
		case op != "" && (token == "FROM" || token == "INTO") && i+1 < len(tokens):
			return op, cleanTable(tokens[i+1])
		}
	}
	if op == "" {
		op = "OTHER"
	}
	return op, ""
}

func cleanTable(token string) string {
	return strings.Trim(token, "\"`();")
}

var _ gormlogger.Interface = (*QueryLogger)(nil)
