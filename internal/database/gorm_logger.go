package database

import (
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

// NewGormLogger routes gorm query logs through zap. Failed queries and
// queries slower than slowThreshold are reported; record-not-found is an
// expected lookup result and is not logged.
func NewGormLogger(log *zap.Logger, slowThreshold time.Duration) gormlogger.Interface {
	l := zapgorm2.New(log.Named("gorm"))
	l.LogLevel = gormlogger.Warn
	l.SlowThreshold = slowThreshold
	l.IgnoreRecordNotFoundError = true
	return l
}
