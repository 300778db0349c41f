// Package logging builds the hclog loggers discography uses everywhere,
// including the adapter gorm writes its own logs through.
package logging

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/amonks/discography/config"
)

// New returns the root logger. Unknown levels fall back to info.
func New(cfg config.Log, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:            "discography",
		Level:           level,
		Output:          out,
		JSONFormat:      cfg.JSON,
		IncludeLocation: level <= hclog.Debug,
	})
}

// Gorm routes gorm's logger through l. Slow queries are warned about at
// 200ms; the full sql trace is only printed when l is at trace level.
func Gorm(l hclog.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	switch {
	case l.IsTrace():
		level = gormlogger.Info
	case l.IsError():
		level = gormlogger.Error
	}
	std := l.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})
	return gormlogger.New(log.New(std.Writer(), "", 0), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
