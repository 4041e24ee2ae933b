package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	instance *zap.SugaredLogger
	once     sync.Once
)

type Config struct {
	Development bool
	Level       string
}

// New builds the process-wide sugared logger. The first call wins; later
// calls return the same instance.
func New(cfg Config) (*zap.SugaredLogger, error) {
	var err error
	once.Do(func() {
		zcfg := zap.NewProductionConfig()
		if cfg.Development {
			zcfg = zap.NewDevelopmentConfig()
		}
		if cfg.Level != "" {
			var lvl zap.AtomicLevel
			lvl, err = zap.ParseAtomicLevel(cfg.Level)
			if err != nil {
				return
			}
			zcfg.Level = lvl
		}
		var l *zap.Logger
		l, err = zcfg.Build()
		if err != nil {
			return
		}
		instance = l.Sugar()
	})
	return instance, err
}

// Nop returns a no-op logger for tests and optional components.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
