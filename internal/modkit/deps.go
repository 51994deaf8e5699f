package modkit

import (
	"uwhatgov/internal/modkit/repokit"
	"uwhatgov/internal/platform/config"
	"uwhatgov/internal/platform/logger"
	"uwhatgov/internal/platform/store"
)

// Deps are the shared stores and settings every module is built from
// CH and KV are nil when analytics or the shared cache are disabled
type Deps struct {
	Log *logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	KV  store.KV
}

// Logger returns a child of Log tagged with the module component, the root logger when Log is nil
func (d Deps) Logger(component string) *logger.Logger {
	if d.Log == nil {
		return logger.Named(component)
	}
	l := d.Log.With().Str("component", component).Logger()
	return &l
}
