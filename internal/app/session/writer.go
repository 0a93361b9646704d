package session

import (
	"github.com/rs/zerolog"

	appsave "skyisle/internal/app/save"
	domainsave "skyisle/internal/domain/save"
)

const writeQueue = 32

// writeBehind moves store writes off the tick goroutine. Writes run in
// order on one goroutine; when the queue is full the write is dropped, the
// next record carries the same state.
type writeBehind struct {
	repo   *appsave.Repository
	logger zerolog.Logger
	ops    chan func()
	done   chan struct{}
}

func newWriteBehind(repo *appsave.Repository, logger zerolog.Logger) *writeBehind {
	w := &writeBehind{repo: repo, logger: logger, ops: make(chan func(), writeQueue), done: make(chan struct{})}
	go w.run()
	return w
}

func (w *writeBehind) run() {
	defer close(w.done)
	for op := range w.ops {
		op()
	}
}

func (w *writeBehind) enqueue(op func()) {
	select {
	case w.ops <- op:
	default:
		w.logger.Warn().Str("save_key", w.repo.Key()).Msg("save queue full, dropping write")
	}
}

func (w *writeBehind) Save(rec domainsave.Record) {
	w.enqueue(func() { w.repo.Save(rec) })
}

func (w *writeBehind) Reset() {
	w.enqueue(w.repo.Reset)
}

// close flushes pending writes.
func (w *writeBehind) close() {
	close(w.ops)
	<-w.done
}
