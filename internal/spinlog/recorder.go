package spinlog

import (
	"sync"

	"go.uber.org/zap"

	"github.com/MJE43/roulette-desktop/internal/engine"
)

const defaultFlushSize = 50

// Recorder buffers spin records and writes them to the store in batches.
// It implements engine.SpinRecorder.
type Recorder struct {
	store     *Store
	log       *zap.Logger
	mu        sync.Mutex
	buffer    []engine.SpinRecord
	flushSize int
}

var _ engine.SpinRecorder = (*Recorder)(nil)

// NewRecorder creates a recorder. flushSize controls how many records are
// buffered before a batch insert.
func NewRecorder(store *Store, flushSize int, log *zap.Logger) *Recorder {
	if flushSize <= 0 {
		flushSize = defaultFlushSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		store:     store,
		log:       log,
		buffer:    make([]engine.SpinRecord, 0, flushSize),
		flushSize: flushSize,
	}
}

func (r *Recorder) RecordSpin(rec engine.SpinRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= r.flushSize {
		r.flushLocked()
	}
}

// Flush writes any buffered records.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

func (r *Recorder) flushLocked() {
	if len(r.buffer) == 0 {
		return
	}
	if err := r.store.InsertBatch(r.buffer); err != nil {
		r.log.Error("spinlog: flush spins", zap.Int("count", len(r.buffer)), zap.Error(err))
	}
	r.buffer = r.buffer[:0]
}
