package audit

/*
Trail — асинхронный журнал попыток входа.

- Non-blocking: Log никогда не блокирует обработку запроса, события уходят в буферизованный канал.
- Batching: воркер копит события и сбрасывает их в Sink пачкой по размеру или по таймеру.
- Drain: Stop закрывает канал, воркер вычитывает остатки и делает финальный flush.
- Load shedding: при переполнении буфера событие сбрасывается, это видно в логе и метрике.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultBufferSize    = 10000
	defaultBatchSize     = 100
	defaultFlushInterval = 500 * time.Millisecond
)

// Sink определяет, куда физически пишутся события.
type Sink interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []LoginEvent) error
}

type Auditor interface {
	Log(event LoginEvent)
}

type TrailOption func(*Trail)

func WithBufferSize(n int) TrailOption {
	return func(t *Trail) { t.bufferSize = n }
}

func WithBatchSize(n int) TrailOption {
	return func(t *Trail) { t.batchSize = n }
}

func WithFlushInterval(d time.Duration) TrailOption {
	return func(t *Trail) { t.flushInterval = d }
}

// WithDropCounter считает события, потерянные из-за backpressure.
func WithDropCounter(c prometheus.Counter) TrailOption {
	return func(t *Trail) { t.dropped = c }
}

type Trail struct {
	ch     chan LoginEvent
	sink   Sink
	logger *zap.Logger
	wg     sync.WaitGroup

	// mu защищает закрытие канала от параллельных Log
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once

	bufferSize    int
	batchSize     int
	flushInterval time.Duration
	dropped       prometheus.Counter
}

func NewTrail(sink Sink, logger *zap.Logger, opts ...TrailOption) *Trail {
	t := &Trail{
		sink:          sink,
		logger:        logger.With(zap.String("mod", "audit")),
		bufferSize:    defaultBufferSize,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.ch = make(chan LoginEvent, t.bufferSize)
	return t
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (t *Trail) Stop() {
	t.stopOnce.Do(func() {
		t.logger.Info("stopping auditor: closing channel and flushing buffer...")
		t.mu.Lock()
		t.closed = true
		close(t.ch)
		t.mu.Unlock()

		t.wg.Wait()
		t.logger.Info("auditor stopped gracefully")
	})
}

func (t *Trail) Log(event LoginEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		t.drop("audit event dropped: auditor is stopped", event)
		return
	}

	select {
	case t.ch <- event:
	default:
		t.drop("audit_buffer_overflow", event)
	}
}

func (t *Trail) drop(msg string, event LoginEvent) {
	if t.dropped != nil {
		t.dropped.Inc()
	}
	// Событие не должно пропасть бесследно, пишем хотя бы в основной лог
	t.logger.Error(msg,
		zap.String("id", event.ID),
		zap.String("username", event.Username),
		zap.String("outcome", string(event.Outcome)),
		zap.String("request_id", event.RequestID),
	)
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]LoginEvent, 0, t.batchSize)
	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Используем Background, так как контекст запроса уже завершен
		if err := t.sink.WriteBatch(context.Background(), batch); err != nil {
			t.logger.Error("audit flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = make([]LoginEvent, 0, t.batchSize)
	}

	for {
		select {
		case event, ok := <-t.ch:
			if !ok {
				// Канал закрыт в Stop: всё, что было в очереди, уже вычитано
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= t.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
