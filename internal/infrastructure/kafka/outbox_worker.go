package kafka

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

const (
	defaultPoll        = 2 * time.Second
	defaultLease       = 30 * time.Second
	defaultMaxAttempts = 8
	retryBackoffBase   = time.Second
	retryBackoffMax    = 5 * time.Minute
)

// OutboxWorker периодически забирает события из outbox и публикует их в Kafka.
// Доставка at-least-once: событие помечается обработанным только после успешной записи в брокер.
type OutboxWorker struct {
	repo         usecase.OutboxRepository
	logger       logger.Logger
	producer     usecase.MessageProducer
	pollInterval time.Duration
	batchSize    int
	lease        time.Duration
	maxAttempts  int
	now          func() time.Time
	stop         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	cfg *cfg.KafkaCfg,
) *OutboxWorker {
	batchSize := cfg.OutboxBatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	pollInterval := cfg.OutboxPollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPoll
	}

	return &OutboxWorker{
		repo:         repo,
		logger:       logger,
		producer:     producer,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		lease:        defaultLease,
		maxAttempts:  defaultMaxAttempts,
		now:          func() time.Time { return time.Now().UTC() },
		stop:         make(chan struct{}),
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Stop останавливает воркер и дожидается окончания текущего пакета.
func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped by context cancellation")
			return
		case <-w.stop:
			w.logger.Infof("Outbox worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain обрабатывает пакеты, пока outbox не опустеет или воркер не остановят.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("outbox batch failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

// processBatch возвращает true, если пакет был заполнен целиком и стоит забрать следующий.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.ClaimPending(ctx, w.batchSize, w.lease)
	if err != nil {
		return false, e.Wrap("OutboxWorker.processBatch", err)
	}

	for _, event := range events {
		w.processEvent(ctx, event)
	}

	return len(events) == w.batchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) {
	err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.AggregateID, event.EventType, event.Payload))
	if err == nil {
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed, event %s may be sent twice: %v", event.ID, err)
		}
		return
	}

	attempts := event.Attempts + 1
	if !isRetryableError(err) || attempts >= w.maxAttempts {
		w.logger.Errorf(err, "outbox event %s (%s) failed permanently after %d attempt(s)", event.ID, event.EventType, attempts)
		if err := w.repo.MarkAsFailed(ctx, event.ID, err.Error()); err != nil {
			w.logger.Warnf("mark failed failed: %v", err)
		}
		return
	}

	next := w.now().Add(jitter.ExponentialBackoff(retryBackoffBase, retryBackoffMax, attempts-1, jitter.DefaultJitter))
	w.logger.Warnf("Temporary Kafka failure for event %s, retry #%d at %s: %v", event.ID, attempts, next.Format(time.RFC3339), err)
	if err := w.repo.MarkForRetry(ctx, event.ID, attempts, next, err.Error()); err != nil {
		w.logger.Warnf("mark for retry failed: %v", err)
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"leader not available",
		"not leader for partition",
		"request timed out",
		"context deadline exceeded",
		"connection reset",
		"broken pipe",
		"no such host",
		"eof",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
