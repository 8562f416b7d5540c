package worker

import (
	"context"
	"sync/atomic"
	"taskAPI/internal/logger"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var StoreUp = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "task_store_up",
	Help: "1 if the last task store health check succeeded, 0 otherwise",
})

func init() {
	prometheus.MustRegister(StoreUp)
}

type HealthChecker interface {
	HealthCheck(context.Context) error
}

type HealthWorker struct {
	repo     HealthChecker
	interval time.Duration
	timeout  time.Duration
	healthy  atomic.Bool
	checked  atomic.Bool
}

func NewHealthWorker(repo HealthChecker, interval *time.Duration) *HealthWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = 30 * time.Second
	} else {
		intervalToSet = *interval
	}

	return &HealthWorker{
		repo:     repo,
		interval: intervalToSet,
		timeout:  min(intervalToSet, 5*time.Second),
	}
}

// Start блокируется до отмены ctx; первая проверка выполняется сразу
func (w *HealthWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка хранилища останавливается")
			return
		}
	}
}

func (w *HealthWorker) Check(ctx context.Context) bool {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.repo.HealthCheck(checkCtx)
	healthy := err == nil
	previous := w.healthy.Swap(healthy)
	firstCheck := !w.checked.Swap(true)

	if healthy {
		StoreUp.Set(1)
	} else {
		StoreUp.Set(0)
	}

	switch {
	case !healthy && (previous || firstCheck):
		logger.Error("Worker: Хранилище недоступно", err, zap.Duration("ms", time.Since(start)))
	case healthy && !previous && !firstCheck:
		logger.Info("Worker: Хранилище снова доступно", zap.Duration("ms", time.Since(start)))
	default:
		logger.Debug("Worker: Проверка хранилища завершена",
			zap.Bool("healthy", healthy),
			zap.Duration("ms", time.Since(start)))
	}
	return healthy
}
