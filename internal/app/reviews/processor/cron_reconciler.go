package processor

import (
	"context"

	"juneplums/pkg/logger"

	"github.com/robfig/cron/v3"
)

// RatingReconciler - фоновая сверка рейтингов по cron-расписанию
// Пересчеты при мутациях не сериализованы между собой, конкурентные записи
// могут оставить товару устаревшее значение; сверка доводит его до точного
type RatingReconciler struct {
	cron       *cron.Cron
	reconciler ReconcilerService
}

// ReconcilerService - часть сервиса отзывов, нужная сверке
type ReconcilerService interface {
	ReconcileRatings(ctx context.Context) (int, error)
}

// NewRatingReconciler создает новую фоновую сверку рейтингов
func NewRatingReconciler(reconciler ReconcilerService) *RatingReconciler {
	return &RatingReconciler{
		cron:       cron.New(),
		reconciler: reconciler,
	}
}

// Start регистрирует задачу по расписанию и выполняет первую сверку сразу
func (r *RatingReconciler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting rating reconciler")

	_, err := r.cron.AddFunc(schedule, func() {
		r.run(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()

	r.run(ctx)

	return nil
}

// Stop останавливает планировщик и дожидается текущей задачи
func (r *RatingReconciler) Stop() {
	logger.Info().Msg("Stopping rating reconciler...")
	ctx := r.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Rating reconciler stopped")
}

// Entries возвращает зарегистрированные cron задачи (для тестов)
func (r *RatingReconciler) Entries() []cron.Entry {
	return r.cron.Entries()
}

func (r *RatingReconciler) run(ctx context.Context) {
	recomputed, err := r.reconciler.ReconcileRatings(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Rating reconciliation failed")
		return
	}
	logger.Info().Int("products", recomputed).Msg("Rating reconciliation completed")
}
