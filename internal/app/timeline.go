package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
)

// watchTimeline periodically evaluates the conference timeline against the
// canonical session list and logs transitions (a session going live, the
// up-next slot changing, the event emptying out). The evaluation itself is
// pure; this loop is the only place that feeds it the wall clock.
func (a *App) watchTimeline(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.TimelineInterval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions, err := a.repo.ListSessions(ctx)
			if err != nil {
				a.log.Error("timeline session load failed", zap.Error(err))
				continue
			}
			res := domain.Evaluate(sessions, time.Now().UTC(), a.loc)
			if fp := fingerprint(res); fp != last {
				last = fp
				a.logTimeline(sessions, res)
			}
		}
	}
}

func (a *App) logTimeline(sessions []domain.Session, res domain.EvaluationResult) {
	day := domain.CurrentDay(sessions, time.Now().UTC(), a.loc)
	fields := []zap.Field{zap.Int("day", day)}
	switch {
	case res.Primary != nil && res.Secondary != nil:
		fields = append(fields,
			zap.String("live", res.Primary.Title),
			zap.String("upNext", res.Secondary.Title))
	case res.Primary != nil:
		fields = append(fields, zap.String("session", res.Primary.Title))
	default:
		fields = append(fields, zap.String("state", string(res.Message)))
	}
	a.log.Info("timeline changed", fields...)
}

func fingerprint(res domain.EvaluationResult) string {
	fp := string(res.Message)
	if res.Primary != nil {
		fp += "|" + res.Primary.ID
	}
	if res.Secondary != nil {
		fp += "|" + res.Secondary.ID
	}
	return fp
}
