// Package usage reports token budget consumption.
package usage

import (
	"context"
	"time"
)

// Window is one budget period. Limit 0 means unlimited, Remaining -1 means
// unlimited.
type Window struct {
	Limit     int64
	Used      int64
	Remaining int64
	ResetsAt  int64 // unix millis, UTC boundary
}

// Report aggregates daily and monthly budget windows for one model.
type Report struct {
	Model   string
	Daily   Window
	Monthly Window
}

// Service handles usage reporting.
type Service struct {
	br    BudgetReader
	model string
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader, model string) *Service {
	return &Service{br: br, model: model}
}

// GetReport builds the current usage report.
func (s *Service) GetReport(_ context.Context) Report {
	now := time.Now().UTC()
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	monthEnd := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	r := Report{
		Model:   s.model,
		Daily:   Window{Remaining: -1, ResetsAt: dayEnd.UnixMilli()},
		Monthly: Window{Remaining: -1, ResetsAt: monthEnd.UnixMilli()},
	}
	if s.br == nil {
		return r
	}

	r.Daily.Limit = s.br.DailyLimit()
	r.Daily.Used = s.br.DailyUsed()
	r.Daily.Remaining = s.br.RemainingDaily()
	r.Monthly.Limit = s.br.MonthlyLimit()
	r.Monthly.Used = s.br.MonthlyUsed()
	r.Monthly.Remaining = s.br.RemainingMonthly()
	return r
}
