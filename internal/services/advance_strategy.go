// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for advancing a recurring rule's
// due date. Each frequency (daily, weekly, monthly, yearly) has its own
// strategy that knows how long one period is.

package services

import (
	"fmt"

	"planner/internal/core"
)

// Advancer is the strategy interface for stepping a due date forward by
// exactly one period of its frequency.
type Advancer interface {
	// Next returns the occurrence following current. start is the rule's
	// start date, whose day-of-month anchors calendar-month steps.
	Next(current, start core.Date) core.Date
}

// DailyAdvancer steps one calendar day.
type DailyAdvancer struct{}

func (DailyAdvancer) Next(current, _ core.Date) core.Date {
	return current.AddDays(1)
}

// WeeklyAdvancer steps seven calendar days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Next(current, _ core.Date) core.Date {
	return current.AddDays(7)
}

// MonthlyAdvancer steps one calendar month, keeping the start date's day.
// Months that are too short clamp to their last day, and the following
// month returns to the anchor (Jan 31, Feb 29, Mar 31).
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Next(current, start core.Date) core.Date {
	return current.AddMonthsClamped(1, start.Day())
}

// YearlyAdvancer steps twelve calendar months with the same clamping as
// MonthlyAdvancer, so Feb 29 rules fall on Feb 28 in common years.
type YearlyAdvancer struct{}

func (YearlyAdvancer) Next(current, start core.Date) core.Date {
	return current.AddMonthsClamped(12, start.Day())
}

// advancers maps each frequency to its strategy.
var advancers = map[core.Frequency]Advancer{
	core.Daily:   DailyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
	core.Monthly: MonthlyAdvancer{},
	core.Yearly:  YearlyAdvancer{},
}

// GetAdvancer returns the strategy for a frequency.
func GetAdvancer(frequency core.Frequency) (Advancer, error) {
	a, ok := advancers[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidFrequency, frequency)
	}
	return a, nil
}
