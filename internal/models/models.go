// Package models provides domain models for the terminal application.
package models

import (
	"time"
)

// Quote represents a market quote for a single symbol.
type Quote struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
	Timestamp     time.Time
}

// EarningsEvent represents an upcoming earnings announcement.
type EarningsEvent struct {
	Symbol   string
	Date     time.Time
	Name     string
	Estimate float64
}

// DividendEvent represents an upcoming dividend payment.
type DividendEvent struct {
	Symbol string
	ExDate time.Time
	Amount float64
}

// EventsCalendar holds upcoming corporate events for a symbol set.
type EventsCalendar struct {
	Earnings  []EarningsEvent
	Dividends []DividendEvent
}

// Holding represents a portfolio position.
type Holding struct {
	Symbol    string
	Shares    float64
	CostBasis float64
}
