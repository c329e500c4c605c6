// internal/arbitrage/session.go
package arbitrage

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Session accumulates trade counters for the lifetime of the process.
// It is safe for concurrent use so the status server can read snapshots.
type Session struct {
	mu sync.RWMutex

	startedAt        time.Time
	cycles           int
	totalTrades      int
	successfulTrades int
	totalProfit      int64 // lamports
	lastError        string
	lastAttemptAt    time.Time
}

// Stats is a point-in-time copy of the session counters.
type Stats struct {
	StartedAt           time.Time `json:"started_at"`
	Uptime              string    `json:"uptime"`
	Cycles              int       `json:"cycles"`
	TotalTrades         int       `json:"total_trades"`
	SuccessfulTrades    int       `json:"successful_trades"`
	FailedTrades        int       `json:"failed_trades"`
	SuccessRatePct      string    `json:"success_rate_pct"`
	TotalProfitLamports int64     `json:"total_profit_lamports"`
	TotalProfitSOL      string    `json:"total_profit_sol"`
	LastError           string    `json:"last_error,omitempty"`
	LastAttemptAt       time.Time `json:"last_attempt_at,omitempty"`
}

func NewSession() *Session {
	return &Session{startedAt: time.Now()}
}

// RecordSuccess counts an executed round trip and its realized profit.
func (s *Session) RecordSuccess(profit int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalTrades++
	s.successfulTrades++
	s.totalProfit += profit
	s.lastAttemptAt = time.Now()
}

// RecordFailure counts an abandoned attempt.
func (s *Session) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalTrades++
	if err != nil {
		s.lastError = err.Error()
	}
	s.lastAttemptAt = time.Now()
}

// RecordCycle counts a completed pass over all pairs.
func (s *Session) RecordCycle() {
	s.mu.Lock()
	s.cycles++
	s.mu.Unlock()
}

func (s *Session) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rate := decimal.Zero
	if s.totalTrades > 0 {
		rate = decimal.NewFromInt(int64(s.successfulTrades)).
			Div(decimal.NewFromInt(int64(s.totalTrades))).
			Mul(decimal.NewFromInt(100))
	}

	return Stats{
		StartedAt:           s.startedAt,
		Uptime:              time.Since(s.startedAt).Round(time.Second).String(),
		Cycles:              s.cycles,
		TotalTrades:         s.totalTrades,
		SuccessfulTrades:    s.successfulTrades,
		FailedTrades:        s.totalTrades - s.successfulTrades,
		SuccessRatePct:      rate.StringFixed(1),
		TotalProfitLamports: s.totalProfit,
		TotalProfitSOL:      LamportsToSOL(s.totalProfit).StringFixed(9),
		LastError:           s.lastError,
		LastAttemptAt:       s.lastAttemptAt,
	}
}
