// internal/arbitrage/observer.go
package arbitrage

import "time"

// Observer receives runner events; the metrics collector implements it.
type Observer interface {
	ObserveQuote(leg string, duration time.Duration, err error)
	ObserveEvaluation(pair string, ev Evaluation)
	ObserveSubmission(relay, leg string, duration time.Duration, err error)
	ObserveConfirmation(leg string, duration time.Duration, err error)
	ObserveAttempt(pair string, success bool, reason string, profit int64)
}

type nopObserver struct{}

func (nopObserver) ObserveQuote(string, time.Duration, error)              {}
func (nopObserver) ObserveEvaluation(string, Evaluation)                   {}
func (nopObserver) ObserveSubmission(string, string, time.Duration, error) {}
func (nopObserver) ObserveConfirmation(string, time.Duration, error)       {}
func (nopObserver) ObserveAttempt(string, bool, string, int64)             {}
