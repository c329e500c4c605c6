// internal/arbitrage/evaluator.go
package arbitrage

import (
	"math"
	"math/bits"

	"github.com/shopspring/decimal"
)

// EvaluatorParams are the operator-tuned costs subtracted from a round trip.
type EvaluatorParams struct {
	MinOutRequired uint64 // flat threshold, lamports
	GasEstimate    uint64 // fees of both transactions, lamports
	SafetyMargin   uint64 // slippage buffer, lamports
}

// Evaluation is the profitability verdict of one quoted round trip.
type Evaluation struct {
	AmountIn              uint64
	Leg2Out               uint64
	MinimumProfitRequired uint64
	NetProfit             int64
	NetProfitPct          decimal.Decimal
	Profitable            bool
}

// Evaluate decides whether a round trip of amountIn returning leg2Out is worth
// executing. It is profitable only when leg2Out exceeds
// amountIn + MinOutRequired + GasEstimate + SafetyMargin. A sum that does not
// fit in uint64 saturates, which no leg2Out can exceed.
func Evaluate(amountIn, leg2Out uint64, p EvaluatorParams) Evaluation {
	minimum, ok := p.Threshold(amountIn)
	if !ok {
		minimum = math.MaxUint64
	}
	ev := Evaluation{
		AmountIn:              amountIn,
		Leg2Out:               leg2Out,
		MinimumProfitRequired: minimum,
		NetProfitPct:          decimal.Zero,
	}

	if leg2Out <= minimum {
		ev.NetProfit = -clampInt64(minimum - leg2Out)
	} else {
		ev.NetProfit = clampInt64(leg2Out - minimum)
	}
	if amountIn > 0 {
		ev.NetProfitPct = decimal.NewFromInt(ev.NetProfit).
			Div(decimal.NewFromInt(int64(amountIn))).
			Mul(decimal.NewFromInt(100))
	}
	ev.Profitable = ok && leg2Out > minimum
	return ev
}

// Threshold returns amountIn plus every configured cost, and false when the
// sum overflows uint64.
func (p EvaluatorParams) Threshold(amountIn uint64) (uint64, bool) {
	sum := amountIn
	for _, v := range []uint64{p.MinOutRequired, p.GasEstimate, p.SafetyMargin} {
		var carry uint64
		sum, carry = bits.Add64(sum, v, 0)
		if carry != 0 {
			return math.MaxUint64, false
		}
	}
	return sum, true
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// NetProfitSOL renders the net profit in SOL.
func (e Evaluation) NetProfitSOL() string {
	return LamportsToSOL(e.NetProfit).StringFixed(6)
}

// LamportsToSOL converts a signed lamport amount to SOL.
func LamportsToSOL(lamports int64) decimal.Decimal {
	return decimal.New(lamports, -9)
}
