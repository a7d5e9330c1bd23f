package backtest

import (
	"math"
	"time"

	"github.com/ll101/project-algo-trading/internal/ohlcv"
	"github.com/ll101/project-algo-trading/internal/strategy"
)

// ExitReason records why a position was closed
type ExitReason string

const (
	ExitSignal     ExitReason = "signal"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Trade is one completed round trip
type Trade struct {
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Shares     float64    `json:"shares"`
	PnL        float64    `json:"pnl"`
	ReturnPct  float64    `json:"return_pct"`
	ExitReason ExitReason `json:"exit_reason"`
}

// simulator is a single-position long-only account. Entries and signal exits
// fill at the bar close; stop loss and take profit fill intrabar at their
// trigger price when the bar's low or high reaches it.
type simulator struct {
	cfg Config

	cash      float64
	shares    float64
	entry     float64
	entryCost float64
	entryTime time.Time

	trades      []Trade
	equityCurve []EquityPoint
}

func newSimulator(cfg Config) *simulator {
	return &simulator{cfg: cfg, cash: cfg.Cash}
}

func (s *simulator) long() bool { return s.shares > 0 }

// step advances the account by one bar: risk exits first, then the
// strategy's signal, then a mark to market at the close.
func (s *simulator) step(series *ohlcv.Series, strat strategy.Strategy, i int) {
	close := series.Close[i]

	if s.long() {
		s.applyRiskExits(series, i)
	}

	if !math.IsNaN(close) {
		switch strat.Next(i) {
		case strategy.SignalBuy:
			if !s.long() {
				s.open(series.Times[i], close)
			}
		case strategy.SignalClose:
			if s.long() {
				s.close(series.Times[i], close, ExitSignal)
			}
		}
	}

	s.mark(series.Times[i], close)
}

// applyRiskExits checks stop loss then take profit against the bar's range.
// A bar that spans both fills the stop; intrabar ordering is unknowable from
// OHLC data alone, so the conservative side wins.
func (s *simulator) applyRiskExits(series *ohlcv.Series, i int) {
	low, high := series.Low[i], series.High[i]

	if s.cfg.StopLossPct > 0 {
		stop := s.entry * (1 - s.cfg.StopLossPct)
		if !math.IsNaN(low) && low <= stop {
			s.close(series.Times[i], stop, ExitStopLoss)
			return
		}
	}
	if s.cfg.TakeProfitPct > 0 {
		take := s.entry * (1 + s.cfg.TakeProfitPct)
		if !math.IsNaN(high) && high >= take {
			s.close(series.Times[i], take, ExitTakeProfit)
		}
	}
}

func (s *simulator) open(t time.Time, price float64) {
	if price <= 0 {
		return
	}
	shares := math.Floor(s.cash / (price * (1 + s.cfg.Commission)))
	if shares <= 0 {
		return
	}
	cost := shares * price * (1 + s.cfg.Commission)
	s.cash -= cost
	s.shares = shares
	s.entry = price
	s.entryCost = cost
	s.entryTime = t
}

func (s *simulator) close(t time.Time, price float64, reason ExitReason) {
	proceeds := s.shares * price * (1 - s.cfg.Commission)
	pnl := proceeds - s.entryCost

	s.trades = append(s.trades, Trade{
		EntryTime:  s.entryTime,
		ExitTime:   t,
		EntryPrice: s.entry,
		ExitPrice:  price,
		Shares:     s.shares,
		PnL:        pnl,
		ReturnPct:  pnl / s.entryCost * 100,
		ExitReason: reason,
	})

	s.cash += proceeds
	s.shares = 0
	s.entry = 0
	s.entryCost = 0
}

// mark samples equity at the close. A NaN close keeps the previous mark for
// the position value.
func (s *simulator) mark(t time.Time, close float64) {
	equity := s.cash
	if s.long() {
		price := close
		if math.IsNaN(price) {
			price = s.entry
			if n := len(s.equityCurve); n > 0 {
				price = (s.equityCurve[n-1].Equity - s.cash) / s.shares
			}
		}
		equity += s.shares * price
	}
	s.equityCurve = append(s.equityCurve, EquityPoint{
		Time:   t,
		Equity: equity,
		Return: (equity - s.cfg.Cash) / s.cfg.Cash * 100,
	})
}

// finish liquidates any open position at the last close
func (s *simulator) finish(series *ohlcv.Series) {
	if !s.long() {
		return
	}
	n := series.Len()
	price := series.Close[n-1]
	if math.IsNaN(price) {
		price = s.entry
	}
	s.close(series.Times[n-1], price, ExitEndOfData)
	if len(s.equityCurve) > 0 {
		s.equityCurve[len(s.equityCurve)-1] = EquityPoint{
			Time:   series.Times[n-1],
			Equity: s.cash,
			Return: (s.cash - s.cfg.Cash) / s.cfg.Cash * 100,
		}
	}
}
