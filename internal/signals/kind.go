// Package signals converts indicators plus a StrategyKind into entry/exit
// signal streams over a PriceFrame.
//
// StrategyKind is modeled as a closed tagged variant rather than a class
// hierarchy: each constructor below returns a Kind whose Tag selects the
// signal policy applied in Generate. Adding a new family means adding a
// Tag constant, a constructor, and a case in indicatorPair — no virtual
// dispatch.
package signals

import "fmt"

// Tag identifies the strategy family.
type Tag string

const (
	TagSmaCross Tag = "SmaCross"
	TagEmaCross Tag = "EmaCross"
	TagMacd     Tag = "Macd"
)

// Side governs entry/exit polarity and return sign.
type Side string

const (
	Long  Side = "Long"
	Short Side = "Short"
)

// RsiFilter optionally gates entries on an RSI confirmation.
type RsiFilter struct {
	Window    int
	Threshold float64 // 1..99
	Attached  bool
}

// Kind is the tagged StrategyKind variant.
type Kind struct {
	Tag          Tag
	Fast         int
	Slow         int
	SignalWindow int // MACD signal period; 0 for non-MACD
	Rsi          RsiFilter
}

// SmaCross constructs an SmaCross{fast,slow} StrategyKind.
func SmaCross(fast, slow int) Kind { return Kind{Tag: TagSmaCross, Fast: fast, Slow: slow} }

// EmaCross constructs an EmaCross{fast,slow} StrategyKind.
func EmaCross(fast, slow int) Kind { return Kind{Tag: TagEmaCross, Fast: fast, Slow: slow} }

// Macd constructs a Macd{fast,slow,signal} StrategyKind.
func Macd(fast, slow, signal int) Kind {
	return Kind{Tag: TagMacd, Fast: fast, Slow: slow, SignalWindow: signal}
}

// WithRsi attaches an RsiFilter to the kind, returning a new Kind value.
func (k Kind) WithRsi(window int, threshold float64) Kind {
	k.Rsi = RsiFilter{Window: window, Threshold: threshold, Attached: true}
	return k
}

// Validate enforces StrategyKind's constraints: fast < slow; for MACD,
// signal >= 1; for RSI, 1 <= threshold <= 99.
func (k Kind) Validate() error {
	if k.Fast >= k.Slow {
		return fmt.Errorf("signals: fast (%d) must be < slow (%d)", k.Fast, k.Slow)
	}
	if k.Tag == TagMacd && k.SignalWindow < 1 {
		return fmt.Errorf("signals: macd signal window must be >= 1, got %d", k.SignalWindow)
	}
	if k.Rsi.Attached && (k.Rsi.Threshold < 1 || k.Rsi.Threshold > 99) {
		return fmt.Errorf("signals: rsi threshold must be in [1,99], got %v", k.Rsi.Threshold)
	}
	return nil
}

// Warmup returns the minimum number of bars that must elapse before any
// signal may fire: max(slow, signal_window, rsi_window) + 1.
func (k Kind) Warmup() int {
	w := k.Slow
	if k.SignalWindow > w {
		w = k.SignalWindow
	}
	if k.Rsi.Attached && k.Rsi.Window > w {
		w = k.Rsi.Window
	}
	return w + 1
}

// ID returns the (tag, fast, slow, signalWindow) identity tuple used as
// part of a strategy's identity; ticker is attached by the caller.
func (k Kind) ID() (tag Tag, fast, slow, signalWindow int) {
	return k.Tag, k.Fast, k.Slow, k.SignalWindow
}
