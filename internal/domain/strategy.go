package domain

import "fmt"

// StrategyConfig represents signal aggregation parameters.
type StrategyConfig struct {
	TimeWindowSeconds int64 `json:"time_window_seconds" yaml:"time_window_seconds"`

	// Band width. Pct takes precedence over Abs; with neither the band is the exact price.
	PriceRangeWidthPct *float64 `json:"price_range_width_pct,omitempty" yaml:"price_range_width_pct"`
	PriceRangeWidthAbs *float64 `json:"price_range_width_abs,omitempty" yaml:"price_range_width_abs"`

	MinSmartTraders          int     `json:"min_smart_traders" yaml:"min_smart_traders"`
	MinSignalIntervalSeconds float64 `json:"min_signal_interval_seconds" yaml:"min_signal_interval_seconds"`
}

// DefaultStrategyConfig returns a 5 minute window, 1% band, one trader and 1s debounce.
func DefaultStrategyConfig() StrategyConfig {
	pct := 0.01
	return StrategyConfig{
		TimeWindowSeconds:        300,
		PriceRangeWidthPct:       &pct,
		MinSmartTraders:          1,
		MinSignalIntervalSeconds: 1,
	}
}

// TimeWindowMs returns the aggregation window in milliseconds.
func (c StrategyConfig) TimeWindowMs() int64 {
	return c.TimeWindowSeconds * 1000
}

// MinSignalIntervalMs returns the debounce interval in milliseconds.
func (c StrategyConfig) MinSignalIntervalMs() int64 {
	return int64(c.MinSignalIntervalSeconds * 1000)
}

// Validate checks strategy parameters.
func (c StrategyConfig) Validate() error {
	if c.TimeWindowSeconds <= 0 {
		return fmt.Errorf("%w: time_window_seconds must be positive", ErrInvalidInput)
	}
	if c.PriceRangeWidthPct != nil && *c.PriceRangeWidthPct < 0 {
		return fmt.Errorf("%w: price_range_width_pct must be non-negative", ErrInvalidInput)
	}
	if c.PriceRangeWidthAbs != nil && *c.PriceRangeWidthAbs < 0 {
		return fmt.Errorf("%w: price_range_width_abs must be non-negative", ErrInvalidInput)
	}
	if c.MinSmartTraders < 1 {
		return fmt.Errorf("%w: min_smart_traders must be at least 1", ErrInvalidInput)
	}
	if c.MinSignalIntervalSeconds < 0 {
		return fmt.Errorf("%w: min_signal_interval_seconds must be non-negative", ErrInvalidInput)
	}
	return nil
}

// StrategyOverrides is a partial StrategyConfig; nil fields keep the base value.
type StrategyOverrides struct {
	TimeWindowSeconds        *int64   `json:"time_window_seconds,omitempty"`
	PriceRangeWidthPct       *float64 `json:"price_range_width_pct,omitempty"`
	PriceRangeWidthAbs       *float64 `json:"price_range_width_abs,omitempty"`
	MinSmartTraders          *int     `json:"min_smart_traders,omitempty"`
	MinSignalIntervalSeconds *float64 `json:"min_signal_interval_seconds,omitempty"`
}

// Apply merges o onto base. An absolute band width without a percentage
// clears the base percentage so the absolute width takes effect.
func (o StrategyOverrides) Apply(base StrategyConfig) StrategyConfig {
	c := base
	c.PriceRangeWidthPct = copyFloat(base.PriceRangeWidthPct)
	c.PriceRangeWidthAbs = copyFloat(base.PriceRangeWidthAbs)

	if o.TimeWindowSeconds != nil {
		c.TimeWindowSeconds = *o.TimeWindowSeconds
	}
	if o.PriceRangeWidthAbs != nil {
		c.PriceRangeWidthAbs = copyFloat(o.PriceRangeWidthAbs)
		if o.PriceRangeWidthPct == nil {
			c.PriceRangeWidthPct = nil
		}
	}
	if o.PriceRangeWidthPct != nil {
		c.PriceRangeWidthPct = copyFloat(o.PriceRangeWidthPct)
	}
	if o.MinSmartTraders != nil {
		c.MinSmartTraders = *o.MinSmartTraders
	}
	if o.MinSignalIntervalSeconds != nil {
		c.MinSignalIntervalSeconds = *o.MinSignalIntervalSeconds
	}
	return c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
