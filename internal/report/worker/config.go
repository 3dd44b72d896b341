package worker

import "time"

// Config controls the scheduled signup report loop.
type Config struct {
	// Interval between reports. Zero disables the worker.
	Interval time.Duration
	// Lookback bounds the first window after a restart.
	Lookback time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval: 0,
		Lookback: 7 * 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	if c.Lookback <= 0 {
		c.Lookback = DefaultConfig().Lookback
	}
	return c
}
