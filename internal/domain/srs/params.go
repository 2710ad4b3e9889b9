package srs

import (
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Params defines all configurable parameters for the scheduler.
type Params struct {
	// Strength transition
	PassThreshold int

	// Latency tiers for correct answers (inclusive upper bounds)
	FastLatencyMs   int64
	MediumLatencyMs int64

	// Review interval for each strength level. Whole-day intervals are
	// truncated to a day boundary; anything else stays an exact instant.
	Intervals [domain.MaxStrength + 1]time.Duration

	// Session composition
	MaxSampleWeight int
	NewItemShare    float64
	TimePerItem     time.Duration

	// Reference timezone offset from UTC
	UTCOffset time.Duration
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	PassThreshold   int
	FastLatencyMs   int64
	MediumLatencyMs int64
	MaxSampleWeight int
	NewItemShare    float64
	SecondsPerItem  int

	// UTCOffsetHours is applied when UTCOffsetSet is true, so UTC itself can be chosen.
	UTCOffsetHours int
	UTCOffsetSet   bool
}

const day = 24 * time.Hour

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		PassThreshold: 3,

		FastLatencyMs:   2000,
		MediumLatencyMs: 5000,

		Intervals: [domain.MaxStrength + 1]time.Duration{
			4 * time.Hour,
			1 * day,
			3 * day,
			7 * day,
			14 * day,
			30 * day,
		},

		// Items wrong many times are capped so they cannot dominate a sample
		MaxSampleWeight: 10,

		// 3:1 new:review time budget
		NewItemShare: 0.75,
		TimePerItem:  30 * time.Second,

		UTCOffset: DefaultUTCOffset,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.PassThreshold > 0 {
		params.PassThreshold = config.PassThreshold
	}

	if config.FastLatencyMs > 0 {
		params.FastLatencyMs = config.FastLatencyMs
	}
	if config.MediumLatencyMs > 0 {
		params.MediumLatencyMs = config.MediumLatencyMs
	}
	if params.MediumLatencyMs < params.FastLatencyMs {
		params.MediumLatencyMs = params.FastLatencyMs
	}

	if config.MaxSampleWeight > 0 {
		params.MaxSampleWeight = config.MaxSampleWeight
	}
	if config.NewItemShare > 0 && config.NewItemShare <= 1 {
		params.NewItemShare = config.NewItemShare
	}
	if config.SecondsPerItem > 0 {
		params.TimePerItem = time.Duration(config.SecondsPerItem) * time.Second
	}

	if config.UTCOffsetSet {
		params.UTCOffset = time.Duration(config.UTCOffsetHours) * time.Hour
	}

	return params
}
