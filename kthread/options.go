package kthread

import (
	"github.com/joeycumines/pintos-go/kconfig"
	"github.com/joeycumines/pintos-go/klog"
)

// schedulerOptions holds configuration applied by New's Option arguments.
type schedulerOptions struct {
	log       *klog.Logger
	priMin    int
	priMax    int
	timeSlice int
	timerFreq int
	mlfqs     bool
	donation  DonationSource
}

// Option configures a Scheduler instance.
type Option interface {
	applyScheduler(*schedulerOptions)
}

type optionImpl struct {
	fn func(*schedulerOptions)
}

func (o *optionImpl) applyScheduler(opts *schedulerOptions) { o.fn(opts) }

// WithLogger sets the structured logger used for scheduling diagnostics.
// Defaults to a no-op logger.
func WithLogger(log *klog.Logger) Option {
	return &optionImpl{func(opts *schedulerOptions) { opts.log = log }}
}

// WithPriorityRange overrides PriMin/PriMax from kconfig's defaults.
func WithPriorityRange(min, max int) Option {
	return &optionImpl{func(opts *schedulerOptions) {
		opts.priMin = min
		opts.priMax = max
	}}
}

// WithTimeSlice overrides the number of ticks a thread runs before a forced
// round-robin yield.
func WithTimeSlice(ticks int) Option {
	return &optionImpl{func(opts *schedulerOptions) { opts.timeSlice = ticks }}
}

// WithTimerFrequency records the number of ticks per second. The Scheduler
// stores the value but does not read it: SecondTick runs whenever the
// caller invokes it.
func WithTimerFrequency(hz int) Option {
	return &optionImpl{func(opts *schedulerOptions) { opts.timerFreq = hz }}
}

// WithMLFQS selects the multi-level feedback queue governor in place of
// priority donation, the Go-idiomatic stand-in for booting
// with "-o mlfqs".
func WithMLFQS(enabled bool) Option {
	return &optionImpl{func(opts *schedulerOptions) { opts.mlfqs = enabled }}
}

// WithDonationSource wires the priority-donation engine in at construction
// time; equivalent to calling Scheduler.SetDonationSource afterward.
func WithDonationSource(ds DonationSource) Option {
	return &optionImpl{func(opts *schedulerOptions) { opts.donation = ds }}
}

func resolveOptions(opts []Option) *schedulerOptions {
	cfg := &schedulerOptions{
		log:       klog.Nop(),
		priMin:    kconfig.PriMin,
		priMax:    kconfig.PriMax,
		timeSlice: kconfig.TimeSlice,
		timerFreq: kconfig.TimerFreq,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyScheduler(cfg)
	}
	return cfg
}
