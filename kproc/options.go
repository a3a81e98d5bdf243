package kproc

import "github.com/joeycumines/pintos-go/klog"

// managerOptions holds configuration applied by NewManager's Option
// arguments, mirroring kthread's own Option pattern.
type managerOptions struct {
	log    *klog.Logger
	onFork func(parent, child *Process)
}

// Option configures a Manager instance.
type Option interface {
	applyManager(*managerOptions)
}

type optionImpl struct {
	fn func(*managerOptions)
}

func (o *optionImpl) applyManager(opts *managerOptions) { o.fn(opts) }

// WithLogger sets the structured logger used for process lifecycle
// diagnostics; one record is written per process exit. Defaults to a no-op
// logger.
func WithLogger(log *klog.Logger) Option {
	return &optionImpl{func(opts *managerOptions) { opts.log = log }}
}

// WithOnFork installs a hook run synchronously inside Fork, after the child
// Process record exists and its FD table has been duplicated but before the
// child thread is dispatchable. It lets a virtual-memory layer (which
// kproc does not import, to keep that edge one-directional) copy the
// parent's supplemental page table into the child's address space.
func WithOnFork(fn func(parent, child *Process)) Option {
	return &optionImpl{func(opts *managerOptions) { opts.onFork = fn }}
}

func resolveOptions(opts []Option) *managerOptions {
	cfg := &managerOptions{log: klog.Nop()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyManager(cfg)
	}
	return cfg
}
