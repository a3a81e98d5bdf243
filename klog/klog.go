package klog

import (
	"io"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Logger is the concrete logger type every kernel package accepts, a
// logiface.Logger instantiated with the zerolog event adapter.
type Logger = logiface.Logger[*izerolog.Event]

// New builds a Logger writing zerolog-formatted records to w at the given
// minimum level.
func New(w io.Writer, level logiface.Level) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger()
	return logiface.New[*izerolog.Event](
		izerolog.WithZerolog(zl),
		logiface.WithLevel[*izerolog.Event](level),
	)
}

// Nop returns a Logger that discards everything, the default used by
// constructors that accept a WithLogger option which the caller omits.
func Nop() *Logger {
	return logiface.New[*izerolog.Event]()
}
