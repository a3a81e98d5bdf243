// Package kerrors defines the error-kind taxonomy shared by every kernel
// package: OutOfResource, InvalidArgument, Protection, NotFound, and
// DeadThread. Each kind is both a sentinel (for errors.Is) and a typed error
// carrying a Cause (for errors.Unwrap), in the style of a typed
// sentinel-error package built for a concurrent event loop.
package kerrors
