// Package fixedpoint implements 17.14 signed fixed-point arithmetic, the
// representation the MLFQ scheduler uses for recent_cpu and load_avg so that
// the kernel never touches a floating-point register.
//
// A Fixed is a plain int64 whose low 14 bits are the fractional part. Only
// the operations the scheduler actually needs are provided; this is not a
// general-purpose decimal type.
package fixedpoint
