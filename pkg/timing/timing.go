package timing

import "time"

// Result pairs the value produced by a measured operation with how long it took.
type Result[T any] struct {
	Value   T
	Elapsed time.Duration
}

// Seconds returns the elapsed wall-clock time in fractional seconds.
func (r Result[T]) Seconds() float64 {
	return r.Elapsed.Seconds()
}

// Measure runs fn and reports its wall-clock duration alongside its result.
// The error from fn is returned as is; Elapsed is set either way.
func Measure[T any](fn func() (T, error)) (Result[T], error) {
	start := time.Now()
	v, err := fn()
	return Result[T]{Value: v, Elapsed: time.Since(start)}, err
}

// MeasureErr is Measure for operations that only return an error.
func MeasureErr(fn func() error) (time.Duration, error) {
	res, err := Measure(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return res.Elapsed, err
}
