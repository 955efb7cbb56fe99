// Package estimator implements the one-dimensional Kalman filter that turns
// timestamped antenna-angle observations into an angular-speed estimate,
// ported verbatim from the original_source angular_speed_estimator.h
// (including its non-textbook prediction_variance recursion — see §9).
package estimator

import "time"

// measurementVariance and processNoiseVariance are the filter's fixed
// noise constants, taken directly from the C++ original: 0.045^2 and
// 0.0015^2 respectively.
const (
	measurementVariance   = 0.045 * 0.045
	processNoiseVariance  = 0.0015 * 0.0015
	maxMeasurementGap     = 450 * time.Millisecond
	measurementBufferSpan = 750 * time.Millisecond
)

// observation is one (time, angle) sample in the sliding window.
type observation struct {
	t     time.Time
	angle float64
}

// Estimator is a single-instance scalar Kalman filter over a sliding window
// of angle observations. It is touched only by one goroutine per §5 (the
// data-receive loop) and carries no internal locking.
type Estimator struct {
	window []observation

	AngularSpeed         float64
	Variance             float64
	PredictionVariance   float64
	PredictionError      float64
	MeasuredAngularSpeed float64
}

// New returns a freshly reset Estimator: Variance = 1, everything else 0.
func New() *Estimator {
	e := &Estimator{}
	e.reset()
	return e
}

func (e *Estimator) reset() {
	e.window = e.window[:0]
	e.AngularSpeed = 0
	e.Variance = 1
	e.PredictionVariance = 0
}

// Update feeds a new (t, angle) observation and returns the current angular
// speed estimate in radians/second. angle must be in [0, 2π). t must be
// monotonic (time.Time values from the same clock source).
//
// If the previous observation is ≥0.45s old, the window is reset and this
// call returns 0 (§7's EstimatorReset, observable only as this output).
func (e *Estimator) Update(t time.Time, angle float64) float64 {
	if len(e.window) > 0 {
		last := e.window[len(e.window)-1]
		if !(t.After(last.t) && t.Sub(last.t) < maxMeasurementGap) {
			e.reset()
			e.window = append(e.window, observation{t: t, angle: angle})
			return 0
		}
	}

	// Evict samples older than the 0.75s buffer span.
	cut := 0
	for cut < len(e.window) && t.Sub(e.window[cut].t) > measurementBufferSpan {
		cut++
	}
	if cut > 0 {
		e.window = e.window[cut:]
	}

	if len(e.window) > 0 {
		e.step(t, angle)
	}

	e.window = append(e.window, observation{t: t, angle: angle})
	return e.AngularSpeed
}

// step runs one Kalman predict/update cycle using the current window,
// mirroring angular_speed_estimator.h's update() body line for line.
func (e *Estimator) step(t time.Time, angle float64) {
	last := e.window[len(e.window)-1]
	front := e.window[0]

	positive := angle > last.angle
	if diff := angle - last.angle; absf(diff) > pi {
		positive = !positive
	}

	delta := angle - front.angle
	if positive && delta < 0 {
		delta += twoPi
	}
	if !positive && delta > 0 {
		delta -= twoPi
	}

	dt := t.Sub(front.t).Seconds()
	if dt <= 0 {
		dt = 1e-6
	}
	e.MeasuredAngularSpeed = delta / dt

	factor := e.PredictionVariance / measurementVariance
	predictedVariance := e.Variance + processNoiseVariance*factor
	k := predictedVariance / (predictedVariance + measurementVariance)

	e.PredictionError = e.MeasuredAngularSpeed - e.AngularSpeed
	e.PredictionVariance = k*e.PredictionVariance + (1-k)*e.PredictionError*e.PredictionError
	e.AngularSpeed += k * e.PredictionError
	e.Variance = (1 - k) * predictedVariance
}

const pi = 3.14159265358979323846
const twoPi = 2 * pi

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
