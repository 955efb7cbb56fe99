package estimator

import (
	"math"
	"testing"
	"time"
)

func TestNew_InitialState(t *testing.T) {
	e := New()
	if e.Variance != 1 || e.PredictionVariance != 0 || e.AngularSpeed != 0 {
		t.Fatalf("New() = %+v, want Variance=1 PredictionVariance=0 AngularSpeed=0", e)
	}
}

func TestUpdate_ConvergesToConstantOmega(t *testing.T) {
	const omega = 3.0 // rad/s, |ω| <= 20 per §8
	const hz = 25.0
	const duration = 1.0 // seconds, >= 0.5s required

	e := New()
	start := time.Now()
	samples := int(duration * hz)
	var last float64
	for i := 0; i <= samples; i++ {
		dt := time.Duration(float64(i) / hz * float64(time.Second))
		angle := math.Mod(omega*float64(i)/hz, 2*math.Pi)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		last = e.Update(start.Add(dt), angle)
	}

	if math.Abs(last-omega)/omega > 0.01 {
		t.Errorf("angular speed = %v, want within 1%% of %v", last, omega)
	}
}

func TestUpdate_GapResetsWindow(t *testing.T) {
	e := New()
	start := time.Now()
	e.Update(start, 0.1)
	e.Update(start.Add(100*time.Millisecond), 0.2)

	// Gap >= 0.45s triggers a reset; the call itself returns 0.
	got := e.Update(start.Add(100*time.Millisecond+500*time.Millisecond), 0.3)
	if got != 0 {
		t.Fatalf("Update after gap = %v, want 0", got)
	}
	if e.Variance != 1 || e.PredictionVariance != 0 {
		t.Errorf("after reset Variance=%v PredictionVariance=%v, want 1 and 0", e.Variance, e.PredictionVariance)
	}
}

func TestUpdate_AngleWrapTreatedAsSmallPositiveStep(t *testing.T) {
	e := New()
	start := time.Now()
	angles := []float64{0, 0.1, 0.2, 0.3, 0.4, 2*math.Pi - 0.1, 0.1}
	var speeds []float64
	for i, a := range angles {
		speeds = append(speeds, e.Update(start.Add(time.Duration(i)*40*time.Millisecond), a))
	}
	last := speeds[len(speeds)-1]
	if last < 0 {
		t.Fatalf("angular speed after wrap = %v, want positive (small step, not large negative jump)", last)
	}
	if last > 2*math.Pi {
		t.Fatalf("angular speed after wrap = %v, implausibly large", last)
	}
}

func TestUpdate_GapThenReconverge(t *testing.T) {
	const omega = 6.28
	const hz = 25.0
	e := New()
	start := time.Now()

	for i := 0; i < 10; i++ {
		dt := time.Duration(float64(i) / hz * float64(time.Second))
		angle := math.Mod(omega*float64(i)/hz, 2*math.Pi)
		e.Update(start.Add(dt), angle)
	}

	resumeBase := start.Add(time.Duration(10 / hz * float64(time.Second))).Add(500 * time.Millisecond)
	firstPostPause := e.Update(resumeBase, 0)
	if firstPostPause != 0 {
		t.Fatalf("first post-pause update = %v, want 0", firstPostPause)
	}

	var last float64
	for i := 1; i <= int(hz); i++ {
		dt := time.Duration(float64(i) / hz * float64(time.Second))
		angle := math.Mod(omega*float64(i)/hz, 2*math.Pi)
		last = e.Update(resumeBase.Add(dt), angle)
	}
	if math.Abs(last-omega)/omega > 0.02 {
		t.Errorf("reconverged speed = %v, want near %v", last, omega)
	}
}
