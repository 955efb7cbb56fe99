// Package assembler turns a decoded data frame's spokes into one
// RadarSector, computing its angular span and — via the angular-speed
// estimator — its scan_time and time_increment. Grounded on
// internal/lidar/l2frames.FrameBuilder's accumulate-then-emit shape,
// simplified to this domain's one-frame-one-sector cardinality (§4.3).
package assembler

import (
	"math"
	"time"

	"github.com/banshee-data/haloradar/internal/haloradar/estimator"
	"github.com/banshee-data/haloradar/internal/haloradar/wire"
)

const twoPi = 2 * math.Pi

// RadarSector is a collated, evenly-angular-spaced window of N consecutive
// spokes, per §3.
type RadarSector struct {
	FrameID string // SUPPLEMENTED from original_source; defaults to "radar"

	Stamp           time.Time
	AngleStart      float64 // radians, [0, 2π)
	AngleIncrement  float64 // radians; negative when raw angle units increase (CW sweep)
	RangeMin        float64
	RangeMax        float64
	Intensities     [][1024]float32 // normalised [0,1], len == len(spokes)
	ScanTime        time.Duration
	TimeIncrement   time.Duration
}

// angleUnitsToRadians converts the vendor's 0..4095 angle units (representing 0..2π,
// CW-increasing) into this driver's CCW-positive radian convention, per
// §4.3: angle_start = 2π*(360 - deg(x))/360.
func angleUnitsToRadians(units uint16) float64 {
	deg := 360.0 * float64(units) / float64(wire.SpokeAngleUnits)
	rad := twoPi * (360.0 - deg) / 360.0
	rad = math.Mod(rad, twoPi)
	if rad < 0 {
		rad += twoPi
	}
	return rad
}

// Assembler accumulates the spokes of one data frame into a RadarSector and
// feeds the angular-speed estimator. It is touched only by the
// data-receive goroutine — no locking (§5).
type Assembler struct {
	estimator *estimator.Estimator
	frameID   string
	now       func() time.Time
}

// New returns an Assembler driving est and tagging every produced sector
// with frameID (defaults to "radar" if empty, matching original_source).
func New(est *estimator.Estimator, frameID string) *Assembler {
	if frameID == "" {
		frameID = "radar"
	}
	return &Assembler{estimator: est, frameID: frameID, now: time.Now}
}

// AddFrame builds the RadarSector for one data frame's spokes. An empty
// slice yields (nil, false) — nothing to publish.
func (a *Assembler) AddFrame(spokes []wire.Spoke) (*RadarSector, bool) {
	if len(spokes) == 0 {
		return nil, false
	}

	angleStart := angleUnitsToRadians(spokes[0].Angle)
	angleEnd := angleUnitsToRadians(spokes[len(spokes)-1].Angle)

	var increment float64
	if len(spokes) > 1 {
		if angleEnd > angleStart && angleEnd-angleStart > math.Pi {
			angleEnd -= twoPi
		}
		increment = (angleEnd - angleStart) / float64(len(spokes)-1)
	}

	intensities := make([][1024]float32, len(spokes))
	for i, sp := range spokes {
		var f [1024]float32
		for j, v := range sp.Intensities {
			f[j] = float32(v) / 15.0
		}
		intensities[i] = f
	}

	stamp := a.now()
	angularSpeed := a.estimator.Update(stamp, angleStart)

	var scanTime, timeIncrement time.Duration
	if angularSpeed != 0 {
		scanTimeSecs := twoPi / math.Abs(angularSpeed)
		scanTime = time.Duration(scanTimeSecs * float64(time.Second))
		// §9: the original divides by scan_time, not by (K-1), giving a
		// per-radian rather than per-spoke duration. Preserved verbatim.
		timeIncrement = time.Duration(math.Abs(increment) / scanTimeSecs * float64(time.Second))
	}

	return &RadarSector{
		FrameID:        a.frameID,
		Stamp:          stamp,
		AngleStart:     angleStart,
		AngleIncrement: increment,
		RangeMin:       0,
		RangeMax:       spokes[0].RangeMeters,
		Intensities:    intensities,
		ScanTime:       scanTime,
		TimeIncrement:  timeIncrement,
	}, true
}
