package wire

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// StateUpdate is one (name, value) pair extracted from a report frame and
// destined for the StateMap.
type StateUpdate struct {
	Name  string
	Value string
}

// reportID identifies a report's fixed layout. Navico reports are two bytes
// on the wire, little-endian id then a constant 0xC4 class byte — written
// here as the spec's "01C4" style hex pair for readability.
type reportID [2]byte

func (r reportID) String() string { return fmt.Sprintf("%02X%02X", r[0], r[1]) }

var (
	reportStatus      = reportID{0x01, 0xC4}
	reportRangeGain   = reportID{0x02, 0xC4}
	reportBearing     = reportID{0x03, 0xC4}
	reportRejection   = reportID{0x04, 0xC4}
	reportDoppler     = reportID{0x06, 0xC4}
	reportSidelobe    = reportID{0x08, 0xC4}
	reportModeAndSea  = reportID{0x12, 0xC4}
)

type reportDecoder func([]byte) ([]StateUpdate, error)

// reportTable is the closed, documented set of report ids §4.1 calls for.
// Field offsets are this driver's best captured mapping; unknown ids fall
// through to ErrUnknownReport rather than guessing.
var reportTable = map[reportID]reportDecoder{
	reportStatus:     decodeStatusReport,
	reportRangeGain:  decodeRangeGainReport,
	reportBearing:    decodeBearingReport,
	reportRejection:  decodeRejectionReport,
	reportDoppler:    decodeDopplerReport,
	reportSidelobe:   decodeSidelobeReport,
	reportModeAndSea: decodeModeAndSeaReport,
}

// DecodeReportFrame dispatches a report-port datagram on its 2-byte id.
// An id outside the closed table returns ErrUnknownReport; the caller logs
// and skips per §4.1 — this is not a fatal condition.
func DecodeReportFrame(b []byte) ([]StateUpdate, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("report id: %w", ErrFrameTooShort)
	}
	id := reportID{b[0], b[1]}
	decode, ok := reportTable[id]
	if !ok {
		return nil, fmt.Errorf("report id %s: %w", id, ErrUnknownReport)
	}
	return decode(b)
}

var statusNames = map[uint8]string{0: "standby", 1: "transmit", 2: "spinning_up", 3: "unknown"}

func decodeStatusReport(b []byte) ([]StateUpdate, error) {
	const want = 3
	if len(b) < want {
		return nil, fmt.Errorf("status report: %w", ErrFrameTooShort)
	}
	name, ok := statusNames[b[2]]
	if !ok {
		name = "unknown"
	}
	return []StateUpdate{{Name: "status", Value: name}}, nil
}

func decodeRangeGainReport(b []byte) ([]StateUpdate, error) {
	const want = 12
	if len(b) < want {
		return nil, fmt.Errorf("range/gain report: %w", ErrFrameTooShort)
	}
	rangeMeters := float64(binary.LittleEndian.Uint32(b[2:6])) / 10
	gain := b[6]
	gainAuto := b[7] != 0
	seaClutter := b[8]
	seaClutterAuto := b[9] != 0
	rainClutter := b[10]
	nudge := int8(b[11])

	return []StateUpdate{
		{Name: "range", Value: strconv.FormatFloat(rangeMeters, 'f', -1, 64)},
		{Name: "gain", Value: strconv.Itoa(int(gain))},
		{Name: "gain_mode", Value: boolToMode(gainAuto)},
		{Name: "sea_clutter", Value: strconv.Itoa(int(seaClutter))},
		{Name: "sea_clutter_mode", Value: boolToMode(seaClutterAuto)},
		{Name: "rain_clutter", Value: strconv.Itoa(int(rainClutter))},
		{Name: "auto_sea_clutter_nudge", Value: strconv.Itoa(int(nudge))},
	}, nil
}

func decodeBearingReport(b []byte) ([]StateUpdate, error) {
	const want = 6
	if len(b) < want {
		return nil, fmt.Errorf("bearing report: %w", ErrFrameTooShort)
	}
	bearing := float64(binary.LittleEndian.Uint16(b[2:4])) / 10
	heightCM := binary.LittleEndian.Uint16(b[4:6])
	return []StateUpdate{
		{Name: "bearing_alignment", Value: strconv.FormatFloat(bearing, 'f', -1, 64)},
		{Name: "antenna_height", Value: strconv.FormatFloat(float64(heightCM)/100, 'f', -1, 64)},
	}, nil
}

var lowMedHigh = map[uint8]string{0: "off", 1: "low", 2: "medium", 3: "high"}

func decodeRejectionReport(b []byte) ([]StateUpdate, error) {
	const want = 6
	if len(b) < want {
		return nil, fmt.Errorf("rejection report: %w", ErrFrameTooShort)
	}
	return []StateUpdate{
		{Name: "noise_rejection", Value: lowMedHigh[b[2]]},
		{Name: "target_expansion", Value: lowMedHigh[b[3]]},
		{Name: "interference_rejection", Value: lowMedHigh[b[4]]},
		{Name: "target_separation", Value: lowMedHigh[b[5]]},
	}, nil
}

var dopplerModes = map[uint8]string{0: "off", 1: "normal", 2: "approaching_only"}

func decodeDopplerReport(b []byte) ([]StateUpdate, error) {
	const want = 5
	if len(b) < want {
		return nil, fmt.Errorf("doppler report: %w", ErrFrameTooShort)
	}
	speed := float64(binary.LittleEndian.Uint16(b[3:5])) / 100
	return []StateUpdate{
		{Name: "doppler_mode", Value: dopplerModes[b[2]]},
		{Name: "doppler_speed", Value: strconv.FormatFloat(speed, 'f', -1, 64)},
	}, nil
}

var scanSpeeds = map[uint8]string{0: "off", 1: "medium", 2: "high"}

func decodeSidelobeReport(b []byte) ([]StateUpdate, error) {
	const want = 7
	if len(b) < want {
		return nil, fmt.Errorf("sidelobe report: %w", ErrFrameTooShort)
	}
	return []StateUpdate{
		{Name: "sidelobe_suppression", Value: strconv.Itoa(int(b[2]))},
		{Name: "sidelobe_suppression_mode", Value: boolToMode(b[3] != 0)},
		{Name: "scan_speed", Value: scanSpeeds[b[4]]},
		{Name: "lights", Value: lowMedHigh[b[5]]},
	}, nil
}

var modeNames = map[uint8]string{0: "custom", 1: "harbor", 2: "offshore", 3: "weather", 4: "bird"}
var seaStates = map[uint8]string{0: "calm", 1: "moderate", 2: "rough"}

func decodeModeAndSeaReport(b []byte) ([]StateUpdate, error) {
	const want = 4
	if len(b) < want {
		return nil, fmt.Errorf("mode/sea-state report: %w", ErrFrameTooShort)
	}
	return []StateUpdate{
		{Name: "mode", Value: modeNames[b[2]]},
		{Name: "sea_state", Value: seaStates[b[3]]},
	}, nil
}

func boolToMode(auto bool) string {
	if auto {
		return "auto"
	}
	return "manual"
}
