package wire

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// commandKind distinguishes how EncodeCommand validates and serialises a
// control's value.
type commandKind int

const (
	kindEnum commandKind = iota
	kindFloat
	kindFloatWithAuto
)

type commandSpec struct {
	header  []byte
	kind    commandKind
	codes   map[string]uint8 // enum value -> vendor code, kindEnum only
	min     float64
	max     float64
	scale   float64 // multiply a float value by this before truncating to the wire integer
	intSize int     // 1, 2, or 4 byte little-endian integer payload, kindFloat only
}

func invert(m map[uint8]string) map[string]uint8 {
	out := make(map[string]uint8, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// commandTable is the fixed switch §4.1 calls for: one entry per name in
// §6's schema. Header bytes are this driver's assumed per-control command
// opcode, consistent with original_source's sendCommand("status","transmit")
// → 0xC1 0x01 example.
var commandTable = map[string]commandSpec{
	"status":      {header: []byte{0xC1}, kind: kindEnum, codes: map[string]uint8{"standby": 0x00, "transmit": 0x01}},
	"range":       {header: []byte{0x03, 0xC1}, kind: kindFloat, min: 25, max: 75000, scale: 0.1, intSize: 4},
	"mode":        {header: []byte{0x01, 0xC1}, kind: kindEnum, codes: invert(modeNames)},
	"sea_state":   {header: []byte{0x12, 0xC1}, kind: kindEnum, codes: invert(seaStates)},
	"lights":      {header: []byte{0x09, 0xC1}, kind: kindEnum, codes: invert(lowMedHigh)},
	"scan_speed":  {header: []byte{0x0A, 0xC1}, kind: kindEnum, codes: invert(scanSpeeds)},
	"doppler_mode": {header: []byte{0x0B, 0xC1}, kind: kindEnum, codes: invert(dopplerModes)},

	"noise_rejection":         {header: []byte{0x21, 0xC1}, kind: kindEnum, codes: invert(lowMedHigh)},
	"target_expansion":        {header: []byte{0x22, 0xC1}, kind: kindEnum, codes: invert(lowMedHigh)},
	"interference_rejection":  {header: []byte{0x23, 0xC1}, kind: kindEnum, codes: invert(lowMedHigh)},
	"target_separation":       {header: []byte{0x24, 0xC1}, kind: kindEnum, codes: invert(lowMedHigh)},

	"bearing_alignment":     {header: []byte{0x05, 0xC1}, kind: kindFloat, min: 0, max: 360, scale: 10, intSize: 2},
	"antenna_height":        {header: []byte{0x30, 0xC1}, kind: kindFloat, min: 0, max: 30.175, scale: 1000, intSize: 2},
	"doppler_speed":         {header: []byte{0x31, 0xC1}, kind: kindFloat, min: 0.05, max: 15.95, scale: 100, intSize: 2},
	"rain_clutter":          {header: []byte{0x32, 0xC1}, kind: kindFloat, min: 0, max: 100, scale: 1, intSize: 1},
	"auto_sea_clutter_nudge": {header: []byte{0x33, 0xC1}, kind: kindFloat, min: -50, max: 50, scale: 1, intSize: 1},

	"gain":                      {header: []byte{0x06, 0xC1}, kind: kindFloatWithAuto, min: 0, max: 100},
	"gain_mode":                 {header: []byte{0x06, 0xC1}, kind: kindFloatWithAuto, min: 0, max: 100},
	"sea_clutter":               {header: []byte{0x07, 0xC1}, kind: kindFloatWithAuto, min: 0, max: 100},
	"sea_clutter_mode":          {header: []byte{0x07, 0xC1}, kind: kindFloatWithAuto, min: 0, max: 100},
	"sidelobe_suppression":      {header: []byte{0x08, 0xC1}, kind: kindFloatWithAuto, min: 0, max: 100},
	"sidelobe_suppression_mode": {header: []byte{0x08, 0xC1}, kind: kindFloatWithAuto, min: 0, max: 100},
}

// EncodeCommand synthesises a command-port datagram for (name, value) per
// the fixed table in §4.1. An unrecognised name returns ErrUnknownControl;
// an out-of-range numeric value returns ErrRangeError and no bytes — the
// caller must not send anything in that case, per §7.
func EncodeCommand(name, value string) ([]byte, error) {
	spec, ok := commandTable[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownControl)
	}

	switch spec.kind {
	case kindEnum:
		code, ok := spec.codes[value]
		if !ok {
			return nil, fmt.Errorf("%s: value %q: %w", name, value, ErrUnknownControl)
		}
		return append(append([]byte{}, spec.header...), code), nil

	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, ErrRangeError)
		}
		if f < spec.min || f > spec.max {
			return nil, fmt.Errorf("%s: %v outside [%v,%v]: %w", name, f, spec.min, spec.max, ErrRangeError)
		}
		return append(append([]byte{}, spec.header...), encodeScaledInt(f, spec.scale, spec.intSize)...), nil

	case kindFloatWithAuto:
		// name ends in "_mode" when the caller is toggling auto/manual
		// rather than setting a magnitude.
		isModeControl := len(name) > 5 && name[len(name)-5:] == "_mode"
		if isModeControl {
			switch value {
			case "auto":
				return append(append([]byte{}, spec.header...), 0x00, 0x01), nil
			case "manual":
				return append(append([]byte{}, spec.header...), 0x00, 0x00), nil
			default:
				return nil, fmt.Errorf("%s: value %q: %w", name, value, ErrUnknownControl)
			}
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, ErrRangeError)
		}
		if f < spec.min || f > spec.max {
			return nil, fmt.Errorf("%s: %v outside [%v,%v]: %w", name, f, spec.min, spec.max, ErrRangeError)
		}
		return append(append([]byte{}, spec.header...), uint8(f), 0x00), nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnknownControl)
}

func encodeScaledInt(f, scale float64, size int) []byte {
	v := uint32(f * scale)
	buf := make([]byte, size)
	switch size {
	case 1:
		buf[0] = uint8(v)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf, v)
	}
	return buf
}
