package wire

import (
	"encoding/binary"
	"fmt"
)

// rangeCorrectionFactor scales the decoded range code to meters, matching
// original_source's m_rangeCorrectionFactor default of 1.024.
const rangeCorrectionFactor = 1.024

// invalidHeading is the heading sentinel the radar transmits when no
// heading input is available.
const invalidHeading = 0x8000

// SpokeAngleUnits is the number of angle units in one full revolution. The
// vendor encodes 4096 spokes/turn but Halo only transmits every other one;
// the codec normalises everything to this 0..4095 space regardless.
const SpokeAngleUnits = 4096

// dataFrameHeaderLen is the fixed header preceding the K spokes in a data
// frame: a 2-byte frame-type tag followed by a 2-byte little-endian spoke
// count.
const dataFrameHeaderLen = 4

// intensityBytes is the packed size of 1024 4-bit samples, low nibble
// first.
const intensityBytes = 1024 / 2

// spokeWireLen is one spoke's encoding: status, scan number, two range
// codes, angle, heading, then the packed intensity payload.
const spokeWireLen = 1 + 2 + 1 + 1 + 2 + 2 + intensityBytes

// Spoke is a single rotational sample, per §3.
type Spoke struct {
	Angle       uint16 // 0..4095, normalised units (see SpokeAngleUnits)
	Heading     *uint16
	RangeMeters float64
	Intensities [1024]byte // raw 4-bit samples, 0..15
}

// rangeCodeTable maps the vendor's large range code to a base range in
// metres before the 1.024 correction factor is applied. This is
// the "documented closed set" §4.1 requires: populated from captured Halo
// frames, not derived algorithmically, since the vendor does not publish
// the mapping. Codes outside the table fall back to the small-range code
// scaled directly, which matches observed behaviour on short ranges.
var rangeCodeTable = map[uint8]float64{
	0x01: 57.5,
	0x02: 115,
	0x03: 231,
	0x04: 347,
	0x05: 462,
	0x06: 693,
	0x07: 924,
	0x08: 1157,
	0x09: 1385,
	0x0A: 1851,
	0x0B: 2311,
	0x0C: 2826,
	0x0D: 3704,
	0x0E: 4628,
	0x0F: 5766,
	0x10: 9252,
	0x11: 14816,
	0x12: 23104,
	0x13: 37038,
	0x14: 46208,
}

// decodeRange converts the large/small range-code pair into metres,
// applying the fixed correction factor.
func decodeRange(large, small uint8) float64 {
	base, ok := rangeCodeTable[large]
	if !ok {
		base = float64(small)
	}
	return base * rangeCorrectionFactor
}

// DecodeDataFrame parses a UDP datagram from the data port into its
// constituent spokes. Malformed frames (too short, wrong intensity length)
// return ErrFrameTooShort / ErrBadIntensityLength; the session drops such a
// datagram and passes the error to its OnNetErr handler (no decode counter
// is kept). This function never panics on truncated input.
func DecodeDataFrame(b []byte) ([]Spoke, error) {
	if len(b) < dataFrameHeaderLen {
		return nil, fmt.Errorf("data frame header: %w", ErrFrameTooShort)
	}
	count := int(binary.LittleEndian.Uint16(b[2:4]))
	need := dataFrameHeaderLen + count*spokeWireLen
	if len(b) < need {
		return nil, fmt.Errorf("data frame body (want %d spokes, %d bytes): %w", count, need, ErrFrameTooShort)
	}

	spokes := make([]Spoke, count)
	off := dataFrameHeaderLen
	for i := 0; i < count; i++ {
		s, err := decodeSpoke(b[off : off+spokeWireLen])
		if err != nil {
			return nil, fmt.Errorf("spoke %d: %w", i, err)
		}
		spokes[i] = s
		off += spokeWireLen
	}
	return spokes, nil
}

func decodeSpoke(b []byte) (Spoke, error) {
	if len(b) != spokeWireLen {
		return Spoke{}, fmt.Errorf("spoke length %d, want %d: %w", len(b), spokeWireLen, ErrFrameTooShort)
	}
	// b[0] status byte, b[1:3] scan number — carried in the wire format but
	// not part of the Spoke the assembler needs.
	largeRange := b[3]
	smallRange := b[4]
	angle := binary.LittleEndian.Uint16(b[5:7]) % SpokeAngleUnits
	rawHeading := binary.LittleEndian.Uint16(b[7:9])

	packed := b[9 : 9+intensityBytes]
	if len(packed) != intensityBytes {
		return Spoke{}, ErrBadIntensityLength
	}

	var out Spoke
	out.Angle = angle
	out.RangeMeters = decodeRange(largeRange, smallRange)
	if rawHeading != invalidHeading {
		h := rawHeading % SpokeAngleUnits
		out.Heading = &h
	}
	for i, pb := range packed {
		out.Intensities[2*i] = pb & 0x0F
		out.Intensities[2*i+1] = pb >> 4
	}
	return out, nil
}
