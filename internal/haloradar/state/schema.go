package state

// ControlKind distinguishes how a schema entry is rendered into a
// ControlItem, per §3/§4.5.
type ControlKind int

const (
	Enum ControlKind = iota
	Float
	FloatWithAuto
)

// schemaEntry is one row of the fixed, ordered control schema walked on
// every heartbeat tick (§4.5). ModeName is only meaningful for
// FloatWithAuto entries.
type schemaEntry struct {
	Name       string
	Label      string
	Kind       ControlKind
	Min        float64
	Max        float64
	EnumValues []string
	ModeName   string
}

// Schema is the fixed, ordered control enumeration from §6. Order here is
// the order ControlSet items are emitted in.
var Schema = []schemaEntry{
	{Name: "status", Label: "Status", Kind: Enum, EnumValues: []string{"standby", "transmit"}},
	{Name: "range", Label: "Range", Kind: Float, Min: 25, Max: 75000},
	{Name: "bearing_alignment", Label: "Bearing alignment", Kind: Float, Min: 0, Max: 360},
	{Name: "gain", Label: "Gain", Kind: FloatWithAuto, Min: 0, Max: 100, ModeName: "gain_mode"},
	{Name: "sea_clutter", Label: "Sea clutter", Kind: FloatWithAuto, Min: 0, Max: 100, ModeName: "sea_clutter_mode"},
	{Name: "auto_sea_clutter_nudge", Label: "Auto sea clut adj", Kind: Float, Min: -50, Max: 50},
	{Name: "sea_state", Label: "Sea state", Kind: Enum, EnumValues: []string{"calm", "moderate", "rough"}},
	{Name: "rain_clutter", Label: "Rain clutter", Kind: Float, Min: 0, Max: 100},
	{Name: "mode", Label: "Mode", Kind: Enum, EnumValues: []string{"custom", "harbor", "offshore", "weather", "bird"}},
	{Name: "noise_rejection", Label: "Noise rejection", Kind: Enum, EnumValues: lowMedHighSchema},
	{Name: "target_expansion", Label: "Target expansion", Kind: Enum, EnumValues: lowMedHighSchema},
	{Name: "interference_rejection", Label: "Interf. rej", Kind: Enum, EnumValues: lowMedHighSchema},
	{Name: "target_separation", Label: "Target separation", Kind: Enum, EnumValues: lowMedHighSchema},
	{Name: "scan_speed", Label: "Fast scan", Kind: Enum, EnumValues: []string{"off", "medium", "high"}},
	{Name: "doppler_mode", Label: "VelocityTrack", Kind: Enum, EnumValues: []string{"off", "normal", "approaching_only"}},
	{Name: "doppler_speed", Label: "Speed threshold", Kind: Float, Min: 0.05, Max: 15.95},
	{Name: "antenna_height", Label: "Antenna height", Kind: Float, Min: 0, Max: 30.175},
	{Name: "sidelobe_suppression", Label: "Sidelobe sup.", Kind: FloatWithAuto, Min: 0, Max: 100, ModeName: "sidelobe_suppression_mode"},
	{Name: "lights", Label: "Halo light", Kind: Enum, EnumValues: lowMedHighSchema},
}

var lowMedHighSchema = []string{"off", "low", "medium", "high"}
