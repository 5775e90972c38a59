package ptjpl

// Output field names shared by Result.Map, the table writer and the server.
const (
	KeyRnSoil         = "Rn_soil"
	KeyLESoil         = "LE_soil"
	KeyRnCanopy       = "Rn_canopy"
	KeyPET            = "PET"
	KeyLECanopy       = "LE_canopy"
	KeyLEInterception = "LE_interception"
	KeyLE             = "LE"
	KeyG              = "G"

	KeyRnDaylight   = "Rn_daylight"
	KeyLEDaylight   = "LE_daylight"
	KeyETDaylightKg = "ET_daylight_kg"
	KeyEF           = "EF"
)

// OutputKeys lists the instantaneous outputs in report order.
var OutputKeys = []string{
	KeyG, KeyRnSoil, KeyLESoil, KeyRnCanopy, KeyPET, KeyLECanopy, KeyLEInterception, KeyLE,
}

// Daylight holds the daily integrated outputs.
type Daylight struct {
	RnDaylight   Field // [W/m2]
	LEDaylight   Field // [W/m2]
	ETDaylightKg Field // [kg/m2]
	EF           Field // evaporative fraction
	Hours        Field // daylight hours
}

// Result is the output of one invocation.
type Result struct {
	Fluxes

	Rn       Field
	G        Field
	GDerived bool

	Constraints ConstraintBundle
	LAI         Field
	Epsilon     Field

	Daylight   *Daylight
	Resolution *Resolution
}

// Map returns the named output fields.
func (r *Result) Map() map[string]Field {
	m := map[string]Field{
		KeyRnSoil:         r.RnSoil,
		KeyLESoil:         r.LESoil,
		KeyRnCanopy:       r.RnCanopy,
		KeyPET:            r.PET,
		KeyLECanopy:       r.LECanopy,
		KeyLEInterception: r.LEInterception,
		KeyLE:             r.LE,
		KeyG:              r.G,
	}
	if d := r.Daylight; d != nil {
		m[KeyRnDaylight] = d.RnDaylight
		m[KeyLEDaylight] = d.LEDaylight
		m[KeyETDaylightKg] = d.ETDaylightKg
		m[KeyEF] = d.EF
	}
	return m
}
