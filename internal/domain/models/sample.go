package models

// Field names follow the sensor schema the model artifacts were trained on.
// The inference feature order itself is owned by the artifact, not by this list.
const (
	FieldTemp       = "Temp"
	FieldTurbidity  = "Turbidity (cm)"
	FieldDO         = "DO(mg/L)"
	FieldBOD        = "BOD (mg/L)"
	FieldCO2        = "CO2"
	FieldPH         = "pH"
	FieldAlkalinity = "Alkalinity (mg L-1 )"
	FieldHardness   = "Hardness (mg L-1 )"
	FieldCalcium    = "Calcium (mg L-1 )"
	FieldAmmonia    = "Ammonia (mg L-1 )"
	FieldNitrite    = "Nitrite (mg L-1 )"
	FieldPhosphorus = "Phosphorus (mg L-1 )"
	FieldH2S        = "H2S (mg L-1 )"
	FieldPlankton   = "Plankton (No. L-1)"

	// Operational fields consumed by the decision engine only. Turbidity here
	// is the NTU reading from the pond controller, not the secchi depth above.
	FieldTurbidityNTU = "Turbidity"
	FieldEnergyEff    = "EnergyEfficiency"
	FieldLaborEff     = "LaborEfficiency"
	FieldPendingTasks = "PendingTasks"
)

// SensorSample is one telemetry reading from a pond. Fields is sparse: any
// sensor may be absent from a given reading. Samples are immutable once built.
type SensorSample struct {
	PondID    string
	Timestamp int64 // epoch seconds
	Fields    map[string]float64
}

// Get returns the named field and whether it was reported.
func (s *SensorSample) Get(name string) (float64, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

// GetOr returns the named field or def when absent.
func (s *SensorSample) GetOr(name string, def float64) float64 {
	if v, ok := s.Fields[name]; ok {
		return v
	}
	return def
}
