package models

// Canonical threshold table. The historical codebase carried two divergent
// tables (DO critical_min appeared as both 3.0 and 4.0); these values are the
// adopted canon and every scorer tier reads them from here.
const (
	OptimalDOMin  = 5.5
	DOCriticalMin = 3.0

	AmmoniaWarn      = 0.2
	AmmoniaEmergency = 0.5
	AmmoniaSpan      = 0.8 // scaling span above AmmoniaWarn

	NitriteWarn   = 0.2
	TurbidityWarn = 8.0 // NTU, pond controller reading

	OptimalTempMin = 26.0
	OptimalTempMax = 30.0
	TempSpan       = 10.0

	OptimalPHMin = 7.5
	OptimalPHMax = 8.5

	EfficiencyWarn = 0.7
	EfficiencyLow  = 0.6

	// UrgentThreshold marks a pond for the urgent set during prioritization.
	UrgentThreshold = 0.7

	// MonitorThreshold is the floor below which no action is recommended.
	MonitorThreshold = 0.25
)
