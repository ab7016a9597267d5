package decision

import (
	"fmt"

	"AquaWatch/internal/domain/models"
	"AquaWatch/pkg/util"
)

// observation is the merged view of one pond the scorers work from: measured
// sensor values where reported, ensemble estimates where not.
type observation struct {
	do      float64
	doKnown bool

	ammonia      float64
	ammoniaKnown bool

	temp      float64
	tempKnown bool

	ph      float64
	phKnown bool

	nitrite   float64
	turbidity float64

	energyEff      float64
	energyEffKnown bool
	laborEff       float64
	laborEffKnown  bool
	pendingTasks   int

	status models.QualityStatus
}

func observe(sample *models.SensorSample, preds *models.PredictionSet) observation {
	var o observation
	o.status = models.StatusUnknown

	if sample != nil {
		if v, ok := sample.Get(models.FieldDO); ok && v > 0 {
			o.do, o.doKnown = v, true
		}
		if v, ok := sample.Get(models.FieldAmmonia); ok {
			o.ammonia, o.ammoniaKnown = v, true
		}
		if v, ok := sample.Get(models.FieldTemp); ok {
			o.temp, o.tempKnown = v, true
		}
		if v, ok := sample.Get(models.FieldPH); ok {
			o.ph, o.phKnown = v, true
		}
		o.nitrite = sample.GetOr(models.FieldNitrite, 0)
		o.turbidity = sample.GetOr(models.FieldTurbidityNTU, 0)
		if v, ok := sample.Get(models.FieldEnergyEff); ok {
			o.energyEff, o.energyEffKnown = v, true
		}
		if v, ok := sample.Get(models.FieldLaborEff); ok {
			o.laborEff, o.laborEffKnown = v, true
		}
		o.pendingTasks = int(sample.GetOr(models.FieldPendingTasks, 0))
	}

	if preds != nil {
		// The ensemble output (fallback-corrected) stands in for missing
		// sensor readings.
		if !o.doKnown {
			o.do, o.doKnown = preds.Continuous.DO, true
		}
		if !o.ammoniaKnown {
			o.ammonia, o.ammoniaKnown = preds.Continuous.Ammonia, true
		}
		o.status = preds.Classification.Status()
	}

	return o
}

// scoreUrgency applies the canonical contribution table: one independently
// capped bump per violated condition, total clamped to [0,1].
func scoreUrgency(o observation) (float64, []string, []string) {
	var urgency float64
	var reasons, affected []string

	if w := o.status.UrgencyWeight(); w > 0 {
		urgency += w
		reasons = append(reasons, fmt.Sprintf("Water quality status: %s.", o.status))
		affected = append(affected, "Water Quality")
	}

	u2, r2, a2 := scoreSensorUrgency(o)
	urgency += u2
	reasons = append(reasons, r2...)
	affected = append(affected, a2...)

	if o.tempKnown && (o.temp < models.OptimalTempMin || o.temp > models.OptimalTempMax) {
		nearest := models.OptimalTempMin
		if o.temp > models.OptimalTempMax {
			nearest = models.OptimalTempMax
		}
		delta := o.temp - nearest
		if delta < 0 {
			delta = -delta
		}
		urgency += min64(0.3, delta/models.TempSpan*0.3)
		reasons = append(reasons, fmt.Sprintf("Temperature out of range (%.1f C).", o.temp))
		affected = append(affected, "Temperature")
	}

	if o.energyEffKnown && o.energyEff < models.EfficiencyWarn {
		urgency += min64(0.2, (models.EfficiencyWarn-o.energyEff)*0.4)
		reasons = append(reasons, fmt.Sprintf("Low energy efficiency (%.2f).", o.energyEff))
		affected = append(affected, "Energy Efficiency")
	}
	if o.laborEffKnown && o.laborEff < models.EfficiencyWarn {
		urgency += min64(0.2, (models.EfficiencyWarn-o.laborEff)*0.4)
		reasons = append(reasons, fmt.Sprintf("Low labor efficiency (%.2f).", o.laborEff))
		affected = append(affected, "Labor Efficiency")
	}

	return util.Clamp(urgency, 0, 1), reasons, dedupe(affected)
}

// scoreSensorUrgency covers the DO and ammonia contributions only. This is
// the whole of the minimal tier and a building block for the others.
func scoreSensorUrgency(o observation) (float64, []string, []string) {
	var urgency float64
	var reasons, affected []string

	if o.doKnown && o.do < models.OptimalDOMin {
		urgency += min64(0.5, (models.OptimalDOMin-o.do)/models.OptimalDOMin*0.5)
		reasons = append(reasons, fmt.Sprintf("Low dissolved oxygen (%.1f mg/L).", o.do))
		affected = append(affected, "Dissolved Oxygen")
	}
	if o.ammoniaKnown && o.ammonia > models.AmmoniaWarn {
		urgency += min64(0.5, (o.ammonia-models.AmmoniaWarn)/models.AmmoniaSpan*0.5)
		reasons = append(reasons, fmt.Sprintf("High ammonia (%.2f mg/L).", o.ammonia))
		affected = append(affected, "Ammonia Levels")
	}

	return urgency, reasons, affected
}

// selectAction walks the fixed priority ladder and returns the first match
// plus any secondary interventions.
func selectAction(o observation, urgency float64) (models.ActionType, []models.ActionType) {
	var secondary []models.ActionType

	dirtyWater := (o.ammoniaKnown && o.ammonia > models.AmmoniaWarn) ||
		o.nitrite > models.NitriteWarn ||
		o.turbidity > models.TurbidityWarn

	if o.status == models.StatusCritical ||
		(o.doKnown && o.do < models.DOCriticalMin) ||
		(o.ammoniaKnown && o.ammonia > models.AmmoniaEmergency) ||
		urgency > 0.9 {
		if o.doKnown && o.do < models.OptimalDOMin {
			secondary = append(secondary, models.ActionIncreaseAeration)
		}
		if (o.ammoniaKnown && o.ammonia > models.AmmoniaWarn) || o.nitrite > models.NitriteWarn {
			secondary = append(secondary, models.ActionWaterExchange)
		}
		return models.ActionEmergency, secondary
	}

	if o.doKnown && o.do < models.OptimalDOMin {
		if dirtyWater {
			secondary = append(secondary, models.ActionWaterExchange)
		}
		if o.ammoniaKnown && o.ammonia > models.AmmoniaWarn {
			secondary = append(secondary, models.ActionAdjustFeed)
		}
		return models.ActionIncreaseAeration, secondary
	}

	if dirtyWater {
		if o.ammoniaKnown && o.ammonia > models.AmmoniaWarn {
			secondary = append(secondary, models.ActionAdjustFeed)
		}
		return models.ActionWaterExchange, secondary
	}

	tempOff := o.tempKnown && (o.temp < models.OptimalTempMin || o.temp > models.OptimalTempMax)
	phOff := o.phKnown && (o.ph < models.OptimalPHMin || o.ph > models.OptimalPHMax)
	if (tempOff || phOff) && urgency > 0.4 {
		return models.ActionAdjustFeed, secondary
	}

	if o.energyEffKnown && o.energyEff < models.EfficiencyLow {
		return models.ActionAllocateWorkers, secondary
	}
	if (o.laborEffKnown && o.laborEff < models.EfficiencyLow) || o.pendingTasks >= 3 {
		return models.ActionAllocateWorkers, secondary
	}

	if urgency > models.MonitorThreshold {
		return models.ActionMonitorClosely, secondary
	}
	return models.ActionNone, secondary
}

// ruleConfidence is the non-ML confidence formula. Emergency responses are
// always reported at high confidence.
func ruleConfidence(action models.ActionType, urgency float64) float64 {
	if action == models.ActionEmergency {
		return 0.95
	}
	return util.Clamp(0.6+urgency*0.25, 0.6, 0.85)
}

// mlConfidence derives confidence from the classifier's top-class
// probability, keeping the emergency floor.
func mlConfidence(action models.ActionType, topProb, urgency float64) float64 {
	conf := topProb
	if conf <= 0 {
		conf = ruleConfidence(action, urgency)
	}
	if action == models.ActionEmergency && conf < 0.9 {
		conf = 0.9
	}
	return util.Clamp(conf, 0, 1)
}

// equipmentLevels recommends aerator/pump/heater settings on a 0-1 scale.
func equipmentLevels(o observation) (aerator, pump, heater float64) {
	aerator = 0.5
	if o.doKnown {
		switch {
		case o.do < models.OptimalDOMin:
			aerator = min64(1.0, 0.5+(models.OptimalDOMin-o.do)/models.OptimalDOMin)
		case o.do > models.OptimalDOMin+1.5:
			aerator = max64(0.3, 0.5-(o.do-(models.OptimalDOMin+1.5))/6.0)
		}
	}

	pump = 0.5
	if o.ammoniaKnown && o.ammonia > models.AmmoniaWarn {
		pump = min64(1.0, 0.5+(o.ammonia-models.AmmoniaWarn)*2.0)
	}
	if o.turbidity > models.TurbidityWarn {
		pump = min64(1.0, max64(pump, 0.75))
	}

	if o.tempKnown && o.temp < models.OptimalTempMin {
		heater = min64(1.0, (models.OptimalTempMin-o.temp)/5.0)
	}
	return aerator, pump, heater
}

// feedRate scales the normal ration down when conditions suppress appetite
// or feeding would load the water further.
func feedRate(o observation) float64 {
	if o.doKnown && o.do < models.DOCriticalMin {
		return 0
	}
	rate := 1.0
	if o.doKnown && o.do < models.OptimalDOMin {
		rate *= 0.5
	}
	if o.ammoniaKnown && o.ammonia > models.AmmoniaWarn {
		rate *= 0.5
	}
	if o.tempKnown && (o.temp < models.OptimalTempMin || o.temp > models.OptimalTempMax) {
		rate *= 0.75
	}
	return rate
}

func dedupe(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	out := xs[:0]
	for _, x := range xs {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
