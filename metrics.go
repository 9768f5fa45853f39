package forzadash

import (
	"github.com/pkg/errors"
)

// Metric identifies one derived value. String returns its key in Values.
type Metric int

const (
	MetricActive Metric = iota
	MetricRPM
	MetricRPMMax
	MetricRPMPercent
	MetricBearing
	MetricDirection
	MetricRoll
	MetricClass
	MetricPerformance
	MetricDrivetrain
	MetricCylinders
	MetricSpeed
	MetricPower
	MetricTorque
	MetricBoost
	MetricAccel
	MetricBrake
	MetricHandbrake
	MetricGear
	MetricSteering
	MetricRace
	MetricLap
	MetricPosition
	MetricTimerRace
	MetricTimerLapCurrent
	MetricTimerLapBest
	MetricTimerLapLast
	MetricID

	metricCount
)

var metricNames = [metricCount]string{
	MetricActive:          "active",
	MetricRPM:             "rpm",
	MetricRPMMax:          "rpm_max",
	MetricRPMPercent:      "rpm_percent",
	MetricBearing:         "bearing",
	MetricDirection:       "direction",
	MetricRoll:            "roll",
	MetricClass:           "class",
	MetricPerformance:     "performance",
	MetricDrivetrain:      "drivetrain",
	MetricCylinders:       "cylinders",
	MetricSpeed:           "speed",
	MetricPower:           "power",
	MetricTorque:          "torque",
	MetricBoost:           "boost",
	MetricAccel:           "accel",
	MetricBrake:           "brake",
	MetricHandbrake:       "handbrake",
	MetricGear:            "gear",
	MetricSteering:        "steering",
	MetricRace:            "race",
	MetricLap:             "lap",
	MetricPosition:        "position",
	MetricTimerRace:       "timer_race",
	MetricTimerLapCurrent: "timer_lap_current",
	MetricTimerLapBest:    "timer_lap_best",
	MetricTimerLapLast:    "timer_lap_last",
	MetricID:              "id",
}

// Units maps metric keys to their display unit. Metrics without a unit are
// absent.
var Units = map[string]string{
	"rpm_percent": "%",
	"bearing":     "°",
	"roll":        "°",
	"speed":       "km/h",
	"power":       "kW",
	"torque":      "Nm",
	"boost":       "bar",
}

func (m Metric) String() string {
	if m < 0 || m >= metricCount {
		return unknownLabel
	}
	return metricNames[m]
}

// Unit returns the display unit, or "" when the metric is unitless.
func (m Metric) Unit() string {
	return Units[m.String()]
}

func AllMetrics() []Metric {
	all := make([]Metric, metricCount)
	for i := range all {
		all[i] = Metric(i)
	}
	return all
}

func ParseMetric(key string) (Metric, error) {
	for i, name := range metricNames {
		if name == key {
			return Metric(i), nil
		}
	}
	return 0, errors.Errorf("unknown metric %q", key)
}

// Values is the derived record. Field order and json keys follow Metric.
type Values struct {
	Active          string   `json:"active"`
	RPM             float64  `json:"rpm"`
	RPMMax          float64  `json:"rpm_max"`
	RPMPercent      *float64 `json:"rpm_percent"`
	Bearing         int      `json:"bearing"`
	Direction       string   `json:"direction"`
	Roll            int      `json:"roll"`
	Class           string   `json:"class"`
	Performance     int      `json:"performance"`
	Drivetrain      string   `json:"drivetrain"`
	Cylinders       int      `json:"cylinders"`
	Speed           int      `json:"speed"`
	Power           int      `json:"power"`
	Torque          int      `json:"torque"`
	Boost           int      `json:"boost"`
	Accel           int      `json:"accel"`
	Brake           int      `json:"brake"`
	Handbrake       string   `json:"handbrake"`
	Gear            string   `json:"gear"`
	Steering        int      `json:"steering"`
	Race            string   `json:"race"`
	Lap             int      `json:"lap"`
	Position        *int     `json:"position"`
	TimerRace       string   `json:"timer_race"`
	TimerLapCurrent string   `json:"timer_lap_current"`
	TimerLapBest    string   `json:"timer_lap_best"`
	TimerLapLast    string   `json:"timer_lap_last"`
	ID              int      `json:"id"`
}

// Get returns the value for m. A nil pointer is returned as an untyped nil
// so that it serializes as null.
func (v *Values) Get(m Metric) interface{} {
	switch m {
	case MetricActive:
		return v.Active
	case MetricRPM:
		return v.RPM
	case MetricRPMMax:
		return v.RPMMax
	case MetricRPMPercent:
		if v.RPMPercent == nil {
			return nil
		}
		return *v.RPMPercent
	case MetricBearing:
		return v.Bearing
	case MetricDirection:
		return v.Direction
	case MetricRoll:
		return v.Roll
	case MetricClass:
		return v.Class
	case MetricPerformance:
		return v.Performance
	case MetricDrivetrain:
		return v.Drivetrain
	case MetricCylinders:
		return v.Cylinders
	case MetricSpeed:
		return v.Speed
	case MetricPower:
		return v.Power
	case MetricTorque:
		return v.Torque
	case MetricBoost:
		return v.Boost
	case MetricAccel:
		return v.Accel
	case MetricBrake:
		return v.Brake
	case MetricHandbrake:
		return v.Handbrake
	case MetricGear:
		return v.Gear
	case MetricSteering:
		return v.Steering
	case MetricRace:
		return v.Race
	case MetricLap:
		return v.Lap
	case MetricPosition:
		if v.Position == nil {
			return nil
		}
		return *v.Position
	case MetricTimerRace:
		return v.TimerRace
	case MetricTimerLapCurrent:
		return v.TimerLapCurrent
	case MetricTimerLapBest:
		return v.TimerLapBest
	case MetricTimerLapLast:
		return v.TimerLapLast
	case MetricID:
		return v.ID
	}
	return nil
}

// Metrics is the full record sent to the live view.
type Metrics struct {
	Units  map[string]string `json:"units"`
	Values Values            `json:"values"`
}

// Reduce picks the given metrics out of the record, keyed by metric name.
func (m *Metrics) Reduce(metrics []Metric) map[string]interface{} {
	reduced := make(map[string]interface{}, len(metrics))
	for _, metric := range metrics {
		reduced[metric.String()] = m.Values.Get(metric)
	}
	return reduced
}
