package forzadash

import (
	"fmt"
	"math"
	"strings"
)

const (
	unknownLabel = "UNKNOWN"

	radsToDegrees       = 57.29578
	radsToCompassPoints = 1.27324

	msToKmh  = 3.6
	wToKw    = 0.001
	psiToBar = 0.068947572932
)

type CarClass int

var carClassLabels = [...]string{"D", "C", "B", "A", "S1", "S2", "X"}

// String is total: codes outside D..X return UNKNOWN.
func (c CarClass) String() string {
	return label(carClassLabels[:], int(c))
}

type Drivetrain int

const (
	FWD Drivetrain = iota
	RWD
	AWD
)

var drivetrainLabels = [...]string{"FWD", "RWD", "AWD"}

func (d Drivetrain) String() string {
	return label(drivetrainLabels[:], int(d))
}

type Compass int

var compassLabels = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func (c Compass) String() string {
	return label(compassLabels[:], int(c))
}

func label(labels []string, i int) string {
	if i < 0 || i >= len(labels) {
		return unknownLabel
	}
	return labels[i]
}

// Transform derives the display record from one decoded packet. EngineMaxRpm
// is expected to be non-zero whenever the engine is running.
func Transform(r RawFields) *Metrics {
	v := Values{
		Active:          onOff(r.Int(FieldCarPerformanceIndex) > 0),
		RPM:             r.Float(FieldCurrentEngineRpm),
		RPMMax:          r.Float(FieldEngineMaxRpm),
		RPMPercent:      percent(r.Float(FieldCurrentEngineRpm), r.Float(FieldEngineMaxRpm), 10),
		Bearing:         radsToBearing(r.Float(FieldYaw)),
		Direction:       radsToCompass(r.Float(FieldYaw)).String(),
		Roll:            radsToBearing(r.Float(FieldRoll)),
		Class:           CarClass(r.Int(FieldCarClass)).String(),
		Performance:     r.Int(FieldCarPerformanceIndex),
		Drivetrain:      Drivetrain(r.Int(FieldDrivetrainType)).String(),
		Cylinders:       r.Int(FieldNumCylinders),
		Speed:           int(round(r.Float(FieldSpeed) * msToKmh)),
		Power:           int(round(r.Float(FieldPower) * wToKw)),
		Torque:          int(round(r.Float(FieldTorque))),
		Boost:           int(round(r.Float(FieldBoost) * psiToBar)),
		Accel:           r.Int(FieldAccel),
		Brake:           r.Int(FieldBrake),
		Handbrake:       onOff(r.Int(FieldHandBrake) > 1),
		Gear:            gearText(r.Int(FieldGear)),
		Steering:        r.Int(FieldSteer),
		Race:            onOff(r.Int(FieldRacePosition) > 0),
		Lap:             r.Int(FieldLapNumber) + 1,
		Position:        notZero(r.Int(FieldRacePosition)),
		TimerRace:       lapTimer(r.Float(FieldCurrentRaceTime)),
		TimerLapCurrent: lapTimer(r.Float(FieldCurrentLap)),
		TimerLapBest:    lapTimer(r.Float(FieldBestLap)),
		TimerLapLast:    lapTimer(r.Float(FieldLastLap)),
		ID:              r.Int(FieldCarOrdinal),
	}
	return &Metrics{
		Units:  Units,
		Values: v,
	}
}

// round is half-up toward +Inf, so -2.5 rounds to -2.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

func nearest(v float64, to float64) float64 {
	return round(v*to) / to
}

// percent is null when max is zero, matching how the dashboard serializes a
// non-finite ratio.
func percent(val, max, to float64) *float64 {
	p := nearest(val/max*100, to)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return nil
	}
	return &p
}

func radsToBearing(rads float64) int {
	degs := rads * radsToDegrees
	if rads < 0 {
		degs += 360
	}
	bearing := int(round(degs))
	if bearing < 360 {
		return bearing
	}
	return 0
}

func radsToCompass(rads float64) Compass {
	idx := rads * radsToCompassPoints
	if rads < 0 {
		idx += 8
	}
	c := Compass(round(idx))
	if c > 7 {
		return 0
	}
	return c
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// gearText renders reverse (0) as R. The second replacement undoes the first
// for tenth gear.
func gearText(gear int) string {
	text := strings.Replace(fmt.Sprint(gear), "0", "R", 1)
	return strings.Replace(text, "1R", "10", 1)
}

func notZero(v int) *int {
	if v > 0 {
		return &v
	}
	return nil
}

// lapTimer formats seconds as M:SS.d after rounding to the millisecond.
func lapTimer(seconds float64) string {
	t := nearest(seconds, 1000)
	m := int(math.Floor(math.Mod(t, 3600) / 60))
	s := int(math.Floor(math.Mod(t, 60)))
	d := int(math.Floor(math.Mod(t*10, 10)))
	return fmt.Sprintf("%d:%02d.%d", m, s, d)
}
