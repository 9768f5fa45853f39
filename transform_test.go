package forzadash

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func TestRadsToBearing(t *testing.T) {
	assert.Equal(t, 0, radsToBearing(0))
	assert.Equal(t, 57, radsToBearing(1))
	assert.Equal(t, 90, radsToBearing(math.Pi/2))
	assert.Equal(t, 180, radsToBearing(math.Pi))
	assert.Equal(t, 180, radsToBearing(-math.Pi))
	assert.Equal(t, 270, radsToBearing(-math.Pi/2))
	assert.Equal(t, 359, radsToBearing(-0.01))
	assert.Equal(t, 359, radsToBearing(-0.0088), "below 360 is not clamped")
	assert.Equal(t, 0, radsToBearing(-0.0087), "rounds to 360 and wraps")
	assert.Equal(t, 0, radsToBearing(-0.0001))
}

func TestRadsToCompass(t *testing.T) {
	assert.Equal(t, "N", radsToCompass(0).String())
	assert.Equal(t, "NE", radsToCompass(math.Pi/4).String())
	assert.Equal(t, "E", radsToCompass(math.Pi/2).String())
	assert.Equal(t, "S", radsToCompass(math.Pi).String())
	assert.Equal(t, "S", radsToCompass(-math.Pi).String())
	assert.Equal(t, "W", radsToCompass(-math.Pi/2).String())
	assert.Equal(t, "NW", radsToCompass(-math.Pi/4).String())
	assert.Equal(t, "N", radsToCompass(-0.01).String(), "index 8 wraps to north")
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "D", CarClass(0).String())
	assert.Equal(t, "S1", CarClass(4).String())
	assert.Equal(t, "X", CarClass(6).String())
	assert.Equal(t, "UNKNOWN", CarClass(7).String())
	assert.Equal(t, "UNKNOWN", CarClass(-1).String())

	assert.Equal(t, "FWD", FWD.String())
	assert.Equal(t, "RWD", RWD.String())
	assert.Equal(t, "AWD", AWD.String())
	assert.Equal(t, "UNKNOWN", Drivetrain(3).String())

	assert.Equal(t, "SE", Compass(3).String())
	assert.Equal(t, "UNKNOWN", Compass(8).String())
}

func TestGearText(t *testing.T) {
	assert.Equal(t, "R", gearText(0))
	assert.Equal(t, "1", gearText(1))
	assert.Equal(t, "3", gearText(3))
	assert.Equal(t, "10", gearText(10))
	// only the first zero is replaced
	assert.Equal(t, "2R", gearText(20))
	assert.Equal(t, "100", gearText(100))
}

func TestLapTimer(t *testing.T) {
	assert.Equal(t, "2:05.3", lapTimer(125.34))
	assert.Equal(t, "2:05.3", lapTimer(float64(float32(125.34))))
	assert.Equal(t, "0:00.0", lapTimer(0))
	assert.Equal(t, "0:59.9", lapTimer(59.999))
	assert.Equal(t, "1:00.0", lapTimer(59.9996), "rounded to the millisecond first")
	assert.Equal(t, "1:27.6", lapTimer(87.654))
	assert.Equal(t, "2:05.5", lapTimer(3725.5), "hours are dropped")
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3.0, round(2.5))
	assert.Equal(t, -2.0, round(-2.5))
	assert.Equal(t, -3.0, round(-2.6))
	assert.Equal(t, 17.6, nearest(1234.0/7000*100, 10))
}

func TestPercent(t *testing.T) {
	p := percent(6000, 8000, 10)
	require.NotNil(t, p)
	assert.Equal(t, 75.0, *p)
	assert.Nil(t, percent(0, 0, 10))
	assert.Nil(t, percent(100, 0, 10))
}

func TestTransform(t *testing.T) {
	m := Transform(sampleFields())
	v := m.Values

	assert.Equal(t, Units, m.Units)
	assert.Equal(t, "ON", v.Active)
	assert.Equal(t, 5123.5, v.RPM)
	assert.Equal(t, 8000.0, v.RPMMax)
	require.NotNil(t, v.RPMPercent)
	assert.Equal(t, 64.0, *v.RPMPercent)
	assert.Equal(t, 331, v.Bearing)
	assert.Equal(t, "NW", v.Direction)
	assert.Equal(t, 14, v.Roll)
	assert.Equal(t, "S1", v.Class)
	assert.Equal(t, 800, v.Performance)
	assert.Equal(t, "AWD", v.Drivetrain)
	assert.Equal(t, 8, v.Cylinders)
	assert.Equal(t, 200, v.Speed)
	assert.Equal(t, 250, v.Power)
	assert.Equal(t, -35, v.Torque)
	assert.Equal(t, 1, v.Boost)
	assert.Equal(t, 255, v.Accel)
	assert.Equal(t, 128, v.Brake)
	assert.Equal(t, "ON", v.Handbrake)
	assert.Equal(t, "10", v.Gear)
	assert.Equal(t, -127, v.Steering)
	assert.Equal(t, "ON", v.Race)
	assert.Equal(t, 65536, v.Lap)
	require.NotNil(t, v.Position)
	assert.Equal(t, 3, *v.Position)
	assert.Equal(t, "2:05.5", v.TimerRace)
	assert.Equal(t, "0:12.5", v.TimerLapCurrent)
	assert.Equal(t, "1:27.5", v.TimerLapBest)
	assert.Equal(t, "1:28.2", v.TimerLapLast)
	assert.Equal(t, 2137, v.ID)
}

func TestTransformInactive(t *testing.T) {
	fields := sampleFields()
	fields[FieldCarPerformanceIndex] = 0
	fields[FieldHandBrake] = 0
	fields[FieldRacePosition] = 0
	fields[FieldGear] = 0
	fields[FieldLapNumber] = 0

	v := Transform(fields).Values
	assert.Equal(t, "OFF", v.Active)
	assert.Equal(t, "OFF", v.Handbrake)
	assert.Equal(t, "OFF", v.Race)
	assert.Nil(t, v.Position)
	assert.Equal(t, "R", v.Gear)
	assert.Equal(t, 1, v.Lap)
}

func TestTransformHandbrakeThreshold(t *testing.T) {
	fields := sampleFields()
	fields[FieldHandBrake] = 1
	assert.Equal(t, "OFF", Transform(fields).Values.Handbrake)
	fields[FieldHandBrake] = 2
	assert.Equal(t, "ON", Transform(fields).Values.Handbrake)
}

func TestTransformOutOfRangeLabels(t *testing.T) {
	fields := sampleFields()
	fields[FieldCarClass] = 9
	fields[FieldDrivetrainType] = -1

	v := Transform(fields).Values
	assert.Equal(t, "UNKNOWN", v.Class)
	assert.Equal(t, "UNKNOWN", v.Drivetrain)
}

func TestMetricsJSON(t *testing.T) {
	fields := sampleFields()
	fields[FieldRacePosition] = 0
	fields[FieldEngineMaxRpm] = 0

	data, err := json.Marshal(Transform(fields))
	require.NoError(t, err)

	record := struct {
		Units  map[string]string      `json:"units"`
		Values map[string]interface{} `json:"values"`
	}{}
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "km/h", record.Units["speed"])
	assert.Equal(t, "°", record.Units["bearing"])

	assert.Len(t, record.Values, len(AllMetrics()))
	for _, m := range AllMetrics() {
		assert.Contains(t, record.Values, m.String())
	}
	assert.Nil(t, record.Values["position"])
	assert.Nil(t, record.Values["rpm_percent"])
	assert.Equal(t, "10", record.Values["gear"])
}
