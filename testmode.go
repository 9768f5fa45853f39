package forzadash

import (
	"context"
	"math"
	"time"
)

// testModeState drives a synthetic lap: speed and rpm ramp up and down, the
// car turns a full circle and the gear follows the speed.
type testModeState struct {
	down     bool
	speed    float64
	yaw      float64
	lapTime  float64
	raceTime float64
	lap      int
}

const (
	testModeMaxRpm   = 8000
	testModeTopSpeed = 90 // m/s
)

func (s *testModeState) next(interval time.Duration) RawFields {
	if s.down {
		s.speed -= 0.5
	} else {
		s.speed += 0.5
	}
	if s.speed <= 0 {
		s.speed = 0
		s.down = false
	} else if s.speed >= testModeTopSpeed {
		s.down = true
	}

	s.yaw += 0.01
	if s.yaw > math.Pi {
		s.yaw -= 2 * math.Pi
	}

	s.lapTime += interval.Seconds()
	s.raceTime += interval.Seconds()
	if s.lapTime >= 90 {
		s.lapTime = 0
		s.lap++
	}

	gear := 1 + int(s.speed/testModeTopSpeed*5)
	rpm := 1000 + math.Mod(s.speed*300, testModeMaxRpm-1000)
	return RawFields{
		FieldIsRaceOn:            1,
		FieldEngineMaxRpm:        testModeMaxRpm,
		FieldEngineIdleRpm:       800,
		FieldCurrentEngineRpm:    rpm,
		FieldYaw:                 s.yaw,
		FieldRoll:                0.02,
		FieldCarOrdinal:          2137,
		FieldCarClass:            4,
		FieldCarPerformanceIndex: 800,
		FieldDrivetrainType:      2,
		FieldNumCylinders:        8,
		FieldSpeed:               s.speed,
		FieldPower:               rpm * 40,
		FieldTorque:              450,
		FieldBoost:               14.5,
		FieldCurrentLap:          s.lapTime,
		FieldCurrentRaceTime:     s.raceTime,
		FieldBestLap:             87.654,
		FieldLastLap:             88.1,
		FieldLapNumber:           float64(s.lap),
		FieldRacePosition:        3,
		FieldAccel:               255,
		FieldGear:                float64(gear),
	}
}

// RunTestMode encodes synthetic dash packets and hands them to fwd every
// interval until ctx is done.
func RunTestMode(ctx context.Context, fwd Forwarder, interval time.Duration) error {
	state := testModeState{}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := fwd.Forward(DashSchema.Encode(state.next(interval))); err != nil {
			return err
		}
	}
}
