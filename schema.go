package forzadash

type PrimitiveType uint8

const (
	Signed32 PrimitiveType = iota
	Unsigned32
	Float32
	Unsigned16
	Unsigned8
	Signed8
	// Opaque is a reserved block whose bytes are skipped, never decoded. Its
	// width comes from the field, see OpaqueField.
	Opaque
)

var primitiveSizes = [...]int{
	Signed32:   4,
	Unsigned32: 4,
	Float32:    4,
	Unsigned16: 2,
	Unsigned8:  1,
	Signed8:    1,
	Opaque:     0,
}

var primitiveNames = [...]string{
	Signed32:   "s32",
	Unsigned32: "u32",
	Float32:    "f32",
	Unsigned16: "u16",
	Unsigned8:  "u8",
	Signed8:    "s8",
	Opaque:     "opaque",
}

// Size is the wire width of the type in bytes. Opaque has no intrinsic width.
func (t PrimitiveType) Size() int {
	if int(t) >= len(primitiveSizes) {
		return 0
	}
	return primitiveSizes[t]
}

func (t PrimitiveType) String() string {
	if int(t) >= len(primitiveNames) {
		return "unknown"
	}
	return primitiveNames[t]
}

func (t PrimitiveType) Opaque() bool {
	return t == Opaque
}

type Field struct {
	Name string
	Type PrimitiveType
	// Width is only read for opaque fields.
	Width int
}

// OpaqueField declares a reserved block of width bytes.
func OpaqueField(name string, width int) Field {
	return Field{Name: name, Type: Opaque, Width: width}
}

func (f Field) Size() int {
	if f.Type.Opaque() {
		if f.Width < 0 {
			return 0
		}
		return f.Width
	}
	return f.Type.Size()
}

// Schema is the ordered byte layout of one packet. It is never mutated after
// construction.
type Schema struct {
	fields    []Field
	totalSize int
}

func NewSchema(fields ...Field) *Schema {
	s := &Schema{
		fields: make([]Field, len(fields)),
	}
	copy(s.fields, fields)
	for _, f := range s.fields {
		s.totalSize += f.Size()
	}
	return s
}

// Fields returns the schema entries in wire order.
func (s *Schema) Fields() []Field {
	fields := make([]Field, len(s.fields))
	copy(fields, s.fields)
	return fields
}

func (s *Schema) TotalSize() int {
	return s.totalSize
}

const (
	FieldIsRaceOn            = "IsRaceOn"
	FieldTimestampMS         = "TimestampMS"
	FieldEngineMaxRpm        = "EngineMaxRpm"
	FieldEngineIdleRpm       = "EngineIdleRpm"
	FieldCurrentEngineRpm    = "CurrentEngineRpm"
	FieldYaw                 = "Yaw"
	FieldPitch               = "Pitch"
	FieldRoll                = "Roll"
	FieldCarOrdinal          = "CarOrdinal"
	FieldCarClass            = "CarClass"
	FieldCarPerformanceIndex = "CarPerformanceIndex"
	FieldDrivetrainType      = "DrivetrainType"
	FieldNumCylinders        = "NumCylinders"
	FieldHorizonPlaceholder  = "HorizonPlaceholder"
	FieldSpeed               = "Speed"
	FieldPower               = "Power"
	FieldTorque              = "Torque"
	FieldBoost               = "Boost"
	FieldFuel                = "Fuel"
	FieldDistanceTraveled    = "DistanceTraveled"
	FieldBestLap             = "BestLap"
	FieldLastLap             = "LastLap"
	FieldCurrentLap          = "CurrentLap"
	FieldCurrentRaceTime     = "CurrentRaceTime"
	FieldLapNumber           = "LapNumber"
	FieldRacePosition        = "RacePosition"
	FieldAccel               = "Accel"
	FieldBrake               = "Brake"
	FieldClutch              = "Clutch"
	FieldHandBrake           = "HandBrake"
	FieldGear                = "Gear"
	FieldSteer               = "Steer"
)

// DashSchema is the layout of the simulation's "dash" telemetry packet.
var DashSchema = NewSchema(
	Field{Name: FieldIsRaceOn, Type: Signed32},
	Field{Name: FieldTimestampMS, Type: Unsigned32},
	Field{Name: FieldEngineMaxRpm, Type: Float32},
	Field{Name: FieldEngineIdleRpm, Type: Float32},
	Field{Name: FieldCurrentEngineRpm, Type: Float32},
	Field{Name: "AccelerationX", Type: Float32},
	Field{Name: "AccelerationY", Type: Float32},
	Field{Name: "AccelerationZ", Type: Float32},
	Field{Name: "VelocityX", Type: Float32},
	Field{Name: "VelocityY", Type: Float32},
	Field{Name: "VelocityZ", Type: Float32},
	Field{Name: "AngularVelocityX", Type: Float32},
	Field{Name: "AngularVelocityY", Type: Float32},
	Field{Name: "AngularVelocityZ", Type: Float32},
	Field{Name: FieldYaw, Type: Float32},
	Field{Name: FieldPitch, Type: Float32},
	Field{Name: FieldRoll, Type: Float32},
	Field{Name: "NormalizedSuspensionTravelFrontLeft", Type: Float32},
	Field{Name: "NormalizedSuspensionTravelFrontRight", Type: Float32},
	Field{Name: "NormalizedSuspensionTravelRearLeft", Type: Float32},
	Field{Name: "NormalizedSuspensionTravelRearRight", Type: Float32},
	Field{Name: "TireSlipRatioFrontLeft", Type: Float32},
	Field{Name: "TireSlipRatioFrontRight", Type: Float32},
	Field{Name: "TireSlipRatioRearLeft", Type: Float32},
	Field{Name: "TireSlipRatioRearRight", Type: Float32},
	Field{Name: "WheelRotationSpeedFrontLeft", Type: Float32},
	Field{Name: "WheelRotationSpeedFrontRight", Type: Float32},
	Field{Name: "WheelRotationSpeedRearLeft", Type: Float32},
	Field{Name: "WheelRotationSpeedRearRight", Type: Float32},
	Field{Name: "WheelOnRumbleStripFrontLeft", Type: Signed32},
	Field{Name: "WheelOnRumbleStripFrontRight", Type: Signed32},
	Field{Name: "WheelOnRumbleStripRearLeft", Type: Signed32},
	Field{Name: "WheelOnRumbleStripRearRight", Type: Signed32},
	Field{Name: "WheelInPuddleDepthFrontLeft", Type: Float32},
	Field{Name: "WheelInPuddleDepthFrontRight", Type: Float32},
	Field{Name: "WheelInPuddleDepthRearLeft", Type: Float32},
	Field{Name: "WheelInPuddleDepthRearRight", Type: Float32},
	Field{Name: "SurfaceRumbleFrontLeft", Type: Float32},
	Field{Name: "SurfaceRumbleFrontRight", Type: Float32},
	Field{Name: "SurfaceRumbleRearLeft", Type: Float32},
	Field{Name: "SurfaceRumbleRearRight", Type: Float32},
	Field{Name: "TireSlipAngleFrontLeft", Type: Float32},
	Field{Name: "TireSlipAngleFrontRight", Type: Float32},
	Field{Name: "TireSlipAngleRearLeft", Type: Float32},
	Field{Name: "TireSlipAngleRearRight", Type: Float32},
	Field{Name: "TireCombinedSlipFrontLeft", Type: Float32},
	Field{Name: "TireCombinedSlipFrontRight", Type: Float32},
	Field{Name: "TireCombinedSlipRearLeft", Type: Float32},
	Field{Name: "TireCombinedSlipRearRight", Type: Float32},
	Field{Name: "SuspensionTravelMetersFrontLeft", Type: Float32},
	Field{Name: "SuspensionTravelMetersFrontRight", Type: Float32},
	Field{Name: "SuspensionTravelMetersRearLeft", Type: Float32},
	Field{Name: "SuspensionTravelMetersRearRight", Type: Float32},
	Field{Name: FieldCarOrdinal, Type: Signed32},
	Field{Name: FieldCarClass, Type: Signed32},
	Field{Name: FieldCarPerformanceIndex, Type: Signed32},
	Field{Name: FieldDrivetrainType, Type: Signed32},
	Field{Name: FieldNumCylinders, Type: Signed32},
	OpaqueField(FieldHorizonPlaceholder, 12),
	Field{Name: "PositionX", Type: Float32},
	Field{Name: "PositionY", Type: Float32},
	Field{Name: "PositionZ", Type: Float32},
	Field{Name: FieldSpeed, Type: Float32},
	Field{Name: FieldPower, Type: Float32},
	Field{Name: FieldTorque, Type: Float32},
	Field{Name: "TireTempFrontLeft", Type: Float32},
	Field{Name: "TireTempFrontRight", Type: Float32},
	Field{Name: "TireTempRearLeft", Type: Float32},
	Field{Name: "TireTempRearRight", Type: Float32},
	Field{Name: FieldBoost, Type: Float32},
	Field{Name: FieldFuel, Type: Float32},
	Field{Name: FieldDistanceTraveled, Type: Float32},
	Field{Name: FieldBestLap, Type: Float32},
	Field{Name: FieldLastLap, Type: Float32},
	Field{Name: FieldCurrentLap, Type: Float32},
	Field{Name: FieldCurrentRaceTime, Type: Float32},
	Field{Name: FieldLapNumber, Type: Unsigned16},
	Field{Name: FieldRacePosition, Type: Unsigned8},
	Field{Name: FieldAccel, Type: Unsigned8},
	Field{Name: FieldBrake, Type: Unsigned8},
	Field{Name: FieldClutch, Type: Unsigned8},
	Field{Name: FieldHandBrake, Type: Unsigned8},
	Field{Name: FieldGear, Type: Unsigned8},
	Field{Name: FieldSteer, Type: Signed8},
	Field{Name: "NormalizedDrivingLine", Type: Signed8},
	Field{Name: "NormalizedAIBrakeDifference", Type: Signed8},
)
