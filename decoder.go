package forzadash

import (
	"encoding/binary"
	"github.com/pkg/errors"
	"math"
)

var ErrIncompletePacket = errors.New("incomplete packet")

// RawFields holds one decoded value per non-opaque schema field. Every 32 bit
// integer and float32 is exactly representable as a float64.
type RawFields map[string]float64

func (r RawFields) Float(name string) float64 {
	return r[name]
}

func (r RawFields) Int(name string) int {
	return int(r[name])
}

func (s *Schema) Decode(buf []byte) (RawFields, error) {
	return Decode(s, buf)
}

// Decode reads every schema field in order from buf. Bytes beyond
// TotalSize are ignored.
func Decode(s *Schema, buf []byte) (RawFields, error) {
	fields := make(RawFields, len(s.fields))
	cursor := 0
	for _, f := range s.fields {
		size := f.Size()
		if len(buf)-cursor < size {
			return nil, errors.Wrapf(ErrIncompletePacket,
				"field %s needs %d bytes at offset %d, packet is %d bytes",
				f.Name, size, cursor, len(buf))
		}
		cur := buf[cursor : cursor+size]
		cursor += size

		switch f.Type {
		case Signed32:
			fields[f.Name] = float64(int32(binary.LittleEndian.Uint32(cur)))
		case Unsigned32:
			fields[f.Name] = float64(binary.LittleEndian.Uint32(cur))
		case Float32:
			fields[f.Name] = float64(math.Float32frombits(binary.LittleEndian.Uint32(cur)))
		case Unsigned16:
			fields[f.Name] = float64(binary.LittleEndian.Uint16(cur))
		case Unsigned8:
			fields[f.Name] = float64(cur[0])
		case Signed8:
			fields[f.Name] = float64(int8(cur[0]))
		case Opaque:
		default:
			return nil, errors.Errorf("field %s has unknown type %v", f.Name, f.Type)
		}
	}
	return fields, nil
}

func (s *Schema) Encode(fields RawFields) []byte {
	return Encode(s, fields)
}

// Encode is the inverse of Decode. Opaque blocks and missing fields are
// written as zeroes.
func Encode(s *Schema, fields RawFields) []byte {
	buf := make([]byte, s.totalSize)
	cursor := 0
	for _, f := range s.fields {
		cur := buf[cursor : cursor+f.Size()]
		cursor += f.Size()

		v := fields[f.Name]
		switch f.Type {
		case Signed32:
			binary.LittleEndian.PutUint32(cur, uint32(int32(v)))
		case Unsigned32:
			binary.LittleEndian.PutUint32(cur, uint32(v))
		case Float32:
			binary.LittleEndian.PutUint32(cur, math.Float32bits(float32(v)))
		case Unsigned16:
			binary.LittleEndian.PutUint16(cur, uint16(v))
		case Unsigned8:
			cur[0] = uint8(v)
		case Signed8:
			cur[0] = uint8(int8(v))
		}
	}
	return buf
}
