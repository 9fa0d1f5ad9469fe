package protocol

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

var (
	_ encoding.BinaryMarshaler   = ClientInput{}
	_ encoding.BinaryUnmarshaler = (*ClientInput)(nil)
	_ encoding.BinaryMarshaler   = JoinResponse{}
	_ encoding.BinaryUnmarshaler = (*JoinResponse)(nil)
	_ encoding.BinaryMarshaler   = Snapshot{}
	_ encoding.BinaryUnmarshaler = (*Snapshot)(nil)
)

var le = binary.LittleEndian

func checkSize(kind string, data []byte, want int) error {
	if len(data) != want {
		return fmt.Errorf("%w: %s is %d bytes, want %d", ErrMalformedMessage, kind, len(data), want)
	}
	return nil
}

func appendFloat(b []byte, f float32) []byte {
	return le.AppendUint32(b, math.Float32bits(f))
}

// reader walks a buffer whose size has already been checked
type reader struct {
	data []byte
	off  int
}

func (r *reader) u8() uint8 {
	v := r.data[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	v := le.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) f32() float32 {
	v := math.Float32frombits(le.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// MarshalBinary encodes the input as [buttons, playerN]
func (in ClientInput) MarshalBinary() ([]byte, error) {
	return []byte{byte(in.Buttons), in.PlayerN}, nil
}

func (in *ClientInput) UnmarshalBinary(data []byte) error {
	if err := checkSize("client input", data, InputSize); err != nil {
		return err
	}
	in.Buttons = Buttons(data[0])
	in.PlayerN = data[1]
	return nil
}

// MarshalBinary encodes the response as a NUL-padded token followed by the
// player number.
func (r JoinResponse) MarshalBinary() ([]byte, error) {
	if len(r.Response) >= ResponseSize {
		return nil, fmt.Errorf("join response token %q exceeds %d bytes", r.Response, ResponseSize-1)
	}
	if strings.IndexByte(r.Response, 0) >= 0 {
		return nil, fmt.Errorf("join response token %q contains a NUL byte", r.Response)
	}
	b := make([]byte, JoinResponseSize)
	copy(b, r.Response)
	b[ResponseSize] = r.Number
	return b, nil
}

func (r *JoinResponse) UnmarshalBinary(data []byte) error {
	if err := checkSize("join response", data, JoinResponseSize); err != nil {
		return err
	}
	token := data[:ResponseSize]
	end := bytes.IndexByte(token, 0)
	if end < 0 {
		return fmt.Errorf("%w: join response token is not terminated", ErrMalformedMessage)
	}
	r.Response = string(token[:end])
	r.Number = data[ResponseSize]
	return nil
}

func (s ShipState) appendTo(b []byte) []byte {
	b = appendFloat(b, s.X)
	b = appendFloat(b, s.Y)
	b = appendFloat(b, s.Radians)
	b = appendFloat(b, s.Health)
	b = appendFloat(b, s.VX)
	b = appendFloat(b, s.VY)
	b = appendFloat(b, s.Rotation)
	b = le.AppendUint16(b, uint16(s.Score))
	return append(b, s.PlayerN, byte(s.Flags))
}

func (s *ShipState) readFrom(r *reader) {
	s.X = r.f32()
	s.Y = r.f32()
	s.Radians = r.f32()
	s.Health = r.f32()
	s.VX = r.f32()
	s.VY = r.f32()
	s.Rotation = r.f32()
	s.Score = int16(r.u16())
	s.PlayerN = r.u8()
	s.Flags = ShipFlags(r.u8())
}

func (t TorpedoState) appendTo(b []byte) []byte {
	b = appendFloat(b, t.X)
	b = appendFloat(b, t.Y)
	b = appendFloat(b, t.VX)
	b = appendFloat(b, t.VY)
	return append(b, byte(t.Flags))
}

func (t *TorpedoState) readFrom(r *reader) {
	t.X = r.f32()
	t.Y = r.f32()
	t.VX = r.f32()
	t.VY = r.f32()
	t.Flags = TorpedoFlags(r.u8())
}

// MarshalBinary encodes the snapshot: per slot ship then torpedo, followed
// by the game state byte and the sound byte.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, SnapshotSize)
	for _, p := range s.Players {
		b = p.Ship.appendTo(b)
		b = p.Torpedo.appendTo(b)
	}
	b = append(b, byte(s.GameState), byte(s.Sounds))
	return b, nil
}

func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if err := checkSize("snapshot", data, SnapshotSize); err != nil {
		return err
	}
	r := &reader{data: data}
	for i := range s.Players {
		s.Players[i].Ship.readFrom(r)
		s.Players[i].Torpedo.readFrom(r)
	}
	s.GameState = GameState(r.u8())
	s.Sounds = SoundBits(r.u8())
	return nil
}
