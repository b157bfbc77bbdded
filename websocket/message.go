package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/esimov/stable-fluid/detector"
	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

// Message types sent by clients as text frames.
const (
	TypeImpulse   = "impulse"
	TypeDetection = "detection"
	TypeReset     = "reset"
)

// Detection is a face found by a client-side detector, in pixels of a
// Width×Height frame.
type Detection struct {
	X      int `json:"row"`
	Y      int `json:"col"`
	Scale  int `json:"scale,omitempty"`
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Message is a client request. Impulse fields are normalized coordinates
// and grid cells per timestep.
type Message struct {
	Type string `json:"type"`

	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	FX     float32 `json:"fx"`
	FY     float32 `json:"fy"`
	Radius float32 `json:"radius"`
	Dye    float32 `json:"dye"`

	Detection
}

// ParseMessage decodes a text frame. A bare {"row","col"} object is a
// detection.
func ParseMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("websocket: malformed message: %w", err)
	}
	if m.Type == "" && (m.Detection != Detection{}) {
		m.Type = TypeDetection
	}
	switch m.Type {
	case TypeImpulse, TypeReset:
	case TypeDetection:
		if m.Width <= 0 || m.Height <= 0 {
			return Message{}, fmt.Errorf("websocket: detection needs the frame size, got %dx%d", m.Width, m.Height)
		}
	default:
		return Message{}, fmt.Errorf("websocket: unknown message type %q", m.Type)
	}
	return m, nil
}

// Impulse returns the impulse described by an impulse message.
func (m Message) Impulse() fluid.Impulse {
	return fluid.Impulse{
		Epicenter: fluid.Vec2{X: m.X, Y: m.Y},
		Force:     fluid.Vec2{X: m.FX, Y: m.FY},
		Radius:    m.Radius,
		Dye:       m.Dye,
	}
}

// Face returns the detection as a detector face.
func (m Message) Face() detector.Face {
	return detector.Face{Row: m.Detection.X, Col: m.Detection.Y, Scale: m.Scale}
}

// Frame is the JSON document broadcast after every step.
type Frame struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Step   uint64 `json:"step"`
	// Row-major, row 0 at y = 0.
	Dye []float32 `json:"dye"`
	// Interleaved x, y pairs in the same order as Dye.
	Velocity []float32 `json:"velocity"`
}

func NewFrame(sn fluid.Snapshot) Frame {
	vel := make([]float32, 0, 2*len(sn.Velocity))
	for _, v := range sn.Velocity {
		vel = append(vel, v.X, v.Y)
	}
	return Frame{
		Width:    sn.Width,
		Height:   sn.Height,
		Step:     sn.Step,
		Dye:      sn.Dye,
		Velocity: vel,
	}
}
