// Package publish streams solved skeleton frames to downstream consumers
// over MQTT and websockets.
package publish

import (
	"encoding/json"
	"math"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
)

// JointPose is the wire form of one joint. Pos and Ori are null when the
// joint has no valid value this frame. Ori is ordered w, x, y, z.
type JointPose struct {
	Name   string      `json:"name"`
	Status string      `json:"status"`
	Pos    *[3]float64 `json:"pos"`
	Ori    *[4]float64 `json:"ori"`
}

// FrameMessage is one subject's skeleton at one capture instant.
type FrameMessage struct {
	Prefix      string      `json:"prefix"`
	Frame       int         `json:"frame"`
	TimestampNs int64       `json:"ts_ns"`
	Joints      []JointPose `json:"joints"`
}

// Publisher delivers frame messages somewhere.
type Publisher interface {
	Publish(msg FrameMessage) error
}

// NewFrameMessage snapshots a skeleton in parent-first joint order.
func NewFrameMessage(prefix string, frame int, ts time.Time, skel *skeleton.Skeleton) FrameMessage {
	msg := FrameMessage{
		Prefix:      prefix,
		Frame:       frame,
		TimestampNs: ts.UnixNano(),
		Joints:      make([]JointPose, 0, len(skel.Order())),
	}
	for _, id := range skel.Order() {
		j := skel.Joint(id)
		msg.Joints = append(msg.Joints, JointPose{
			Name:   id.String(),
			Status: j.Status.String(),
			Pos:    vecOrNil(j.Pos),
			Ori:    quatOrNil(j.Orientation),
		})
	}
	return msg
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func vecOrNil(v r3.Vec) *[3]float64 {
	if !finite(v.X, v.Y, v.Z) {
		return nil
	}
	return &[3]float64{v.X, v.Y, v.Z}
}

func quatOrNil(q quat.Number) *[4]float64 {
	if !finite(q.Real, q.Imag, q.Jmag, q.Kmag) {
		return nil
	}
	return &[4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

// EncodeFrame marshals a frame message to JSON.
func EncodeFrame(msg FrameMessage) ([]byte, error) {
	return json.Marshal(msg)
}
