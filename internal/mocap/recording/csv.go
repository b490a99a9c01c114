// Package recording reads and writes marker recordings and generates
// synthetic subjects for replay.
package recording

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/markers"
)

// ErrNoFrames is returned when a recording holds no marker rows.
var ErrNoFrames = errors.New("recording has no frames")

// Frame is one capture instant.
type Frame struct {
	Index   int
	Markers []markers.Marker
}

var header = []string{"frame", "label", "x", "y", "z", "residual"}

// ReadCSV parses a recording with one marker per row:
//
//	frame,label,x,y,z,residual
//
// Rows of one frame must be consecutive and frame numbers must not go
// backwards. A negative residual marks the marker occluded.
func ReadCSV(r io.Reader) ([]Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(header)
	reader.ReuseRecord = true

	first, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoFrames
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(first[i])) != h {
			return nil, fmt.Errorf("invalid header, expected: %s", strings.Join(header, ","))
		}
	}

	var frames []Frame
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		idx, m, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("invalid record at line %d: %w", line, err)
		}
		n := len(frames)
		switch {
		case n == 0 || idx > frames[n-1].Index:
			frames = append(frames, Frame{Index: idx})
			n++
		case idx < frames[n-1].Index:
			return nil, fmt.Errorf("frame %d at line %d follows frame %d", idx, line, frames[n-1].Index)
		}
		frames[n-1].Markers = append(frames[n-1].Markers, m)
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return frames, nil
}

func parseRow(record []string) (int, markers.Marker, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return 0, markers.Marker{}, fmt.Errorf("frame number: %w", err)
	}
	label := strings.TrimSpace(record[1])
	if label == "" {
		return 0, markers.Marker{}, errors.New("empty label")
	}
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(strings.TrimSpace(record[i+2]), 64)
		if err != nil {
			return 0, markers.Marker{}, fmt.Errorf("%s: %w", header[i+2], err)
		}
		v[i] = f
	}
	return idx, markers.Marker{
		Label:    label,
		Pos:      r3.Vec{X: v[0], Y: v[1], Z: v[2]},
		Residual: v[3],
		Occluded: v[3] < 0,
	}, nil
}

// WriteCSV writes frames in the format read by ReadCSV. Occluded markers
// are written with residual -1.
func WriteCSV(w io.Writer, frames []Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	row := make([]string, len(header))
	for _, f := range frames {
		row[0] = strconv.Itoa(f.Index)
		for _, m := range f.Markers {
			res := m.Residual
			if m.Occluded && !(res < 0) {
				res = -1
			}
			row[1] = m.Label
			row[2] = formatFloat(m.Pos.X)
			row[3] = formatFloat(m.Pos.Y)
			row[4] = formatFloat(m.Pos.Z)
			row[5] = formatFloat(res)
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write frame %d: %w", f.Index, err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadFile loads a CSV recording from disk.
func ReadFile(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()
	frames, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}

// WriteFile stores frames as a CSV recording.
func WriteFile(path string, frames []Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	if err := WriteCSV(f, frames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
