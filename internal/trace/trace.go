// Package trace defines a capture format for shader-constant upload streams
// and replays captures through a tracker. Traces come from an interception
// shell dumping real sessions or from the synthetic generator; either way
// the replay path exercises exactly the code a live session would.
package trace

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Upload is one constant-upload event: a register window start and the raw
// float payload, four floats per register.
type Upload struct {
	Slot uint32    `yaml:"slot"`
	Data []float32 `yaml:"data,flow"`
}

// Frame groups the uploads issued between two frame boundaries.
type Frame struct {
	Uploads []Upload `yaml:"uploads"`
}

// Trace is a recorded session: an ordered list of frames.
type Trace struct {
	Description string  `yaml:"description,omitempty"`
	Frames      []Frame `yaml:"frames"`
}

// Load reads a trace from a YAML file.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing trace %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("trace %s: %w", path, err)
	}
	return &t, nil
}

// Save writes a trace to a YAML file.
func (t *Trace) Save(path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// Validate checks structural soundness: every upload payload must be a
// whole number of 4-float registers.
func (t *Trace) Validate() error {
	for fi, f := range t.Frames {
		for ui, u := range f.Uploads {
			if len(u.Data) == 0 || len(u.Data)%4 != 0 {
				return fmt.Errorf("frame %d upload %d: payload length %d is not a multiple of 4",
					fi, ui, len(u.Data))
			}
		}
	}
	return nil
}

// Uploads returns the total upload count across all frames.
func (t *Trace) Uploads() int {
	n := 0
	for _, f := range t.Frames {
		n += len(f.Uploads)
	}
	return n
}

// uploadHandler is the slice of the tracker surface replay needs.
type uploadHandler interface {
	HandleConstantUpload(startSlot uint32, data []float32)
	HandleFrameBoundary()
}

// Replay feeds a trace through a tracker in recorded order: all of a
// frame's uploads, then its boundary. The optional perFrame hook runs after
// each boundary with the index of the completed frame.
func Replay(tr uploadHandler, t *Trace, perFrame func(frame int)) {
	for i, f := range t.Frames {
		for _, u := range f.Uploads {
			tr.HandleConstantUpload(u.Slot, u.Data)
		}
		tr.HandleFrameBoundary()
		if perFrame != nil {
			perFrame(i)
		}
	}
}
