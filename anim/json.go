package anim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type clipFile struct {
	Name      string                `json:"name"`
	Duration  float64               `json:"duration"`
	Keyframes map[string][]Keyframe `json:"keyframes"`
}

// ReadClip decodes {"name", "duration", "keyframes": {joint: [keyframe...]}}.
func ReadClip(r io.Reader) (*Clip, error) {
	var f clipFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	if f.Duration < 0 {
		return nil, fmt.Errorf("clip %q: negative duration %v", f.Name, f.Duration)
	}
	c := NewClip(f.Name, f.Duration)
	for joint, kfs := range f.Keyframes {
		for _, kf := range kfs {
			c.AddKeyframe(joint, kf)
		}
	}
	return c, nil
}

func WriteClip(c *Clip, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&clipFile{Name: c.Name, Duration: c.Duration, Keyframes: c.Tracks})
}

func LoadClip(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ReadClip(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func SaveClip(c *Clip, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteClip(c, f)
}
