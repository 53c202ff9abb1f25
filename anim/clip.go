// Package anim samples keyframe clips into skeleton poses.
package anim

import (
	"encoding/json"
	"sort"

	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/skeleton"
)

type Keyframe struct {
	Time float64 `json:"time"`

	// Rotation is Euler XYZ in radians, composed as Rz·Ry·Rx.
	Rotation    [3]float64 `json:"rotation"`
	Translation [3]float64 `json:"translation"`
	Scale       [3]float64 `json:"scale"`
}

func NewKeyframe(time float64, rotation [3]float64) Keyframe {
	return Keyframe{Time: time, Rotation: rotation, Scale: [3]float64{1, 1, 1}}
}

// UnmarshalJSON defaults a missing scale to 1.
func (k *Keyframe) UnmarshalJSON(b []byte) error {
	type keyframe Keyframe
	kf := keyframe{Scale: [3]float64{1, 1, 1}}
	if err := json.Unmarshal(b, &kf); err != nil {
		return err
	}
	*k = Keyframe(kf)
	return nil
}

// Matrix returns T·R·S.
func (k *Keyframe) Matrix() *geom.Matrix4 {
	return skeleton.NewLocalTransform(
		geom.NewVector3FromArray(k.Translation),
		geom.NewVector3FromArray(k.Rotation),
		geom.NewVector3FromArray(k.Scale))
}

func lerp3(a, b [3]float64, t float64) [3]float64 {
	return [3]float64{geom.Lerp(a[0], b[0], t), geom.Lerp(a[1], b[1], t), geom.Lerp(a[2], b[2], t)}
}

// Interpolate blends two keyframes componentwise. t is clamped to [0, 1].
func Interpolate(k0, k1 *Keyframe, t float64) Keyframe {
	return Keyframe{
		Time:        geom.Lerp(k0.Time, k1.Time, t),
		Rotation:    lerp3(k0.Rotation, k1.Rotation, t),
		Translation: lerp3(k0.Translation, k1.Translation, t),
		Scale:       lerp3(k0.Scale, k1.Scale, t),
	}
}

type Clip struct {
	Name     string
	Duration float64
	Tracks   map[string][]Keyframe
}

func NewClip(name string, duration float64) *Clip {
	return &Clip{Name: name, Duration: duration, Tracks: map[string][]Keyframe{}}
}

// AddKeyframe inserts kf keeping the track sorted by time.
func (c *Clip) AddKeyframe(joint string, kf Keyframe) {
	track := append(c.Tracks[joint], kf)
	sort.SliceStable(track, func(i, j int) bool { return track[i].Time < track[j].Time })
	c.Tracks[joint] = track
}

// JointNames returns the animated joints in sorted order.
func (c *Clip) JointNames() []string {
	names := make([]string, 0, len(c.Tracks))
	for name := range c.Tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SampleTrack returns the interpolated keyframe of joint at time t.
// Times outside the track are clamped to its first or last keyframe.
func (c *Clip) SampleTrack(joint string, t float64) (Keyframe, bool) {
	track := c.Tracks[joint]
	switch {
	case len(track) == 0:
		return Keyframe{}, false
	case len(track) == 1 || t <= track[0].Time:
		return track[0], true
	case t >= track[len(track)-1].Time:
		return track[len(track)-1], true
	}
	i := sort.Search(len(track), func(i int) bool { return track[i].Time > t })
	k0, k1 := &track[i-1], &track[i]
	blend := 0.0
	if k1.Time > k0.Time {
		blend = (t - k0.Time) / (k1.Time - k0.Time)
	}
	return Interpolate(k0, k1, blend), true
}

// Sample returns the local transforms of all animated joints at time t.
func (c *Clip) Sample(t float64) map[string]*geom.Matrix4 {
	pose := make(map[string]*geom.Matrix4, len(c.Tracks))
	for name := range c.Tracks {
		if kf, ok := c.SampleTrack(name, t); ok {
			pose[name] = kf.Matrix()
		}
	}
	return pose
}
