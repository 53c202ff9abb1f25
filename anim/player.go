package anim

import (
	"math"

	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/logging"
	"github.com/binzume/quadrig/skeleton"
)

// Player steps a clip and poses a skeleton.
type Player struct {
	Loop    bool
	Playing bool

	sk   *skeleton.Skeleton
	clip *Clip
	time float64
}

func NewPlayer(sk *skeleton.Skeleton) *Player {
	return &Player{sk: sk, Loop: true}
}

// Load sets the clip and rewinds. Tracks of joints missing from the
// skeleton are ignored.
func (p *Player) Load(clip *Clip) {
	p.clip = clip
	p.time = 0
	for _, name := range clip.JointNames() {
		if p.sk.JointByName(name) == nil {
			logging.Warnf("clip %q animates unknown joint %q", clip.Name, name)
		}
	}
	logging.Debugf("loaded clip %q (%.2fs, %d joints)", clip.Name, clip.Duration, len(clip.Tracks))
}

func (p *Player) Clip() *Clip {
	return p.clip
}

func (p *Player) Time() float64 {
	return p.time
}

func (p *Player) Play() {
	p.Playing = true
}

func (p *Player) Pause() {
	p.Playing = false
}

// Stop pauses and rewinds to 0 without changing the pose.
func (p *Player) Stop() {
	p.Playing = false
	p.time = 0
}

// Advance moves a playing clip forward by dt seconds and applies the pose.
// Past the end it wraps when looping, otherwise it stops at the end.
func (p *Player) Advance(dt float64) error {
	if !p.Playing || p.clip == nil {
		return nil
	}
	p.time += dt
	if d := p.clip.Duration; p.time > d {
		if p.Loop && d > 0 {
			p.time = math.Mod(p.time, d)
		} else {
			p.time = d
			p.Playing = false
		}
	}
	return p.apply()
}

// Seek sets the time clamped to [0, duration] and applies the pose.
func (p *Player) Seek(t float64) error {
	if p.clip == nil {
		return nil
	}
	p.time = geom.Clamp(t, 0, p.clip.Duration)
	return p.apply()
}

func (p *Player) apply() error {
	pose := p.clip.Sample(p.time)
	for name := range pose {
		if p.sk.JointByName(name) == nil {
			delete(pose, name)
		}
	}
	return p.sk.SetPose(pose)
}
