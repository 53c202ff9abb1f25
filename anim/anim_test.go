package anim

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/skeleton"
)

func testClip() *Clip {
	c := NewClip("nod", 2)
	c.AddKeyframe("neck", NewKeyframe(2, [3]float64{1, 0, 0}))
	c.AddKeyframe("neck", NewKeyframe(0, [3]float64{0, 0, 0}))
	return c
}

func TestSampleTrack(t *testing.T) {
	const eps = 0.000001

	c := testClip()
	if c.Tracks["neck"][0].Time != 0 {
		t.Fatal("track not sorted")
	}
	for _, tc := range []struct {
		t, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0.25},
		{1, 0.5},
		{2, 1},
		{5, 1},
	} {
		kf, ok := c.SampleTrack("neck", tc.t)
		if !ok || math.Abs(kf.Rotation[0]-tc.want) > eps {
			t.Error("sample: ", tc.t, kf.Rotation)
		}
		if kf.Scale != [3]float64{1, 1, 1} {
			t.Error("scale: ", kf.Scale)
		}
	}
	if _, ok := c.SampleTrack("tail", 0); ok {
		t.Error("missing track should not sample")
	}
}

func TestKeyframeMatrix(t *testing.T) {
	const eps = 0.000001

	kf := NewKeyframe(0, [3]float64{0.1, 0.2, 0.3})
	kf.Translation = [3]float64{1, 2, 3}
	want := skeleton.NewLocalTransform(geom.NewVector3(1, 2, 3), geom.NewVector3(0.1, 0.2, 0.3), nil)
	if !kf.Matrix().ApproxEqual(want, eps) {
		t.Error("Matrix(): ", kf.Matrix())
	}
}

func TestReadClip(t *testing.T) {
	src := `{"name": "walk", "duration": 1.5, "keyframes": {
		"neck": [{"time": 1, "rotation": [0.5, 0, 0], "translation": [0, 0, 0]},
		         {"time": 0, "rotation": [0, 0, 0], "translation": [0, 0, 0], "scale": [2, 2, 2]}]}}`
	c, err := ReadClip(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "walk" || c.Duration != 1.5 || len(c.Tracks["neck"]) != 2 {
		t.Fatal("clip: ", c)
	}
	track := c.Tracks["neck"]
	if track[0].Scale != [3]float64{2, 2, 2} || track[1].Scale != [3]float64{1, 1, 1} {
		t.Error("scale defaults: ", track)
	}

	var buf bytes.Buffer
	if err := WriteClip(c, &buf); err != nil {
		t.Fatal(err)
	}
	c2, err := ReadClip(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if c2.Tracks["neck"][1].Rotation[0] != 0.5 {
		t.Error("written clip: ", c2.Tracks)
	}

	if _, err := ReadClip(strings.NewReader(`{"name": "x", "duration": -1}`)); err == nil {
		t.Error("negative duration should fail")
	}
}

func TestPlayer(t *testing.T) {
	const eps = 0.000001

	sk, err := skeleton.New([]skeleton.JointDesc{
		{Name: "root", Index: 0, Head: [3]float64{0, 0, 0}},
		{Name: "neck", Index: 1, Head: [3]float64{0, 0, 1}, Parent: "root"},
		{Name: "head", Index: 2, Head: [3]float64{0, 0, 2}, Parent: "neck"},
	})
	if err != nil {
		t.Fatal(err)
	}
	c := testClip()
	c.AddKeyframe("ghost", NewKeyframe(0, [3]float64{}))

	p := NewPlayer(sk)
	p.Load(c)

	// not playing: no change
	if err := p.Advance(1); err != nil || p.Time() != 0 {
		t.Error("paused player advanced: ", p.Time(), err)
	}

	p.Play()
	if err := p.Advance(2); err != nil {
		t.Fatal(err)
	}
	head, _ := sk.Slot("head")
	// neck rotated 1 rad around X: head (0,0,2) -> (0, -sin1, 1+cos1)
	want := geom.NewVector3(0, -math.Sin(1), 1+math.Cos(1))
	if sk.JointPosition(head).Sub(want).Len() > eps {
		t.Error("head position: ", sk.JointPosition(head), want)
	}

	// loop wraps
	if err := p.Advance(0.5); err != nil || math.Abs(p.Time()-0.5) > eps {
		t.Error("loop: ", p.Time(), err)
	}

	p.Loop = false
	if err := p.Advance(5); err != nil || p.Time() != 2 || p.Playing {
		t.Error("clamp at end: ", p.Time(), p.Playing, err)
	}

	if err := p.Seek(-3); err != nil || p.Time() != 0 {
		t.Error("Seek(): ", p.Time(), err)
	}
	if sk.JointPosition(head).Sub(geom.NewVector3(0, 0, 2)).Len() > eps {
		t.Error("rest position: ", sk.JointPosition(head))
	}

	p.Play()
	p.Stop()
	if p.Playing || p.Time() != 0 {
		t.Error("Stop()")
	}
}
