package skinning

import (
	"testing"

	"github.com/binzume/quadrig/skeleton"
)

func TestNormalizeName(t *testing.T) {
	for _, c := range []struct{ in, want string }{
		{"rigLFLegAnkle", "riglflegankle"},
		{"rig_L.FLeg Ankle", "riglflegankle"},
		{"RIG-HEAD", "righead"},
		{"rígHéad", "righead"},
		{"", ""},
	} {
		if got := NormalizeName(c.in); got != c.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClassifyBones(t *testing.T) {
	sk := newQuadruped(t)
	rm := ClassifyBones(sk, nil)

	want := map[string]Region{
		"rigRoot_to_rigSpine1":       RegionSpine,
		"rigSpine1_to_rigChest":      RegionSpine,
		"rigChest_to_rigNeck1":       RegionNeck,
		"rigNeck1_to_rigHead":        RegionHead,
		"rigRoot_to_rigTail1":        RegionTail,
		"rigChest_to_rigLFLeg1":      RegionFrontLegL,
		"rigLFLeg2_to_rigLFLegAnkle": RegionAnkleFL,
		"rigRFLeg2_to_rigRFLegAnkle": RegionAnkleFR,
		"rigLBLeg1_to_rigLBLeg2":     RegionBackLegL,
		"rigRBLeg2_to_rigRBLegAnkle": RegionAnkleBR,
		"rigRoot_to_rigRBLeg1":       RegionBackLegR,
	}
	if rm.Len() != len(sk.Bones) {
		t.Fatal("Len(): ", rm.Len())
	}
	for i, b := range sk.Bones {
		if r, ok := want[b.Name]; ok && rm.Region(i) != r {
			t.Errorf("%s: got %s, want %s", b.Name, rm.Region(i), r)
		}
	}
	if rm.Defaulted() != 0 {
		t.Error("Defaulted(): ", rm.Defaulted())
	}
}

func TestClassifyDefaultsToSpine(t *testing.T) {
	sk, err := skeleton.New([]skeleton.JointDesc{
		{Name: "body", Index: 0},
		{Name: "wing", Index: 1, Parent: "body"},
	})
	if err != nil {
		t.Fatal(err)
	}
	rm := ClassifyBones(sk, nil)
	if rm.Region(0) != RegionSpine || rm.Defaulted() != 1 {
		t.Error("unmatched bone: ", rm.Region(0), rm.Defaulted())
	}
}

func TestRuleOrder(t *testing.T) {
	table := DefaultRegionTable()
	// ankle keywords contain the leg keywords
	if r, _ := table.Match("rigLBLeg2_to_rigLBLegAnkle"); r != RegionAnkleBL {
		t.Error("ankle before leg: ", r)
	}

	// same table with legs first misclassifies the ankle
	reordered := &RegionTable{Rules: append([]RegionRule{}, table.Rules[7:]...), Default: RegionSpine}
	reordered.Rules = append(reordered.Rules, table.Rules[:7]...)
	if r, _ := reordered.Match("rigLBLeg2_to_rigLBLegAnkle"); r != RegionBackLegL {
		t.Error("reordered table: ", r)
	}

	if r, ok := table.Match("someBone"); ok || r != RegionSpine {
		t.Error("no match: ", r, ok)
	}
}

func TestIdentifyKeyBones(t *testing.T) {
	sk := newQuadruped(t)
	rm := ClassifyBones(sk, nil)
	kb := IdentifyKeyBones(sk, rm)

	if !kb.HasHead() || sk.Bones[kb.Head].Name != "rigNeck1_to_rigHead" {
		t.Fatal("head bone: ", kb.Head)
	}
	if kb.HeadPosition != sk.JointByName("rigHead").Head {
		t.Error("head position: ", kb.HeadPosition)
	}
	if !kb.HasChest() || sk.Bones[kb.Chest].Name != "rigSpine1_to_rigChest" {
		t.Fatal("chest bone: ", kb.Chest)
	}
	if kb.ChestPosition != sk.JointByName("rigSpine1").Head {
		t.Error("chest position: ", kb.ChestPosition)
	}
	if len(kb.Ankles) != 4 {
		t.Fatal("ankles: ", kb.Ankles)
	}
	fl := kb.Ankles[RegionAnkleFL]
	if sk.Bones[fl.Bone].Name != "rigLFLeg2_to_rigLFLegAnkle" || fl.Position != sk.JointByName("rigLFLegAnkle").Head {
		t.Error("front left ankle: ", fl)
	}
}

func TestIdentifyKeyBonesMissing(t *testing.T) {
	sk, err := skeleton.New([]skeleton.JointDesc{
		{Name: "rigRoot", Index: 0},
		{Name: "rigNeck", Index: 1, Parent: "rigRoot"},
		// head-region bone whose end joint is not a head joint
		{Name: "rigJaw", Index: 2, Parent: "rigNeck"},
	})
	if err != nil {
		t.Fatal(err)
	}
	kb := IdentifyKeyBones(sk, ClassifyBones(sk, nil))
	if kb.HasHead() || kb.HasChest() || len(kb.Ankles) != 0 {
		t.Error("no key bones expected: ", kb)
	}
}

func TestAllowedBones(t *testing.T) {
	sk := newQuadruped(t)
	rm := ClassifyBones(sk, nil)

	for _, b := range AllowedBones(RegionAnkleFL, rm, 0) {
		if r := rm.Region(b); r != RegionAnkleFL && r != RegionFrontLegL {
			t.Error("ankle_FL allows ", r)
		}
	}
	if n := len(rm.AllowedBones(RegionAnkleFL, 0)); n != 3 {
		t.Error("ankle_FL bones: ", n)
	}

	// regions missing from the table allow themselves and spine
	for _, b := range rm.AllowedBones(Region("wing"), 0) {
		if rm.Region(b) != RegionSpine {
			t.Error("unknown region allows ", rm.Region(b))
		}
	}

	sparse := ClassifyBones(sk, &RegionTable{
		Rules:     []RegionRule{{RegionTail, []string{"rigTail"}}},
		Adjacency: map[Region][]Region{RegionTail: {RegionHead}},
		Default:   RegionSpine,
	})
	if got := sparse.AllowedBones(RegionTail, 7); len(got) != 1 || got[0] != 7 {
		t.Error("fallback: ", got)
	}
}
