package skinning

import (
	"strings"

	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/logging"
	"github.com/binzume/quadrig/skeleton"
)

// RegionMap assigns a region to each bone index. Immutable once built.
type RegionMap struct {
	regions   []Region
	table     *RegionTable
	defaulted int
}

// ClassifyBones tags every bone with the region of the first matching
// rule. A nil table uses DefaultRegionTable.
func ClassifyBones(sk *skeleton.Skeleton, table *RegionTable) *RegionMap {
	if table == nil {
		table = DefaultRegionTable()
	}
	rm := &RegionMap{regions: make([]Region, len(sk.Bones)), table: table}
	for i, b := range sk.Bones {
		r, ok := table.Match(b.Name)
		if !ok {
			rm.defaulted++
		}
		rm.regions[i] = r
	}
	if rm.defaulted > 0 {
		logging.Infof("%d of %d bones matched no region keyword, tagged %s", rm.defaulted, len(sk.Bones), table.Default)
	}
	return rm
}

func (rm *RegionMap) Len() int {
	return len(rm.regions)
}

func (rm *RegionMap) Region(bone int) Region {
	return rm.regions[bone]
}

// Defaulted returns the number of bones that fell back to the default region.
func (rm *RegionMap) Defaulted() int {
	return rm.defaulted
}

func (rm *RegionMap) Table() *RegionTable {
	return rm.table
}

// Bones returns the indices of bones tagged with any of regions, ascending.
func (rm *RegionMap) Bones(regions ...Region) []int {
	var bones []int
	for i, r := range rm.regions {
		for _, want := range regions {
			if r == want {
				bones = append(bones, i)
				break
			}
		}
	}
	return bones
}

// AllowedBones returns the bones adjacent to region, or [fallback] if none.
func (rm *RegionMap) AllowedBones(region Region, fallback int) []int {
	if bones := rm.Bones(rm.table.Allowed(region)...); len(bones) > 0 {
		return bones
	}
	return []int{fallback}
}

// AllowedBones is rm.AllowedBones(region, fallback).
func AllowedBones(region Region, rm *RegionMap, fallback int) []int {
	return rm.AllowedBones(region, fallback)
}

type AnkleBone struct {
	Bone     int
	Position geom.Vector3
}

// KeyBones are the landmark bones used by the weight tiers. Bone indices
// are -1 when not found.
type KeyBones struct {
	Head          int
	HeadPosition  geom.Vector3
	Chest         int
	ChestPosition geom.Vector3
	Ankles        map[Region]AnkleBone
}

func (k *KeyBones) HasHead() bool {
	return k.Head >= 0
}

func (k *KeyBones) HasChest() bool {
	return k.Chest >= 0
}

// IdentifyKeyBones scans bones in index order. The head bone is the first
// head-region bone whose name and end joint name both contain the head
// marker; its position is the end joint head. The chest bone is the first
// bone named with the chest marker, positioned at its start joint head.
// For each ankle region the last bone in order wins.
func IdentifyKeyBones(sk *skeleton.Skeleton, rm *RegionMap) *KeyBones {
	kb := &KeyBones{Head: -1, Chest: -1, Ankles: map[Region]AnkleBone{}}
	headMarker := NormalizeName(rm.table.HeadMarker)
	chestMarker := NormalizeName(rm.table.ChestMarker)

	for i, b := range sk.Bones {
		name := NormalizeName(b.Name)
		end := sk.BoneEnd(b)
		region := rm.Region(i)

		if region == RegionHead && kb.Head < 0 && headMarker != "" &&
			strings.Contains(name, headMarker) && strings.Contains(NormalizeName(end.Name), headMarker) {
			kb.Head = i
			kb.HeadPosition = end.Head
			logging.Debugf("head bone: [%d] %s", i, b.Name)
		}
		if kb.Chest < 0 && chestMarker != "" && strings.Contains(name, chestMarker) {
			kb.Chest = i
			kb.ChestPosition = sk.BoneStart(b).Head
			logging.Debugf("chest bone: [%d] %s", i, b.Name)
		}
		if region.IsAnkle() {
			kb.Ankles[region] = AnkleBone{Bone: i, Position: end.Head}
		}
	}
	return kb
}
