// Package skinning classifies bones into anatomical regions, computes
// per-vertex skinning weights and deforms meshes with linear blend skinning.
package skinning

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Region string

const (
	RegionHead      Region = "head"
	RegionNeck      Region = "neck"
	RegionSpine     Region = "spine"
	RegionTail      Region = "tail"
	RegionBackLegL  Region = "back_leg_L"
	RegionBackLegR  Region = "back_leg_R"
	RegionFrontLegL Region = "front_leg_L"
	RegionFrontLegR Region = "front_leg_R"
	RegionAnkleBL   Region = "ankle_BL"
	RegionAnkleBR   Region = "ankle_BR"
	RegionAnkleFL   Region = "ankle_FL"
	RegionAnkleFR   Region = "ankle_FR"
)

// AnkleRegions in key bone order.
var AnkleRegions = []Region{RegionAnkleBL, RegionAnkleBR, RegionAnkleFL, RegionAnkleFR}

func (r Region) IsAnkle() bool {
	return strings.HasPrefix(string(r), "ankle_")
}

// IsLeft reports whether an ankle or leg region is on the left (X > 0) side.
func (r Region) IsLeft() bool {
	return strings.HasSuffix(string(r), "L")
}

// RegionRule maps name keywords to a region. Rules are tested in order.
type RegionRule struct {
	Region   Region   `yaml:"region" toml:"region"`
	Keywords []string `yaml:"keywords" toml:"keywords"`
}

// RegionTable drives bone classification.
type RegionTable struct {
	Rules []RegionRule `yaml:"rules" toml:"rules"`

	// Adjacency lists the regions whose bones may influence a vertex nearest
	// to a bone of the key region. Missing regions allow {region, spine}.
	Adjacency map[Region][]Region `yaml:"adjacency" toml:"adjacency"`

	// Default is assigned to bones matching no rule.
	Default     Region `yaml:"default" toml:"default"`
	HeadMarker  string `yaml:"head_marker" toml:"head_marker"`
	ChestMarker string `yaml:"chest_marker" toml:"chest_marker"`
}

func DefaultRegionTable() *RegionTable {
	return &RegionTable{
		Rules: []RegionRule{
			{RegionAnkleBL, []string{"rigLBLegAnkle"}},
			{RegionAnkleBR, []string{"rigRBLegAnkle"}},
			{RegionAnkleFL, []string{"rigLFLegAnkle"}},
			{RegionAnkleFR, []string{"rigRFLegAnkle"}},
			{RegionHead, []string{"rigHead", "rigJaw", "rigTongue", "rigEyelid", "rigEar"}},
			{RegionNeck, []string{"rigNeck"}},
			{RegionTail, []string{"rigTail"}},
			{RegionBackLegL, []string{"rigLBLeg"}},
			{RegionBackLegR, []string{"rigRBLeg"}},
			{RegionFrontLegL, []string{"rigLFLeg", "rigLFLegCollarbone"}},
			{RegionFrontLegR, []string{"rigRFLeg", "rigRFLegCollarbone"}},
			{RegionSpine, []string{"rigRoot", "rigPelvis", "rigSpine", "rigChest"}},
		},
		Adjacency: map[Region][]Region{
			RegionHead:      {RegionHead, RegionNeck},
			RegionNeck:      {RegionHead, RegionNeck, RegionSpine},
			RegionSpine:     {RegionSpine, RegionNeck},
			RegionTail:      {RegionTail, RegionSpine},
			RegionFrontLegL: {RegionFrontLegL, RegionSpine},
			RegionFrontLegR: {RegionFrontLegR, RegionSpine},
			RegionBackLegL:  {RegionBackLegL, RegionSpine},
			RegionBackLegR:  {RegionBackLegR, RegionSpine},
			RegionAnkleBL:   {RegionAnkleBL, RegionBackLegL},
			RegionAnkleBR:   {RegionAnkleBR, RegionBackLegR},
			RegionAnkleFL:   {RegionAnkleFL, RegionFrontLegL},
			RegionAnkleFR:   {RegionAnkleFR, RegionFrontLegR},
		},
		Default:     RegionSpine,
		HeadMarker:  "rigHead",
		ChestMarker: "chest",
	}
}

// Allowed returns the adjacency set of r.
func (t *RegionTable) Allowed(r Region) []Region {
	if adj, ok := t.Adjacency[r]; ok {
		return adj
	}
	return []Region{r, RegionSpine}
}

// Match returns the region of the first rule with a keyword contained in
// the normalized name.
func (t *RegionTable) Match(name string) (Region, bool) {
	n := NormalizeName(name)
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if k := NormalizeName(kw); k != "" && strings.Contains(n, k) {
				return rule.Region, true
			}
		}
	}
	return t.Default, false
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}

// NormalizeName folds case and removes separators and diacritics, so
// "rig_L.FLeg Ankle" and "riglflegankle" compare equal.
func NormalizeName(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(isSeparator)),
		cases.Fold(),
		norm.NFC,
	)
	r, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return r
}
