package skinning

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/logging"
	"github.com/binzume/quadrig/mesh"
	"github.com/binzume/quadrig/skeleton"
)

var (
	ErrNoBones    = errors.New("skeleton has no bones")
	ErrNoVertices = errors.New("mesh has no vertices")
)

// Calculator computes skinning weights for a mesh/skeleton pair.
type Calculator struct {
	opts *Options
}

func NewCalculator(opts *Options) (*Calculator, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Regions == nil {
		opts.Regions = DefaultRegionTable()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{opts: opts}, nil
}

func (c *Calculator) Options() *Options {
	return c.opts
}

// headZone is the space in front of and above the head.
type headZone struct {
	valid  bool
	bottom float64
	rear   float64
}

func (z *headZone) contains(v *geom.Vector3) bool {
	return z.valid && v.Z >= z.bottom && v.Y <= z.rear
}

// binding is the read-only state shared by all workers.
type binding struct {
	opts     *Options
	sk       *skeleton.Skeleton
	regions  *RegionMap
	keys     *KeyBones
	height   float64
	segments [][2]*geom.Vector3
	allBones []int

	shoulderBones []int
	head          headZone
	headBones     []int
	headFallback  bool
}

func (c *Calculator) bind(m *mesh.Mesh, sk *skeleton.Skeleton) *binding {
	o := c.opts
	b := &binding{
		opts:     o,
		sk:       sk,
		regions:  ClassifyBones(sk, o.Regions),
		height:   m.Height(),
		segments: make([][2]*geom.Vector3, len(sk.Bones)),
		allBones: make([]int, len(sk.Bones)),
	}
	b.keys = IdentifyKeyBones(sk, b.regions)
	for i, bone := range sk.Bones {
		start, end := sk.BoneSegment(bone)
		b.segments[i] = [2]*geom.Vector3{start, end}
		b.allBones[i] = i
	}
	b.shoulderBones = b.regions.Bones(o.ShoulderRegions...)

	b.head = headZoneOf(b)
	excluded := map[Region]bool{}
	for _, r := range o.HeadExcluded {
		excluded[r] = true
	}
	for i := range sk.Bones {
		if !excluded[b.regions.Region(i)] {
			b.headBones = append(b.headBones, i)
		}
	}
	if len(b.headBones) == 0 {
		b.headBones = b.allBones
		b.headFallback = true
	}
	return b
}

// headZoneOf bounds the head region by the head-tagged bones. Neck bones
// only count when there is no head bone: the first neck bone starts at the
// chest, and a zone reaching down to it swallows the shoulders. The bottom
// is the head key position when one was identified.
func headZoneOf(b *binding) headZone {
	bones := b.regions.Bones(RegionHead)
	if len(bones) == 0 {
		bones = b.regions.Bones(RegionNeck)
	}
	zone := geom.NewBox3()
	for _, i := range bones {
		zone.Extend(b.segments[i][0]).Extend(b.segments[i][1])
	}
	if zone.Empty() {
		return headZone{}
	}
	margin := b.opts.HeadMargin * b.height
	bottom := zone.Min.Z
	if b.keys.HasHead() {
		bottom = b.keys.HeadPosition.Z
	}
	return headZone{valid: true, bottom: bottom - margin, rear: zone.Max.Y + margin}
}

// ComputeWeights assigns every vertex a normalized row of at most
// MaxInfluences bone weights. Tiers are tried in order: ankle, shoulder,
// head region, nearest-bone region.
func (c *Calculator) ComputeWeights(m *mesh.Mesh, sk *skeleton.Skeleton) (*WeightMatrix, *Stats, error) {
	if len(sk.Bones) == 0 {
		return nil, nil, ErrNoBones
	}
	if len(m.Vertices) == 0 {
		return nil, nil, ErrNoVertices
	}
	start := time.Now()
	b := c.bind(m, sk)
	if b.height <= 0 {
		logging.Warnf("mesh %q has zero height, ankle and shoulder zones are empty", m.Name)
	}
	logging.Debugf("weights: %d vertices, %d bones, height %.3f", len(m.Vertices), len(sk.Bones), b.height)

	weights := NewWeightMatrix(len(m.Vertices), len(sk.Bones))
	chunkStats := make([]Stats, chunkCount(len(m.Vertices), c.opts.Workers))
	err := forEachChunk(len(m.Vertices), c.opts.Workers, func(chunk, lo, hi int) error {
		st := &chunkStats[chunk]
		scratch := make([]candidate, 0, len(sk.Bones))
		for v := lo; v < hi; v++ {
			b.computeRow(&m.Vertices[v], weights.Row(v), st, scratch)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("compute weights: %w", err)
	}

	stats := &Stats{}
	for i := range chunkStats {
		stats.add(&chunkStats[i])
	}
	c.normalizeRows(weights, stats)
	recordStats(context.Background(), stats, time.Since(start))

	logging.Infof("weights: ankle=%d shoulder=%d head=%d normal=%d", stats.Ankle, stats.Shoulder, stats.Head, stats.Normal)
	if stats.HeadFallback > 0 {
		logging.Warnf("%d head-region vertices weighted against all bones", stats.HeadFallback)
	}
	if stats.Degenerate > 0 {
		logging.Warnf("%d vertices had degenerate weights and were bound to one bone", stats.Degenerate)
	}
	return weights, stats, nil
}

func (b *binding) computeRow(v *geom.Vector3, row []float64, st *Stats, scratch []candidate) {
	if bone, ok := b.ankleBone(v); ok {
		row[bone] = 1
		st.Ankle++
		return
	}
	if b.inShoulder(v) && len(b.shoulderBones) > 0 {
		b.blend(v, b.shoulderBones, b.opts.ShoulderExponent, row, st, scratch)
		st.Shoulder++
		return
	}
	if b.head.contains(v) {
		b.blend(v, b.headBones, b.opts.DistanceExponent, row, st, scratch)
		st.Head++
		if b.headFallback {
			st.HeadFallback++
		}
		return
	}
	nearest := b.nearestBone(v)
	allowed := b.regions.AllowedBones(b.regions.Region(nearest), nearest)
	b.blend(v, allowed, b.opts.DistanceExponent, row, st, scratch)
	st.Normal++
}

// ankleBone returns the nearest same-side ankle bone whose ankle joint
// is within the ankle radius and not far below the vertex.
func (b *binding) ankleBone(v *geom.Vector3) (int, bool) {
	radius := b.opts.AnkleRadius * b.height
	tolerance := b.opts.AnkleHeightTolerance * b.height
	left := v.X > 0

	best, bestDist := -1, math.Inf(1)
	for _, r := range AnkleRegions {
		ankle, ok := b.keys.Ankles[r]
		if !ok || r.IsLeft() != left {
			continue
		}
		d := v.Distance(&ankle.Position)
		if v.Z < ankle.Position.Z+tolerance && d < radius && d < bestDist {
			best, bestDist = ankle.Bone, d
		}
	}
	return best, best >= 0
}

func (b *binding) inShoulder(v *geom.Vector3) bool {
	if !b.keys.HasChest() {
		return false
	}
	d := v.Sub(&b.keys.ChestPosition)
	return b.opts.Shoulder.Contains(d.X, d.Y, d.Z, b.height)
}

func (b *binding) distance(v *geom.Vector3, bone int) float64 {
	return geom.PointToSegmentDistance(v, b.segments[bone][0], b.segments[bone][1])
}

// nearestBone returns the bone closest to v; ties keep the lowest index.
func (b *binding) nearestBone(v *geom.Vector3) int {
	nearest, best := 0, math.Inf(1)
	for i := range b.segments {
		if d := b.distance(v, i); d < best {
			nearest, best = i, d
		}
	}
	return nearest
}

type candidate struct {
	bone   int
	dist   float64
	weight float64
}

// blend writes inverse-distance weights of the MaxInfluences nearest
// candidates into row.
func (b *binding) blend(v *geom.Vector3, bones []int, exponent float64, row []float64, st *Stats, scratch []candidate) {
	cands := scratch[:0]
	for _, bone := range bones {
		cands = append(cands, candidate{bone: bone, dist: b.distance(v, bone)})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].bone < cands[j].bone
	})
	if len(cands) > b.opts.MaxInfluences {
		cands = cands[:b.opts.MaxInfluences]
	}

	scale := cands[0].dist + b.opts.DistanceFloor
	var total float64
	for i, c := range cands {
		cands[i].weight = 1 / (math.Pow(c.dist/scale, exponent) + 0.01)
		total += cands[i].weight
	}
	if total <= b.opts.Epsilon {
		row[cands[0].bone] = 1
		st.Degenerate++
		return
	}
	for _, c := range cands {
		row[c.bone] = c.weight / total
	}
}

// normalizeRows rescales rows whose sum is off by more than RowTolerance
// and binds empty rows to bone 0.
func (c *Calculator) normalizeRows(w *WeightMatrix, st *Stats) {
	for v := 0; v < w.Rows; v++ {
		sum := w.RowSum(v)
		if math.Abs(sum-1) <= RowTolerance {
			continue
		}
		row := w.Row(v)
		if sum > c.opts.Epsilon {
			for i := range row {
				row[i] /= sum
			}
			st.Rescaled++
			continue
		}
		for i := range row {
			row[i] = 0
		}
		row[0] = 1
		st.Reset++
	}
	if st.Rescaled > 0 || st.Reset > 0 {
		logging.Warnf("weight validation: %d rows rescaled, %d rows reset to bone 0", st.Rescaled, st.Reset)
	}
}
