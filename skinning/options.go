package skinning

import (
	"errors"
	"fmt"
)

// ShoulderBox is a box around the chest position. Offsets are fractions of
// the model height; Lateral bounds apply to |dx|.
type ShoulderBox struct {
	LateralMin  float64 `yaml:"lateral_min" toml:"lateral_min"`
	LateralMax  float64 `yaml:"lateral_max" toml:"lateral_max"`
	ForwardMin  float64 `yaml:"forward_min" toml:"forward_min"`
	ForwardMax  float64 `yaml:"forward_max" toml:"forward_max"`
	VerticalMin float64 `yaml:"vertical_min" toml:"vertical_min"`
	VerticalMax float64 `yaml:"vertical_max" toml:"vertical_max"`
}

func (b *ShoulderBox) Contains(dx, dy, dz, height float64) bool {
	if dx < 0 {
		dx = -dx
	}
	return b.LateralMin*height < dx && dx < b.LateralMax*height &&
		b.ForwardMin*height < dy && dy < b.ForwardMax*height &&
		b.VerticalMin*height < dz && dz < b.VerticalMax*height
}

// Options are the weight calculator parameters. The spatial thresholds are
// tuned for one quadruped model.
type Options struct {
	MaxInfluences int     `yaml:"max_influences" toml:"max_influences"`
	Epsilon       float64 `yaml:"epsilon" toml:"epsilon"`

	// Workers limits the goroutines used per computation. 0 means GOMAXPROCS.
	Workers int `yaml:"workers" toml:"workers"`

	AnkleRadius          float64 `yaml:"ankle_radius" toml:"ankle_radius"`
	AnkleHeightTolerance float64 `yaml:"ankle_height_tolerance" toml:"ankle_height_tolerance"`

	Shoulder         ShoulderBox `yaml:"shoulder" toml:"shoulder"`
	ShoulderExponent float64     `yaml:"shoulder_exponent" toml:"shoulder_exponent"`
	ShoulderRegions  []Region    `yaml:"shoulder_regions" toml:"shoulder_regions"`

	HeadMargin       float64  `yaml:"head_margin" toml:"head_margin"`
	HeadExcluded     []Region `yaml:"head_excluded" toml:"head_excluded"`
	DistanceFloor    float64  `yaml:"distance_floor" toml:"distance_floor"`
	DistanceExponent float64  `yaml:"distance_exponent" toml:"distance_exponent"`

	Regions *RegionTable `yaml:"regions" toml:"regions"`
}

func DefaultOptions() *Options {
	return &Options{
		MaxInfluences:        4,
		Epsilon:              1e-6,
		AnkleRadius:          0.04,
		AnkleHeightTolerance: 0.02,
		Shoulder: ShoulderBox{
			LateralMin:  0.03,
			LateralMax:  0.35,
			ForwardMin:  -0.25,
			ForwardMax:  0.25,
			VerticalMin: -0.15,
			VerticalMax: 0.30,
		},
		ShoulderExponent: 1.5,
		ShoulderRegions:  []Region{RegionSpine, RegionFrontLegL, RegionFrontLegR, RegionNeck},
		HeadMargin:       0.02,
		HeadExcluded: []Region{
			RegionBackLegL, RegionBackLegR, RegionFrontLegL, RegionFrontLegR,
			RegionAnkleBL, RegionAnkleBR, RegionAnkleFL, RegionAnkleFR,
			RegionSpine, RegionTail,
		},
		DistanceFloor:    0.001,
		DistanceExponent: 2,
		Regions:          DefaultRegionTable(),
	}
}

var ErrOptions = errors.New("invalid skinning options")

func (o *Options) Validate() error {
	switch {
	case o.MaxInfluences < 1:
		return fmt.Errorf("%w: max_influences must be >= 1, got %d", ErrOptions, o.MaxInfluences)
	case o.Epsilon <= 0:
		return fmt.Errorf("%w: epsilon must be > 0", ErrOptions)
	case o.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0", ErrOptions)
	case o.AnkleRadius <= 0:
		return fmt.Errorf("%w: ankle_radius must be > 0", ErrOptions)
	case o.DistanceFloor <= 0:
		return fmt.Errorf("%w: distance_floor must be > 0", ErrOptions)
	case o.Shoulder.LateralMin > o.Shoulder.LateralMax ||
		o.Shoulder.ForwardMin > o.Shoulder.ForwardMax ||
		o.Shoulder.VerticalMin > o.Shoulder.VerticalMax:
		return fmt.Errorf("%w: shoulder box min exceeds max", ErrOptions)
	case o.Regions == nil || len(o.Regions.Rules) == 0:
		return fmt.Errorf("%w: region table has no rules", ErrOptions)
	}
	return nil
}
