package skinning

// Stats counts how vertices were weighted and which faults were repaired.
type Stats struct {
	Ankle    int
	Shoulder int
	Head     int
	Normal   int

	// HeadFallback counts head-region vertices weighted against all bones
	// because every bone was excluded.
	HeadFallback int

	// Degenerate counts rows whose weights summed below epsilon before
	// normalization and were assigned to a single bone.
	Degenerate int

	Rescaled int
	Reset    int
}

func (s *Stats) add(o *Stats) {
	s.Ankle += o.Ankle
	s.Shoulder += o.Shoulder
	s.Head += o.Head
	s.Normal += o.Normal
	s.HeadFallback += o.HeadFallback
	s.Degenerate += o.Degenerate
	s.Rescaled += o.Rescaled
	s.Reset += o.Reset
}

func (s *Stats) Total() int {
	return s.Ankle + s.Shoulder + s.Head + s.Normal
}
