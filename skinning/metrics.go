package skinning

import (
	"context"
	"sync"
	"time"

	"github.com/binzume/quadrig/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/binzume/quadrig/skinning"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	vertices metric.Int64Counter
	repaired metric.Int64Counter
	duration metric.Float64Histogram
}

var (
	instOnce sync.Once
	inst     *instruments
)

func newInstruments(m metric.Meter) (*instruments, error) {
	var i instruments
	var err error
	i.vertices, err = m.Int64Counter(
		"skinning.vertices",
		metric.WithDescription("Vertices weighted, by tier"),
	)
	if err != nil {
		return nil, err
	}
	i.repaired, err = m.Int64Counter(
		"skinning.rows.repaired",
		metric.WithDescription("Weight rows repaired by the validation pass"),
	)
	if err != nil {
		return nil, err
	}
	i.duration, err = m.Float64Histogram(
		"skinning.compute.duration",
		metric.WithDescription("ComputeWeights wall time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func getInstruments() *instruments {
	instOnce.Do(func() {
		var err error
		inst, err = newInstruments(meter())
		if err != nil {
			logging.Warnf("skinning metrics disabled: %v", err)
			inst, _ = newInstruments(noop.NewMeterProvider().Meter(instrumentationName))
		}
	})
	return inst
}

func recordStats(ctx context.Context, st *Stats, elapsed time.Duration) {
	i := getInstruments()
	for _, t := range []struct {
		tier  string
		count int
	}{
		{"ankle", st.Ankle},
		{"shoulder", st.Shoulder},
		{"head", st.Head},
		{"normal", st.Normal},
	} {
		i.vertices.Add(ctx, int64(t.count), metric.WithAttributes(attribute.String("tier", t.tier)))
	}
	i.repaired.Add(ctx, int64(st.Rescaled), metric.WithAttributes(attribute.String("action", "rescale")))
	i.repaired.Add(ctx, int64(st.Reset), metric.WithAttributes(attribute.String("action", "reset")))
	i.duration.Record(ctx, elapsed.Seconds())
}
