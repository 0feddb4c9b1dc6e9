package reference

import (
	"context"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	points []*write.Point
}

func (r *recordingWriter) WritePoint(_ context.Context, point ...*write.Point) error {
	r.points = append(r.points, point...)
	return nil
}

func TestInfluxFluxQuery(t *testing.T) {
	in := newInflux(InfluxOptions{Bucket: "energy"}, nil, nil, noopLogger())
	q := in.fluxQuery(day(2024, time.November, 1), day(2024, time.November, 30))

	assert.Contains(t, q, `from(bucket: "energy")`)
	assert.Contains(t, q, "start: 2024-11-01T00:00:00Z")
	assert.Contains(t, q, "stop: 2024-12-01T00:00:00Z")
	assert.Contains(t, q, `r._measurement == "pun_price"`)
	assert.Contains(t, q, `r._field == "eur_per_mwh"`)
}

func TestInfluxWritePrices(t *testing.T) {
	w := &recordingWriter{}
	in := newInflux(InfluxOptions{Bucket: "energy", Measurement: "pun"}, nil, w, noopLogger())

	points := SnapshotPrices()[:3]
	require.NoError(t, in.WritePrices(context.Background(), points))
	require.Len(t, w.points, 3)

	first := w.points[0]
	assert.Equal(t, "pun", first.Name())
	assert.Equal(t, points[0].Date.Time, first.Time())
	require.Len(t, first.FieldList(), 1)
	assert.Equal(t, "eur_per_mwh", first.FieldList()[0].Key)
	assert.InDelta(t, 110.5, first.FieldList()[0].Value, 1e-9)

	require.NoError(t, in.WritePrices(context.Background(), nil))
	assert.Len(t, w.points, 3)
}
