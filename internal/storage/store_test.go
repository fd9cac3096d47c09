package storage

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/crustheat/internal/metrics"
	"github.com/san-kum/crustheat/internal/thermal"
)

func quickResult(t *testing.T) (thermal.SimulationConfig, *thermal.Result) {
	t.Helper()
	cfg := thermal.DefaultConfig()
	cfg.DomainWidthKm = 2
	cfg.DomainDepthKm = 1
	cfg.VerticalBodyWidthKm = 0.2
	cfg.HorizontalBodyLengthKm = 0.5
	cfg.HorizontalBodyDepthKm = 0.3
	cfg.Steps = 5

	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.WarnLevel)
	sim, err := thermal.New(cfg, thermal.WithLogger(log))
	require.NoError(t, err)
	res, err := sim.Run(context.Background())
	require.NoError(t, err)
	return cfg, res
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg, res := quickResult(t)
	runID, err := st.Save("mars test", cfg, res, map[string]float64{"peak": 1300})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.NotContains(t, runID, " ")

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "mars test", meta.Name)
	assert.Equal(t, 40, meta.SizeX)
	assert.Equal(t, 20, meta.SizeY)
	assert.Equal(t, 5, meta.StepsTaken)
	assert.Equal(t, cfg, meta.Config)
	assert.InDelta(t, 0.25, meta.FourierNumber, 1e-12)
	assert.Equal(t, 1300.0, meta.Metrics["peak"])

	field, err := st.LoadField(runID)
	require.NoError(t, err)
	assert.True(t, field.Equal(res.Final.Field), "field should round-trip exactly")
}

func TestStoreUniqueIDs(t *testing.T) {
	st := New(t.TempDir())
	cfg, res := quickResult(t)

	var wg sync.WaitGroup
	ids := make([]string, 4)
	errs := make([]error, 4)
	for k := range ids {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			ids[k], errs[k] = st.Save("sweep", cfg, res, nil)
		}(k)
	}
	wg.Wait()

	seen := map[string]bool{}
	for k, id := range ids {
		require.NoError(t, errs[k])
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	runs, err := st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestStoreList_Missing(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreList_SkipsJunk(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broken"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken", metadataFile), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644))

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreSave_NoField(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Save("x", thermal.DefaultConfig(), &thermal.Result{}, nil)
	assert.Error(t, err)
}

func TestLoadField_Malformed(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	run := filepath.Join(dir, "bad")
	require.NoError(t, os.MkdirAll(run, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(run, fieldFile), []byte("depth_km,0,1\n0,1,abc\n"), 0644))

	_, err := st.LoadField("bad")
	assert.Error(t, err)
}

func TestStoreLoadSnapshot(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg, res := quickResult(t)
	runID, err := st.Save("snap", cfg, res, nil)
	require.NoError(t, err)

	meta, snap, err := st.LoadSnapshot(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, res.Final.Step, snap.Step)
	assert.Equal(t, res.Final.TotalSteps, snap.TotalSteps)
	assert.Equal(t, res.Final.Dx, snap.Dx)
	assert.InDelta(t, res.Final.ElapsedSeconds, snap.ElapsedSeconds, 1e-3)
	assert.Equal(t, res.Final.Grid(), snap.Grid())
	assert.True(t, snap.Field.Equal(res.Final.Field))

	_, _, err = st.LoadSnapshot("missing")
	assert.Error(t, err)
}

func TestStoreSave_CanceledRun(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	cfg, _ := quickResult(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	sim, err := thermal.New(cfg, thermal.WithLogger(log))
	require.NoError(t, err)

	set := metrics.Default(sim.Snapshot().Field)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := sim.Run(ctx, set)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)

	values := set.Values()
	require.True(t, math.IsNaN(values["peak_temperature"]), "no snapshot reached the metric")

	runID, err := st.Save("canceled", cfg, res, values)
	require.NoError(t, err)

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, 0, runs[0].StepsTaken)
	assert.NotContains(t, runs[0].Metrics, "peak_temperature")
	assert.Contains(t, runs[0].Metrics, "bounds")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFiniteMetrics(t *testing.T) {
	got := finiteMetrics(map[string]float64{
		"ok":   1.5,
		"nan":  math.NaN(),
		"inf":  math.Inf(1),
		"zero": 0,
	})
	assert.Equal(t, map[string]float64{"ok": 1.5, "zero": 0}, got)
	assert.Nil(t, finiteMetrics(nil))
}
