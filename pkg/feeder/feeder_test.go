package feeder

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/eisplot/pkg/circuit"
	"github.com/kacperjurak/eisplot/pkg/config"
	"github.com/kacperjurak/eisplot/pkg/iteration"
	"github.com/kacperjurak/eisplot/pkg/server"
	"github.com/kacperjurak/eisplot/pkg/webhook"
)

var simTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func simulateOpts() SimulateOptions {
	return SimulateOptions{
		Circuit: "R(QR)",
		Spectra: 6,
		Points:  30,
		FMin:    0.1,
		FMax:    1e5,
		RunID:   "run",
		Seed:    1,
		Now:     func() time.Time { return simTime },
	}
}

func TestSimulateShape(t *testing.T) {
	records, err := Simulate(simulateOpts())
	require.NoError(t, err)
	require.Len(t, records, 6)

	for i, rec := range records {
		n, ok := iteration.Number(rec.ID)
		require.True(t, ok, rec.ID)
		assert.Equal(t, i+1, n)
		assert.Len(t, rec.RealImpedance, 30)
		assert.Len(t, rec.ImaginaryImpedance, 30)
		assert.Len(t, rec.Frequencies, 30)
		assert.Equal(t, circuit.Elements("R(QR)"), rec.ElementNames)
		assert.Len(t, rec.Parameters, len(rec.ElementNames))
		assert.NotEmpty(t, rec.ElementImpedances)
		assert.Equal(t, "R(QR)", rec.CircuitType)
		assert.Equal(t, "2025-06-01T08:00:00.000Z", rec.Time)
		require.NotNil(t, rec.ChiSquare)
	}
	assert.Equal(t, "run_iter_001", records[0].ID)
	assert.Greater(t, *records[0].ChiSquare, *records[5].ChiSquare, "estimates converge")
}

func TestSimulateConvergesOnParams(t *testing.T) {
	opts := simulateOpts()
	opts.Params = []float64{10, 2e-5, 0.9, 200}
	opts.Spectra = 40

	records, err := Simulate(opts)
	require.NoError(t, err)
	last := records[len(records)-1].Parameters
	for i, want := range opts.Params {
		assert.InEpsilon(t, want, last[i], 0.01)
	}
	assert.LessOrEqual(t, records[0].Parameters[2], 1.0)
}

func TestSimulateErrors(t *testing.T) {
	opts := simulateOpts()
	opts.Params = []float64{1, 2}
	_, err := Simulate(opts)
	assert.ErrorIs(t, err, circuit.ErrParamCount)

	opts = simulateOpts()
	opts.FMin = 0
	_, err = Simulate(opts)
	assert.Error(t, err)

	opts = simulateOpts()
	opts.Spectra = 0
	records, err := Simulate(opts)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDefaultParamsMatchElements(t *testing.T) {
	for _, code := range []string{"R(CR)", "R(QR)", "R(CR)(CR)", "R(Q(R(QR)))", "RL(RW)"} {
		assert.Len(t, DefaultParams(code), len(circuit.Elements(code)), code)
	}
}

func TestImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cell 1.csv")
	require.NoError(t, os.WriteFile(path, []byte("1000,10,-1\n100,12,-3\n"), 0o600))

	records, stats, err := Import(path, simTime)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	require.Len(t, records, 1)
	assert.Equal(t, "cell_1_spectrum_1", records[0].ID)

	_, _, err = Import(filepath.Join(t.TempDir(), "missing.csv"), simTime)
	assert.Error(t, err)
}

func TestDeliverToServer(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.Quiet = true
	srv := server.New(server.Options{Config: &cfg})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	records, err := Simulate(simulateOpts())
	require.NoError(t, err)

	client := webhook.NewClient(webhook.Options{URL: ts.URL + "/webhook", Quiet: true})
	stats, err := Deliver(context.Background(), records, DeliverOptions{Workers: 3, Sender: client})
	require.NoError(t, err)
	assert.Equal(t, int64(len(records)), stats.Sent)
	assert.Zero(t, stats.Failed)

	stored := iteration.Sort(srv.Store().All())
	require.Len(t, stored, len(records))
	for i := range records {
		assert.Equal(t, records[i].ID, stored[i].ID)
		assert.Equal(t, records[i].ElementNames, stored[i].ElementNames)
		assert.InDelta(t, *records[i].ChiSquare, *stored[i].ChiSquare, 1e-12)
	}
}

func TestImportKeepsValidRowsAroundNonFiniteValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cell.csv")
	data := "1000,10,-1,1\nNaN,11,-2,1\n10,12,-3,1\n100,5,-1,2\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	records, stats, err := Import(path, simTime)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)

	cfg := config.DefaultConfig().Server
	cfg.Quiet = true
	srv := server.New(server.Options{Config: &cfg})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := webhook.NewClient(webhook.Options{URL: ts.URL + "/webhook", Quiet: true})
	sent, err := Deliver(context.Background(), records, DeliverOptions{Workers: 2, Sender: client})
	require.NoError(t, err)
	assert.Equal(t, int64(2), sent.Sent)
	assert.Zero(t, sent.Failed)

	stored := srv.Store().All()
	require.Len(t, stored, 2)
	byID := map[string][]float64{}
	for _, rec := range stored {
		byID[rec.ID] = rec.Frequencies
	}
	assert.Equal(t, []float64{1000, 10}, byID["cell_spectrum_1"])
	assert.Equal(t, []float64{100}, byID["cell_spectrum_2"])
}
