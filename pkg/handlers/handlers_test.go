package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/eisplot/pkg/models"
	"github.com/kacperjurak/eisplot/pkg/parameters"
	"github.com/kacperjurak/eisplot/pkg/store"
)

type recordingPublisher struct {
	records []models.Record
}

func (p *recordingPublisher) Publish(record models.Record) {
	p.records = append(p.records, record)
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func newWebhook(s *store.Store, pub Publisher) *WebhookHandler {
	return NewWebhookHandler(WebhookOptions{
		Store:     s,
		Publisher: pub,
		Quiet:     true,
		Now:       func() time.Time { return fixedNow },
	})
}

func TestWebhookAcceptsSnakeCase(t *testing.T) {
	s := store.New(store.Options{})
	pub := &recordingPublisher{}
	h := newWebhook(s, pub)

	rec := post(t, h, `{
		"id": "abc_iter_002",
		"time": "2025-01-01T00:00:00Z",
		"chi_square": 0.0012,
		"real_impedance": [100, 80, 60],
		"imaginary_impedance": [-5, -20, -10],
		"frequencies": [1000, 100, 10],
		"parameters": [10, 1e-5, 0.9, 100],
		"element_names": ["R0", "qy", "qn", "R1"],
		"element_impedances": [{"name": "R0", "impedances": [{"real": 10, "imag": 0}]}],
		"circuit_type": "R(QR)"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var ack models.WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, models.WebhookAck{Status: "received", ID: "abc_iter_002", ImpedancePoints: 3}, ack)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "R(QR)", latest.CircuitType)
	assert.InDelta(t, 0.0012, *latest.ChiSquare, 1e-12)
	assert.Equal(t, []string{"R0", "qy", "qn", "R1"}, latest.ElementNames)
	require.Len(t, latest.ElementImpedances, 1)
	require.Len(t, pub.records, 1)
	assert.Equal(t, "abc_iter_002", pub.records[0].ID)
}

func TestWebhookDefaultsMissingFields(t *testing.T) {
	s := store.New(store.Options{})
	h := newWebhook(s, nil)

	rec := post(t, h, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "1741944413589", latest.ID)
	assert.Equal(t, "2025-03-14T09:26:53.589Z", latest.Time)
	require.NotNil(t, latest.ChiSquare)
	assert.Zero(t, *latest.ChiSquare)
	assert.Equal(t, models.UnknownCircuit, latest.CircuitType)
	assert.NotNil(t, latest.RealImpedance)
	assert.Empty(t, latest.RealImpedance)
	assert.NotNil(t, latest.ElementImpedances)

	var ack models.WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, 0, ack.ImpedancePoints)
	assert.Equal(t, latest.ID, ack.ID)
}

func TestWebhookMistypedFieldIsDefaulted(t *testing.T) {
	s := store.New(store.Options{})
	h := newWebhook(s, nil)

	rec := post(t, h, `{"id": "x", "real_impedance": "oops", "imaginary_impedance": [1]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	latest, _ := s.Latest()
	assert.Empty(t, latest.RealImpedance)
	assert.Equal(t, []float64{1}, latest.ImaginaryImpedance)
}

func TestWebhookRejectsNonJSON(t *testing.T) {
	s := store.New(store.Options{})
	h := newWebhook(s, nil)

	for _, body := range []string{`not json`, `"text"`, `{"id":`} {
		rec := post(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Invalid JSON format"}`, rec.Body.String())
	}
	assert.Zero(t, s.Len())
}

func TestWebhookEmptyAndArrayBodiesStoreDefaults(t *testing.T) {
	s := store.New(store.Options{})
	h := newWebhook(s, nil)

	for _, body := range []string{``, `[1,2]`} {
		rec := post(t, h, body)
		require.Equal(t, http.StatusOK, rec.Code, body)

		var ack models.WebhookAck
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
		assert.Equal(t, "received", ack.Status)
		assert.Equal(t, "1741944413589", ack.ID)
		assert.Zero(t, ack.ImpedancePoints)
	}

	require.Equal(t, 2, s.Len())
	latest, _ := s.Latest()
	assert.Equal(t, models.UnknownCircuit, latest.CircuitType)
	assert.Empty(t, latest.RealImpedance)
}

func TestWebhookMethodHandling(t *testing.T) {
	h := newWebhook(store.New(store.Options{}), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/webhook", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	rec = get(t, h, "/webhook")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLatestBeforeAnyData(t *testing.T) {
	rec := get(t, NewLatestHandler(store.New(store.Options{})), "/latest-webhook")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"No webhook data received yet"}`, rec.Body.String())
}

func TestAllBeforeAnyData(t *testing.T) {
	rec := get(t, NewAllHandler(store.New(store.Options{})), "/all-webhooks")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRoundTripThroughQueryEndpoints(t *testing.T) {
	s := store.New(store.Options{})
	webhook := newWebhook(s, nil)

	post(t, webhook, `{"id": "first", "real_impedance": [1]}`)
	post(t, webhook, `{"id": "second", "real_impedance": [1, 2], "circuit_type": "RC"}`)

	rec := get(t, NewLatestHandler(s), "/latest-webhook")
	var latest models.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, "second", latest.ID)
	assert.Equal(t, "RC", latest.CircuitType)
	assert.Contains(t, rec.Body.String(), `"RealImpedance":[1,2]`)

	rec = get(t, NewAllHandler(s), "/all-webhooks")
	var all []models.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].ID)
	assert.Equal(t, latest, all[len(all)-1])
}

func TestEvolutionHandler(t *testing.T) {
	s := store.New(store.Options{})
	s.Append(models.Record{ID: "b_iter_002", Parameters: []float64{20}, ElementNames: []string{"r"}})
	s.Append(models.Record{ID: "b_iter_001", Parameters: []float64{10}, ElementNames: []string{"r"}})

	rec := get(t, NewEvolutionHandler(s), "/parameter-evolution")
	require.Equal(t, http.StatusOK, rec.Code)

	var evo parameters.Evolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evo))
	assert.Equal(t, []string{"R1"}, evo.Names)
	assert.Equal(t, []string{"R1"}, evo.Columns)
	require.Len(t, evo.Series, 1)
	require.Len(t, evo.Series[0].Points, 2)
	assert.Equal(t, 1, evo.Series[0].Points[0].Iteration)
	assert.Equal(t, 10.0, evo.Series[0].Points[0].Value)
}

func TestHealthHandler(t *testing.T) {
	s := store.New(store.Options{})
	s.Append(models.Record{ID: "a"})

	rec := get(t, NewHealthHandler(s), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, 1.0, body["records"])
}

func TestDashboardHandler(t *testing.T) {
	s := store.New(store.Options{})
	s.Append(models.Record{ID: "run_iter_001", RealImpedance: []float64{1}, ImaginaryImpedance: []float64{-1}, Frequencies: []float64{10}})

	rec := get(t, NewDashboardHandler(s, nil), "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Nyquist Plot")
}

func TestWebhookRejectsOversizedBody(t *testing.T) {
	s := store.New(store.Options{})
	h := NewWebhookHandler(WebhookOptions{Store: s, Quiet: true, MaxBodyBytes: 16})

	rec := post(t, h, `{"id":"a-rather-long-identifier"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"Payload too large"}`, rec.Body.String())
	assert.Zero(t, s.Len())

	rec = post(t, h, `{"id":"ok"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
