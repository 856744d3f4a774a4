package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wavelytics/internal"
	"wavelytics/internal/config"
)

const fredBody = `{
	"observations": [
		{"date": "2000-03-01", "value": "1.3"},
		{"date": "2000-01-01", "value": "1.1"},
		{"date": "2000-02-01", "value": "."},
		{"date": "2000-01-01", "value": "9.9"},
		{"date": "2000-04-01", "value": "1.4"}
	]
}`

const sdmxBody = `{
	"structure": {
		"dimensions": {
			"observation": [
				{"id": "TIME_PERIOD", "values": [
					{"id": "2001-01"}, {"id": "2001-02"}, {"id": "2001-03"}
				]}
			]
		}
	},
	"dataSets": [
		{"series": {"0:0:0": {"observations": {"0": [2.5], "2": [2.7]}}}}
	]
}`

func TestParseFREDObservations(t *testing.T) {
	ts, err := ParseFREDObservations([]byte(fredBody), monthlyDt)
	if err != nil {
		t.Fatalf("ParseFREDObservations failed: %v", err)
	}

	// The "." placeholder is dropped, duplicates collapse to the first
	// occurrence in time order, and the rest sorts ascending.
	if ts.Len() != 3 {
		t.Fatalf("length = %d, want 3", ts.Len())
	}
	wantValues := []float64{1.1, 1.3, 1.4}
	for i, want := range wantValues {
		if ts.Values[i] != want {
			t.Errorf("value %d = %v, want %v", i, ts.Values[i], want)
		}
	}
	for i := 1; i < ts.Len(); i++ {
		if !ts.Timestamps[i].After(ts.Timestamps[i-1]) {
			t.Errorf("timestamps not strictly increasing at %d", i)
		}
	}
	if ts.Dt != monthlyDt {
		t.Errorf("dt = %v, want %v", ts.Dt, monthlyDt)
	}
}

func TestParseFREDObservations_NoData(t *testing.T) {
	if _, err := ParseFREDObservations([]byte(`{"observations": []}`), monthlyDt); err == nil {
		t.Error("expected error for empty observations")
	}
	if _, err := ParseFREDObservations([]byte(`{"error": "bad key"}`), monthlyDt); err == nil {
		t.Error("expected error for missing observations field")
	}
}

func TestParseSDMXObservations(t *testing.T) {
	ts, err := ParseSDMXObservations([]byte(sdmxBody), monthlyDt)
	if err != nil {
		t.Fatalf("ParseSDMXObservations failed: %v", err)
	}

	// Index 1 has no observation; the gap stays missing.
	if ts.Len() != 2 {
		t.Fatalf("length = %d, want 2", ts.Len())
	}
	if ts.Values[0] != 2.5 || ts.Values[1] != 2.7 {
		t.Errorf("values = %v, want [2.5 2.7]", ts.Values)
	}
	want := time.Date(2001, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !ts.Timestamps[1].Equal(want) {
		t.Errorf("timestamp 1 = %v, want %v", ts.Timestamps[1], want)
	}
}

func TestFetchFRED_AgainstLocalServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("series_id") != "CPIAUCSL" {
			t.Errorf("series_id = %q, want CPIAUCSL", r.URL.Query().Get("series_id"))
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Errorf("api_key not forwarded")
		}
		w.Write([]byte(fredBody))
	}))
	defer server.Close()

	cfg := config.RetrievalConfig{FREDAPIKey: "test-key", Timeout: 5 * time.Second}
	client := NewClient(cfg, internal.NewLogger(internal.LogLevelError))
	client.FREDBaseURL = server.URL

	ts, err := client.FetchFRED(context.Background(), "CPIAUCSL")
	if err != nil {
		t.Fatalf("FetchFRED failed: %v", err)
	}
	if ts.Len() != 3 {
		t.Errorf("length = %d, want 3", ts.Len())
	}
}

func TestFetchFRED_MissingKey(t *testing.T) {
	client := NewClient(config.RetrievalConfig{Timeout: time.Second}, internal.NewLogger(internal.LogLevelError))
	if _, err := client.FetchFRED(context.Background(), "CPIAUCSL"); err == nil {
		t.Error("expected error without FRED_API_KEY")
	}
}

func TestFetchBdF_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(config.RetrievalConfig{BdFKey: "k", Timeout: time.Second}, internal.NewLogger(internal.LogLevelError))
	client.BdFBaseURL = server.URL
	if _, err := client.FetchBdF(context.Background(), "EXR", "M.USD.EUR.SP00.A"); err == nil {
		t.Error("expected error for non-200 response")
	}
}
