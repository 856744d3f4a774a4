// Package retrieval fetches economic time series from statistics providers
// (FRED, INSEE, Banque de France) and cleans them into analysis-ready form:
// placeholder observations dropped, timestamps parsed, sorted ascending and
// deduplicated.
package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"wavelytics/domain/series"
	"wavelytics/internal"
	"wavelytics/internal/config"
)

const (
	fredBaseURL  = "https://api.stlouisfed.org/fred/series/observations"
	inseeBaseURL = "https://api.insee.fr/series/BDM/V1/data/SERIES_BDM"
	bdfBaseURL   = "https://api.webstat.banque-france.fr/webstat-fr/v1/data"
)

// Client fetches series from the statistics providers. Base URLs are
// overridable so tests can point at a local server.
type Client struct {
	cfg        config.RetrievalConfig
	httpClient *http.Client
	log        *internal.Logger

	FREDBaseURL  string
	INSEEBaseURL string
	BdFBaseURL   string
}

// NewClient creates a retrieval client from the given configuration.
func NewClient(cfg config.RetrievalConfig, log *internal.Logger) *Client {
	return &Client{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		log:          log,
		FREDBaseURL:  fredBaseURL,
		INSEEBaseURL: inseeBaseURL,
		BdFBaseURL:   bdfBaseURL,
	}
}

// FetchFRED retrieves one monthly series from the FRED observations API.
func (c *Client) FetchFRED(ctx context.Context, seriesID string) (*series.TimeSeries, error) {
	if err := c.cfg.RequireFRED(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("series_id", seriesID)
	query.Set("api_key", c.cfg.FREDAPIKey)
	query.Set("file_type", "json")

	body, err := c.get(ctx, c.FREDBaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", seriesID, err)
	}

	ts, err := ParseFREDObservations(body, monthlyDt)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", seriesID, err)
	}
	c.log.Info("retrieval: fred %s, %d observations", seriesID, ts.Len())
	return ts, nil
}

// FetchINSEE retrieves one series from the INSEE BDM API in SDMX-JSON form.
func (c *Client) FetchINSEE(ctx context.Context, idbank string) (*series.TimeSeries, error) {
	headers := map[string]string{"Accept": "application/json"}
	if c.cfg.INSEEAuth != "" {
		headers["Authorization"] = "Bearer " + c.cfg.INSEEAuth
	}

	body, err := c.get(ctx, c.INSEEBaseURL+"/"+url.PathEscape(idbank), headers)
	if err != nil {
		return nil, fmt.Errorf("insee %s: %w", idbank, err)
	}

	ts, err := ParseSDMXObservations(body, monthlyDt)
	if err != nil {
		return nil, fmt.Errorf("insee %s: %w", idbank, err)
	}
	c.log.Info("retrieval: insee %s, %d observations", idbank, ts.Len())
	return ts, nil
}

// FetchBdF retrieves one series from the Banque de France Webstat API.
func (c *Client) FetchBdF(ctx context.Context, dataset, seriesKey string) (*series.TimeSeries, error) {
	headers := map[string]string{"Accept": "application/json"}
	if c.cfg.BdFKey != "" {
		headers["X-IBM-Client-Id"] = c.cfg.BdFKey
	}

	endpoint := c.BdFBaseURL + "/" + url.PathEscape(dataset) + "/" + url.PathEscape(seriesKey)
	body, err := c.get(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("bdf %s/%s: %w", dataset, seriesKey, err)
	}

	ts, err := ParseSDMXObservations(body, monthlyDt)
	if err != nil {
		return nil, fmt.Errorf("bdf %s/%s: %w", dataset, seriesKey, err)
	}
	c.log.Info("retrieval: bdf %s/%s, %d observations", dataset, seriesKey, ts.Len())
	return ts, nil
}

func (c *Client) get(ctx context.Context, endpoint string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
