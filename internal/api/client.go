// Package api implements the HTTP client for the Fix My Barangay backend:
// report submission, report listing for the offline cache, location
// validation, photo upload, and the reachability probe used by the network
// monitor.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fixmybarangay/internal/config"
	"fixmybarangay/internal/report"
)

const userAgent = "FixMyBarangay-Agent/0.1.0"

// SubmitResult is the backend's response to a report submission.
type SubmitResult struct {
	Report              report.Report              `json:"report"`
	PotentialDuplicates []report.PotentialDuplicate `json:"potential_duplicates"`
}

// LocationCheck is the backend's answer to a location validation request.
type LocationCheck struct {
	Valid   bool   `json:"valid"`
	Address string `json:"address,omitempty"`
}

// Client talks to the backend REST API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	probeClient  *http.Client
	submitClient *http.Client
}

// NewClient constructs a client with per-call-class timeouts from config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:      cfg.API.BaseURL,
		httpClient:   &http.Client{Timeout: time.Duration(cfg.API.RequestTimeout) * time.Second},
		probeClient:  &http.Client{Timeout: time.Duration(cfg.API.ProbeTimeout) * time.Second},
		submitClient: &http.Client{Timeout: time.Duration(cfg.API.SubmitTimeout) * time.Second},
	}
}

// SubmitReport delivers a queued submission. Any non-2xx answer is returned
// as a *StatusError so callers can classify it as permanent or transient.
func (c *Client) SubmitReport(ctx context.Context, sub report.Submission) (*SubmitResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reports", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.submitClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	return &result, nil
}

// FetchReports lists recent reports for the offline cache. Category and
// status filter when non-empty; limit bounds the result set.
func (c *Client) FetchReports(ctx context.Context, category, status string, limit int) ([]report.Report, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	endpoint := c.baseURL + "/api/reports"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch reports: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var payload struct {
		Reports []report.Report `json:"reports"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return payload.Reports, nil
}

// ValidateLocation asks the backend's geocoding proxy whether coordinates
// fall inside the service area, returning the resolved address when known.
func (c *Client) ValidateLocation(ctx context.Context, lat, lng float64) (*LocationCheck, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/locations/validate?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validate location: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var check LocationCheck
	if err := json.NewDecoder(resp.Body).Decode(&check); err != nil {
		return nil, fmt.Errorf("decode location check: %w", err)
	}
	return &check, nil
}

// UploadPhoto sends photo bytes to the media upload endpoint and returns the
// hosted URL to reference in a submission.
func (c *Client) UploadPhoto(ctx context.Context, contentType string, data io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/photos", data)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.submitClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp)
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return payload.URL, nil
}

// Probe performs the lightweight reachability request used to confirm the
// backend is actually reachable, not merely that a link is up.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
