// Package githubapi is the read-only client for the GitHub REST and GraphQL
// endpoints the collection cycle depends on.
package githubapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/copilot-pulse/backend/internal/models"
)

const (
	acceptHeader     = "application/vnd.github+json"
	apiVersionHeader = "2022-11-28"
	perPage          = 100
)

// ErrUnauthorized means the token was rejected; the cycle aborts on it rather
// than retrying every endpoint with the same bad credential.
var ErrUnauthorized = errors.New("github: unauthorized")

// StatusError carries a non-2xx response for callers that branch on status.
type StatusError struct {
	Status int
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: %s returned %d: %s", e.URL, e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// Client talks to the GitHub API with a PAT.
type Client struct {
	baseURL    string
	graphqlURL string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client against the given base URLs.
func NewClient(baseURL, graphqlURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		graphqlURL: graphqlURL,
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// ListTeams returns every team of the organization. Pagination stops on the
// first empty page. Standalone enterprises have no teams API; callers get an
// empty slice.
func (c *Client) ListTeams(ctx context.Context, org models.OrgRef) ([]models.TeamNode, error) {
	if org.Standalone {
		return nil, nil
	}
	var all []models.TeamNode
	for page := 1; ; page++ {
		path := fmt.Sprintf("/orgs/%s/teams?per_page=%d&page=%d", url.PathEscape(org.Slug), perPage, page)
		var batch []models.TeamNode
		if err := c.getJSON(ctx, path, &batch); err != nil {
			return nil, fmt.Errorf("list teams page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
	}
	c.logger.Debug("teams listed", zap.String("org", org.Slug), zap.Int("count", len(all)))
	return all, nil
}

// BillingSettings returns the Copilot billing settings for an organization.
func (c *Client) BillingSettings(ctx context.Context, org models.OrgRef) (models.BillingSettings, error) {
	var settings models.BillingSettings
	path := fmt.Sprintf("/%s/%s/copilot/billing", org.APIType(), url.PathEscape(org.Slug))
	if err := c.getJSON(ctx, path, &settings); err != nil {
		return models.BillingSettings{}, fmt.Errorf("billing settings: %w", err)
	}
	return settings, nil
}

// ListSeats returns every Copilot seat of the organization, walking pages
// until one comes back empty.
func (c *Client) ListSeats(ctx context.Context, org models.OrgRef) (models.SeatsPage, error) {
	var out models.SeatsPage
	for page := 1; ; page++ {
		path := fmt.Sprintf("/%s/%s/copilot/billing/seats?per_page=%d&page=%d",
			org.APIType(), url.PathEscape(org.Slug), perPage, page)
		var batch models.SeatsPage
		if err := c.getJSON(ctx, path, &batch); err != nil {
			return models.SeatsPage{}, fmt.Errorf("list seats page %d: %w", page, err)
		}
		if len(batch.Seats) == 0 {
			break
		}
		out.TotalSeats = batch.TotalSeats
		out.Seats = append(out.Seats, batch.Seats...)
	}
	return out, nil
}

// OrgMetrics returns the organization-level Copilot metrics days.
func (c *Client) OrgMetrics(ctx context.Context, org models.OrgRef) ([]models.MetricsDay, error) {
	var days []models.MetricsDay
	path := fmt.Sprintf("/%s/%s/copilot/metrics", org.APIType(), url.PathEscape(org.Slug))
	if err := c.getJSON(ctx, path, &days); err != nil {
		return nil, fmt.Errorf("org metrics: %w", err)
	}
	return days, nil
}

// TeamMetrics returns the Copilot metrics days for one team of an
// organization. Teams below the API's minimum active-user floor come back 404
// or empty; callers treat both as no data.
func (c *Client) TeamMetrics(ctx context.Context, org models.OrgRef, teamSlug string) ([]models.MetricsDay, error) {
	var days []models.MetricsDay
	path := fmt.Sprintf("/orgs/%s/team/%s/copilot/metrics",
		url.PathEscape(org.Slug), url.PathEscape(teamSlug))
	if err := c.getJSON(ctx, path, &days); err != nil {
		return nil, fmt.Errorf("team metrics %s: %w", teamSlug, err)
	}
	return days, nil
}

type reportLink struct {
	ReportDay     string   `json:"report_day,omitempty"`
	DownloadLinks []string `json:"download_links,omitempty"`
	DownloadLink  string   `json:"download_link,omitempty"`
}

// LatestUserMetrics downloads the most recent users-28-day report and parses
// its rows. The report endpoint hands back presigned download links; the blob
// behind them is either a JSON array or NDJSON depending on report vintage.
func (c *Client) LatestUserMetrics(ctx context.Context, org models.OrgRef) ([]models.UserMetricRow, error) {
	path := fmt.Sprintf("/%s/%s/copilot/metrics/reports/users-28-day",
		org.APIType(), url.PathEscape(org.Slug))
	var links []reportLink
	if err := c.getJSON(ctx, path, &links); err != nil {
		return nil, fmt.Errorf("user metrics report: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}
	latest := links[len(links)-1]
	urls := latest.DownloadLinks
	if len(urls) == 0 && latest.DownloadLink != "" {
		urls = []string{latest.DownloadLink}
	}

	var rows []models.UserMetricRow
	for _, link := range urls {
		part, err := c.downloadReport(ctx, link)
		if err != nil {
			return nil, err
		}
		rows = append(rows, part...)
	}
	c.logger.Debug("user metrics downloaded",
		zap.String("org", org.Slug), zap.Int("rows", len(rows)))
	return rows, nil
}

// downloadReport fetches one report blob. Presigned links carry their own
// auth, so no bearer header goes out.
func (c *Client) downloadReport(ctx context.Context, link string) ([]models.UserMetricRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("report request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download report: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Status: resp.StatusCode, URL: link, Body: string(body)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return parseReportRows(data)
}

// parseReportRows accepts a JSON array or NDJSON lines.
func parseReportRows(data []byte) ([]models.UserMetricRow, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var rows []models.UserMetricRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("decode report array: %w", err)
		}
		return rows, nil
	}
	var rows []models.UserMetricRow
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var row models.UserMetricRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("decode report line: %w", err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return rows, nil
}

// getJSON issues an authenticated GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersionHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, URL: path, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
