package hrsys

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iota-uz/presence/pkg/configuration"
)

const (
	maxRetries = 3
	baseDelay  = time.Second
)

// Manager is the nested reference an employee row carries to its manager.
type Manager struct {
	ID        int64  `json:"external_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (m Manager) FullName() string { return joinName(m.FirstName, m.LastName) }

// Employee is one row of the HR system's employee directory.
type Employee struct {
	ID         int64    `json:"external_id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Email      string   `json:"email"`
	Division   string   `json:"division"`
	Department string   `json:"department"`
	Manager    *Manager `json:"manager"`
	Contact    string   `json:"custom_contact_handle"`
	HireDate   string   `json:"hire_date"`
}

func (e Employee) FullName() string { return joinName(e.FirstName, e.LastName) }

// ManagerName is the manager's display name, empty when the row has none.
func (e Employee) ManagerName() string {
	if e.Manager == nil {
		return ""
	}
	return e.Manager.FullName()
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

type employeesResponse struct {
	Employees []Employee `json:"employees"`
}

type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	http     *http.Client
}

func NewClient(opts configuration.HRSystemOptions) *Client {
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		pageSize: opts.PageSize,
		http:     &http.Client{Timeout: opts.Timeout},
	}
}

// FetchEmployees walks the paginated directory until the first empty page
// and returns everything seen. A failure mid-walk fails the whole fetch;
// a half-read directory would make absence checks lie.
func (c *Client) FetchEmployees(ctx context.Context) ([]Employee, error) {
	var all []Employee
	for page := 1; ; page++ {
		q := url.Values{
			"page":      {strconv.Itoa(page)},
			"page_size": {strconv.Itoa(c.pageSize)},
		}
		var resp employeesResponse
		if err := c.getJSON(ctx, "/api/employees", q, &resp); err != nil {
			return nil, errors.Wrapf(err, "failed to fetch HR employees page %d", page)
		}
		if len(resp.Employees) == 0 {
			return all, nil
		}
		all = append(all, resp.Employees...)
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return errors.Wrap(err, "failed to build HR request")
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("HR system returned status %d for %s", resp.StatusCode, path)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return lastErr
			}
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrap(err, "failed to decode HR response")
			continue
		}
		return nil
	}
	return lastErr
}
