package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iota-uz/presence/pkg/configuration"
)

const (
	maxRetries = 3
	baseDelay  = time.Second

	dayFormat = "2006-01-02"
)

// User is one account as the time-tracker reports it. DisplayName carries
// the "First Last, email@host" convention some installations use; see
// SplitDisplayName.
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// DaySummary is one user's categorized activity seconds for a single day.
type DaySummary struct {
	UserID            int64      `json:"user_id"`
	ProductiveSec     int64      `json:"productive_sec"`
	NonProductiveSec  int64      `json:"non_productive_sec"`
	NotCategorizedSec int64      `json:"not_categorized_sec"`
	FirstActivity     *time.Time `json:"first_activity"`
}

type usersResponse struct {
	Users []User `json:"users"`
}

type dayResponse struct {
	Summaries []DaySummary `json:"summaries"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(opts configuration.TrackerOptions) *Client {
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    &http.Client{Timeout: opts.Timeout},
	}
}

// FetchUsers returns the tracker's full account list.
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	var resp usersResponse
	if err := c.getJSON(ctx, "/api/v1/users", nil, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch tracker users")
	}
	return resp.Users, nil
}

// FetchDay returns every user's activity summary for the given day.
func (c *Client) FetchDay(ctx context.Context, day time.Time) ([]DaySummary, error) {
	q := url.Values{"date": {day.UTC().Format(dayFormat)}}
	var resp dayResponse
	if err := c.getJSON(ctx, "/api/v1/activity/daily", q, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch tracker activity for %s", day.UTC().Format(dayFormat))
	}
	return resp.Summaries, nil
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
			return errors.Wrap(err, "failed to build tracker request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("tracker returned status %d for %s", resp.StatusCode, path)
			// client errors won't heal on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return lastErr
			}
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrap(err, "failed to decode tracker response")
			continue
		}
		return nil
	}
	return lastErr
}

// SplitDisplayName separates the tracker's "First Last, email@host"
// display-name convention into its parts. Absent or malformed email
// segments leave the whole string as the name.
func SplitDisplayName(displayName string) (name, email string) {
	name = strings.TrimSpace(displayName)
	idx := strings.LastIndex(name, ",")
	if idx < 0 {
		return name, ""
	}
	tail := strings.TrimSpace(name[idx+1:])
	if !strings.Contains(tail, "@") {
		return name, ""
	}
	return strings.TrimSpace(name[:idx]), strings.ToLower(tail)
}
