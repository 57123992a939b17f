// Package celcat talks to a Celcat calendar server: authentication, the
// calendar event feed, the per-event side panel, and the resource directory.
package celcat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrEmptyFetch reports a calendar fetch that returned zero events. The
// server answers an empty array when a session breaks mid-run, so an empty
// result is always treated as a failed fetch, never as "no courses".
var ErrEmptyFetch = errors.New("calendar fetch returned no events")

// eventTime is the naive local layout Celcat uses in its JSON feed.
const eventTime = "2006-01-02T15:04:05"

// Event is one entry of the calendar feed.
type Event struct {
	ID    string
	Start time.Time
	End   *time.Time
}

// SideBarElement is one label/content pair of an event's side panel. An
// element without a label continues the most recently labeled one.
type SideBarElement struct {
	Label   *string `json:"label"`
	Content *string `json:"content"`
}

// DirectoryStudent is one entry of the student resource directory.
type DirectoryStudent struct {
	ID   int64  `json:"id"`
	Dept string `json:"dept"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client holds one authenticated Celcat session, shared by the sync jobs.
// Each job run re-authenticates before fetching, so a session expiring
// between runs never surfaces as a fetch failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("celcat: base url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
	}, nil
}

var verificationTokenRe = regexp.MustCompile(`name="__RequestVerificationToken"[^>]*value="([^"]+)"`)

// Login authenticates the session. Transport errors are retried with a short
// fibonacci backoff before giving up; an auth rejection fails immediately.
func (c *Client) Login(ctx context.Context, user, pass string) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.login(ctx, user, pass)
		if err != nil && !errors.Is(err, errBadCredentials) {
			return retry.RetryableError(err)
		}
		return err
	})
}

var errBadCredentials = errors.New("celcat: invalid credentials")

func (c *Client) login(ctx context.Context, user, pass string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/LdapLogin", nil)
	if err != nil {
		return fmt.Errorf("create login page request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read login page: %w", err)
	}

	m := verificationTokenRe.FindSubmatch(page)
	if m == nil {
		return errors.New("celcat: verification token not found on login page")
	}

	form := url.Values{
		"Name":                       {user},
		"Password":                   {pass},
		"__RequestVerificationToken": {string(m[1])},
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/LdapLogin/Logon", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create logon request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logon: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errBadCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("celcat: logon returned status %d", resp.StatusCode)
	}
	return nil
}

type feedEvent struct {
	ID    string  `json:"id"`
	Start string  `json:"start"`
	End   *string `json:"end"`
}

// FetchEvents returns the referenced student's events over [start, end].
// Returns ErrEmptyFetch when the feed comes back empty.
func (c *Client) FetchEvents(ctx context.Context, start, end time.Time, resourceID int64) ([]Event, error) {
	form := url.Values{
		"start":           {start.Format("2006-01-02")},
		"end":             {end.Format("2006-01-02")},
		"resType":         {"104"},
		"calView":         {"month"},
		"federationIds[]": {strconv.FormatInt(resourceID, 10)},
		"colourScheme":    {"3"},
	}

	var feed []feedEvent
	if err := c.postForm(ctx, "/Home/GetCalendarData", form, &feed); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	if len(feed) == 0 {
		return nil, ErrEmptyFetch
	}

	events := make([]Event, 0, len(feed))
	for _, fe := range feed {
		ev := Event{ID: fe.ID}
		t, err := time.Parse(eventTime, fe.Start)
		if err != nil {
			return nil, fmt.Errorf("parse event start %q: %w", fe.Start, err)
		}
		ev.Start = t.UTC()
		if fe.End != nil {
			t, err := time.Parse(eventTime, *fe.End)
			if err != nil {
				return nil, fmt.Errorf("parse event end %q: %w", *fe.End, err)
			}
			u := t.UTC()
			ev.End = &u
		}
		events = append(events, ev)
	}
	return events, nil
}

type sideBarEvent struct {
	Elements []SideBarElement `json:"elements"`
}

// FetchSideBarEvents returns the ordered side panel elements of one event.
func (c *Client) FetchSideBarEvents(ctx context.Context, eventID string) ([]SideBarElement, error) {
	form := url.Values{"eventId": {eventID}}

	var sb sideBarEvent
	if err := c.postForm(ctx, "/Home/GetSideBarEvent", form, &sb); err != nil {
		return nil, fmt.Errorf("fetch side bar event: %w", err)
	}
	return sb.Elements, nil
}

type resourceList struct {
	Results []DirectoryStudent `json:"results"`
}

// FetchStudents pages through the whole student resource directory.
func (c *Client) FetchStudents(ctx context.Context) ([]DirectoryStudent, error) {
	var students []DirectoryStudent
	for page := 1; ; page++ {
		form := url.Values{
			"myResources": {"false"},
			"searchTerm":  {"__"},
			"pageSize":    {"100"},
			"pageNumber":  {strconv.Itoa(page)},
			"resType":     {"104"},
		}

		var list resourceList
		if err := c.postForm(ctx, "/Home/ReadResourceListItems", form, &list); err != nil {
			return nil, fmt.Errorf("fetch students page %d: %w", page, err)
		}
		if len(list.Results) == 0 {
			break
		}
		students = append(students, list.Results...)
	}
	return students, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
