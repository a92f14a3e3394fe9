package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/tazhate/trackbot/internal/domain"
)

// Client publishes tracking events to a CalDAV calendar.
type Client struct {
	baseURL      string
	username     string
	password     string
	calendarPath string
	timezone     *time.Location
	httpClient   *http.Client
	client       *caldav.Client
}

// NewClient creates a new CalDAV client
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		timezone: time.UTC,
	}
}

// IsConfigured returns true if the client has a server and credentials
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.username != "" && c.password != ""
}

// SetCalendarPath sets the calendar collection events are written to
func (c *Client) SetCalendarPath(path string) {
	c.calendarPath = path
}

func (c *Client) SetTimezone(loc *time.Location) {
	if loc != nil {
		c.timezone = loc
	}
}

// SetHTTPClient replaces the transport used to reach the server.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
	c.client = nil
}

// connect establishes connection to CalDAV server
func (c *Client) connect() (*caldav.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &basicAuthTransport{
				username: c.username,
				password: c.password,
			},
			Timeout: 30 * time.Second,
		}
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// DiscoverCalendars returns all calendars for the user
func (c *Client) DiscoverCalendars(ctx context.Context) ([]Calendar, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var result []Calendar
	for _, cal := range cals {
		result = append(result, Calendar{
			Path:        cal.Path,
			DisplayName: cal.Name,
			Description: cal.Description,
		})
	}
	return result, nil
}

func (c *Client) objectPath(uid string) (string, error) {
	if c.calendarPath == "" {
		return "", fmt.Errorf("calendar path not specified")
	}
	path := c.calendarPath
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + strings.TrimSuffix(uid, "@trackbot") + ".ics", nil
}

// PublishTracking writes one calendar object per schedule of the tracking.
// Trackings that are not running are removed instead.
func (c *Client) PublishTracking(ctx context.Context, t *domain.Tracking) (int, error) {
	if t.State != domain.StateRunning {
		return 0, c.RemoveTracking(ctx, t)
	}

	client, err := c.connect()
	if err != nil {
		return 0, err
	}

	events, err := TrackingEvents(t, c.timezone)
	if err != nil {
		return 0, err
	}

	for i, ev := range events {
		uid, err := ev.Props.Text(ical.PropUID)
		if err != nil {
			return i, fmt.Errorf("event uid: %w", err)
		}
		path, err := c.objectPath(uid)
		if err != nil {
			return i, err
		}
		cal := newCalendar()
		cal.Children = append(cal.Children, ev.Component)
		if _, err := client.PutCalendarObject(ctx, path, cal); err != nil {
			return i, fmt.Errorf("put %s: %w", path, err)
		}
	}
	return len(events), nil
}

// RemoveTracking deletes the calendar objects of the tracking's schedules.
func (c *Client) RemoveTracking(ctx context.Context, t *domain.Tracking) error {
	client, err := c.connect()
	if err != nil {
		return err
	}

	for _, uid := range eventUIDs(t, c.timezone) {
		path, err := c.objectPath(uid)
		if err != nil {
			return err
		}
		if err := client.RemoveAll(ctx, path); err != nil && !isNotFound(err) {
			return fmt.Errorf("delete %s: %w", path, err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "404")
}
