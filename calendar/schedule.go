// Package calendar is the client for calendars and events.
package calendar

import (
	"context"
	"fmt"
	"net/url"

	"github.com/custodia-labs/m365/internal/component"
	"github.com/custodia-labs/m365/odata"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

// Calendar is a user's calendar.
type Calendar struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Color     string `json:"color,omitempty"`
	IsDefault bool   `json:"isDefaultCalendar,omitempty"`
	CanEdit   bool   `json:"canEdit,omitempty"`
	CanShare  bool   `json:"canShare,omitempty"`
	Owner     *Owner `json:"owner,omitempty"`
}

// Owner identifies who a calendar belongs to.
type Owner struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Schedule is the entry point for calendar operations on a resource.
type Schedule struct {
	component.Base
}

// New returns a Schedule for the given resource, e.g. "me" or a user's
// email address.
func New(conn *rest.Connection, proto *protocol.Protocol, resource string) *Schedule {
	return &Schedule{Base: component.New(conn, proto, resource)}
}

// Query returns an empty query builder for this schedule's dialect.
func (s *Schedule) Query() *odata.Query {
	return odata.NewQuery(s.Protocol)
}

// Calendars pages the user's calendars.
func (s *Schedule) Calendars(query *odata.Query) *odata.Pager[Calendar] {
	return odata.NewPager[Calendar](s.Conn, s.BuildURL("calendars"), queryParams(query))
}

// DefaultCalendar fetches the user's default calendar.
func (s *Schedule) DefaultCalendar(ctx context.Context) (*Calendar, error) {
	var cal Calendar
	if err := s.Conn.Get(ctx, s.BuildURL("calendar"), nil, &cal); err != nil {
		return nil, fmt.Errorf("get default calendar: %w", err)
	}
	return &cal, nil
}

// Calendar fetches a calendar by ID.
func (s *Schedule) Calendar(ctx context.Context, calendarID string) (*Calendar, error) {
	var cal Calendar
	if err := s.Conn.Get(ctx, s.BuildURL("calendars/"+calendarID), nil, &cal); err != nil {
		return nil, fmt.Errorf("get calendar %s: %w", calendarID, err)
	}
	return &cal, nil
}

// CalendarByName finds a calendar by name.
func (s *Schedule) CalendarByName(ctx context.Context, name string) (*Calendar, error) {
	query := s.Query().On("name").Equals(name).Top(1)

	page, err := s.Calendars(query).NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("find calendar %q: %w", name, err)
	}
	if len(page) == 0 {
		return nil, fmt.Errorf("find calendar %q: %w", name, rest.ErrNotFound)
	}
	return &page[0], nil
}

// CreateCalendar creates a new named calendar.
func (s *Schedule) CreateCalendar(ctx context.Context, name string) (*Calendar, error) {
	body := map[string]string{s.CC("name"): name}

	var cal Calendar
	if err := s.Conn.Post(ctx, s.BuildURL("calendars"), body, &cal); err != nil {
		return nil, fmt.Errorf("create calendar %q: %w", name, err)
	}
	return &cal, nil
}

// DeleteCalendar deletes a calendar.
func (s *Schedule) DeleteCalendar(ctx context.Context, calendarID string) error {
	if err := s.Conn.Delete(ctx, s.BuildURL("calendars/"+calendarID)); err != nil {
		return fmt.Errorf("delete calendar %s: %w", calendarID, err)
	}
	return nil
}

func queryParams(query *odata.Query) url.Values {
	if query == nil {
		return nil
	}
	return query.Values()
}
