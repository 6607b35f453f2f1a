package calendar

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/m365/mail"
	"github.com/custodia-labs/m365/odata"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

// Attendee types accepted by the service.
const (
	AttendeeRequired = "required"
	AttendeeOptional = "optional"
	AttendeeResource = "resource"
)

// Responses to an event invitation.
const (
	RespondAccept    = "accept"
	RespondDecline   = "decline"
	RespondTentative = "tentativelyAccept"
)

// Attendee is an invitee on an event.
type Attendee struct {
	Type         string            `json:"type,omitempty"`
	Status       *ResponseStatus   `json:"status,omitempty"`
	EmailAddress mail.EmailAddress `json:"emailAddress"`
}

// ResponseStatus is an attendee's reply to the invitation.
type ResponseStatus struct {
	Response string    `json:"response,omitempty"`
	Time     time.Time `json:"time,omitzero"`
}

// Location is where an event takes place.
type Location struct {
	DisplayName string `json:"displayName,omitempty"`
}

// Recurrence describes a repeating event.
type Recurrence struct {
	Pattern *RecurrencePattern `json:"pattern,omitempty"`
	Range   *RecurrenceRange   `json:"range,omitempty"`
}

// RecurrencePattern is how often the event repeats.
type RecurrencePattern struct {
	Type           string   `json:"type,omitempty"`
	Interval       int      `json:"interval,omitempty"`
	DaysOfWeek     []string `json:"daysOfWeek,omitempty"`
	DayOfMonth     int      `json:"dayOfMonth,omitempty"`
	Month          int      `json:"month,omitempty"`
	FirstDayOfWeek string   `json:"firstDayOfWeek,omitempty"`
}

// RecurrenceRange is over which period the event repeats.
type RecurrenceRange struct {
	Type                string `json:"type,omitempty"`
	StartDate           string `json:"startDate,omitempty"`
	EndDate             string `json:"endDate,omitempty"`
	NumberOfOccurrences int    `json:"numberOfOccurrences,omitempty"`
}

// Event is a calendar event.
type Event struct {
	ID               string                     `json:"id,omitempty"`
	Subject          string                     `json:"subject,omitempty"`
	Body             *mail.ItemBody             `json:"body,omitempty"`
	BodyPreview      string                     `json:"bodyPreview,omitempty"`
	Start            *protocol.DateTimeTimeZone `json:"start,omitempty"`
	End              *protocol.DateTimeTimeZone `json:"end,omitempty"`
	IsAllDay         bool                       `json:"isAllDay,omitempty"`
	IsCancelled      bool                       `json:"isCancelled,omitempty"`
	IsOrganizer      bool                       `json:"isOrganizer,omitempty"`
	Location         *Location                  `json:"location,omitempty"`
	Attendees        []Attendee                 `json:"attendees,omitempty"`
	Organizer        *mail.Recipient            `json:"organizer,omitempty"`
	Recurrence       *Recurrence                `json:"recurrence,omitempty"`
	Sensitivity      string                     `json:"sensitivity,omitempty"`
	ShowAs           string                     `json:"showAs,omitempty"`
	ResponseStatus   *ResponseStatus            `json:"responseStatus,omitempty"`
	SeriesMasterID   string                     `json:"seriesMasterId,omitempty"`
	OnlineMeetingURL string                     `json:"onlineMeetingUrl,omitempty"`
	WebLink          string                     `json:"webLink,omitempty"`
}

// EventUpdate is a partial event for PATCH requests. Only non-nil fields
// are sent.
type EventUpdate struct {
	Subject   *string                    `json:"subject,omitempty"`
	Body      *mail.ItemBody             `json:"body,omitempty"`
	Start     *protocol.DateTimeTimeZone `json:"start,omitempty"`
	End       *protocol.DateTimeTimeZone `json:"end,omitempty"`
	IsAllDay  *bool                      `json:"isAllDay,omitempty"`
	Location  *Location                  `json:"location,omitempty"`
	Attendees *[]Attendee                `json:"attendees,omitempty"`
	ShowAs    *string                    `json:"showAs,omitempty"`
}

// Events pages the events of a calendar. An empty calendarID uses the
// default calendar's full event list.
func (s *Schedule) Events(calendarID string, query *odata.Query) *odata.Pager[Event] {
	endpoint := "events"
	if calendarID != "" {
		endpoint = fmt.Sprintf("calendars/%s/events", calendarID)
	}
	return odata.NewPager[Event](s.Conn, s.BuildURL(endpoint), queryParams(query), s.preferTimezone())
}

// CalendarView pages the event occurrences between start and end, with
// recurring events expanded. An empty calendarID uses the default calendar.
func (s *Schedule) CalendarView(calendarID string, start, end time.Time, query *odata.Query) *odata.Pager[Event] {
	endpoint := "calendarView"
	if calendarID != "" {
		endpoint = fmt.Sprintf("calendars/%s/calendarView", calendarID)
	}

	params := queryParams(query)
	if params == nil {
		params = url.Values{}
	}
	params.Set(s.CC("startDateTime"), start.UTC().Format(time.RFC3339))
	params.Set(s.CC("endDateTime"), end.UTC().Format(time.RFC3339))

	return odata.NewPager[Event](s.Conn, s.BuildURL(endpoint), params, s.preferTimezone())
}

// Event fetches a single event.
func (s *Schedule) Event(ctx context.Context, eventID string) (*Event, error) {
	var event Event
	if err := s.Conn.Get(ctx, s.BuildURL("events/"+eventID), nil, &event, s.preferTimezone()); err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return &event, nil
}

// CreateEvent creates an event. With an empty calendarID it goes to the
// default calendar.
func (s *Schedule) CreateEvent(ctx context.Context, calendarID string, event *Event) (*Event, error) {
	endpoint := "events"
	if calendarID != "" {
		endpoint = fmt.Sprintf("calendars/%s/events", calendarID)
	}

	var created Event
	if err := s.Conn.Post(ctx, s.BuildURL(endpoint), event, &created, s.preferTimezone()); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &created, nil
}

// UpdateEvent patches an event with the non-nil fields of update.
func (s *Schedule) UpdateEvent(ctx context.Context, eventID string, update *EventUpdate) (*Event, error) {
	var event Event
	if err := s.Conn.Patch(ctx, s.BuildURL("events/"+eventID), update, &event, s.preferTimezone()); err != nil {
		return nil, fmt.Errorf("update event %s: %w", eventID, err)
	}
	return &event, nil
}

// DeleteEvent deletes an event.
func (s *Schedule) DeleteEvent(ctx context.Context, eventID string) error {
	if err := s.Conn.Delete(ctx, s.BuildURL("events/"+eventID)); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

// Respond accepts, declines or tentatively accepts an invitation. See the
// Respond constants.
func (s *Schedule) Respond(ctx context.Context, eventID, response, comment string, sendResponse bool) error {
	body := map[string]any{
		s.CC("comment"):      comment,
		s.CC("sendResponse"): sendResponse,
	}

	endpoint := fmt.Sprintf("events/%s/%s", eventID, s.CC(response))
	if err := s.Conn.Post(ctx, s.BuildURL(endpoint), body, nil); err != nil {
		return fmt.Errorf("%s event %s: %w", response, eventID, err)
	}
	return nil
}

// preferTimezone asks the service to render event times in the protocol's
// preferred timezone instead of UTC.
func (s *Schedule) preferTimezone() rest.RequestOption {
	loc := s.Protocol.Timezone
	if loc == nil {
		loc = time.Local
	}
	name := protocol.WindowsTimezone(loc.String())
	return rest.WithPrefer(fmt.Sprintf("outlook.timezone=%q", name))
}
