package calendar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/m365/auth"
	"github.com/custodia-labs/m365/mail"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

func newTestSchedule(t *testing.T, handler http.HandlerFunc) *Schedule {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend := auth.NewMemoryBackend()
	require.NoError(t, backend.Store(context.Background(), &auth.Token{
		AccessToken: "test-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	conn, err := rest.NewConnection(rest.Config{
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		Backend:        backend,
		RequestSpacing: time.Millisecond,
	})
	require.NoError(t, err)

	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	proto := protocol.MSGraph(
		protocol.WithServiceBase(server.URL),
		protocol.WithTimezone(london),
	)
	return New(conn, proto, "")
}

func TestCalendars(t *testing.T) {
	schedule := newTestSchedule(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/calendars", r.URL.Path)
		io.WriteString(w, `{"value":[{"id":"c1","name":"Calendar","isDefaultCalendar":true}]}`)
	})

	calendars, err := schedule.Calendars(nil).NextPage(context.Background())
	require.NoError(t, err)

	require.Len(t, calendars, 1)
	assert.True(t, calendars[0].IsDefault)
}

func TestCalendarByNameNotFound(t *testing.T) {
	schedule := newTestSchedule(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name eq 'Team'", r.URL.Query().Get("$filter"))
		io.WriteString(w, `{"value":[]}`)
	})

	_, err := schedule.CalendarByName(context.Background(), "Team")
	assert.ErrorIs(t, err, rest.ErrNotFound)
}

func TestCreateCalendar(t *testing.T) {
	schedule := newTestSchedule(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Team", body["name"])
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"c2","name":"Team"}`)
	})

	cal, err := schedule.CreateCalendar(context.Background(), "Team")
	require.NoError(t, err)
	assert.Equal(t, "c2", cal.ID)
}

func TestEventsSendPreferredTimezone(t *testing.T) {
	schedule := newTestSchedule(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/calendars/c1/events", r.URL.Path)
		assert.Equal(t, `outlook.timezone="GMT Standard Time"`, r.Header.Get("Prefer"))
		io.WriteString(w, `{"value":[{"id":"e1","subject":"standup"}]}`)
	})

	events, err := schedule.Events("c1", nil).NextPage(context.Background())
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "standup", events[0].Subject)
}

func TestCalendarView(t *testing.T) {
	schedule := newTestSchedule(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/calendarView", r.URL.Path)
		assert.Equal(t, "2024-06-01T00:00:00Z", r.URL.Query().Get("startDateTime"))
		assert.Equal(t, "2024-06-30T00:00:00Z", r.URL.Query().Get("endDateTime"))
		io.WriteString(w, `{"value":[]}`)
	})

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	_, err := schedule.CalendarView("", start, end, nil).NextPage(context.Background())
	require.NoError(t, err)
}

func TestCreateEvent(t *testing.T) {
	schedule := newTestSchedule(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/events", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		start := body["start"].(map[string]any)
		assert.Equal(t, "2024-06-15T10:00:00", start["dateTime"])
		assert.Equal(t, "GMT Standard Time", start["timeZone"])
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"e2","subject":"planning"}`)
	})

	start := schedule.Protocol.BuildDateTime(time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC))
	end := schedule.Protocol.BuildDateTime(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC))
	event := &Event{
		Subject: "planning",
		Start:   &start,
		End:     &end,
		Attendees: []Attendee{{
			Type:         AttendeeRequired,
			EmailAddress: mail.EmailAddress{Address: "ada@example.com"},
		}},
	}

	created, err := schedule.CreateEvent(context.Background(), "", event)
	require.NoError(t, err)
	assert.Equal(t, "e2", created.ID)
}

func TestUpdateEventSendsOnlyChangedFields(t *testing.T) {
	schedule := newTestSchedule(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"subject":"moved"}`, string(raw))
		io.WriteString(w, `{"id":"e1","subject":"moved"}`)
	})

	subject := "moved"
	_, err := schedule.UpdateEvent(context.Background(), "e1", &EventUpdate{Subject: &subject})
	require.NoError(t, err)
}

func TestRespond(t *testing.T) {
	schedule := newTestSchedule(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/events/e1/tentativelyAccept", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "might be late", body["comment"])
		assert.Equal(t, true, body["sendResponse"])
		w.WriteHeader(http.StatusAccepted)
	})

	err := schedule.Respond(context.Background(), "e1", RespondTentative, "might be late", true)
	require.NoError(t, err)
}

func TestDeleteEvent(t *testing.T) {
	schedule := newTestSchedule(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1.0/me/events/e1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, schedule.DeleteEvent(context.Background(), "e1"))
}
