// Package gcal pushes confirmed appointments to Google Calendar. Events are
// located by the appointment id stored as a private extended property, so no
// provider event ids need to be persisted on our side.
package gcal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const appointmentIDProperty = "appointmentId"

// Event is the provider-neutral description of a calendar entry.
type Event struct {
	AppointmentID string
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
}

type Syncer interface {
	Create(ctx context.Context, evt Event) error
	// Restore re-titles the event after a reopen, or recreates it when a
	// prior close already deleted it.
	Restore(ctx context.Context, evt Event) error
	Delete(ctx context.Context, appointmentID string) error
}

// Client fans out to one or more calendar ids using a service account.
type Client struct {
	svc       *calendar.Service
	calendars []string
	logger    *slog.Logger
}

func NewClient(ctx context.Context, credentialsJSON []byte, calendarIDs []string, logger *slog.Logger) (*Client, error) {
	if len(calendarIDs) == 0 {
		return nil, errors.New("no calendar ids configured")
	}
	svc, err := calendar.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(calendar.CalendarScope),
	)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc, calendars: calendarIDs, logger: logger}, nil
}

func (c *Client) Create(ctx context.Context, evt Event) error {
	e := buildEvent(evt)
	var errs []error
	for _, calID := range c.calendars {
		if _, err := c.svc.Events.Insert(calID, e).Context(ctx).Do(); err != nil {
			c.logger.Error("calendar insert failed", "calendar_id", calID, "appointment_id", evt.AppointmentID, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) Restore(ctx context.Context, evt Event) error {
	var errs []error
	for _, calID := range c.calendars {
		found, err := c.find(ctx, calID, evt.AppointmentID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if found == nil {
			if _, err := c.svc.Events.Insert(calID, buildEvent(evt)).Context(ctx).Do(); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		found.Summary = evt.Summary
		if _, err := c.svc.Events.Update(calID, found.Id, found).Context(ctx).Do(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) Delete(ctx context.Context, appointmentID string) error {
	var errs []error
	for _, calID := range c.calendars {
		found, err := c.find(ctx, calID, appointmentID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if found == nil {
			continue
		}
		if err := c.svc.Events.Delete(calID, found.Id).Context(ctx).Do(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) find(ctx context.Context, calendarID, appointmentID string) (*calendar.Event, error) {
	list, err := c.svc.Events.List(calendarID).
		PrivateExtendedProperty(appointmentIDProperty + "=" + appointmentID).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(list.Items) == 0 {
		return nil, nil
	}
	return list.Items[0], nil
}

func buildEvent(evt Event) *calendar.Event {
	return &calendar.Event{
		Summary:     evt.Summary,
		Description: evt.Description,
		Start:       &calendar.EventDateTime{DateTime: evt.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: evt.End.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{appointmentIDProperty: evt.AppointmentID},
		},
	}
}

// Noop is used when no service-account credentials are configured.
type Noop struct{}

func (Noop) Create(context.Context, Event) error  { return nil }
func (Noop) Restore(context.Context, Event) error { return nil }
func (Noop) Delete(context.Context, string) error { return nil }
