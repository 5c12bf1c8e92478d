package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/database/repository"
)

type createEventInput struct {
	Title       string   `json:"title" jsonschema:"minLength=1"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	StartsAt    string   `json:"starts_at" jsonschema:"format=date-time" jsonschema_description:"RFC 3339 timestamp."`
	EndsAt      string   `json:"ends_at" jsonschema:"format=date-time" jsonschema_description:"RFC 3339 timestamp, must be after starts_at."`
	ContactID   string   `json:"contact_id,omitempty" jsonschema:"format=uuid" jsonschema_description:"Contact this event is about."`
	Attendees   []string `json:"attendees,omitempty" jsonschema_description:"Attendee email addresses."`
}

type getEventInput struct {
	EventID string `json:"event_id" jsonschema:"format=uuid"`
}

type listEventsInput struct {
	ContactID string `json:"contact_id,omitempty" jsonschema:"format=uuid"`
	From      string `json:"from,omitempty" jsonschema:"format=date-time" jsonschema_description:"Only events ending at or after this time."`
	To        string `json:"to,omitempty" jsonschema:"format=date-time" jsonschema_description:"Only events starting before this time."`
}

type updateEventInput struct {
	EventID     string    `json:"event_id" jsonschema:"format=uuid"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	StartsAt    *string   `json:"starts_at,omitempty" jsonschema:"format=date-time"`
	EndsAt      *string   `json:"ends_at,omitempty" jsonschema:"format=date-time"`
	Attendees   *[]string `json:"attendees,omitempty"`
}

type deleteEventInput struct {
	EventID string `json:"event_id" jsonschema:"format=uuid"`
}

type eventDTO struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    *string  `json:"location,omitempty"`
	StartsAt    string   `json:"starts_at"`
	EndsAt      string   `json:"ends_at"`
	ContactID   *string  `json:"contact_id,omitempty"`
	Attendees   []string `json:"attendees"`
}

func toEventDTO(e repository.Event) eventDTO {
	attendees := e.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return eventDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:      e.EndsAt.UTC().Format(time.RFC3339),
		ContactID:   e.ContactID,
		Attendees:   attendees,
	}
}

func parseTimestamp(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperr.Invalid("INVALID_PARAMS", "%s is not a valid RFC 3339 timestamp: %s", field, value)
	}
	return t.UTC(), nil
}

func registerCalendarTools(r *Registry, d Deps) {
	r.MustRegister(ToolDefinition{
		Name:        "create_event",
		Description: "Schedule a calendar event, optionally linked to a contact.",
		Permission:  PermissionWrite,
		CreditCost:  2,
		InputSchema: GenerateSchema[createEventInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in createEventInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			starts, err := parseTimestamp("starts_at", in.StartsAt)
			if err != nil {
				return nil, err
			}
			ends, err := parseTimestamp("ends_at", in.EndsAt)
			if err != nil {
				return nil, err
			}
			if !ends.After(starts) {
				return nil, apperr.Invalid("INVALID_TIME_RANGE", "ends_at must be after starts_at")
			}
			e := repository.Event{
				ID:          uuid.NewString(),
				Title:       in.Title,
				Description: in.Description,
				StartsAt:    starts,
				EndsAt:      ends,
				Attendees:   in.Attendees,
			}
			if in.Location != "" {
				e.Location = &in.Location
			}
			if in.ContactID != "" {
				if err := requireUUID("contact_id", in.ContactID); err != nil {
					return nil, err
				}
				c, err := d.Contacts.Get(ctx, in.ContactID)
				if err != nil {
					return nil, err
				}
				if c == nil {
					return nil, apperr.NotFound("CONTACT_NOT_FOUND", "contact %s not found", in.ContactID)
				}
				e.ContactID = &in.ContactID
			}
			if err := d.Events.Insert(ctx, e); err != nil {
				return nil, err
			}
			created, err := d.Events.Get(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			return toEventDTO(*created), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "get_event",
		Description: "Fetch a calendar event with its attendees.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[getEventInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in getEventInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("event_id", in.EventID); err != nil {
				return nil, err
			}
			e, err := d.Events.Get(ctx, in.EventID)
			if err != nil {
				return nil, err
			}
			if e == nil {
				return nil, apperr.NotFound("EVENT_NOT_FOUND", "event %s not found", in.EventID)
			}
			return toEventDTO(*e), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "list_events",
		Description: "List calendar events in a time range, optionally for one contact.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[listEventsInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in listEventsInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			var f repository.EventFilters
			if in.ContactID != "" {
				if err := requireUUID("contact_id", in.ContactID); err != nil {
					return nil, err
				}
				f.ContactID = in.ContactID
			}
			if in.From != "" {
				from, err := parseTimestamp("from", in.From)
				if err != nil {
					return nil, err
				}
				f.From = from
			}
			if in.To != "" {
				to, err := parseTimestamp("to", in.To)
				if err != nil {
					return nil, err
				}
				f.To = to
			}
			events, err := d.Events.List(ctx, f)
			if err != nil {
				return nil, err
			}
			out := make([]eventDTO, 0, len(events))
			for _, e := range events {
				out = append(out, toEventDTO(e))
			}
			return map[string]any{"events": out, "count": len(out)}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "update_event",
		Description: "Reschedule or edit a calendar event. Omitted fields are left unchanged.",
		Permission:  PermissionWrite,
		CreditCost:  2,
		Idempotent:  true,
		InputSchema: GenerateSchema[updateEventInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in updateEventInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("event_id", in.EventID); err != nil {
				return nil, err
			}
			e, err := d.Events.Get(ctx, in.EventID)
			if err != nil {
				return nil, err
			}
			if e == nil {
				return nil, apperr.NotFound("EVENT_NOT_FOUND", "event %s not found", in.EventID)
			}
			if in.Title != nil {
				e.Title = *in.Title
			}
			if in.Description != nil {
				e.Description = *in.Description
			}
			if in.Location != nil {
				e.Location = in.Location
			}
			if in.StartsAt != nil {
				starts, err := parseTimestamp("starts_at", *in.StartsAt)
				if err != nil {
					return nil, err
				}
				e.StartsAt = starts
			}
			if in.EndsAt != nil {
				ends, err := parseTimestamp("ends_at", *in.EndsAt)
				if err != nil {
					return nil, err
				}
				e.EndsAt = ends
			}
			if !e.EndsAt.After(e.StartsAt) {
				return nil, apperr.Invalid("INVALID_TIME_RANGE", "ends_at must be after starts_at")
			}
			if in.Attendees != nil {
				e.Attendees = *in.Attendees
			}
			if err := d.Events.Update(ctx, *e); err != nil {
				return nil, err
			}
			updated, err := d.Events.Get(ctx, in.EventID)
			if err != nil {
				return nil, err
			}
			return toEventDTO(*updated), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "delete_event",
		Description: "Permanently delete a calendar event.",
		Permission:  PermissionAdmin,
		CreditCost:  5,
		InputSchema: GenerateSchema[deleteEventInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in deleteEventInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("event_id", in.EventID); err != nil {
				return nil, err
			}
			deleted, err := d.Events.Delete(ctx, in.EventID)
			if err != nil {
				return nil, err
			}
			if !deleted {
				return nil, apperr.NotFound("EVENT_NOT_FOUND", "event %s not found", in.EventID)
			}
			return map[string]any{"event_id": in.EventID, "deleted": true}, nil
		},
	})
}
