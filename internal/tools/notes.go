package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/database/repository"
	"github.com/omnihq/omnicrm/internal/service"
)

type addNoteInput struct {
	ContactID string `json:"contact_id" jsonschema:"format=uuid"`
	Body      string `json:"body" jsonschema:"minLength=1" jsonschema_description:"Free-text note body."`
}

type getNotesInput struct {
	ContactID string `json:"contact_id" jsonschema:"format=uuid"`
	Limit     int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=200"`
}

type noteInsightsInput struct {
	ContactID string `json:"contact_id" jsonschema:"format=uuid"`
}

type noteDTO struct {
	ID             string   `json:"id"`
	ContactID      string   `json:"contact_id"`
	Body           string   `json:"body"`
	Sentiment      string   `json:"sentiment"`
	SentimentScore int      `json:"sentiment_score"`
	Themes         []string `json:"themes"`
	CreatedAt      string   `json:"created_at"`
}

func toNoteDTO(n repository.Note) noteDTO {
	themes := n.Themes
	if themes == nil {
		themes = []string{}
	}
	return noteDTO{
		ID:             n.ID,
		ContactID:      n.ContactID,
		Body:           n.Body,
		Sentiment:      n.Sentiment,
		SentimentScore: n.SentimentScore,
		Themes:         themes,
		CreatedAt:      n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func registerNoteTools(r *Registry, d Deps) {
	r.MustRegister(ToolDefinition{
		Name:        "add_note",
		Description: "Attach a free-text note to a contact. Sentiment and themes are derived on write.",
		Permission:  PermissionWrite,
		CreditCost:  2,
		InputSchema: GenerateSchema[addNoteInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in addNoteInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
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
			s := service.AnalyzeSentiment(in.Body)
			n := repository.Note{
				ID:             uuid.NewString(),
				ContactID:      in.ContactID,
				Body:           in.Body,
				Sentiment:      s.Label,
				SentimentScore: s.Score,
				Themes:         s.Themes,
			}
			if err := d.Notes.Insert(ctx, n); err != nil {
				return nil, err
			}
			stored, err := d.Notes.Get(ctx, n.ID)
			if err != nil {
				return nil, err
			}
			return toNoteDTO(*stored), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "get_notes",
		Description: "List a contact's notes, newest first.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[getNotesInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in getNotesInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("contact_id", in.ContactID); err != nil {
				return nil, err
			}
			notes, err := d.Notes.ListByContact(ctx, in.ContactID, in.Limit)
			if err != nil {
				return nil, err
			}
			out := make([]noteDTO, 0, len(notes))
			for _, n := range notes {
				out = append(out, toNoteDTO(n))
			}
			return map[string]any{"notes": out, "count": len(out)}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "get_note_insights",
		Description: "Aggregate sentiment and theme frequencies across a contact's notes.",
		Permission:  PermissionRead,
		CreditCost:  2,
		CacheTTL:    time.Minute,
		Idempotent:  true,
		InputSchema: GenerateSchema[noteInsightsInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in noteInsightsInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("contact_id", in.ContactID); err != nil {
				return nil, err
			}
			notes, err := d.Notes.ListByContact(ctx, in.ContactID, 0)
			if err != nil {
				return nil, err
			}
			sentiments := map[string]int{}
			themes := map[string]int{}
			for _, n := range notes {
				sentiments[n.Sentiment]++
				for _, t := range n.Themes {
					themes[t]++
				}
			}
			return map[string]any{
				"contact_id": in.ContactID,
				"note_count": len(notes),
				"sentiments": sentiments,
				"themes":     themes,
			}, nil
		},
	})
}
