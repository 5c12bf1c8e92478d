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

type searchContactsInput struct {
	Query string `json:"query,omitempty" jsonschema_description:"Free-text search over names and email, fuzzy matched."`
	Stage string `json:"stage,omitempty" jsonschema:"enum=lead,enum=prospect,enum=active,enum=dormant,enum=former" jsonschema_description:"Filter by lifecycle stage."`
	Tag   string `json:"tag,omitempty" jsonschema_description:"Filter by tag name."`
	Limit int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=100" jsonschema_description:"Maximum results (default 20)."`
}

type getContactInput struct {
	ContactID string `json:"contact_id" jsonschema:"format=uuid" jsonschema_description:"Contact UUID."`
}

type createContactInput struct {
	FirstName string   `json:"first_name" jsonschema_description:"Given name."`
	LastName  string   `json:"last_name,omitempty" jsonschema_description:"Family name."`
	Email     string   `json:"email,omitempty" jsonschema:"format=email"`
	Phone     string   `json:"phone,omitempty"`
	Stage     string   `json:"stage,omitempty" jsonschema:"enum=lead,enum=prospect,enum=active,enum=dormant,enum=former"`
	Tags      []string `json:"tags,omitempty" jsonschema_description:"Tag names, created on demand."`
}

type updateContactInput struct {
	ContactID string  `json:"contact_id" jsonschema:"format=uuid"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type updateStageInput struct {
	ContactID string `json:"contact_id" jsonschema:"format=uuid"`
	Stage     string `json:"stage" jsonschema:"enum=lead,enum=prospect,enum=active,enum=dormant,enum=former"`
}

type contactTagInput struct {
	ContactID string `json:"contact_id" jsonschema:"format=uuid"`
	Tag       string `json:"tag" jsonschema_description:"Tag name."`
}

type deleteContactInput struct {
	ContactID string `json:"contact_id" jsonschema:"format=uuid"`
}

// contactDTO is the wire shape for contact results.
type contactDTO struct {
	ID             string   `json:"id"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Email          *string  `json:"email,omitempty"`
	Phone          *string  `json:"phone,omitempty"`
	LifecycleStage string   `json:"lifecycle_stage"`
	Tags           []string `json:"tags"`
	CreatedAt      string   `json:"created_at"`
}

func toContactDTO(c repository.Contact) contactDTO {
	tags := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		tags = append(tags, t.Name)
	}
	return contactDTO{
		ID:             c.ID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		Phone:          c.Phone,
		LifecycleStage: c.LifecycleStage,
		Tags:           tags,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func registerContactTools(r *Registry, d Deps) {
	r.MustRegister(ToolDefinition{
		Name:        "search_contacts",
		Description: "Search contacts by name or email with optional stage and tag filters.",
		Permission:  PermissionRead,
		CreditCost:  1,
		RateLimit:   &RateLimit{PerMinute: 60},
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[searchContactsInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in searchContactsInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			limit := in.Limit
			if limit <= 0 {
				limit = 20
			}
			contacts, err := d.Contacts.List(ctx, repository.ContactFilters{
				LifecycleStage: in.Stage,
				Tag:            in.Tag,
			})
			if err != nil {
				return nil, err
			}
			ranked := service.RankContacts(contacts, in.Query, limit)
			out := make([]contactDTO, 0, len(ranked))
			for _, c := range ranked {
				out = append(out, toContactDTO(c))
			}
			return map[string]any{"contacts": out, "count": len(out)}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "get_contact",
		Description: "Fetch a single contact with tags by ID.",
		Permission:  PermissionRead,
		CreditCost:  1,
		CacheTTL:    30 * time.Second,
		Idempotent:  true,
		InputSchema: GenerateSchema[getContactInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in getContactInput
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
			return toContactDTO(*c), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "create_contact",
		Description: "Create a contact, optionally tagging it.",
		Permission:  PermissionWrite,
		CreditCost:  2,
		InputSchema: GenerateSchema[createContactInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in createContactInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			stage := in.Stage
			if stage == "" {
				stage = repository.StageLead
			}
			c := repository.Contact{
				ID:             uuid.NewString(),
				FirstName:      in.FirstName,
				LastName:       in.LastName,
				LifecycleStage: stage,
			}
			if in.Email != "" {
				c.Email = &in.Email
			}
			if in.Phone != "" {
				c.Phone = &in.Phone
			}
			if err := d.Contacts.Insert(ctx, c); err != nil {
				return nil, err
			}
			for _, name := range in.Tags {
				tag, err := d.Tags.EnsureByName(ctx, name)
				if err != nil {
					return nil, err
				}
				if err := d.Contacts.AttachTag(ctx, c.ID, tag.ID); err != nil {
					return nil, err
				}
			}
			created, err := d.Contacts.Get(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			return toContactDTO(*created), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "update_contact",
		Description: "Update a contact's identity fields. Omitted fields are left unchanged.",
		Permission:  PermissionWrite,
		CreditCost:  2,
		Idempotent:  true,
		InputSchema: GenerateSchema[updateContactInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in updateContactInput
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
			if in.FirstName != nil {
				c.FirstName = *in.FirstName
			}
			if in.LastName != nil {
				c.LastName = *in.LastName
			}
			if in.Email != nil {
				c.Email = in.Email
			}
			if in.Phone != nil {
				c.Phone = in.Phone
			}
			if err := d.Contacts.Update(ctx, *c); err != nil {
				return nil, err
			}
			updated, err := d.Contacts.Get(ctx, in.ContactID)
			if err != nil {
				return nil, err
			}
			return toContactDTO(*updated), nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "update_lifecycle_stage",
		Description: "Move a contact to a different lifecycle stage.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		Idempotent:  true,
		InputSchema: GenerateSchema[updateStageInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in updateStageInput
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
			if err := d.Contacts.UpdateLifecycleStage(ctx, in.ContactID, in.Stage); err != nil {
				return nil, err
			}
			return map[string]any{"contact_id": in.ContactID, "lifecycle_stage": in.Stage}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "add_contact_tag",
		Description: "Attach a tag to a contact, creating the tag if needed.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		Idempotent:  true,
		InputSchema: GenerateSchema[contactTagInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in contactTagInput
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
			tag, err := d.Tags.EnsureByName(ctx, in.Tag)
			if err != nil {
				return nil, err
			}
			if err := d.Contacts.AttachTag(ctx, in.ContactID, tag.ID); err != nil {
				return nil, err
			}
			return map[string]any{"contact_id": in.ContactID, "tag": tag.Name}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "remove_contact_tag",
		Description: "Detach a tag from a contact.",
		Permission:  PermissionWrite,
		CreditCost:  1,
		Idempotent:  true,
		InputSchema: GenerateSchema[contactTagInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in contactTagInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("contact_id", in.ContactID); err != nil {
				return nil, err
			}
			tag, err := d.Tags.ByName(ctx, in.Tag)
			if err != nil {
				return nil, err
			}
			if tag == nil {
				return map[string]any{"contact_id": in.ContactID, "tag": in.Tag, "removed": false}, nil
			}
			if err := d.Contacts.RemoveTag(ctx, in.ContactID, tag.ID); err != nil {
				return nil, err
			}
			return map[string]any{"contact_id": in.ContactID, "tag": in.Tag, "removed": true}, nil
		},
	})

	r.MustRegister(ToolDefinition{
		Name:        "delete_contact",
		Description: "Permanently delete a contact and its notes.",
		Permission:  PermissionAdmin,
		CreditCost:  5,
		InputSchema: GenerateSchema[deleteContactInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in deleteContactInput
			if err := decode(raw, &in); err != nil {
				return nil, err
			}
			if err := requireUUID("contact_id", in.ContactID); err != nil {
				return nil, err
			}
			deleted, err := d.Contacts.Delete(ctx, in.ContactID)
			if err != nil {
				return nil, err
			}
			if !deleted {
				return nil, apperr.NotFound("CONTACT_NOT_FOUND", "contact %s not found", in.ContactID)
			}
			return map[string]any{"contact_id": in.ContactID, "deleted": true}, nil
		},
	})
}
