/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the derived domain state from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in the services, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/verdant/seed-engine/engine"
	"github.com/verdant/seed-engine/followup"
	"github.com/verdant/seed-engine/seed"
	"github.com/verdant/seed-engine/tag"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TransactionDTO exposes one immutable audit record.
type TransactionDTO struct {
	ID           string          `json:"id"`
	EntityID     string          `json:"entity_id"`
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload"`
	AutomationID string          `json:"automation_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toTransactionDTO(tx engine.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:           string(tx.ID),
		EntityID:     string(tx.EntityID),
		Type:         string(tx.Type),
		Payload:      tx.Payload,
		AutomationID: string(tx.AutomationID),
		CreatedAt:    tx.CreatedAt,
	}
}

func toTransactionDTOs(txs []engine.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		dtos = append(dtos, toTransactionDTO(tx))
	}
	return dtos
}

// FollowupDTO carries the derived state plus the full sorted history for
// audit display.
type FollowupDTO struct {
	ID           string           `json:"id"`
	DueTime      time.Time        `json:"due_time"`
	Message      string           `json:"message"`
	Dismissed    bool             `json:"dismissed"`
	DismissedAt  *time.Time       `json:"dismissed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	Transactions []TransactionDTO `json:"transactions"`
}

func toFollowupDTO(st *followup.State) FollowupDTO {
	return FollowupDTO{
		ID:           string(st.ID),
		DueTime:      st.DueTime,
		Message:      st.Message,
		Dismissed:    st.Dismissed,
		DismissedAt:  st.DismissedAt,
		CreatedAt:    st.CreatedAt,
		Transactions: toTransactionDTOs(st.Transactions),
	}
}

type SchedulerStatusDTO struct {
	Active        bool   `json:"active"`
	CheckInterval string `json:"check_interval"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateSeedRequest struct {
	UserID       string         `json:"user_id"`
	Content      string         `json:"content"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	AutomationID string         `json:"automation_id,omitempty"`
}

type EditContentRequest struct {
	Content      string `json:"content"`
	AutomationID string `json:"automation_id,omitempty"`
}

type AttachTagRequest struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
}

type SetCategoryRequest struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
}

type CreateTagRequest struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Color        *string `json:"color"`
	AutomationID string  `json:"automation_id,omitempty"`
}

type EditTagRequest struct {
	Name string `json:"name"`
}

type SetColorRequest struct {
	Color *string `json:"color"`
}

type CreateFollowupRequest struct {
	DueTime      time.Time `json:"due_time"`
	Message      string    `json:"message"`
	AutomationID string    `json:"automation_id,omitempty"`
}

type EditFollowupRequest struct {
	NewTime    *time.Time `json:"new_time,omitempty"`
	NewMessage *string    `json:"new_message,omitempty"`
}

type SnoozeRequest struct {
	Minutes int    `json:"minutes"`
	Method  string `json:"method,omitempty"`
}

type DismissRequest struct {
	Type string `json:"type,omitempty"`
}

// Seed and tag states already carry their JSON shape; aliases keep handler
// signatures uniform.
type SeedDTO = seed.State
type TagDTO = tag.State
