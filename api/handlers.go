/*
handlers.go - HTTP API handlers for the seed engine

PURPOSE:
  Exposes the event-sourced core via REST. Handlers are thin: decode DTO,
  delegate to the entity services, encode DTO. All state shown to clients is
  derived by replay on read; nothing here mutates rows in place.

ENDPOINTS:
  Seeds:
    POST   /api/seeds                          Create seed
    GET    /api/seeds/{id}                     Get derived seed state
    PUT    /api/seeds/{id}/content             Edit content (may be empty)
    POST   /api/seeds/{id}/tags                Attach tag
    DELETE /api/seeds/{id}/tags/{tagID}        Detach tag
    PUT    /api/seeds/{id}/category            Set the category slot
    DELETE /api/seeds/{id}/category/{catID}    Remove category
    GET    /api/seeds/{id}/followups           Follow-ups of a seed
    POST   /api/seeds/{id}/followups           Create follow-up on a seed

  Tags:
    POST   /api/tags                           Create tag
    GET    /api/tags/{id}                      Get derived tag state
    PUT    /api/tags/{id}                      Rename (non-empty)
    PUT    /api/tags/{id}/color                Set color (null clears)

  Follow-ups:
    GET    /api/followups/{id}                 Derived state + audit history
    PATCH  /api/followups/{id}                 Partial edit
    POST   /api/followups/{id}/snooze          Snooze by minutes
    POST   /api/followups/{id}/dismiss         Terminal dismissal

  Users:
    GET    /api/users/{userID}/seeds           All seeds of a user
    GET    /api/users/{userID}/tags            All tags of a user
    GET    /api/users/{userID}/followups/due   Due, undismissed follow-ups

  Audit / ops:
    GET    /api/entities/{id}/transactions     Ordered transaction history
    GET    /api/scheduler                      Scheduler status
    POST   /api/scheduler/check                Trigger one check cycle

ERROR HANDLING:
  - 400: missing/blank required fields, invalid input
  - 404: seed/tag/follow-up not found
  - 409: mutating a dismissed follow-up
  - 500: store failures, unreadable entity histories
  Precondition messages surface to the client unmodified.

SEE ALSO:
  - dto.go: request/response structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verdant/seed-engine/engine"
	"github.com/verdant/seed-engine/followup"
	"github.com/verdant/seed-engine/seed"
	"github.com/verdant/seed-engine/tag"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for the HTTP layer.
type Handler struct {
	Seeds     *seed.Service
	Tags      *tag.Service
	Followups *followup.Service
	Store     engine.Store
	Scheduler *DueFollowupScheduler
}

func NewHandler(seeds *seed.Service, tags *tag.Service, followups *followup.Service, store engine.Store, scheduler *DueFollowupScheduler) *Handler {
	return &Handler{Seeds: seeds, Tags: tags, Followups: followups, Store: store, Scheduler: scheduler}
}

// =============================================================================
// SEED ENDPOINTS
// =============================================================================

// CreateSeed appends a creation transaction and returns the derived state.
// POST /api/seeds
func (h *Handler) CreateSeed(w http.ResponseWriter, r *http.Request) {
	var req CreateSeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	st, err := h.Seeds.Create(r.Context(), req.UserID, req.Content, req.Metadata, engine.AutomationID(req.AutomationID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetSeed returns the derived seed state.
// GET /api/seeds/{id}
func (h *Handler) GetSeed(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	st, err := h.Seeds.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, seed.ErrSeedNotFound.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListUserSeeds returns derived state for every seed of a user.
// GET /api/users/{userID}/seeds
func (h *Handler) ListUserSeeds(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	states, err := h.Seeds.GetByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if states == nil {
		states = []*SeedDTO{}
	}
	writeJSON(w, http.StatusOK, states)
}

// EditSeedContent replaces a seed's content. Empty content clears the seed.
// PUT /api/seeds/{id}/content
func (h *Handler) EditSeedContent(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	var req EditContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st, err := h.Seeds.EditContent(r.Context(), id, req.Content, engine.AutomationID(req.AutomationID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// AttachTag appends an add_tag transaction (idempotent by tag id).
// POST /api/seeds/{id}/tags
func (h *Handler) AttachTag(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	var req AttachTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TagID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "tag_id and name are required", nil)
		return
	}

	st, err := h.Seeds.AddTag(r.Context(), id, req.TagID, req.Name, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DetachTag appends a remove_tag transaction (no-op when absent).
// DELETE /api/seeds/{id}/tags/{tagID}
func (h *Handler) DetachTag(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))
	tagID := chi.URLParam(r, "tagID")

	st, err := h.Seeds.RemoveTag(r.Context(), id, tagID, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SetSeedCategory replaces the single category slot.
// PUT /api/seeds/{id}/category
func (h *Handler) SetSeedCategory(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	var req SetCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CategoryID == "" || req.Name == "" || req.Path == "" {
		writeError(w, http.StatusBadRequest, "category_id, name and path are required", nil)
		return
	}

	st, err := h.Seeds.SetCategory(r.Context(), id, seed.CategoryRef{ID: req.CategoryID, Name: req.Name, Path: req.Path}, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// RemoveSeedCategory clears a category by id.
// DELETE /api/seeds/{id}/category/{categoryID}
func (h *Handler) RemoveSeedCategory(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))
	categoryID := chi.URLParam(r, "categoryID")

	st, err := h.Seeds.RemoveCategory(r.Context(), id, categoryID, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// =============================================================================
// TAG ENDPOINTS
// =============================================================================

// CreateTag appends a tag creation transaction.
// POST /api/tags
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	st, err := h.Tags.Create(r.Context(), req.UserID, req.Name, req.Color, engine.AutomationID(req.AutomationID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetTag returns the derived tag state.
// GET /api/tags/{id}
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	st, err := h.Tags.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, tag.ErrTagNotFound.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListUserTags returns derived state for every tag of a user.
// GET /api/users/{userID}/tags
func (h *Handler) ListUserTags(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	states, err := h.Tags.GetByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if states == nil {
		states = []*TagDTO{}
	}
	writeJSON(w, http.StatusOK, states)
}

// EditTag renames a tag; an empty name is rejected.
// PUT /api/tags/{id}
func (h *Handler) EditTag(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	var req EditTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st, err := h.Tags.Edit(r.Context(), id, req.Name, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SetTagColor replaces the color; a JSON null clears it.
// PUT /api/tags/{id}/color
func (h *Handler) SetTagColor(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	var req SetColorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st, err := h.Tags.SetColor(r.Context(), id, req.Color, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// =============================================================================
// FOLLOW-UP ENDPOINTS
// =============================================================================

// CreateFollowup creates a follow-up on a seed. The seed additionally gets
// an add_sprout audit transaction (best-effort-sequential).
// POST /api/seeds/{id}/followups
func (h *Handler) CreateFollowup(w http.ResponseWriter, r *http.Request) {
	seedID := engine.EntityID(chi.URLParam(r, "id"))

	var req CreateFollowupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st, err := h.Followups.Create(r.Context(), seedID, req.DueTime, req.Message, engine.AutomationID(req.AutomationID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFollowupDTO(st))
}

// GetFollowup returns derived state plus the full ordered history.
// GET /api/followups/{id}
func (h *Handler) GetFollowup(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	st, err := h.Followups.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, followup.ErrFollowupNotFound.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, toFollowupDTO(st))
}

// ListSeedFollowups returns every follow-up attached to a seed.
// GET /api/seeds/{id}/followups
func (h *Handler) ListSeedFollowups(w http.ResponseWriter, r *http.Request) {
	seedID := engine.EntityID(chi.URLParam(r, "id"))

	states, err := h.Followups.GetBySeedID(r.Context(), seedID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]FollowupDTO, 0, len(states))
	for _, st := range states {
		dtos = append(dtos, toFollowupDTO(st))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// EditFollowup applies a partial edit. Rejected once dismissed.
// PATCH /api/followups/{id}
func (h *Handler) EditFollowup(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	var req EditFollowupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st, err := h.Followups.Edit(r.Context(), id, req.NewTime, req.NewMessage, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFollowupDTO(st))
}

// SnoozeFollowup shifts the due time forward by whole minutes.
// POST /api/followups/{id}/snooze
func (h *Handler) SnoozeFollowup(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	var req SnoozeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Minutes <= 0 {
		writeError(w, http.StatusBadRequest, "minutes must be positive", nil)
		return
	}

	method := followup.SnoozeMethod(req.Method)
	if method == "" {
		method = followup.MethodManual
	}

	st, err := h.Followups.Snooze(r.Context(), id, req.Minutes, method, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFollowupDTO(st))
}

// DismissFollowup terminally flags the follow-up.
// POST /api/followups/{id}/dismiss
func (h *Handler) DismissFollowup(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	var req DismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st, err := h.Followups.Dismiss(r.Context(), id, req.Type, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFollowupDTO(st))
}

// ListDueFollowups projects the due, undismissed follow-ups of a user.
// GET /api/users/{userID}/followups/due
func (h *Handler) ListDueFollowups(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	due, err := h.Followups.GetDueFollowups(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if due == nil {
		due = []followup.DueFollowup{}
	}
	writeJSON(w, http.StatusOK, due)
}

// =============================================================================
// AUDIT + SCHEDULER ENDPOINTS
// =============================================================================

// GetTransactions returns an entity's full transaction history in replay
// order, regardless of entity family.
// GET /api/entities/{id}/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id := engine.EntityID(chi.URLParam(r, "id"))

	txs, err := h.Store.ListByEntity(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(engine.SortChronological(txs)))
}

// GetSchedulerStatus reports whether the scheduler is running.
// GET /api/scheduler
func (h *Handler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchedulerStatusDTO{
		Active:        h.Scheduler.IsActive(),
		CheckInterval: h.Scheduler.CheckInterval.String(),
	})
}

// TriggerSchedulerCheck runs one check cycle out of band. Skipped if a cycle
// is already in flight.
// POST /api/scheduler/check
func (h *Handler) TriggerSchedulerCheck(w http.ResponseWriter, r *http.Request) {
	h.Scheduler.CheckNow()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Precondition
// messages pass through unmodified; reduction failures stay operational.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, seed.ErrSeedNotFound),
		errors.Is(err, tag.ErrTagNotFound),
		errors.Is(err, followup.ErrFollowupNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)

	case errors.Is(err, followup.ErrEditDismissed),
		errors.Is(err, followup.ErrSnoozeDismissed),
		errors.Is(err, followup.ErrAlreadyDismissed):
		writeError(w, http.StatusConflict, err.Error(), nil)

	case errors.Is(err, seed.ErrContentRequired),
		errors.Is(err, tag.ErrNameRequired),
		errors.Is(err, tag.ErrNameEmpty),
		errors.Is(err, followup.ErrDueTimeRequired),
		errors.Is(err, followup.ErrMessageRequired):
		writeError(w, http.StatusBadRequest, err.Error(), nil)

	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
