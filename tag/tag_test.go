package tag_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant/seed-engine/engine"
	"github.com/verdant/seed-engine/engine/store"
	"github.com/verdant/seed-engine/tag"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type tickingClock struct {
	t time.Time
}

func (c *tickingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService() (*tag.Service, *store.Memory) {
	mem := store.NewMemory()
	clock := &tickingClock{t: time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)}
	return tag.NewService(mem, mem, clock, nil), mem
}

func at(minute int) time.Time {
	return time.Date(2025, time.June, 1, 10, minute, 0, 0, time.UTC)
}

func tagTx(id string, txType engine.TxType, createdAt time.Time, payload string) engine.Transaction {
	return engine.Transaction{
		ID:        engine.TransactionID(id),
		EntityID:  "tag-1",
		Type:      txType,
		Payload:   []byte(payload),
		CreatedAt: createdAt,
	}
}

func strPtr(s string) *string { return &s }

// =============================================================================
// VALIDATOR TESTS
// =============================================================================

func TestValidatePayload_Creation(t *testing.T) {
	require.NoError(t, tag.ValidatePayload(tag.TxCreation, []byte(`{"name":"ideas"}`)))
	require.NoError(t, tag.ValidatePayload(tag.TxCreation, []byte(`{"name":"ideas","color":null}`)))
	require.NoError(t, tag.ValidatePayload(tag.TxCreation, []byte(`{"name":"ideas","color":"#fff"}`)))

	// Blank name raises.
	err := tag.ValidatePayload(tag.TxCreation, []byte(`{"name":"  "}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidPayload)

	// A non-string, non-null color raises.
	err = tag.ValidatePayload(tag.TxCreation, []byte(`{"name":"ideas","color":7}`))
	require.Error(t, err)
}

func TestValidatePayload_EditRequiresName(t *testing.T) {
	// Tag edit does NOT allow an empty name, unlike seed edit_content.
	err := tag.ValidatePayload(tag.TxEdit, []byte(`{"name":""}`))
	require.Error(t, err)
	assert.Equal(t, "Tag name cannot be empty", err.Error())
}

func TestValidatePayload_UnknownType(t *testing.T) {
	err := tag.ValidatePayload("recolor", []byte(`{}`))
	require.Error(t, err)
	assert.Equal(t, "Unknown transaction type: recolor", err.Error())
}

// =============================================================================
// REDUCER TESTS
// =============================================================================

func TestReduce_NoCreation_Fatal(t *testing.T) {
	_, err := tag.Reduce([]engine.Transaction{
		tagTx("a", tag.TxEdit, at(10), `{"name":"renamed"}`),
	}, nil)

	require.Error(t, err)
	assert.Equal(t, "Tag must have a creation transaction", err.Error())
}

func TestReduce_EditAndSetColor(t *testing.T) {
	st, err := tag.Reduce([]engine.Transaction{
		tagTx("a", tag.TxCreation, at(10), `{"name":"ideas","color":"#0f0"}`),
		tagTx("b", tag.TxEdit, at(20), `{"name":"projects"}`),
		tagTx("c", tag.TxSetColor, at(30), `{"color":"#f00"}`),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "projects", st.Name)
	require.NotNil(t, st.Color)
	assert.Equal(t, "#f00", *st.Color)
	assert.Equal(t, at(10), st.CreatedAt)
}

func TestReduce_SetColorToNull_ClearsColor(t *testing.T) {
	st, err := tag.Reduce([]engine.Transaction{
		tagTx("a", tag.TxCreation, at(10), `{"name":"ideas","color":"#0f0"}`),
		tagTx("b", tag.TxSetColor, at(20), `{"color":null}`),
	}, nil)

	require.NoError(t, err)
	assert.Nil(t, st.Color)
}

func TestReduce_InvalidEdit_Skipped(t *testing.T) {
	// An empty-name edit mid-history is skippable corruption.
	st, err := tag.Reduce([]engine.Transaction{
		tagTx("a", tag.TxCreation, at(10), `{"name":"ideas"}`),
		tagTx("b", tag.TxEdit, at(20), `{"name":""}`),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ideas", st.Name)
}

// =============================================================================
// SERVICE TESTS
// =============================================================================

func TestService_CreateAndRename(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	st, err := svc.Create(ctx, "user-1", "ideas", strPtr("#0f0"), "")
	require.NoError(t, err)
	assert.Equal(t, "ideas", st.Name)

	st, err = svc.Edit(ctx, st.ID, "projects", "")
	require.NoError(t, err)
	assert.Equal(t, "projects", st.Name)

	// Rename recorded the old name in the delta payload.
	txs, err := mem.ListByEntity(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.JSONEq(t, `{"name":"projects","old_name":"ideas"}`, string(txs[1].Payload))
}

func TestService_Edit_EmptyName_Rejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	st, err := svc.Create(ctx, "user-1", "ideas", nil, "")
	require.NoError(t, err)

	_, err = svc.Edit(ctx, st.ID, "   ", "")
	require.Error(t, err)
	assert.Equal(t, tag.ErrNameEmpty, err)
}

func TestService_Edit_UnknownTag(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Edit(context.Background(), "missing", "renamed", "")
	require.Error(t, err)
	assert.Equal(t, tag.ErrTagNotFound, err)
}

func TestService_SetColor_RoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	st, err := svc.Create(ctx, "user-1", "ideas", nil, "")
	require.NoError(t, err)
	assert.Nil(t, st.Color)

	st, err = svc.SetColor(ctx, st.ID, strPtr("#00f"), "")
	require.NoError(t, err)
	require.NotNil(t, st.Color)

	st, err = svc.SetColor(ctx, st.ID, nil, "")
	require.NoError(t, err)
	assert.Nil(t, st.Color)
}

func TestService_GetByUser(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, "user-1", "a", nil, "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-2", "b", nil, "")
	require.NoError(t, err)

	states, err := svc.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, first.ID, states[0].ID)
}
