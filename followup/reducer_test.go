package followup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant/seed-engine/engine"
	"github.com/verdant/seed-engine/followup"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func at(hour, minute int) time.Time {
	return time.Date(2025, time.June, 1, hour, minute, 0, 0, time.UTC)
}

func fuTx(id string, txType engine.TxType, createdAt time.Time, payload string) engine.Transaction {
	return engine.Transaction{
		ID:        engine.TransactionID(id),
		EntityID:  "fu-1",
		Type:      txType,
		Payload:   []byte(payload),
		CreatedAt: createdAt,
	}
}

// =============================================================================
// REDUCER SCENARIOS
// =============================================================================

func TestReduce_CreationOnly(t *testing.T) {
	// GIVEN: [creation{initial_time=D1, message=M1}]
	// THEN: due_time=D1, message=M1, dismissed=false

	st, err := followup.Reduce([]engine.Transaction{
		fuTx("a", followup.TxCreation, at(9, 0), `{"initial_time":"2025-06-02T09:00:00Z","message":"water the plants"}`),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC), st.DueTime)
	assert.Equal(t, "water the plants", st.Message)
	assert.False(t, st.Dismissed)
	assert.Nil(t, st.DismissedAt)
	assert.Equal(t, at(9, 0), st.CreatedAt)
	assert.Len(t, st.Transactions, 1)
}

func TestReduce_EditThenSnooze_AdditiveOnEditedTime(t *testing.T) {
	// GIVEN: creation{D1}, edit{new_time=D2}, snooze{90}
	// THEN: due_time == D2 + 90min, not D1 + 90min

	st, err := followup.Reduce([]engine.Transaction{
		fuTx("a", followup.TxCreation, at(9, 0), `{"initial_time":"2025-06-02T09:00:00Z","message":"m"}`),
		fuTx("b", followup.TxEdit, at(9, 30), `{"new_time":"2025-06-03T12:00:00Z"}`),
		fuTx("c", followup.TxSnooze, at(10, 0), `{"duration_minutes":90,"method":"manual"}`),
	}, nil)

	require.NoError(t, err)
	want := time.Date(2025, time.June, 3, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, want, st.DueTime)
}

func TestReduce_OutOfOrderInput_SortedBeforeFold(t *testing.T) {
	// GIVEN: [edit(t=11:00), creation(t=10:00), snooze(t=12:00)]
	// THEN: same result as if supplied pre-sorted

	unsorted := []engine.Transaction{
		fuTx("b", followup.TxEdit, at(11, 0), `{"new_time":"2025-06-05T08:00:00Z"}`),
		fuTx("a", followup.TxCreation, at(10, 0), `{"initial_time":"2025-06-02T09:00:00Z","message":"m"}`),
		fuTx("c", followup.TxSnooze, at(12, 0), `{"duration_minutes":60}`),
	}

	st, err := followup.Reduce(unsorted, nil)
	require.NoError(t, err)

	want := time.Date(2025, time.June, 5, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, want, st.DueTime)

	// The audit history comes back chronologically sorted.
	require.Len(t, st.Transactions, 3)
	assert.Equal(t, engine.TransactionID("a"), st.Transactions[0].ID)
	assert.Equal(t, engine.TransactionID("b"), st.Transactions[1].ID)
	assert.Equal(t, engine.TransactionID("c"), st.Transactions[2].ID)
}

func TestReduce_RepeatedSnoozes_Compound(t *testing.T) {
	st, err := followup.Reduce([]engine.Transaction{
		fuTx("a", followup.TxCreation, at(9, 0), `{"initial_time":"2025-06-02T09:00:00Z","message":"m"}`),
		fuTx("b", followup.TxSnooze, at(9, 10), `{"duration_minutes":30}`),
		fuTx("c", followup.TxSnooze, at(9, 20), `{"duration_minutes":30}`),
	}, nil)

	require.NoError(t, err)
	want := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, st.DueTime)
}

func TestReduce_FractionalMinutes_Exact(t *testing.T) {
	// Decimal minutes survive exactly: 1.5 minutes is 90 seconds.
	st, err := followup.Reduce([]engine.Transaction{
		fuTx("a", followup.TxCreation, at(9, 0), `{"initial_time":"2025-06-02T09:00:00Z","message":"m"}`),
		fuTx("b", followup.TxSnooze, at(9, 10), `{"duration_minutes":1.5}`),
	}, nil)

	require.NoError(t, err)
	want := time.Date(2025, time.June, 2, 9, 1, 30, 0, time.UTC)
	assert.Equal(t, want, st.DueTime)
}

func TestReduce_PartialEdit_MessageOnly(t *testing.T) {
	st, err := followup.Reduce([]engine.Transaction{
		fuTx("a", followup.TxCreation, at(9, 0), `{"initial_time":"2025-06-02T09:00:00Z","message":"old"}`),
		fuTx("b", followup.TxEdit, at(9, 30), `{"new_message":"new"}`),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "new", st.Message)
	// Due time untouched by a message-only edit.
	assert.Equal(t, time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC), st.DueTime)
}

func TestReduce_Dismissal(t *testing.T) {
	st, err := followup.Reduce([]engine.Transaction{
		fuTx("a", followup.TxCreation, at(9, 0), `{"initial_time":"2025-06-02T09:00:00Z","message":"m"}`),
		fuTx("b", followup.TxDismissal, at(9, 30), `{"dismissed_at":"2025-06-01T09:30:00Z","dismissal_type":"done"}`),
	}, nil)

	require.NoError(t, err)
	assert.True(t, st.Dismissed)
	require.NotNil(t, st.DismissedAt)
	assert.Equal(t, at(9, 30), *st.DismissedAt)
}

func TestReduce_MissingCreation_Fatal(t *testing.T) {
	_, err := followup.Reduce([]engine.Transaction{
		fuTx("a", followup.TxSnooze, at(9, 0), `{"duration_minutes":10}`),
	}, nil)

	require.Error(t, err)
	assert.Equal(t, "Followup must have a creation transaction", err.Error())
}

func TestReduce_InvalidSnooze_Skipped(t *testing.T) {
	// A non-positive snooze is skippable corruption, not fatal.
	st, err := followup.Reduce([]engine.Transaction{
		fuTx("a", followup.TxCreation, at(9, 0), `{"initial_time":"2025-06-02T09:00:00Z","message":"m"}`),
		fuTx("b", followup.TxSnooze, at(9, 10), `{"duration_minutes":-5}`),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC), st.DueTime)
}
