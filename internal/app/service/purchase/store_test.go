package purchase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m073med011/lms-api/pkg/types"
)

func TestClassifyLostUpdate_SameTerminalIsNoop(t *testing.T) {
	err := ClassifyLostUpdate(types.PurchaseStatusPaid, types.PurchaseStatusPaid)
	require.NoError(t, err)

	err = ClassifyLostUpdate(types.PurchaseStatusFailed, types.PurchaseStatusFailed)
	require.NoError(t, err)
}

func TestClassifyLostUpdate_ContradictoryTerminalIsIllegal(t *testing.T) {
	err := ClassifyLostUpdate(types.PurchaseStatusPaid, types.PurchaseStatusFailed)
	require.True(t, errors.Is(err, ErrIllegalTransition))

	err = ClassifyLostUpdate(types.PurchaseStatusFailed, types.PurchaseStatusPaid)
	require.True(t, errors.Is(err, ErrIllegalTransition))
}

func TestClassifyLostUpdate_NonTerminalIsStale(t *testing.T) {
	err := ClassifyLostUpdate(types.PurchaseStatusPending, types.PurchaseStatusPaid)
	require.True(t, errors.Is(err, ErrStaleTransition))
}

func TestErrors_AreWrapFriendly(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrIllegalTransition)
	require.True(t, errors.Is(err, ErrIllegalTransition))
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "unique_transaction_id" (SQLSTATE 23505)`)))
	require.False(t, isUniqueViolation(errors.New("connection refused")))
	require.False(t, isUniqueViolation(nil))
}
