package dbutil

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM study_files WHERE id=?", []interface{}{"f1"})
	require.Equal(t, "SELECT id FROM study_files WHERE id=$1", query)
	require.Equal(t, []interface{}{"f1"}, args)
}

func TestFinalizeRewritesLimitOffset(t *testing.T) {
	query, args := Finalize(
		"SELECT id FROM study_files WHERE ctime>? ORDER BY ctime DESC LIMIT ?,?",
		[]interface{}{int64(0), 10, 5},
	)
	require.Equal(t, "SELECT id FROM study_files WHERE ctime>$1 ORDER BY ctime DESC LIMIT $2 OFFSET $3", query)
	// gendry emits offset,count; postgres wants count first
	require.Equal(t, []interface{}{int64(0), 5, 10}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(nil))
}
