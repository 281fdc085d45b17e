// package repositories provides persistence layer implementations for the run history.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations, soft deletes, and sequence generation.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/setlist/internal/shared"
)

// sequenced lists the tables that have a "<table>_sequence" counter row.
var sequenced = map[string]bool{
	"runs": true,
}

// NextSequence increments and returns the next sequence number for the given table.
//
// Sequence numbers give runs a short, human-readable handle (run #42) for `history show`.
// The increment and read are one UPDATE ... RETURNING statement, so no transaction is held open.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("%w: table %q has no sequence", shared.ErrInvalidArgument, table)
	}

	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	err := db.QueryRow(query).Scan(&sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: sequence row for %s", shared.ErrNotFound, table)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	return sequence, nil
}
