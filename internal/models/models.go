// package models defines the data model for the playlist curation service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Playlist is a destination playlist as listed by the catalog service.
type Playlist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ItemOutcome is the result of processing one batch item.
//
// Exactly one of AddedCount (when Succeeded) or ErrorMessage (otherwise) is meaningful.
// Build values with [Success] and [Failure].
type ItemOutcome struct {
	Item         string `json:"item"`
	Succeeded    bool   `json:"succeeded"`
	AddedCount   int    `json:"added_count,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

// Success returns a succeeded outcome for item. Negative counts are clamped to zero.
func Success(item string, added int) ItemOutcome {
	if added < 0 {
		added = 0
	}
	return ItemOutcome{Item: item, Succeeded: true, AddedCount: added}
}

// Failure returns a failed outcome for item carrying msg.
func Failure(item, msg string) ItemOutcome {
	if msg == "" {
		msg = "unknown error"
	}
	return ItemOutcome{Item: item, ErrorMessage: msg}
}

// SongBatchResult is the aggregate reply of the single add-songs call.
//
// Err is set when the call as a whole failed; Added, Total and Failed are then meaningless.
type SongBatchResult struct {
	Added  int      `json:"added"`
	Total  int      `json:"total"`
	Failed []string `json:"failed"`
	Err    string   `json:"error,omitempty"`
}

// OK reports whether the call itself succeeded.
func (r SongBatchResult) OK() bool {
	return r.Err == ""
}
