package constants

// BatchStatus is the lifecycle state of an import batch.
type BatchStatus string

// Stable values (store these exact strings in DB).
const (
	BatchStatusCreated            BatchStatus = "CREATED"
	BatchStatusPartiallyProcessed BatchStatus = "PARTIALLY_PROCESSED"
	BatchStatusComplete           BatchStatus = "COMPLETE"
	BatchStatusLocked             BatchStatus = "LOCKED" // cleanup in progress, no more processing
)

// StatusForCursor derives the batch state from its cursor position.
func StatusForCursor(cursor, total int) BatchStatus {
	switch {
	case cursor >= total:
		return BatchStatusComplete
	case cursor > 0:
		return BatchStatusPartiallyProcessed
	default:
		return BatchStatusCreated
	}
}
