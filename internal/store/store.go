package store

// Partition selects which lifetime a key belongs to.
type Partition int

const (
	// Session keys last for one browsing visit and are discarded when the
	// store is closed or reset.
	Session Partition = iota
	// Durable keys survive across visits.
	Durable
)

// String returns the partition name.
func (p Partition) String() string {
	switch p {
	case Session:
		return "session"
	case Durable:
		return "durable"
	default:
		return "unknown"
	}
}

// Well-known keys. The layout is shared with every other implementation of
// the feedback widget, so it must not change.
const (
	// KeyViewed holds a JSON array of survey ids shown this session.
	KeyViewed = "feedback_viewed"
	// KeySession holds the opaque session id.
	KeySession = "feedback_session"
	// KeySubmitted holds a JSON array of survey ids ever completed.
	KeySubmitted = "feedback_submitted"
	// KeyPrefix prefixes every key the engine writes. A full reset removes
	// everything under it.
	KeyPrefix = "feedback_"
	// lastShownPrefix prefixes per-survey last-delivery timestamps.
	lastShownPrefix = "feedback_last_"
)

// KeyLastShown returns the durable key holding the last successful delivery
// timestamp for a survey.
func KeyLastShown(surveyID string) string {
	return lastShownPrefix + surveyID
}

// Store is a partitioned key/value store. Implementations must be safe for
// concurrent use; the engine itself serializes writes, but hosts may read
// from other goroutines.
type Store interface {
	// Get returns the value for key, and whether it was present.
	Get(p Partition, key string) (string, bool, error)

	// Set writes the value for key, inserting or overwriting.
	Set(p Partition, key, value string) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(p Partition, key string) error

	// Keys returns every key in the partition with the given prefix.
	Keys(p Partition, prefix string) ([]string, error)

	// Close releases underlying resources. The session partition does not
	// survive a Close.
	Close() error
}
