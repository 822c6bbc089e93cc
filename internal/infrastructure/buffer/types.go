package buffer

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopcore/backend/domain"
)

// Item wraps an audit entry that could not be written to the primary store
// and is waiting to be replayed.
type Item struct {
	ID        string            `json:"id"`
	Entry     domain.AuditEntry `json:"entry"`
	Retries   int               `json:"retries"`
	Timestamp time.Time         `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
	if i.Entry.CreatedAt.IsZero() {
		i.Entry.CreatedAt = i.Timestamp
	}
}
