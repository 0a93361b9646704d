package slot

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a claimed save slot on a hosted server.
type Slot struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Namespace is the save namespace of the slot's record.
func (s Slot) Namespace() string {
	return Namespace(s.ID)
}

func Namespace(id uuid.UUID) string {
	return "slot:" + id.String()
}
