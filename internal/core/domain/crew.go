package domain

import (
	"fmt"
	"time"
)

// CrewState tags the crew lifecycle. Deletion is a state flip, never a
// physical removal, so historical assignments stay queryable.
type CrewState string

const (
	CrewStateActive  CrewState = "active"
	CrewStateDeleted CrewState = "deleted"
)

// CrewNumberPrefix is the human-readable prefix of crew display numbers.
const CrewNumberPrefix = "Crew-N°"

// FormatCrewNumber renders the display number for a sequence value.
func FormatCrewNumber(sequence int) string {
	return fmt.Sprintf("%s%d", CrewNumberPrefix, sequence)
}

// Crew is a numbered team of one moderator and a bounded set of workers
// assigned to a single activity. While the crew is active, none of its
// worker snapshots may appear in another active crew.
type Crew struct {
	ID              string
	Sequence        int
	Number          string
	Activity        string
	State           CrewState
	Moderator       PersonSnapshot
	Workers         []PersonSnapshot
	NumberOfWorkers int
	CreatedAt       time.Time
	CreatedBy       string
	ModifiedAt      *time.Time
	ModifiedBy      string
}

// IsActive reports whether the crew currently holds its workers.
func (c *Crew) IsActive() bool {
	return c.State == CrewStateActive
}

// HasWorker reports whether the crew embeds a snapshot of the worker with
// the supplied source id.
func (c *Crew) HasWorker(sourceID string) bool {
	for _, w := range c.Workers {
		if w.SourceID == sourceID {
			return true
		}
	}
	return false
}
