package domain

// Person is a directory record for a moderator or worker. The directory is
// read-only from this core's point of view.
type Person struct {
	ID         string
	Name       string
	Surname    string
	NationalID string
	Active     bool
}

// PersonSnapshot is an immutable copy of a person's core fields embedded
// into a crew at assignment time. It deliberately does not track later
// changes to the underlying directory record: a crew reflects personnel as
// of assignment time.
type PersonSnapshot struct {
	SourceID   string
	Name       string
	Surname    string
	NationalID string
}

// Snapshot freezes the person's current fields.
func (p Person) Snapshot() PersonSnapshot {
	return PersonSnapshot{
		SourceID:   p.ID,
		Name:       p.Name,
		Surname:    p.Surname,
		NationalID: p.NationalID,
	}
}
