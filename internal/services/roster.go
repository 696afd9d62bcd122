package services

import "github.com/latestcomment/team-alert/internal/models"

// Roster maps connection ids to participants. Snapshots list participants
// in first-registration order; re-registering a connection keeps its slot.
// Roster is not safe for concurrent use; RelayService guards it.
type Roster struct {
	participants map[string]models.Participant
	order        []string
}

func NewRoster() *Roster {
	return &Roster{participants: make(map[string]models.Participant)}
}

// Put inserts or overwrites the participant for p.ConnectionID and reports
// whether an entry was replaced.
func (r *Roster) Put(p models.Participant) bool {
	_, exists := r.participants[p.ConnectionID]
	if !exists {
		r.order = append(r.order, p.ConnectionID)
	}
	r.participants[p.ConnectionID] = p
	return exists
}

func (r *Roster) Get(connectionID string) (models.Participant, bool) {
	p, ok := r.participants[connectionID]
	return p, ok
}

// Remove deletes the participant for connectionID, returning it.
func (r *Roster) Remove(connectionID string) (models.Participant, bool) {
	p, ok := r.participants[connectionID]
	if !ok {
		return models.Participant{}, false
	}
	delete(r.participants, connectionID)
	for i, id := range r.order {
		if id == connectionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

func (r *Roster) Len() int {
	return len(r.participants)
}

// Snapshot returns a copy of the roster. It is never nil so it encodes
// as an empty JSON array.
func (r *Roster) Snapshot() []models.Participant {
	users := make([]models.Participant, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, r.participants[id])
	}
	return users
}
