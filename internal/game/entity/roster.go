package entity

// Roster is the ordered set of entities on one side of a battle.
// It is not safe for concurrent use; the battle owns it.
type Roster struct {
	side    Side
	members []*Entity
}

// NewRoster creates a roster for side holding members in order.
func NewRoster(side Side, members ...*Entity) *Roster {
	r := &Roster{side: side}
	for _, m := range members {
		r.Add(m)
	}
	return r
}

// Side returns the roster's side.
func (r *Roster) Side() Side { return r.side }

// Add appends e and stamps it with the roster's side.
//
// Precondition: e must not be nil.
func (r *Roster) Add(e *Entity) {
	e.Side = r.side
	r.members = append(r.members, e)
}

// Remove deletes e from the roster.
//
// Postcondition: Returns false if e was not a member.
func (r *Roster) Remove(e *Entity) bool {
	for i, m := range r.members {
		if m == e {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether e is a member.
func (r *Roster) Contains(e *Entity) bool {
	for _, m := range r.members {
		if m == e {
			return true
		}
	}
	return false
}

// Get returns the member with instance id.
func (r *Roster) Get(id string) (*Entity, bool) {
	for _, m := range r.members {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Members returns a snapshot of the roster in order.
func (r *Roster) Members() []*Entity {
	return append([]*Entity(nil), r.members...)
}

// Living returns the members with HP above zero, in order.
func (r *Roster) Living() []*Entity {
	var out []*Entity
	for _, m := range r.members {
		if m.Alive() {
			out = append(out, m)
		}
	}
	return out
}

// Targetable returns the living members not hidden by an effect, in order.
func (r *Roster) Targetable() []*Entity {
	var out []*Entity
	for _, m := range r.members {
		if m.Targetable() {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the member count.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.members)
}

// Empty reports whether no living member remains.
func (r *Roster) Empty() bool { return len(r.Living()) == 0 }
