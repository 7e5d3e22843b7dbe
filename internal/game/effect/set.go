package effect

// ApplyResult reports what Set.Apply did with an incoming effect.
type ApplyResult int

const (
	Added ApplyResult = iota
	Replaced
	Stacked
	Dropped
)

// String returns a human-readable label.
func (r ApplyResult) String() string {
	switch r {
	case Added:
		return "added"
	case Replaced:
		return "replaced"
	case Stacked:
		return "stacked"
	default:
		return "dropped"
	}
}

// Set holds the buffs or the debuffs of one entity in application order.
// It is not safe for concurrent use; the battle owns it.
type Set struct {
	effects []*StatusEffect
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Apply attaches e, honouring the same-name policy:
//   - no effect with e.Name: e is appended (Added)
//   - existing is non-removable: e is dropped (Dropped)
//   - e.Stacking: magnitudes sum, duration takes the max, Stacks increments (Stacked)
//   - otherwise e replaces the existing instance in place (Replaced)
//
// Precondition: e must not be nil.
func (s *Set) Apply(e *StatusEffect) ApplyResult {
	if e.Stacks < 1 {
		e.Stacks = 1
	}
	for i, existing := range s.effects {
		if existing.Name != e.Name {
			continue
		}
		if !existing.Removable {
			return Dropped
		}
		if e.Stacking {
			existing.Value += e.Value
			existing.HealPerTurn += e.HealPerTurn
			existing.DefenseBonus += e.DefenseBonus
			existing.MaxHPBonus += e.MaxHPBonus
			existing.Duration = mergeDuration(existing.Duration, e.Duration)
			existing.Stacks++
			return Stacked
		}
		if existing.Hooks.OnExpire != nil {
			existing.Hooks.OnExpire(existing)
		}
		s.effects[i] = e
		if e.Hooks.OnApply != nil {
			e.Hooks.OnApply(e)
		}
		return Replaced
	}
	s.effects = append(s.effects, e)
	if e.Hooks.OnApply != nil {
		e.Hooks.OnApply(e)
	}
	return Added
}

// Get returns the effect named name.
func (s *Set) Get(name string) (*StatusEffect, bool) {
	for _, e := range s.effects {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Has reports whether an effect named name is attached.
func (s *Set) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Remove detaches the effect named name regardless of its removable flag and
// runs its OnExpire cleanup.
//
// Postcondition: Has(name) is false.
func (s *Set) Remove(name string) bool {
	for i, e := range s.effects {
		if e.Name == name {
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			if e.Hooks.OnExpire != nil {
				e.Hooks.OnExpire(e)
			}
			return true
		}
	}
	return false
}

// All returns a snapshot of the attached effects in application order.
// Mutating the slice does not affect the set; the effects themselves are shared.
func (s *Set) All() []*StatusEffect {
	out := make([]*StatusEffect, len(s.effects))
	copy(out, s.effects)
	return out
}

// Len returns the number of attached effects.
func (s *Set) Len() int { return len(s.effects) }

// Tick advances every effect by one turn and detaches the ones whose Update
// returned false, running their OnExpire cleanup.
//
// Postcondition: every returned effect is no longer attached.
func (s *Set) Tick() []*StatusEffect {
	var expired []*StatusEffect
	kept := s.effects[:0]
	for _, e := range s.effects {
		if e.Update() {
			kept = append(kept, e)
			continue
		}
		expired = append(expired, e)
	}
	clear(s.effects[len(kept):])
	s.effects = kept
	for _, e := range expired {
		if e.Hooks.OnExpire != nil {
			e.Hooks.OnExpire(e)
		}
	}
	return expired
}

// ClearRemovable detaches every removable effect and returns them.
//
// Postcondition: every remaining effect has Removable == false.
func (s *Set) ClearRemovable() []*StatusEffect {
	var removed []*StatusEffect
	kept := s.effects[:0]
	for _, e := range s.effects {
		if e.Removable {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	clear(s.effects[len(kept):])
	s.effects = kept
	for _, e := range removed {
		if e.Hooks.OnExpire != nil {
			e.Hooks.OnExpire(e)
		}
	}
	return removed
}
