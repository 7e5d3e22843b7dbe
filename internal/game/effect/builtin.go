package effect

// NewDamageReduction builds an inline reduction effect for abilities that
// grant reduction without a named definition.
func NewDamageReduction(name string, percent float64, duration int) *StatusEffect {
	return &StatusEffect{
		Name:      name,
		Kind:      KindDamageReduction,
		Value:     percent,
		Duration:  duration,
		Removable: true,
		Stacks:    1,
		Hooks: Hooks{
			DamageReduction: func(self *StatusEffect) float64 { return self.Value },
		},
	}
}

// NewHealOverTime builds an inline heal-per-turn effect.
func NewHealOverTime(name string, perTurn, duration int) *StatusEffect {
	return &StatusEffect{
		Name:        name,
		Kind:        KindHealOverTime,
		Value:       float64(perTurn),
		Duration:    duration,
		Removable:   true,
		Stacks:      1,
		HealPerTurn: perTurn,
	}
}
