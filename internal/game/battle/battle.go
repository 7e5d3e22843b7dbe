// Package battle implements the turn scheduler: the player/adversary phase
// machine, the delayed action queue that sequences adversary turns, end-of-round
// bookkeeping, and the one-shot death hook that rolls loot.
package battle

import (
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/inventory"
	"github.com/cory-johannsen/arena/internal/game/loot"
)

// DefaultActionDelay spaces adversary actions so their log lines appear in sequence.
const DefaultActionDelay = 600 * time.Millisecond

// Phase is the scheduler state.
type Phase int

const (
	PhasePlayer Phase = iota
	PhaseAdversary
	PhaseVictory
	PhaseDefeat
)

// String returns a human-readable label.
func (p Phase) String() string {
	switch p {
	case PhasePlayer:
		return "player_turn"
	case PhaseAdversary:
		return "adversary_turn"
	case PhaseVictory:
		return "victory"
	default:
		return "defeat"
	}
}

// Terminal reports whether the battle is over.
func (p Phase) Terminal() bool { return p == PhaseVictory || p == PhaseDefeat }

// Stage is the content-layer collaborator notified of round ends and deaths.
type Stage interface {
	// OnStart runs once from New after the initial rosters are spawned.
	OnStart(b *Battle)
	// Pending reports whether the stage still holds adversaries back. An
	// empty adversary roster is not a victory while it is true.
	Pending() bool
	// OnTurnEnd runs after end-of-round bookkeeping with the new turn count.
	OnTurnEnd(b *Battle, turn int)
	// OnDeath runs once per death, after loot and roster removal.
	OnDeath(b *Battle, e *entity.Entity)
}

// Battle owns both rosters and drives one fight.
// It is not safe for concurrent use; a battle is confined to one goroutine.
type Battle struct {
	engine      *combat.Engine
	players     *entity.Roster
	adversaries *entity.Roster
	inv         *inventory.Inventory
	lootTables  map[string]loot.Table
	stage       Stage
	modifiers   []Modifier
	log         battlelog.Sink
	logger      *zap.Logger
	queue       *ActionQueue
	actionDelay time.Duration

	phase        Phase
	turn         int
	drops        []loot.Drop
	deathsByKind map[string]int
}

// Option configures a Battle.
type Option func(b *Battle)

// WithInventory sets the party inventory that items are used from and loot is added to.
func WithInventory(inv *inventory.Inventory) Option {
	return func(b *Battle) { b.inv = inv }
}

// WithLootTables sets the loot tables keyed by entity kind.
func WithLootTables(tables map[string]loot.Table) Option {
	return func(b *Battle) { b.lootTables = tables }
}

// WithStage installs the stage collaborator.
func WithStage(s Stage) Option {
	return func(b *Battle) { b.stage = s }
}

// WithModifiers applies mods to the initial rosters and every later spawn.
func WithModifiers(mods ...Modifier) Option {
	return func(b *Battle) { b.modifiers = append(b.modifiers, mods...) }
}

// WithLog sets the presentation-facing battle log sink.
func WithLog(s battlelog.Sink) Option {
	return func(b *Battle) { b.log = s }
}

// WithLogger sets the operational logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Battle) { b.logger = l }
}

// WithActionDelay sets the delay before each adversary action.
func WithActionDelay(d time.Duration) Option {
	return func(b *Battle) {
		if d >= 0 {
			b.actionDelay = d
		}
	}
}

// New creates a battle in the player phase at turn 0.
//
// Precondition: engine must not be nil; players must be non-empty.
func New(engine *combat.Engine, players, adversaries []*entity.Entity, opts ...Option) *Battle {
	b := &Battle{
		engine:       engine,
		players:      entity.NewRoster(entity.SidePlayer),
		adversaries:  entity.NewRoster(entity.SideAdversary),
		lootTables:   map[string]loot.Table{},
		log:          battlelog.Discard,
		logger:       zap.NewNop(),
		queue:        NewActionQueue(),
		actionDelay:  DefaultActionDelay,
		deathsByKind: make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, p := range players {
		b.Spawn(entity.SidePlayer, p)
	}
	for _, a := range adversaries {
		b.Spawn(entity.SideAdversary, a)
	}
	if b.stage != nil {
		b.stage.OnStart(b)
	}
	b.checkOutcome()
	return b
}

// Phase returns the current phase.
func (b *Battle) Phase() Phase { return b.phase }

// Turn returns the number of completed rounds.
func (b *Battle) Turn() int { return b.turn }

// Busy reports whether a channel or queued action is in flight. No player
// input is accepted while busy.
func (b *Battle) Busy() bool { return b.engine.Busy() || b.queue.Busy() }

// Players returns the player roster.
func (b *Battle) Players() *entity.Roster { return b.players }

// Adversaries returns the adversary roster.
func (b *Battle) Adversaries() *entity.Roster { return b.adversaries }

// Roster returns the roster for side.
func (b *Battle) Roster(side entity.Side) *entity.Roster {
	if side == entity.SidePlayer {
		return b.players
	}
	return b.adversaries
}

// Engine returns the ability engine.
func (b *Battle) Engine() *combat.Engine { return b.engine }

// Inventory returns the party inventory, or nil.
func (b *Battle) Inventory() *inventory.Inventory { return b.inv }

// Log returns the battle log sink.
func (b *Battle) Log() battlelog.Sink { return b.log }

// Drops returns every loot drop rolled so far.
func (b *Battle) Drops() []loot.Drop { return append([]loot.Drop(nil), b.drops...) }

// Deaths returns how many entities of kind have died.
func (b *Battle) Deaths(kind string) int { return b.deathsByKind[kind] }

// Spawn adds e to side's roster, applies modifiers, and installs the death hook.
func (b *Battle) Spawn(side entity.Side, e *entity.Entity) {
	b.Roster(side).Add(e)
	for _, m := range b.modifiers {
		m.Apply(e)
	}
	e.SetDeathHook(b.processDeath)
	b.logger.Debug("entity spawned", zap.String("name", e.Name), zap.String("side", side.String()))
}

// Context builds a resolution context for e acting at now.
func (b *Battle) Context(e *entity.Entity, now time.Time) *combat.Context {
	return &combat.Context{
		Caster:    e,
		Allies:    b.Roster(e.Side),
		Opponents: b.Roster(e.Side.Opponent()),
		Log:       b.log,
		Now:       now,
	}
}

// Leader returns the first living player, or nil.
func (b *Battle) Leader() *entity.Entity {
	if living := b.players.Living(); len(living) > 0 {
		return living[0]
	}
	return nil
}

func (b *Battle) acceptingInput(caster *entity.Entity) bool {
	return b.phase == PhasePlayer && !b.Busy() && caster != nil && caster.Alive() && b.players.Contains(caster)
}

// UseAbility is the player-phase entry point for abilities.
//
// Postcondition: Returns false with no state change if input is not accepted or
// the ability did not fire. A resolved ability ends the player phase; a channel
// ends it when its last hit lands.
func (b *Battle) UseAbility(caster *entity.Entity, ab *ability.Ability, targets []*entity.Entity, now time.Time) bool {
	if !b.acceptingInput(caster) {
		return false
	}
	switch b.engine.Use(b.Context(caster, now), ab, targets) {
	case combat.NotFired:
		return false
	case combat.Channeling:
		b.checkOutcome()
		return true
	}
	b.endPlayerPhase()
	return true
}

// UseItem uses one kind item on behalf of the party leader.
//
// Postcondition: Returns false with no state change on any failed precondition;
// otherwise the player phase ends.
func (b *Battle) UseItem(kind string, targets []*entity.Entity, now time.Time) bool {
	leader := b.Leader()
	if b.inv == nil || !b.acceptingInput(leader) {
		return false
	}
	if !b.engine.UseItem(b.Context(leader, now), b.inv, kind, targets) {
		return false
	}
	b.endPlayerPhase()
	return true
}

// Pass ends the player phase without acting.
func (b *Battle) Pass(now time.Time) bool {
	if !b.acceptingInput(b.Leader()) {
		return false
	}
	battlelog.Emitf(b.log, battlelog.Text, "The party waits")
	b.endPlayerPhase()
	return true
}

// Update advances the battle by one tick: an active channel takes precedence,
// otherwise at most one queued action runs.
func (b *Battle) Update(now time.Time) {
	if b.phase.Terminal() {
		return
	}
	if caster := b.engine.ChannelCaster(); caster != nil {
		done := b.engine.Update(b.Context(caster, now))
		if done && caster.Side == entity.SidePlayer && b.phase == PhasePlayer {
			b.endPlayerPhase()
			return
		}
		b.checkOutcome()
		return
	}
	b.queue.Update(now)
	b.checkOutcome()
}

func (b *Battle) endPlayerPhase() {
	if b.checkOutcome() {
		return
	}
	b.phase = PhaseAdversary
	battlelog.Emitf(b.log, battlelog.Text, "Adversary turn")
	for _, adv := range b.adversaries.Living() {
		b.queue.Enqueue(func(now time.Time) { b.adversaryAct(adv, now) }, b.actionDelay)
	}
	b.queue.Enqueue(b.endRound, 0)
}

// adversaryAct picks a random usable ability and a random valid target at the
// moment the action runs, so it sees the state left by earlier actions.
func (b *Battle) adversaryAct(adv *entity.Entity, now time.Time) {
	if b.phase.Terminal() || !adv.Alive() || !b.adversaries.Contains(adv) {
		return
	}
	ctx := b.Context(adv, now)
	usable := b.engine.Usable(ctx)
	if len(usable) == 0 {
		battlelog.Emitf(b.log, battlelog.Text, "%s hesitates", adv.Name)
		return
	}
	src := b.engine.Source()
	ab := usable[dice.Pick(src, len(usable))]
	var targets []*entity.Entity
	if ab.NeedsTarget() {
		pool := combat.Candidates(ctx, ab.Targeting, ab.Offensive())
		targets = []*entity.Entity{pool[dice.Pick(src, len(pool))]}
	}
	b.engine.Use(ctx, ab, targets)
}

// endRound runs once per full round: cooldowns, entity ticks, mana regen, then
// stage hooks. The player phase begins afterwards.
func (b *Battle) endRound(time.Time) {
	if b.phase.Terminal() {
		return
	}
	b.turn++
	all := append(b.players.Members(), b.adversaries.Members()...)
	for _, e := range all {
		e.TickCooldowns()
	}
	if b.inv != nil {
		b.inv.TickCooldowns()
	}
	for _, e := range all {
		healed, expired := e.Update()
		if healed > 0 {
			battlelog.Emitf(b.log, battlelog.Heal, "%s regenerates %d HP", e.Name, healed)
		}
		for _, x := range expired {
			battlelog.Emitf(b.log, battlelog.Buff, "%s fades from %s", x.Name, e.Name)
		}
		if e.Alive() && e.Stats.ManaRegen > 0 {
			if n := e.RestoreMana(e.Stats.ManaRegen); n > 0 {
				battlelog.Emitf(b.log, battlelog.Mana, "%s recovers %d mana", e.Name, n)
			}
		}
	}
	if b.stage != nil {
		b.stage.OnTurnEnd(b, b.turn)
	}
	b.logger.Debug("round complete", zap.Int("turn", b.turn))
	if b.checkOutcome() {
		return
	}
	b.phase = PhasePlayer
	battlelog.Emitf(b.log, battlelog.Text, "Turn %d: your move", b.turn+1)
}

// HandleCharacterDeath kills e through the one-shot death path. Calling it on an
// entity whose death was already processed does nothing.
func (b *Battle) HandleCharacterDeath(e *entity.Entity) {
	e.Kill()
}

// processDeath is every entity's death hook: roll loot exactly once, add it to
// the inventory, remove the entity from its roster, then notify the stage.
func (b *Battle) processDeath(e *entity.Entity) {
	battlelog.Emitf(b.log, battlelog.Text, "%s is defeated", e.Name)
	b.deathsByKind[e.Kind]++
	if table, ok := b.lootTables[e.Kind]; ok && e.Side == entity.SideAdversary {
		drops := loot.Roll(table, b.engine.Source())
		b.drops = append(b.drops, drops...)
		counts := loot.Counts(drops)
		for _, kind := range slices.Sorted(maps.Keys(counts)) {
			b.addLoot(kind, counts[kind])
		}
	}
	b.Roster(e.Side).Remove(e)
	if b.stage != nil {
		b.stage.OnDeath(b, e)
	}
}

func (b *Battle) addLoot(kind string, n int) {
	if b.inv == nil {
		battlelog.Emitf(b.log, battlelog.Text, "Found %d x %s", n, kind)
		return
	}
	kept, err := b.inv.Add(kind, n)
	if err != nil {
		b.logger.Warn("loot for unknown item", zap.String("item", kind), zap.Error(err))
		return
	}
	battlelog.Emitf(b.log, battlelog.Text, "Found %d x %s", kept, kind)
}

// HealSide heals every living member of side by amount and returns the total.
func (b *Battle) HealSide(side entity.Side, amount int) int {
	total := 0
	for _, e := range b.Roster(side).Living() {
		if n := e.Heal(amount); n > 0 {
			total += n
			battlelog.Emitf(b.log, battlelog.Heal, "%s is healed for %d", e.Name, n)
		}
	}
	return total
}

// checkOutcome moves to a terminal phase when a side is wiped out. An emptied
// adversary roster wins even if the last blow also felled the party, unless the
// stage still has adversaries to send.
func (b *Battle) checkOutcome() bool {
	if b.phase.Terminal() {
		return true
	}
	switch {
	case b.adversaries.Empty() && (b.stage == nil || !b.stage.Pending()):
		b.phase = PhaseVictory
		battlelog.Emitf(b.log, battlelog.Text, "Victory")
	case b.players.Empty():
		b.phase = PhaseDefeat
		battlelog.Emitf(b.log, battlelog.Text, "Defeat")
	default:
		return false
	}
	b.queue.Clear()
	b.logger.Info("battle over", zap.String("outcome", b.phase.String()), zap.Int("turn", b.turn))
	return true
}
