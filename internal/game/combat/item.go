package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/battlelog"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/inventory"
)

// CanUseItem reports whether ctx.Caster may use one kind item from inv now.
// Items ignore ability lockouts and mana.
func (e *Engine) CanUseItem(caster *entity.Entity, inv *inventory.Inventory, kind string) bool {
	return caster.Alive() && inv.IsAvailable(kind)
}

// UseItem consumes one kind item from inv and resolves its effects.
//
// Postcondition: Returns false with no state change on any failed precondition;
// otherwise one unit is removed and the item's cooldown started.
func (e *Engine) UseItem(ctx *Context, inv *inventory.Inventory, kind string, targets []*entity.Entity) bool {
	if e.Busy() || !e.CanUseItem(ctx.Caster, inv, kind) {
		return false
	}
	def, _ := inv.Def(kind)
	targets, ok := SelectTargets(ctx, def.Targeting, def.NeedsTarget(), def.Offensive(), targets)
	if !ok {
		return false
	}
	if err := inv.Remove(kind, 1); err != nil {
		return false
	}
	battlelog.Emitf(ctx.Log, battlelog.Text, "%s uses %s", ctx.Caster.Name, def.Name)
	e.logger.Debug("item used", zap.String("caster", ctx.Caster.Name), zap.String("item", kind))
	e.ApplyEffects(ctx, def.Name, def.Effects, targets, nil)
	inv.StartCooldown(kind)
	return true
}
