package game

import (
	"fmt"

	"skyisle/internal/domain/entity"
)

// tryAttack swings at the point in front of the player and hits every live
// hostile inside the hit radius.
func (g *Game) tryAttack() {
	p := g.player
	if p.AttackCooldown > 0 {
		return
	}
	p.AttackCooldown = attackCooldown
	g.emit(EventAttackSwung, "", 0)

	hit := p.Position.Add(p.Facing.Scale(attackReach))
	for _, e := range g.entities {
		switch e := e.(type) {
		case *entity.Slime:
			if e.Alive() && hit.Within(e.Position, attackRadius) {
				g.damageSlime(e, meleeDamage)
			}
		case *entity.Harpy:
			if e.Alive && hit.Within(e.Position, attackRadius) {
				g.damageHarpy(e, meleeDamage)
			}
		case *entity.Player, *entity.NPC, *entity.Projectile:
		}
	}
}

func (g *Game) damageSlime(s *entity.Slime, amount int) {
	s.HP -= amount
	s.Hurt = hurtFlash
	g.emit(EventEnemyHit, string(entity.KindSlime), amount)
	if s.HP > 0 {
		return
	}
	s.HP = 0
	g.emit(EventEnemyDefeated, string(entity.KindSlime), slimeXP)
	g.toast(fmt.Sprintf("Slime defeated! +%d XP", slimeXP))
	g.grantXP(slimeXP)
	g.persist()
}

func (g *Game) damageHarpy(h *entity.Harpy, amount int) {
	h.HP -= amount
	h.Hurt = hurtFlash
	g.emit(EventEnemyHit, string(entity.KindHarpy), amount)
	if h.HP > 0 {
		return
	}
	h.HP = 0
	h.Alive = false
	g.player.Inventory.Feather++
	g.emit(EventEnemyDefeated, string(entity.KindHarpy), harpyXP)
	g.toast(fmt.Sprintf("Harpy defeated! +%d XP, +1 feather", harpyXP))
	g.grantXP(harpyXP)

	if !g.Flags.HarpiesCleared && g.allHarpiesDown() {
		g.Flags.HarpiesCleared = true
		g.emit(EventHarpiesCleared, "", 0)
		g.toast("The skies are clear. Report back.")
		g.logger.Info().Float64("t", g.Time).Msg("harpies cleared")
	}
	g.persist()
}

func (g *Game) allHarpiesDown() bool {
	for _, h := range g.Harpies() {
		if h.Alive {
			return false
		}
	}
	return true
}

// grantXP adds experience and applies every level-up it pays for, carrying
// the overflow into the next level.
func (g *Game) grantXP(amount int) {
	p := g.player
	p.XP += amount
	for p.XP >= XPToLevel(p.Level) {
		p.XP -= XPToLevel(p.Level)
		p.Level++
		p.MaxHP += levelUpMaxHPBonus
		p.HP = p.MaxHP
		g.emit(EventLevelUp, "", p.Level)
		g.toast(fmt.Sprintf("Level up! You are now level %d.", p.Level))
		g.logger.Debug().Int("level", p.Level).Msg("player leveled up")
	}
}

// harmless is true while a blocking dialog is open; hostiles keep moving but
// cannot land damage.
func (g *Game) harmless() bool {
	return g.inputBlocked()
}

// hurtPlayer applies damage unless the invulnerability window is running.
func (g *Game) hurtPlayer(amount int, source entity.Kind) bool {
	p := g.player
	if p.Invulnerable > 0 || g.harmless() {
		return false
	}
	p.HP -= amount
	if p.HP < 0 {
		p.HP = 0
	}
	p.Invulnerable = invulnerableWindow
	g.emit(EventPlayerHurt, string(source), amount)
	if p.HP <= 0 {
		g.respawn()
	}
	return true
}

func (g *Game) respawn() {
	p := g.player
	p.HP = p.MaxHP
	p.Position = g.hub
	p.Dash = 0
	g.projectiles = nil
	g.emit(EventPlayerRespawned, "", 0)
	g.toast("You wake up back at the hub.")
	g.logger.Debug().Int("level", p.Level).Msg("player respawned")
	g.persist()
}
