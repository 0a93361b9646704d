package game

import (
	"math"

	"skyisle/internal/domain/entity"
	"skyisle/internal/domain/world"
)

var slimeHeadings = [...]entity.Vec{entity.Right, entity.Left, entity.Down, entity.Up, {}}

// updateSlime wanders in a heading re-rolled on a fixed interval and deals
// contact damage. A slime whose move is fully blocked stands still until the
// next re-roll.
func (g *Game) updateSlime(s *entity.Slime, dt float64) {
	if !s.Alive() {
		return
	}
	s.Hurt = math.Max(0, s.Hurt-dt)
	s.Wander -= dt
	if s.Wander <= 0 {
		s.Wander = slimeReroll
		s.Dir = slimeHeadings[g.rand.Intn(len(slimeHeadings))]
	}
	if !s.Dir.IsZero() && dt > 0 {
		prev := s.Position
		step := s.Dir.Scale(slimeSpeed * dt)
		s.Position.X, s.Position.Y = g.World.MoveWithCollision(s.Position.X, s.Position.Y, step.X, step.Y)
		if s.Position.Equal(prev) {
			s.Dir = entity.Vec{}
		}
	}
	if s.Position.Within(g.player.Position, contactRadius) {
		g.hurtPlayer(contactDamage, entity.KindSlime)
	}
}

// updateHarpy steers a flying harpy toward the player with a weaving drift
// and fires on a randomized cooldown. Until the beacon is lit a harpy hovers
// in place, but touching it still hurts.
func (g *Game) updateHarpy(h *entity.Harpy, dt float64) {
	if !h.Alive {
		return
	}
	h.Hurt = math.Max(0, h.Hurt-dt)
	p := g.player
	if !g.Flags.BeaconLit {
		if h.Position.Within(p.Position, contactRadius) {
			g.hurtPlayer(contactDamage, entity.KindHarpy)
		}
		return
	}

	to := p.Position.Sub(h.Position)
	dist := to.Len()
	if dist > 1e-6 {
		dir := to.Scale(1 / dist)
		speed := math.Max(harpyMinSpeed, math.Min(harpyMaxSpeed, harpySpeedScale/dist))
		drift := dir.Perp().Scale(math.Sin(g.Time*harpyWeaveRate+h.Phase) * harpyWeave)
		h.Position = h.Position.Add(dir.Scale(speed).Add(drift).Scale(dt))
		h.Aim = dir
	}
	maxX := float64(g.World.Grid.Width * world.TileSize)
	maxY := float64(g.World.Grid.Height * world.TileSize)
	h.Position.X = math.Max(0, math.Min(maxX, h.Position.X))
	h.Position.Y = math.Max(0, math.Min(maxY, h.Position.Y))

	if h.Position.Within(p.Position, contactRadius) {
		g.hurtPlayer(contactDamage, entity.KindHarpy)
	}

	h.FireCooldown -= dt
	if h.FireCooldown > 0 || dist > harpyFireRange {
		return
	}
	h.FireCooldown = g.fireCooldown()
	aim := p.Position.Sub(h.Position).Normalized()
	if aim.IsZero() {
		aim = h.Aim
	}
	g.projectiles = append(g.projectiles, &entity.Projectile{
		Position: h.Position,
		Velocity: aim.Scale(projectileSpeed),
	})
	g.emit(EventProjectileFired, string(entity.KindHarpy), 0)
}

// updateProjectiles moves projectiles in straight lines, ignoring terrain,
// and drops the expired and spent ones.
func (g *Game) updateProjectiles(dt float64) {
	p := g.player
	for _, pr := range g.projectiles {
		pr.Position = pr.Position.Add(pr.Velocity.Scale(dt))
		pr.Age += dt
		if pr.Age > projectileMaxAge {
			pr.Spent = true
			continue
		}
		if p.Dashing() || !pr.Position.Within(p.Position, projectileHitRadius) {
			continue
		}
		if g.hurtPlayer(projectileDamage, entity.KindProjectile) {
			pr.Spent = true
		}
	}
	kept := g.projectiles[:0]
	for _, pr := range g.projectiles {
		if !pr.Spent {
			kept = append(kept, pr)
		}
	}
	g.projectiles = kept
}
