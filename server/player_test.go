package main

import (
	"math"
	"testing"

	"gridhash/vec"
)

func TestPlayerMovesTowardTarget(t *testing.T) {
	p := NewPlayer("p1", "Test", 0)
	p.Pos = vec.Vec2{X: 1000, Y: 1000}
	p.Rotation = 0
	p.TargetR = 0
	p.Target = vec.Vec2{X: 2000, Y: 1000} // far right

	start := p.Pos
	for i := 0; i < TickRate; i++ {
		p.Update(1.0 / TickRate)
	}

	if p.Pos.X <= start.X {
		t.Errorf("player should move toward target, X went %f -> %f", start.X, p.Pos.X)
	}
	if math.Abs(p.Pos.Y-start.Y) > 1 {
		t.Errorf("player should not drift off axis, Y went %f -> %f", start.Y, p.Pos.Y)
	}
}

func TestPlayerSpeedCap(t *testing.T) {
	p := NewPlayer("p1", "Test", 0)
	p.Pos = vec.Vec2{X: 1000, Y: 1000}
	p.Target = vec.Vec2{X: 3000, Y: 1000}
	p.TargetR = 0

	for i := 0; i < TickRate*5; i++ {
		p.Update(1.0 / TickRate)
	}
	if p.Vel.Length() > PlayerMaxSpeed+1e-9 {
		t.Errorf("speed %f exceeds cap %f", p.Vel.Length(), PlayerMaxSpeed)
	}

	p.Boosting = true
	for i := 0; i < TickRate*5; i++ {
		p.Update(1.0 / TickRate)
	}
	if p.Vel.Length() > PlayerMaxSpeed*PlayerBoostMul+1e-9 {
		t.Errorf("boost speed %f exceeds cap %f", p.Vel.Length(), PlayerMaxSpeed*PlayerBoostMul)
	}
}

func TestPlayerTakeDamageAndRespawn(t *testing.T) {
	p := NewPlayer("p1", "Test", 0)

	if p.TakeDamage(30) {
		t.Error("30 damage should not kill a full-HP player")
	}
	if p.HP != PlayerMaxHP-30 {
		t.Errorf("expected HP %d, got %d", PlayerMaxHP-30, p.HP)
	}

	if !p.TakeDamage(1000) {
		t.Error("lethal damage should report death")
	}
	if p.Alive {
		t.Error("player should be dead")
	}
	if p.TakeDamage(10) {
		t.Error("dead player should not take damage")
	}

	// Respawn timer counts down during Update
	for i := 0; i < int(RespawnTime*TickRate)+2; i++ {
		p.Update(1.0 / TickRate)
	}
	if !p.Alive {
		t.Error("player should have respawned")
	}
	if p.HP != p.MaxHP {
		t.Errorf("respawn should restore HP, got %d", p.HP)
	}
}

func TestPlayerFireCooldown(t *testing.T) {
	p := NewPlayer("p1", "Test", 0)
	p.Firing = true
	p.FireCD = 0
	if !p.CanFire() {
		t.Error("player should be able to fire")
	}
	p.FireCD = FireCooldown
	if p.CanFire() {
		t.Error("player on cooldown should not fire")
	}
	p.FireCD = 0
	p.Alive = false
	if p.CanFire() {
		t.Error("dead player should not fire")
	}
}

func TestWrapWorld(t *testing.T) {
	cases := []struct {
		in, want vec.Vec2
	}{
		{vec.Vec2{X: -10, Y: 100}, vec.Vec2{X: WorldWidth - 10, Y: 100}},
		{vec.Vec2{X: WorldWidth + 10, Y: 100}, vec.Vec2{X: 10, Y: 100}},
		{vec.Vec2{X: 100, Y: -5}, vec.Vec2{X: 100, Y: WorldHeight - 5}},
		{vec.Vec2{X: 100, Y: WorldHeight + 5}, vec.Vec2{X: 100, Y: 5}},
		{vec.Vec2{X: 100, Y: 100}, vec.Vec2{X: 100, Y: 100}},
	}
	for _, c := range cases {
		if got := wrapWorld(c.in); got != c.want {
			t.Errorf("wrapWorld(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestProjectileSweptBounds(t *testing.T) {
	p := &Projectile{
		Pos:     vec.Vec2{X: 100, Y: 50},
		PrevPos: vec.Vec2{X: 80, Y: 50},
	}
	b := p.Bounds()
	if b.X > 80-ProjectileRadius || b.X+b.W < 100+ProjectileRadius {
		t.Errorf("bounds %+v should cover the swept segment", b)
	}
}

func TestProjectileExpires(t *testing.T) {
	owner := NewPlayer("p1", "Test", 0)
	owner.Pos = vec.Vec2{X: 2000, Y: 2000}
	proj := NewProjectile(owner)

	for i := 0; i < int(ProjectileLifetime*TickRate)+2; i++ {
		proj.Update(1.0 / TickRate)
	}
	if proj.Alive {
		t.Error("projectile should expire after its lifetime")
	}
}
