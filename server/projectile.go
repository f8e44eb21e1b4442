package main

import (
	"math"

	"gridhash"
	"gridhash/vec"
)

const (
	ProjectileSpeed    = 800.0 // pixels/s
	ProjectileLifetime = 2.0   // seconds
	ProjectileRadius   = 4.0
	ProjectileDamage   = 20
	ProjectileOffset   = 30.0 // spawn distance from ship center
)

// Projectile is a laser shot. PrevPos keeps the previous tick's position so
// narrow phase can sweep the travelled segment instead of point-testing.
type Projectile struct {
	ID       string
	OwnerID  string
	Pos      vec.Vec2
	PrevPos  vec.Vec2
	Vel      vec.Vec2
	Rotation float64
	Life     float64
	Damage   int
	Alive    bool
}

// NewProjectile creates a projectile from a player's position and facing direction
func NewProjectile(owner *Player) *Projectile {
	pos := owner.Pos.Add(vec.FromAngle(owner.Rotation, ProjectileOffset))
	return &Projectile{
		ID:       GenerateID(3),
		OwnerID:  owner.ID,
		Pos:      pos,
		PrevPos:  pos,
		Vel:      vec.FromAngle(owner.Rotation, ProjectileSpeed).Add(owner.Vel.Scale(0.3)),
		Rotation: owner.Rotation,
		Life:     ProjectileLifetime,
		Damage:   ProjectileDamage,
		Alive:    true,
	}
}

// Ref identifies this projectile in the spatial index
func (p *Projectile) Ref() EntityRef {
	return EntityRef{Kind: KindProjectile, ID: p.ID}
}

// Bounds covers the full segment swept since the last tick, inflated by the
// projectile radius, so the index never misses a fast shot crossing a cell.
func (p *Projectile) Bounds() gridhash.AABB {
	x1 := math.Min(p.PrevPos.X, p.Pos.X) - ProjectileRadius
	y1 := math.Min(p.PrevPos.Y, p.Pos.Y) - ProjectileRadius
	x2 := math.Max(p.PrevPos.X, p.Pos.X) + ProjectileRadius
	y2 := math.Max(p.PrevPos.Y, p.Pos.Y) + ProjectileRadius
	return gridhash.AABB{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Update moves the projectile one tick
func (p *Projectile) Update(dt float64) {
	if !p.Alive {
		return
	}
	p.PrevPos = p.Pos
	p.Pos.AddInPlace(p.Vel.Scale(dt))
	p.Life -= dt

	wrapped := wrapWorld(p.Pos)
	if wrapped != p.Pos {
		// Don't sweep across the world seam
		p.Pos = wrapped
		p.PrevPos = wrapped
	}

	if p.Life <= 0 {
		p.Alive = false
	}
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		ID:    p.ID,
		X:     round1(p.Pos.X),
		Y:     round1(p.Pos.Y),
		R:     round1(p.Rotation),
		Owner: p.OwnerID,
	}
}
