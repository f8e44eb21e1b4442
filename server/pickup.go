package main

import (
	"gridhash"
	"gridhash/vec"
)

const (
	PickupRadius  = 15.0
	PickupHeal    = 20
	PickupTimeout = 30.0
)

// Pickup is a health orb that heals on contact
type Pickup struct {
	ID    string
	Pos   vec.Vec2
	Life  float64
	Alive bool
}

// NewPickup spawns a pickup at a random position away from edges
func NewPickup() *Pickup {
	return &Pickup{
		ID: GenerateID(4),
		Pos: vec.Vec2{
			X: 50 + randFloat()*(WorldWidth-100),
			Y: 50 + randFloat()*(WorldHeight-100),
		},
		Life:  PickupTimeout,
		Alive: true,
	}
}

// Ref identifies this pickup in the spatial index
func (p *Pickup) Ref() EntityRef {
	return EntityRef{Kind: KindPickup, ID: p.ID}
}

// Bounds returns the AABB enclosing the pickup circle
func (p *Pickup) Bounds() gridhash.AABB {
	return circleBounds(p.Pos, PickupRadius)
}

// Update ticks down the pickup lifetime
func (p *Pickup) Update(dt float64) {
	if !p.Alive {
		return
	}
	p.Life -= dt
	if p.Life <= 0 {
		p.Alive = false
	}
}

// ToState converts to protocol state
func (p *Pickup) ToState() PickupState {
	return PickupState{
		ID: p.ID,
		X:  round1(p.Pos.X),
		Y:  round1(p.Pos.Y),
	}
}
