package main

import (
	"gridhash"
	"gridhash/vec"
)

const (
	PlayerRadius   = 20.0
	PlayerMaxHP    = 100
	PlayerAccel    = 600.0 // pixels/s²
	PlayerMaxSpeed = 350.0 // pixels/s
	PlayerFriction = 0.97  // velocity multiplier per tick
	PlayerBoostMul = 1.6   // boost speed multiplier
	FireCooldown   = 0.15  // seconds between shots
	RespawnTime    = 3.0   // seconds before respawn
	WorldWidth     = 4000.0
	WorldHeight    = 4000.0
	TurnSpeed      = 8.0 // radians/s max turn rate
)

// Player represents a ship in the arena
type Player struct {
	ID       string
	Name     string
	Pos      vec.Vec2
	Vel      vec.Vec2
	Rotation float64
	HP       int
	MaxHP    int
	ShipType int
	Score    int
	Alive    bool
	FireCD   float64 // fire cooldown remaining
	RespawnT float64 // respawn timer remaining
	TargetR  float64 // target rotation (toward steer target)
	Target   vec.Vec2
	Firing   bool
	Boosting bool
	// Auth link; 0 for guests
	AuthPlayerID int64
}

// NewPlayer creates a new player at a random position
func NewPlayer(id, name string, shipType int) *Player {
	return &Player{
		ID:   id,
		Name: name,
		Pos: vec.Vec2{
			X: WorldWidth/4 + randFloat()*WorldWidth/2,
			Y: WorldHeight/4 + randFloat()*WorldHeight/2,
		},
		HP:       PlayerMaxHP,
		MaxHP:    PlayerMaxHP,
		ShipType: shipType,
		Alive:    true,
	}
}

// Ref identifies this player in the spatial index
func (p *Player) Ref() EntityRef {
	return EntityRef{Kind: KindPlayer, ID: p.ID}
}

// Bounds returns the AABB enclosing the ship's hull circle
func (p *Player) Bounds() gridhash.AABB {
	return circleBounds(p.Pos, PlayerRadius)
}

// Update moves the player one tick (dt in seconds)
func (p *Player) Update(dt float64) {
	if !p.Alive {
		p.RespawnT -= dt
		if p.RespawnT <= 0 {
			p.Respawn()
		}
		return
	}

	// Rotate toward target, rate-limited
	diff := vec.NormalizeAngle(p.TargetR - p.Rotation)
	maxTurn := TurnSpeed * dt
	diff = Clamp(diff, -maxTurn, maxTurn)
	p.Rotation += diff

	// Thrust in facing direction; stop pushing inside the dead zone so the
	// ship settles instead of orbiting its own steer target
	accel := PlayerAccel * dt
	if p.Boosting {
		accel *= PlayerBoostMul
	}
	const deadZone = 50.0
	friction := PlayerFriction
	if p.Target.Distance(p.Pos) <= deadZone {
		accel = 0
		friction = 0.95 // brake
	}
	p.Vel.AddInPlace(vec.FromAngle(p.Rotation, accel))
	p.Vel.ScaleInPlace(friction)

	maxSpd := PlayerMaxSpeed
	if p.Boosting {
		maxSpd *= PlayerBoostMul
	}
	p.Vel = p.Vel.ClampLength(maxSpd)

	p.Pos.AddInPlace(p.Vel.Scale(dt))
	p.Pos = wrapWorld(p.Pos)

	if p.FireCD > 0 {
		p.FireCD -= dt
	}
}

// Respawn resets the player after death
func (p *Player) Respawn() {
	p.Pos = vec.Vec2{
		X: WorldWidth/4 + randFloat()*WorldWidth/2,
		Y: WorldHeight/4 + randFloat()*WorldHeight/2,
	}
	p.Vel = vec.Vec2{}
	p.HP = p.MaxHP
	p.Alive = true
	p.FireCD = 0
	p.RespawnT = 0
}

// TakeDamage reduces HP and returns true if the player died
func (p *Player) TakeDamage(dmg int) bool {
	if !p.Alive {
		return false
	}
	p.HP -= dmg
	if p.HP <= 0 {
		p.HP = 0
		p.Alive = false
		p.RespawnT = RespawnTime
		return true
	}
	return false
}

// CanFire returns true if the player can fire a projectile
func (p *Player) CanFire() bool {
	return p.Alive && p.Firing && p.FireCD <= 0
}

// ToState converts to protocol state
func (p *Player) ToState() ShipState {
	return ShipState{
		ID:    p.ID,
		Name:  p.Name,
		X:     round1(p.Pos.X),
		Y:     round1(p.Pos.Y),
		R:     p.Rotation,
		VX:    round1(p.Vel.X),
		VY:    round1(p.Vel.Y),
		HP:    p.HP,
		MaxHP: p.MaxHP,
		Ship:  p.ShipType,
		Score: p.Score,
		Alive: p.Alive,
		Boost: p.Boosting,
	}
}

// wrapWorld wraps a position around the toroidal world edges
func wrapWorld(p vec.Vec2) vec.Vec2 {
	if p.X < 0 {
		p.X += WorldWidth
	} else if p.X > WorldWidth {
		p.X -= WorldWidth
	}
	if p.Y < 0 {
		p.Y += WorldHeight
	} else if p.Y > WorldHeight {
		p.Y -= WorldHeight
	}
	return p
}
