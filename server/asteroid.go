package main

import (
	"math"

	"gridhash"
	"gridhash/vec"
)

const (
	AsteroidRadius   = 50.0
	AsteroidMinSpeed = 60.0
	AsteroidMaxSpeed = 150.0
	AsteroidSpinMin  = 0.5
	AsteroidSpinMax  = 2.0
	AsteroidDamage   = 40
)

// Asteroid flies in a straight line across the map
type Asteroid struct {
	ID       string
	Pos      vec.Vec2
	Vel      vec.Vec2
	Rotation float64
	Spin     float64
	Alive    bool
}

// NewAsteroid spawns an asteroid at a random edge heading inward
func NewAsteroid() *Asteroid {
	a := &Asteroid{
		ID:    GenerateID(4),
		Alive: true,
	}

	speed := AsteroidMinSpeed + randFloat()*(AsteroidMaxSpeed-AsteroidMinSpeed)

	a.Spin = AsteroidSpinMin + randFloat()*(AsteroidSpinMax-AsteroidSpinMin)
	if randFloat() < 0.5 {
		a.Spin = -a.Spin
	}

	// Pick a random edge and aim at a point in the far half of the map
	var target vec.Vec2
	switch int(randFloat() * 4) {
	case 0: // left
		a.Pos = vec.Vec2{X: -AsteroidRadius, Y: randFloat() * WorldHeight}
		target = vec.Vec2{X: WorldWidth/2 + randFloat()*WorldWidth/2, Y: randFloat() * WorldHeight}
	case 1: // right
		a.Pos = vec.Vec2{X: WorldWidth + AsteroidRadius, Y: randFloat() * WorldHeight}
		target = vec.Vec2{X: randFloat() * WorldWidth / 2, Y: randFloat() * WorldHeight}
	case 2: // top
		a.Pos = vec.Vec2{X: randFloat() * WorldWidth, Y: -AsteroidRadius}
		target = vec.Vec2{X: randFloat() * WorldWidth, Y: WorldHeight/2 + randFloat()*WorldHeight/2}
	default: // bottom
		a.Pos = vec.Vec2{X: randFloat() * WorldWidth, Y: WorldHeight + AsteroidRadius}
		target = vec.Vec2{X: randFloat() * WorldWidth, Y: randFloat() * WorldHeight / 2}
	}
	a.Vel = target.Sub(a.Pos).Normalize().Scale(speed)

	a.Rotation = randFloat() * math.Pi * 2
	return a
}

// Ref identifies this asteroid in the spatial index
func (a *Asteroid) Ref() EntityRef {
	return EntityRef{Kind: KindAsteroid, ID: a.ID}
}

// Bounds returns the AABB enclosing the asteroid circle
func (a *Asteroid) Bounds() gridhash.AABB {
	return circleBounds(a.Pos, AsteroidRadius)
}

// Update moves the asteroid and checks if it's off-map
func (a *Asteroid) Update(dt float64) {
	if !a.Alive {
		return
	}

	a.Pos.AddInPlace(a.Vel.Scale(dt))
	a.Rotation += a.Spin * dt

	// Mark dead if fully off-map (no wrapping)
	const margin = AsteroidRadius * 2
	if a.Pos.X < -margin || a.Pos.X > WorldWidth+margin ||
		a.Pos.Y < -margin || a.Pos.Y > WorldHeight+margin {
		a.Alive = false
	}
}

// ToState converts to protocol state
func (a *Asteroid) ToState() AsteroidState {
	return AsteroidState{
		ID: a.ID,
		X:  round1(a.Pos.X),
		Y:  round1(a.Pos.Y),
		R:  math.Round(a.Rotation*100) / 100,
	}
}
