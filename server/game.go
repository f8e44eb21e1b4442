package main

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"gridhash"
	"gridhash/vec"
)

const (
	TickRate       = 60 // physics ticks per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const (
	maxProjectilesPerArena = 500
	maxPlayersPerArena     = 20
	maxAsteroids           = 40
	maxPickups             = 20
	asteroidSpawnInterval  = 3.0 // seconds
	pickupSpawnInterval    = 5.0
)

// Spatial index tuning. Cell size ~2x the largest entity diameter keeps most
// entities in 1-4 cells; capacity is total (entity, cell) memberships per
// rebuild, far above the worst case for a full arena.
const (
	SpatialCellSize   = 80.0
	SpatialMaxEntries = 8192
)

// Entity kinds stored in the spatial index
const (
	KindPlayer     = byte('p')
	KindProjectile = byte('r')
	KindAsteroid   = byte('a')
	KindPickup     = byte('k')
)

// EntityRef identifies an entity in the spatial index. It is the stored
// surrogate value: small, comparable, resolved back through the Game maps.
type EntityRef struct {
	Kind byte
	ID   string
}

// collider is anything the broad phase indexes
type collider interface {
	gridhash.Bounded
	Ref() EntityRef
}

// circleBounds returns the AABB enclosing a circle
func circleBounds(center vec.Vec2, r float64) gridhash.AABB {
	return gridhash.AABB{X: center.X - r, Y: center.Y - r, W: 2 * r, H: 2 * r}
}

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game holds the state for one arena
type Game struct {
	mu          sync.RWMutex
	players     map[string]*Player
	projectiles map[string]*Projectile
	asteroids   map[string]*Asteroid
	pickups     map[string]*Pickup
	clients     map[string]Broadcaster // playerID -> client

	// Broad-phase index, rebuilt every tick from the live entity set.
	// Confined to the game loop goroutine; queries never outlive a tick.
	grid      *gridhash.Grid[EntityRef]
	colliders []collider // scratch for rebuilds
	gridOK    bool       // false when the last rebuild failed

	tick          uint64
	stopped       bool
	stop          chan struct{}
	nextShip      int
	asteroidTimer float64
	pickupTimer   float64

	store *Store // stat persistence; may be nil
}

// NewGame creates a new Game. store may be nil when stats should not persist.
func NewGame(store *Store) (*Game, error) {
	grid, err := gridhash.New[EntityRef](SpatialCellSize, SpatialMaxEntries)
	if err != nil {
		return nil, err
	}
	return &Game{
		players:     make(map[string]*Player),
		projectiles: make(map[string]*Projectile),
		asteroids:   make(map[string]*Asteroid),
		pickups:     make(map[string]*Pickup),
		clients:     make(map[string]Broadcaster),
		grid:        grid,
		stop:        make(chan struct{}),
		store:       store,
	}, nil
}

// Run drives the game loop until Stop
func (g *Game) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop. Safe to call more than once, and before Run.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		g.stopped = true
		close(g.stop)
	}
}

// AddPlayer adds a new player to the game
func (g *Game) AddPlayer(name string) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= maxPlayersPerArena {
		return nil
	}

	id := GenerateID(4)
	ship := g.nextShip % 4
	g.nextShip++
	player := NewPlayer(id, name, ship)
	g.players[id] = player
	return player
}

// RemovePlayer removes a player from the game
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.players, id)
	delete(g.clients, id)
}

// HasPlayer reports whether a player is in the game
func (g *Game) HasPlayer(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.players[id]
	return ok
}

// SetClient associates a broadcaster with a player
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
}

// HandleInput processes input from a player
func (g *Game) HandleInput(playerID string, input ClientInput) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok {
		return
	}
	target := vec.Vec2{X: input.TX, Y: input.TY}
	// Only update target rotation when the target is far enough from the
	// ship to produce a stable angle
	if target.Sub(p.Pos).LengthSq() > 25 {
		p.TargetR = target.Sub(p.Pos).Angle()
	}
	p.Target = target
	p.Firing = input.Fire
	p.Boosting = input.Boost
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	dt := 1.0 / float64(TickRate)
	g.tick++

	// Update players
	for _, p := range g.players {
		p.Update(dt)

		if p.CanFire() && len(g.projectiles) < maxProjectilesPerArena {
			proj := NewProjectile(p)
			g.projectiles[proj.ID] = proj
			p.FireCD = FireCooldown
		}
	}

	// Update projectiles
	for id, proj := range g.projectiles {
		proj.Update(dt)
		if !proj.Alive {
			delete(g.projectiles, id)
		}
	}

	// Update asteroids, spawn replacements
	for id, a := range g.asteroids {
		a.Update(dt)
		if !a.Alive {
			delete(g.asteroids, id)
		}
	}
	g.asteroidTimer -= dt
	if g.asteroidTimer <= 0 && len(g.asteroids) < maxAsteroids {
		a := NewAsteroid()
		g.asteroids[a.ID] = a
		g.asteroidTimer = asteroidSpawnInterval
	}

	// Update pickups, spawn replacements
	for id, k := range g.pickups {
		k.Update(dt)
		if !k.Alive {
			delete(g.pickups, id)
		}
	}
	g.pickupTimer -= dt
	if g.pickupTimer <= 0 && len(g.pickups) < maxPickups {
		k := NewPickup()
		g.pickups[k.ID] = k
		g.pickupTimer = pickupSpawnInterval
	}

	g.rebuildGrid()
	if g.gridOK {
		g.resolveProjectileHits()
		g.resolvePlayerContacts()
	}

	// Periodic health line, once per 10s of game time
	if g.tick%(TickRate*10) == 0 {
		log.Printf("tick %d: %d players, %d projectiles, %d index memberships",
			g.tick, len(g.players), len(g.projectiles), g.grid.Len())
	}

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

// rebuildGrid repopulates the broad-phase index from the live entity set
func (g *Game) rebuildGrid() {
	g.colliders = g.colliders[:0]
	for _, p := range g.players {
		if p.Alive {
			g.colliders = append(g.colliders, p)
		}
	}
	for _, proj := range g.projectiles {
		g.colliders = append(g.colliders, proj)
	}
	for _, a := range g.asteroids {
		g.colliders = append(g.colliders, a)
	}
	for _, k := range g.pickups {
		g.colliders = append(g.colliders, k)
	}

	err := gridhash.PopulateFunc(g.grid, g.colliders, func(c collider) EntityRef {
		return c.Ref()
	})
	if err != nil {
		// Index is untouched by a failed rebuild; skip collisions rather
		// than resolve against stale cells
		log.Printf("spatial index rebuild failed (tick %d): %v", g.tick, err)
		g.gridOK = false
		return
	}
	g.gridOK = true
}

// resolveProjectileHits sweeps each projectile against broad-phase candidates
func (g *Game) resolveProjectileHits() {
	for projID, proj := range g.projectiles {
		if !proj.Alive {
			continue
		}
		g.grid.QueryUnique(proj.Bounds(), func(ref EntityRef) bool {
			switch ref.Kind {
			case KindPlayer:
				p, ok := g.players[ref.ID]
				if !ok || !p.Alive || p.ID == proj.OwnerID {
					return true
				}
				if !SegmentHitsCircle(proj.PrevPos, proj.Pos, p.Pos, PlayerRadius+ProjectileRadius) {
					return true
				}
				proj.Alive = false
				delete(g.projectiles, projID)
				if p.TakeDamage(proj.Damage) {
					g.creditKill(proj.OwnerID, p)
				}
				return false // projectile spent
			case KindAsteroid:
				a, ok := g.asteroids[ref.ID]
				if !ok || !a.Alive {
					return true
				}
				if !SegmentHitsCircle(proj.PrevPos, proj.Pos, a.Pos, AsteroidRadius+ProjectileRadius) {
					return true
				}
				proj.Alive = false
				delete(g.projectiles, projID)
				return false
			}
			return true
		})
	}
}

// resolvePlayerContacts tests each ship against broad-phase candidates:
// other ships (mutual destruction), asteroids (damage + knockback), pickups
func (g *Game) resolvePlayerContacts() {
	for _, p := range g.players {
		if !p.Alive {
			continue
		}
		g.grid.QueryUnique(p.Bounds(), func(ref EntityRef) bool {
			switch ref.Kind {
			case KindPlayer:
				// Visit each unordered pair once
				if ref.ID <= p.ID {
					return true
				}
				o, ok := g.players[ref.ID]
				if !ok || !o.Alive {
					return true
				}
				if CheckCircles(p.Pos, PlayerRadius, o.Pos, PlayerRadius) {
					p.TakeDamage(p.HP)
					o.TakeDamage(o.HP)
					g.creditKill(o.ID, p)
					g.creditKill(p.ID, o)
				}
			case KindAsteroid:
				a, ok := g.asteroids[ref.ID]
				if !ok || !a.Alive {
					return true
				}
				if CheckCircles(p.Pos, PlayerRadius, a.Pos, AsteroidRadius) {
					g.hitAsteroid(p, a)
					if !p.Alive {
						return false
					}
				}
			case KindPickup:
				k, ok := g.pickups[ref.ID]
				if !ok || !k.Alive {
					return true
				}
				if CheckCircles(p.Pos, PlayerRadius, k.Pos, PickupRadius) {
					p.HP += PickupHeal
					if p.HP > p.MaxHP {
						p.HP = p.MaxHP
					}
					k.Alive = false
					delete(g.pickups, k.ID)
				}
			}
			return true
		})
	}
}

// hitAsteroid applies collision damage and bounces the ship clear
func (g *Game) hitAsteroid(p *Player, a *Asteroid) {
	died := p.TakeDamage(AsteroidDamage)

	away := p.Pos.Sub(a.Pos).Normalize()
	if away == (vec.Vec2{}) {
		away = vec.FromAngle(randFloat()*2*math.Pi, 1)
	}
	// Eject just outside the overlap so damage doesn't re-apply next tick
	p.Pos = a.Pos.Add(away.Scale(AsteroidRadius + PlayerRadius + 1))
	p.Vel = away.Scale(PlayerMaxSpeed * 0.8)

	if died {
		if client, ok := g.clients[p.ID]; ok {
			client.SendJSON(Envelope{T: MsgDeath, Data: DeathMsg{KillerName: "an asteroid"}})
		}
		g.persistDeath(p)
	}
}

// creditKill awards a kill to killerID for destroying victim and notifies clients
func (g *Game) creditKill(killerID string, victim *Player) {
	killer, ok := g.players[killerID]
	if !ok {
		return
	}
	killer.Score++

	g.broadcastMsg(Envelope{T: MsgKill, Data: KillMsg{
		KillerID:   killer.ID,
		KillerName: killer.Name,
		VictimID:   victim.ID,
		VictimName: victim.Name,
	}})
	if client, ok := g.clients[victim.ID]; ok {
		client.SendJSON(Envelope{T: MsgDeath, Data: DeathMsg{
			KillerID:   killer.ID,
			KillerName: killer.Name,
		}})
	}

	if g.store != nil && killer.AuthPlayerID != 0 {
		go g.store.AddKill(killer.AuthPlayerID)
	}
	g.persistDeath(victim)
}

// persistDeath records a death and best score for an authenticated player
func (g *Game) persistDeath(victim *Player) {
	if g.store == nil || victim.AuthPlayerID == 0 {
		return
	}
	id, score := victim.AuthPlayerID, victim.Score
	go func() {
		g.store.AddDeath(id)
		g.store.RaiseBestScore(id, score)
	}()
}

// broadcastState sends a msgpack snapshot to all clients as a binary frame
func (g *Game) broadcastState() {
	state := GameState{
		Ships:       make([]ShipState, 0, len(g.players)),
		Projectiles: make([]ProjectileState, 0, len(g.projectiles)),
		Asteroids:   make([]AsteroidState, 0, len(g.asteroids)),
		Pickups:     make([]PickupState, 0, len(g.pickups)),
		Tick:        g.tick,
	}
	for _, p := range g.players {
		state.Ships = append(state.Ships, p.ToState())
	}
	for _, proj := range g.projectiles {
		state.Projectiles = append(state.Projectiles, proj.ToState())
	}
	for _, a := range g.asteroids {
		state.Asteroids = append(state.Asteroids, a.ToState())
	}
	for _, k := range g.pickups {
		state.Pickups = append(state.Pickups, k.ToState())
	}

	data, err := msgpack.Marshal(state)
	if err != nil {
		log.Printf("snapshot marshal: %v", err)
		return
	}
	for _, client := range g.clients {
		client.SendBinary(data)
	}
}

// broadcastMsg sends a JSON message to all clients in the arena
func (g *Game) broadcastMsg(msg Envelope) {
	for _, client := range g.clients {
		client.SendJSON(msg)
	}
}
