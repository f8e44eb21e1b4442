package main

import (
	"sync"
	"testing"

	"gridhash/vec"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	binary   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binary = append(m.binary, data)
}

func testGame(t *testing.T) *Game {
	t.Helper()
	g, err := NewGame(nil)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

// park pins a player in place so update() doesn't move it
func park(p *Player, pos vec.Vec2) {
	p.Pos = pos
	p.Vel = vec.Vec2{}
	p.Target = pos
	p.TargetR = p.Rotation
}

func TestGameAddRemovePlayer(t *testing.T) {
	g := testGame(t)
	p := g.AddPlayer("TestPilot")
	if p.Name != "TestPilot" {
		t.Errorf("expected name TestPilot, got %s", p.Name)
	}
	if g.PlayerCount() != 1 {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}

	g.RemovePlayer(p.ID)
	if g.PlayerCount() != 0 {
		t.Errorf("expected 0 players, got %d", g.PlayerCount())
	}
}

func TestGameShipTypeRotation(t *testing.T) {
	g := testGame(t)
	var ships []int
	for i := 0; i < 5; i++ {
		ships = append(ships, g.AddPlayer("P").ShipType)
	}
	want := []int{0, 1, 2, 3, 0}
	for i := range want {
		if ships[i] != want[i] {
			t.Errorf("player %d: expected ship %d, got %d", i, want[i], ships[i])
		}
	}
}

func TestGameHandleInput(t *testing.T) {
	g := testGame(t)
	p := g.AddPlayer("Test")

	input := ClientInput{
		TX:   p.Pos.X + 100,
		TY:   p.Pos.Y,
		Fire: true,
	}
	g.HandleInput(p.ID, input)

	g.mu.RLock()
	player := g.players[p.ID]
	g.mu.RUnlock()

	if !player.Firing {
		t.Error("player should be firing")
	}
}

func TestGameUpdate(t *testing.T) {
	g := testGame(t)
	p1 := g.AddPlayer("Player1")
	p2 := g.AddPlayer("Player2")

	mock1 := &mockBroadcaster{}
	mock2 := &mockBroadcaster{}
	g.SetClient(p1.ID, mock1)
	g.SetClient(p2.ID, mock2)

	// Run a few ticks
	for i := 0; i < 10; i++ {
		g.update()
	}

	if g.tick != 10 {
		t.Errorf("expected tick 10, got %d", g.tick)
	}
}

func TestGameProjectileCreation(t *testing.T) {
	g := testGame(t)
	p := g.AddPlayer("Shooter")
	park(p, vec.Vec2{X: 2000, Y: 2000})
	p.Firing = true
	p.FireCD = 0

	g.update()

	g.mu.RLock()
	projCount := len(g.projectiles)
	g.mu.RUnlock()

	if projCount != 1 {
		t.Errorf("expected 1 projectile, got %d", projCount)
	}
	if p.FireCD <= 0 {
		t.Error("firing should start the cooldown")
	}
}

func TestGameProjectileHitDamagesTarget(t *testing.T) {
	g := testGame(t)
	shooter := g.AddPlayer("Shooter")
	victim := g.AddPlayer("Victim")

	park(shooter, vec.Vec2{X: 1000, Y: 1000})
	shooter.Rotation = 0 // facing +X
	park(victim, vec.Vec2{X: 1040, Y: 1000})
	shooter.Firing = true
	shooter.FireCD = 0

	g.update()

	if victim.HP != PlayerMaxHP-ProjectileDamage {
		t.Errorf("expected victim HP %d, got %d", PlayerMaxHP-ProjectileDamage, victim.HP)
	}
	g.mu.RLock()
	projCount := len(g.projectiles)
	g.mu.RUnlock()
	if projCount != 0 {
		t.Errorf("projectile should be consumed on hit, %d remain", projCount)
	}
}

func TestGameProjectileIgnoresOwner(t *testing.T) {
	g := testGame(t)
	shooter := g.AddPlayer("Shooter")
	park(shooter, vec.Vec2{X: 2000, Y: 2000})
	shooter.Firing = true
	shooter.FireCD = 0

	for i := 0; i < 3; i++ {
		g.update()
	}

	if shooter.HP != PlayerMaxHP {
		t.Errorf("shooter damaged by own projectile: HP %d", shooter.HP)
	}
}

func TestGameMutualShipDestruction(t *testing.T) {
	g := testGame(t)
	a := g.AddPlayer("A")
	b := g.AddPlayer("B")
	mock := &mockBroadcaster{}
	g.SetClient(a.ID, mock)
	g.SetClient(b.ID, mock)

	park(a, vec.Vec2{X: 1500, Y: 1500})
	park(b, vec.Vec2{X: 1510, Y: 1500}) // overlapping hulls

	g.update()

	if a.Alive || b.Alive {
		t.Error("overlapping ships should destroy each other")
	}
	if a.Score != 1 || b.Score != 1 {
		t.Errorf("both should be credited a kill, got %d and %d", a.Score, b.Score)
	}

	mock.mu.Lock()
	kills := 0
	for _, m := range mock.messages {
		if env, ok := m.(Envelope); ok && env.T == MsgKill {
			kills++
		}
	}
	mock.mu.Unlock()
	if kills == 0 {
		t.Error("expected kill messages to be broadcast")
	}
}

func TestGamePickupHeals(t *testing.T) {
	g := testGame(t)
	p := g.AddPlayer("Hurt")
	park(p, vec.Vec2{X: 2000, Y: 2000})
	p.HP = 50

	k := &Pickup{ID: "heal", Pos: p.Pos, Life: PickupTimeout, Alive: true}
	g.mu.Lock()
	g.pickups[k.ID] = k
	g.mu.Unlock()

	g.update()

	if p.HP != 50+PickupHeal {
		t.Errorf("expected HP %d after pickup, got %d", 50+PickupHeal, p.HP)
	}
	g.mu.RLock()
	_, exists := g.pickups[k.ID]
	g.mu.RUnlock()
	if exists {
		t.Error("pickup should be consumed")
	}
}

func TestGameAsteroidContactDamages(t *testing.T) {
	g := testGame(t)
	p := g.AddPlayer("Pilot")
	park(p, vec.Vec2{X: 2000, Y: 2000})

	a := &Asteroid{ID: "rock", Pos: p.Pos.Add(vec.Vec2{X: 10}), Alive: true}
	g.mu.Lock()
	g.asteroids[a.ID] = a
	g.mu.Unlock()

	g.update()

	if p.HP != PlayerMaxHP-AsteroidDamage {
		t.Errorf("expected HP %d after asteroid hit, got %d", PlayerMaxHP-AsteroidDamage, p.HP)
	}
	// Knockback must clear the overlap so damage doesn't repeat next tick
	if p.Pos.Distance(a.Pos) < AsteroidRadius+PlayerRadius {
		t.Error("player should be ejected clear of the asteroid")
	}
}

// Broad phase must report every pair that a brute-force scan finds colliding
func TestBroadPhaseFindsAllContacts(t *testing.T) {
	g := testGame(t)

	// Deterministic scatter, deliberately clustered so pairs overlap
	rng := uint64(0x2545f4914f6cdd1d)
	next := func() float64 {
		rng ^= rng << 13
		rng ^= rng >> 7
		rng ^= rng << 17
		return float64(rng%100000) / 100000.0
	}

	for i := 0; i < maxPlayersPerArena; i++ {
		p := g.AddPlayer("P")
		park(p, vec.Vec2{X: 500 + next()*400, Y: 500 + next()*400})
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.rebuildGrid()
	if !g.gridOK {
		t.Fatal("grid rebuild failed")
	}

	players := make([]*Player, 0, len(g.players))
	for _, p := range g.players {
		players = append(players, p)
	}

	for i, p := range players {
		candidates := make(map[string]bool)
		g.grid.QueryUnique(p.Bounds(), func(ref EntityRef) bool {
			if ref.Kind == KindPlayer {
				candidates[ref.ID] = true
			}
			return true
		})
		for j, o := range players {
			if i == j {
				continue
			}
			if CheckCircles(p.Pos, PlayerRadius, o.Pos, PlayerRadius) && !candidates[o.ID] {
				t.Errorf("broad phase missed colliding pair %s/%s", p.ID, o.ID)
			}
		}
	}
}

func TestGameDeadPlayersLeaveIndex(t *testing.T) {
	g := testGame(t)
	a := g.AddPlayer("A")
	b := g.AddPlayer("B")
	park(a, vec.Vec2{X: 3000, Y: 3000})
	park(b, vec.Vec2{X: 3000, Y: 3000})
	b.Alive = false
	b.RespawnT = RespawnTime

	g.mu.Lock()
	g.rebuildGrid()
	found := false
	g.grid.QueryUnique(a.Bounds(), func(ref EntityRef) bool {
		if ref.Kind == KindPlayer && ref.ID == b.ID {
			found = true
		}
		return true
	})
	g.mu.Unlock()

	if found {
		t.Error("dead player should not appear in the spatial index")
	}
}

func TestGameAsteroidSpawnCap(t *testing.T) {
	g := testGame(t)
	// Enough ticks to exhaust the spawn timer many times over
	for i := 0; i < TickRate*200; i++ {
		g.update()
	}
	g.mu.RLock()
	n := len(g.asteroids)
	g.mu.RUnlock()
	if n > maxAsteroids {
		t.Errorf("asteroid count %d exceeds cap %d", n, maxAsteroids)
	}
}

func TestGameBroadcastsBinarySnapshots(t *testing.T) {
	g := testGame(t)
	p := g.AddPlayer("Viewer")
	park(p, vec.Vec2{X: 2000, Y: 2000})
	mock := &mockBroadcaster{}
	g.SetClient(p.ID, mock)

	for i := 0; i < TickRate; i++ {
		g.update()
	}

	mock.mu.Lock()
	n := len(mock.binary)
	mock.mu.Unlock()
	if n != BroadcastRate {
		t.Errorf("expected %d snapshots over one second, got %d", BroadcastRate, n)
	}
}
