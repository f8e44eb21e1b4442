package main

import "log"

// Arena is one running game plus its lobby metadata.
type Arena struct {
	ID   string
	Name string
	Game *Game
}

// CreateArena starts a new game loop and registers it. Returns nil when the
// arena limit is reached or the game cannot be built.
func (h *Hub) CreateArena(name string) *Arena {
	game, err := NewGame(h.store)
	if err != nil {
		log.Printf("create arena: %v", err)
		return nil
	}

	h.mu.Lock()
	if len(h.arenas) >= maxArenas {
		h.mu.Unlock()
		return nil
	}
	a := &Arena{ID: GenerateUUID(), Name: name, Game: game}
	h.arenas[a.ID] = a
	h.mu.Unlock()

	go game.Run()
	return a
}

// Arena looks up a live arena by ID, nil when absent.
func (h *Hub) Arena(id string) *Arena {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.arenas[id]
}

// DropPlayer removes a player from an arena and tears the arena down once
// its last player is gone.
func (h *Hub) DropPlayer(arenaID, playerID string) {
	a := h.Arena(arenaID)
	if a == nil {
		return
	}
	a.Game.RemovePlayer(playerID)
	if a.Game.PlayerCount() > 0 {
		return
	}
	a.Game.Stop()
	h.mu.Lock()
	delete(h.arenas, arenaID)
	h.mu.Unlock()
}

// ArenaList snapshots lobby info for every live arena.
func (h *Hub) ArenaList() []ArenaInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := make([]ArenaInfo, 0, len(h.arenas))
	for _, a := range h.arenas {
		list = append(list, ArenaInfo{
			ID:      a.ID,
			Name:    a.Name,
			Players: a.Game.PlayerCount(),
		})
	}
	return list
}
