package main

import "sync"

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
	maxArenas     = 100
)

// Hub is the process-wide registry: connected peers, per-IP connection
// accounting, and the live arenas. One instance per server.
type Hub struct {
	mu     sync.Mutex
	peers  map[*Peer]struct{}
	perIP  map[string]int
	conns  int
	arenas map[string]*Arena

	store *Store // nil disables persistence
	auth  *Auth
}

// NewHub creates a Hub. store may be nil.
func NewHub(store *Store) *Hub {
	return &Hub{
		peers:  make(map[*Peer]struct{}),
		perIP:  make(map[string]int),
		arenas: make(map[string]*Arena),
		store:  store,
		auth:   NewAuth(store),
	}
}

// Admit reserves a connection slot for ip, or refuses it. Check and
// increment are one step so two racing upgrades cannot both squeeze past
// the limit; a refused or torn-down connection gives its slot back with
// Release.
func (h *Hub) Admit(ip string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns >= maxTotalConns || h.perIP[ip] >= maxConnsPerIP {
		return false
	}
	h.conns++
	h.perIP[ip]++
	return true
}

// Release frees the slot taken by Admit.
func (h *Hub) Release(ip string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns--
	if h.perIP[ip]--; h.perIP[ip] <= 0 {
		delete(h.perIP, ip)
	}
}

// Attach registers a peer whose pumps are about to start.
func (h *Hub) Attach(p *Peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
}

// Detach unregisters a peer, closes its outbound queue, and pulls its
// player out of whatever arena it was in. Safe to call more than once.
func (h *Hub) Detach(p *Peer) {
	h.mu.Lock()
	_, known := h.peers[p]
	delete(h.peers, p)
	h.mu.Unlock()
	if !known {
		return
	}
	p.close()
	if p.arenaID != "" {
		h.DropPlayer(p.arenaID, p.playerID)
	}
}

// PeerCount returns the number of attached peers.
func (h *Hub) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}
