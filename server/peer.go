package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingEvery     = 54 * time.Second
	maxFrameSize  = 4096
	outboundDepth = 256
	maxMsgsPerSec = 50
	maxNameLen    = 16
	maxArenaName  = 30
)

// frame is one queued outbound websocket message.
type frame struct {
	binary  bool
	payload []byte
}

// Peer is one websocket connection and the player it controls. The read
// and write loops each own one direction of the socket; everything else
// reaches the peer only through the outbound queue.
type Peer struct {
	hub *Hub
	ws  *websocket.Conn
	ip  string

	out    chan frame
	sendMu sync.Mutex
	closed bool

	playerID string
	arenaID  string

	// inbound message budget, refilled once per second
	budget   int
	refillAt time.Time

	// authenticated account, zero for guests
	account  int64
	username string
}

// NewPeer wraps an upgraded connection.
func NewPeer(hub *Hub, ws *websocket.Conn, ip string) *Peer {
	return &Peer{
		hub: hub,
		ws:  ws,
		ip:  ip,
		out: make(chan frame, outboundDepth),
	}
}

// readLoop consumes inbound frames until the connection drops, then tears
// the peer down and gives its connection slot back.
func (p *Peer) readLoop() {
	defer func() {
		p.hub.Release(p.ip)
		p.hub.Detach(p)
		p.ws.Close()
	}()

	p.ws.SetReadLimit(maxFrameSize)
	p.ws.SetReadDeadline(time.Now().Add(pongWait))
	p.ws.SetPongHandler(func(string) error {
		return p.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := p.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("peer %s: read: %v", p.ip, err)
			}
			return
		}
		if !p.allowMessage() {
			log.Printf("peer %s: message flood, dropping connection", p.ip)
			return
		}
		if kind == websocket.BinaryMessage {
			p.onBinaryInput(data)
			continue
		}
		p.dispatch(data)
	}
}

// allowMessage spends one unit of the per-second inbound budget.
func (p *Peer) allowMessage() bool {
	now := time.Now()
	if now.After(p.refillAt) {
		p.budget = maxMsgsPerSec
		p.refillAt = now.Add(time.Second)
	}
	p.budget--
	return p.budget >= 0
}

// writeLoop drains the outbound queue and keeps the connection alive with
// pings. It exits when the queue closes or a write fails.
func (p *Peer) writeLoop() {
	ping := time.NewTicker(pingEvery)
	defer func() {
		ping.Stop()
		p.ws.Close()
	}()

	for {
		select {
		case f, ok := <-p.out:
			p.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				p.ws.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			if p.ws.WriteMessage(kind, f.payload) != nil {
				return
			}
		case <-ping.C:
			p.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if p.ws.WriteMessage(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

// enqueue hands a frame to the write loop, dropping it when the peer is
// gone or its buffer is full (a slow consumer never blocks the game loop).
func (p *Peer) enqueue(f frame) {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.out <- f:
	default:
	}
}

// SendJSON queues v as a text frame.
func (p *Peer) SendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("encode: %v", err)
		return
	}
	p.enqueue(frame{payload: data})
}

// SendBinary queues data as a binary frame.
func (p *Peer) SendBinary(data []byte) {
	p.enqueue(frame{binary: true, payload: data})
}

// close shuts the outbound queue exactly once.
func (p *Peer) close() {
	p.sendMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.out)
	}
	p.sendMu.Unlock()
}

func (p *Peer) sendError(msg string) {
	p.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// dispatch routes one inbound text message by envelope type.
func (p *Peer) dispatch(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("peer %s: bad envelope: %v", p.ip, err)
		return
	}

	switch env.T {
	case MsgList:
		p.SendJSON(Envelope{T: MsgSessions, Data: p.hub.ArenaList()})
	case MsgCreate:
		p.onCreate(env.D)
	case MsgJoin:
		p.onJoin(env.D)
	case MsgInput:
		p.onInput(env.D)
	case MsgLeave:
		p.onLeave()
	case MsgCheck:
		p.onCheck(env.D)
	case MsgRegister:
		p.onRegister(env.D)
	case MsgLogin:
		p.onLogin(env.D)
	case MsgAuth:
		p.onResume(env.D)
	case MsgProfile:
		p.onProfile()
	}
}

// clampName trims s to max bytes, substituting fallback for the empty string.
func clampName(s string, max int, fallback string) string {
	if s == "" {
		return fallback
	}
	if len(s) > max {
		return s[:max]
	}
	return s
}

func (p *Peer) onCreate(data json.RawMessage) {
	var msg CreateMsg
	if json.Unmarshal(data, &msg) != nil {
		return
	}
	a := p.hub.CreateArena(clampName(msg.ArenaName, maxArenaName, "Battle Arena"))
	if a == nil {
		p.sendError("too many active arenas")
		return
	}
	p.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": a.ID}})
}

func (p *Peer) onJoin(data json.RawMessage) {
	var msg JoinMsg
	if json.Unmarshal(data, &msg) != nil {
		return
	}
	a := p.hub.Arena(msg.ArenaID)
	if a == nil {
		p.sendError("arena not found")
		return
	}

	name := msg.Name
	if name == "" {
		name = p.username
	}
	name = clampName(name, maxNameLen, guestName())

	player := a.Game.AddPlayer(name)
	if player == nil {
		p.sendError("arena full")
		return
	}
	player.AuthPlayerID = p.account
	p.playerID = player.ID
	p.arenaID = a.ID
	a.Game.SetClient(player.ID, p)

	p.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": a.ID}})
	p.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{ID: player.ID, Ship: player.ShipType}})
}

// onBinaryInput decodes the compact input frame: [0x01, tx16, ty16, flags].
func (p *Peer) onBinaryInput(data []byte) {
	if len(data) != 6 || data[0] != 0x01 || p.arenaID == "" {
		return
	}
	in := ClientInput{
		TX:    float64(uint16(data[1])<<8 | uint16(data[2])),
		TY:    float64(uint16(data[3])<<8 | uint16(data[4])),
		Fire:  data[5]&0x01 != 0,
		Boost: data[5]&0x02 != 0,
	}
	if a := p.hub.Arena(p.arenaID); a != nil {
		a.Game.HandleInput(p.playerID, in)
	}
}

func (p *Peer) onInput(data json.RawMessage) {
	if p.arenaID == "" {
		return
	}
	var in ClientInput
	if json.Unmarshal(data, &in) != nil {
		return
	}
	if a := p.hub.Arena(p.arenaID); a != nil {
		a.Game.HandleInput(p.playerID, in)
	}
}

func (p *Peer) onLeave() {
	if p.arenaID == "" {
		return
	}
	p.hub.DropPlayer(p.arenaID, p.playerID)
	p.arenaID, p.playerID = "", ""
}

func (p *Peer) onCheck(data json.RawMessage) {
	var msg CheckMsg
	if json.Unmarshal(data, &msg) != nil {
		return
	}
	a := p.hub.Arena(msg.SID)
	if a == nil {
		p.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID}})
		return
	}
	p.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    a.Name,
		Players: a.Game.PlayerCount(),
	}})
}

func (p *Peer) onRegister(data json.RawMessage) {
	var msg RegisterMsg
	if json.Unmarshal(data, &msg) != nil || p.hub.auth == nil {
		return
	}
	id, token, err := p.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		p.sendError(err.Error())
		return
	}
	p.account = id
	p.username = msg.Username
	p.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: msg.Username,
		PlayerID: id,
	}})
}

func (p *Peer) onLogin(data json.RawMessage) {
	var msg LoginMsg
	if json.Unmarshal(data, &msg) != nil || p.hub.auth == nil {
		return
	}
	id, token, err := p.hub.auth.Login(msg.Username, msg.Password, p.ip)
	if err != nil {
		p.sendError(err.Error())
		return
	}
	p.account = id
	p.username = msg.Username
	p.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: msg.Username,
		PlayerID: id,
	}})
}

func (p *Peer) onResume(data json.RawMessage) {
	var msg AuthMsg
	if json.Unmarshal(data, &msg) != nil || p.hub.auth == nil {
		return
	}
	id, name, err := p.hub.auth.Resume(msg.Token)
	if err != nil {
		p.sendError("invalid token")
		return
	}
	p.account = id
	p.username = name
	p.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    msg.Token,
		Username: name,
		PlayerID: id,
	}})
}

func (p *Peer) onProfile() {
	if p.hub.store == nil || p.account == 0 {
		p.sendError("not authenticated")
		return
	}
	st, err := p.hub.store.StatsFor(p.account)
	if err != nil || st == nil {
		p.sendError("profile not found")
		return
	}
	p.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:  p.username,
		Kills:     st.Kills,
		Deaths:    st.Deaths,
		BestScore: st.BestScore,
		Playtime:  st.Playtime,
	}})
}
