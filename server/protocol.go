package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgInput    = "input"
	MsgCreate   = "create" // create arena
	MsgList     = "list"   // list arenas
	MsgCheck    = "check"  // check if arena exists
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth" // resume with token
	MsgProfile  = "profile"
)

// Server -> Client message types
const (
	MsgWelcome     = "welcome"
	MsgDeath       = "death"
	MsgKill        = "kill"
	MsgSessions    = "sessions"
	MsgJoined      = "joined"
	MsgCreated     = "created"
	MsgChecked     = "checked"
	MsgError       = "error"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClientInput is sent by the client at 20Hz
type ClientInput struct {
	TX    float64 `json:"tx"` // steer target X (world coords)
	TY    float64 `json:"ty"` // steer target Y (world coords)
	Fire  bool    `json:"fire"`
	Boost bool    `json:"boost"`
}

// JoinMsg is sent when a player wants to join an arena
type JoinMsg struct {
	Name    string `json:"name"`
	ArenaID string `json:"sid"`
}

// CreateMsg is sent when a player wants to create an arena
type CreateMsg struct {
	Name      string `json:"name"`
	ArenaName string `json:"sname"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"u"`
	Password string `json:"p"`
}

// LoginMsg authenticates with credentials
type LoginMsg struct {
	Username string `json:"u"`
	Password string `json:"p"`
}

// AuthMsg resumes with a stored token
type AuthMsg struct {
	Token string `json:"tok"`
}

// AuthOKMsg confirms register/login/resume
type AuthOKMsg struct {
	Token    string `json:"tok"`
	Username string `json:"u"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg carries persistent stats for the authenticated player
type ProfileDataMsg struct {
	Username  string  `json:"u"`
	Kills     int     `json:"k"`
	Deaths    int     `json:"d"`
	BestScore int     `json:"bs"`
	Playtime  float64 `json:"pt"`
}

// ShipState is broadcast per player each snapshot
type ShipState struct {
	ID    string  `msgpack:"id"`
	Name  string  `msgpack:"n"`
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	R     float64 `msgpack:"r"` // rotation radians
	VX    float64 `msgpack:"vx"`
	VY    float64 `msgpack:"vy"`
	HP    int     `msgpack:"hp"`
	MaxHP int     `msgpack:"mhp"`
	Ship  int     `msgpack:"s"` // ship type 0-3
	Score int     `msgpack:"sc"`
	Alive bool    `msgpack:"a"`
	Boost bool    `msgpack:"b"`
}

// ProjectileState is broadcast per projectile
type ProjectileState struct {
	ID    string  `msgpack:"id"`
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	R     float64 `msgpack:"r"`
	Owner string  `msgpack:"o"`
}

// AsteroidState is broadcast per asteroid
type AsteroidState struct {
	ID string  `msgpack:"id"`
	X  float64 `msgpack:"x"`
	Y  float64 `msgpack:"y"`
	R  float64 `msgpack:"r"`
}

// PickupState is broadcast per pickup
type PickupState struct {
	ID string  `msgpack:"id"`
	X  float64 `msgpack:"x"`
	Y  float64 `msgpack:"y"`
}

// GameState is the full snapshot, msgpack-encoded and sent as a binary frame
type GameState struct {
	Ships       []ShipState       `msgpack:"p"`
	Projectiles []ProjectileState `msgpack:"pr"`
	Asteroids   []AsteroidState   `msgpack:"a"`
	Pickups     []PickupState     `msgpack:"pk"`
	Tick        uint64            `msgpack:"t"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	ID   string `json:"id"`
	Ship int    `json:"s"`
}

// DeathMsg notifies a player they died
type DeathMsg struct {
	KillerID   string `json:"kid"`
	KillerName string `json:"kn"`
}

// KillMsg is broadcast to all players in an arena
type KillMsg struct {
	KillerID   string `json:"kid"`
	KillerName string `json:"kn"`
	VictimID   string `json:"vid"`
	VictimName string `json:"vn"`
}

// ArenaInfo is one row of the arena list
type ArenaInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckMsg asks whether an arena exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to an arena check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}
