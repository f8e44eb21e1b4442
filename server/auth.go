package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenLifetime  = 7 * 24 * time.Hour
	passwordCost   = 12 // bcrypt
	minPasswordLen = 4
	minUsernameLen = 2
	maxUsernameLen = 16
	throttleWindow = time.Minute
	throttleBudget = 10 // login attempts per IP per window
)

var (
	ErrBadName        = errors.New("username must be 2-16 characters")
	ErrWeakPassword   = errors.New("password must be at least 4 characters")
	ErrNameTaken      = errors.New("username already taken")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrThrottled      = errors.New("too many login attempts, try again later")
	ErrBadToken       = errors.New("invalid token")

	// errInternal masks store and crypto failures so their details never
	// reach a client.
	errInternal = errors.New("internal error")
)

// Auth issues and checks account credentials: bcrypt for passwords, HS256
// JWTs for session resumption.
type Auth struct {
	store    *Store
	secret   []byte
	throttle loginThrottle
}

// NewAuth builds an Auth over store. A nil store still works; accounts
// then can't be created and tokens die with the process.
func NewAuth(store *Store) *Auth {
	return &Auth{
		store:    store,
		secret:   signingKey(store),
		throttle: loginThrottle{windows: make(map[string]*attemptWindow)},
	}
}

// signingKey returns the persisted JWT secret, minting and storing a fresh
// one on first run.
func signingKey(store *Store) []byte {
	if store != nil {
		if enc := store.Setting("jwt_secret"); enc != "" {
			if key, err := hex.DecodeString(enc); err == nil && len(key) == 32 {
				return key
			}
		}
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("jwt secret: " + err.Error())
	}
	if store != nil {
		if err := store.PutSetting("jwt_secret", hex.EncodeToString(key)); err != nil {
			log.Printf("jwt secret not persisted: %v", err)
		}
	}
	return key
}

// accountClaims is the JWT payload; Subject carries the account ID.
type accountClaims struct {
	Name string `json:"usr"`
	jwt.RegisteredClaims
}

// Register creates an account and logs it in.
func (a *Auth) Register(name, password string) (int64, string, error) {
	name = strings.TrimSpace(name)
	if len(name) < minUsernameLen || len(name) > maxUsernameLen {
		return 0, "", ErrBadName
	}
	if len(password) < minPasswordLen {
		return 0, "", ErrWeakPassword
	}
	if a.store == nil {
		return 0, "", errInternal
	}

	taken, err := a.store.NameTaken(name)
	if err != nil {
		return 0, "", errInternal
	}
	if taken {
		return 0, "", ErrNameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return 0, "", errInternal
	}
	id, err := a.store.CreateAccount(name, string(hash))
	if err != nil {
		return 0, "", errInternal
	}

	token, err := a.issue(id, name)
	if err != nil {
		return 0, "", errInternal
	}
	return id, token, nil
}

// Login checks credentials and returns a fresh token. Failures are
// deliberately indistinguishable between unknown name and wrong password.
func (a *Auth) Login(name, password, ip string) (int64, string, error) {
	if !a.throttle.allow(ip) {
		return 0, "", ErrThrottled
	}
	if a.store == nil {
		return 0, "", ErrBadCredentials
	}

	acct, err := a.store.AccountByName(name)
	if err != nil {
		return 0, "", errInternal
	}
	if acct == nil || acct.Hash == "" ||
		bcrypt.CompareHashAndPassword([]byte(acct.Hash), []byte(password)) != nil {
		return 0, "", ErrBadCredentials
	}

	token, err := a.issue(acct.ID, acct.Name)
	if err != nil {
		return 0, "", errInternal
	}
	return acct.ID, token, nil
}

// Resume validates a stored token and returns the account it names.
func (a *Auth) Resume(token string) (int64, string, error) {
	var claims accountClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return 0, "", ErrBadToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, "", ErrBadToken
	}
	return id, claims.Name, nil
}

func (a *Auth) issue(id int64, name string) (string, error) {
	now := time.Now()
	claims := accountClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// loginThrottle caps login attempts per source IP per window.
type loginThrottle struct {
	mu      sync.Mutex
	windows map[string]*attemptWindow
}

type attemptWindow struct {
	left    int
	resetAt time.Time
}

func (t *loginThrottle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	w := t.windows[ip]
	if w == nil || now.After(w.resetAt) {
		t.windows[ip] = &attemptWindow{left: throttleBudget - 1, resetAt: now.Add(throttleWindow)}
		return true
	}
	w.left--
	return w.left >= 0
}

// guestName mints a throwaway name like "Guest_a3f2".
func guestName() string {
	b := make([]byte, 3)
	rand.Read(b)
	return "Guest_" + hex.EncodeToString(b)
}
