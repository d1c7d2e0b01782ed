package testutil

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errDuplicateEmail     = errors.New("email already registered")
	errInvalidCredentials = errors.New("invalid credentials")
)

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Video is a generation job owned by a user.
type Video struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Prompt    string    `json:"prompt"`
	Style     string    `json:"style"`
	Duration  int       `json:"duration"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type account struct {
	user User
	hash []byte
}

// accountState is what Snapshot captures.
type accountState struct {
	accounts map[string]account
	videos   []Video
}

// accounts stores users keyed by lower-cased email, with bcrypt hashes.
type accounts struct {
	mu     sync.RWMutex
	cost   int
	byMail map[string]account
	videos []Video
}

func newAccounts(cost int) *accounts {
	return &accounts{cost: cost, byMail: make(map[string]account)}
}

func (a *accounts) register(name, email, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	key := strings.ToLower(email)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.byMail[key]; exists {
		return User{}, errDuplicateEmail
	}
	u := User{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: time.Now().UTC()}
	a.byMail[key] = account{user: u, hash: hash}
	return u, nil
}

func (a *accounts) authenticate(email, password string) (User, error) {
	a.mu.RLock()
	acc, ok := a.byMail[strings.ToLower(email)]
	a.mu.RUnlock()
	if !ok {
		return User{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return User{}, errInvalidCredentials
	}
	return acc.user, nil
}

func (a *accounts) user(id string) (User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, acc := range a.byMail {
		if acc.user.ID == id {
			return acc.user, true
		}
	}
	return User{}, false
}

func (a *accounts) addVideo(v Video) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.videos = append(a.videos, v)
}

func (a *accounts) videosOf(ownerID string) []Video {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Video, 0)
	for _, v := range a.videos {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	return out
}

func (a *accounts) snapshot() accountState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := accountState{accounts: make(map[string]account, len(a.byMail))}
	for k, v := range a.byMail {
		s.accounts[k] = v
	}
	s.videos = append([]Video(nil), a.videos...)
	return s
}

func (a *accounts) restore(s accountState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byMail = make(map[string]account, len(s.accounts))
	for k, v := range s.accounts {
		a.byMail[k] = v
	}
	a.videos = append([]Video(nil), s.videos...)
}
