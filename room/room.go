// room/room.go
package room

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/wfunc/buzzroom/models"
)

// Status 表示房间的业务状态
type Status int

const (
	StatusWaiting Status = iota
	StatusStarted
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "started"
	case StatusEnded:
		return "ended"
	default:
		return "waiting"
	}
}

// transitions 定义允许的状态迁移; reset 可从任意状态回到 waiting
var transitions = map[Status][]Status{
	StatusWaiting: {StatusStarted},
	StatusStarted: {StatusWaiting, StatusEnded},
	StatusEnded:   {StatusWaiting},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PlayerStatus 一轮之内玩家的状态。foul 和 done 都是终态，
// 直到 start/reset 才会回到 waiting。
type PlayerStatus int

const (
	PlayerWaiting PlayerStatus = iota
	PlayerFouled
	PlayerDone
)

func (s PlayerStatus) String() string {
	switch s {
	case PlayerFouled:
		return "foul"
	case PlayerDone:
		return "done"
	default:
		return "waiting"
	}
}

// Player 以连接ID为唯一标识，断线即销毁
type Player struct {
	SessionID    string
	Name         string
	Status       PlayerStatus
	ReactionTime time.Duration // defined only while Status == PlayerDone
}

var (
	ErrUnauthorized      = errors.New("only the bound host may do this")
	ErrHostAlreadyBound  = errors.New("room already has a host")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNameTaken         = errors.New("player name already taken in this room")
)

// Room 是一局游戏的核心结构，也是它所有状态变更的串行化边界。
// Every method takes the room lock only for the in-memory mutation and
// returns snapshots; broadcasting happens outside, after release.
type Room struct {
	Code      string
	Name      string
	CreatedAt time.Time

	clock        clockwork.Clock
	mutex        sync.Mutex
	status       Status
	hostID       string // empty while the room is headless
	players      map[string]*Player
	startedAt    time.Time // captured fresh on every Start
	scoreboard   Scoreboard
	lastActivity time.Time
}

// NewRoom 创建一个新房间, 初始状态为 waiting
func NewRoom(code, name string, clock clockwork.Clock) *Room {
	now := clock.Now()
	return &Room{
		Code:         code,
		Name:         name,
		CreatedAt:    now,
		clock:        clock,
		status:       StatusWaiting,
		players:      make(map[string]*Player),
		lastActivity: now,
	}
}

// --- 主持人绑定 ---

// BindHost claims hosting of the room for the given connection. The
// first claim on an unhosted room wins; later claims fail.
func (r *Room) BindHost(sessionID string) ([]models.RosterEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.hostID != "" {
		return nil, ErrHostAlreadyBound
	}
	r.hostID = sessionID
	r.lastActivity = r.clock.Now()
	return r.rosterLocked(), nil
}

// UnbindHost releases the host binding if sessionID currently holds it.
// The room itself survives headless.
func (r *Room) UnbindHost(sessionID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.hostID != sessionID || sessionID == "" {
		return false
	}
	r.hostID = ""
	r.lastActivity = r.clock.Now()
	return true
}

func (r *Room) HasHost() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.hostID != ""
}

// --- 玩家名单 ---

// AddPlayer creates (or reuses, on duplicate delivery of a join) the
// player entry for the connection and returns the updated roster plus
// the room status the joiner should render. The name uniqueness check
// runs under the same lock as the insert, so two racing joins with
// the same name admit exactly one.
func (r *Room) AddPlayer(sessionID, name string) ([]models.RosterEntry, string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.players[sessionID]; !exists {
		for _, p := range r.players {
			if p.Name == name {
				return nil, "", ErrNameTaken
			}
		}
		r.players[sessionID] = &Player{
			SessionID: sessionID,
			Name:      name,
			Status:    PlayerWaiting,
		}
	}
	r.lastActivity = r.clock.Now()
	return r.rosterLocked(), r.status.String(), nil
}

// RemovePlayer destroys the player entry. A buzz racing this removal
// resolves as a no-op once the entry is gone.
func (r *Room) RemovePlayer(sessionID string) (bool, []models.RosterEntry) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.players[sessionID]; !exists {
		return false, nil
	}
	delete(r.players, sessionID)
	r.lastActivity = r.clock.Now()
	return true, r.rosterLocked()
}

func (r *Room) PlayerCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.players)
}

// --- 回合控制 ---

// Start begins a round: host only, legal only from waiting. A fresh
// monotonic instant is captured on every call, players are reset and
// the previous scoreboard is discarded.
func (r *Room) Start(sessionID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.hostID == "" || r.hostID != sessionID {
		return ErrUnauthorized
	}
	if !canTransition(r.status, StatusStarted) {
		return ErrInvalidTransition
	}

	r.status = StatusStarted
	r.startedAt = r.clock.Now()
	r.resetPlayersLocked()
	r.scoreboard.Clear()
	r.lastActivity = r.startedAt
	return nil
}

// ResetOutcome 重置后的快照; FinishedRound 仅在上一轮有成绩时非nil，
// 交给归档层处理。
type ResetOutcome struct {
	Roster        []models.RosterEntry
	FinishedRound *models.RoundRecord
}

// Reset returns the room to waiting from any status. Host only.
func (r *Room) Reset(sessionID string) (ResetOutcome, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.hostID == "" || r.hostID != sessionID {
		return ResetOutcome{}, ErrUnauthorized
	}

	var finished *models.RoundRecord
	if r.scoreboard.Len() > 0 {
		finished = &models.RoundRecord{
			RoomCode:  r.Code,
			RoomName:  r.Name,
			StartedAt: r.startedAt,
			Results:   r.scoreboard.Entries(),
		}
	}

	r.status = StatusWaiting
	r.resetPlayersLocked()
	r.scoreboard.Clear()
	r.lastActivity = r.clock.Now()
	return ResetOutcome{Roster: r.rosterLocked(), FinishedRound: finished}, nil
}

func (r *Room) resetPlayersLocked() {
	for _, p := range r.players {
		p.Status = PlayerWaiting
		p.ReactionTime = 0
	}
}

// --- 抢答 ---

type BuzzKind int

const (
	BuzzIgnored BuzzKind = iota
	BuzzFouled
	BuzzScored
)

// BuzzOutcome carries everything the caller needs to broadcast without
// touching the room again.
type BuzzOutcome struct {
	Kind       BuzzKind
	PlayerName string
	Reaction   time.Duration
	Roster     []models.RosterEntry
	Results    []models.ResultEntry
}

// Buzz applies a player's buzz. Unknown players, terminal player
// states and ended rooms are all no-ops, which makes the operation
// safe against duplicate delivery.
func (r *Room) Buzz(sessionID string) BuzzOutcome {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, exists := r.players[sessionID]
	if !exists {
		return BuzzOutcome{Kind: BuzzIgnored}
	}

	switch {
	case r.status == StatusWaiting && p.Status == PlayerWaiting:
		// 抢跑犯规
		p.Status = PlayerFouled
		r.lastActivity = r.clock.Now()
		return BuzzOutcome{
			Kind:       BuzzFouled,
			PlayerName: p.Name,
			Roster:     r.rosterLocked(),
		}

	case r.status == StatusStarted && p.Status == PlayerWaiting:
		now := r.clock.Now()
		reaction := now.Sub(r.startedAt)
		if reaction < 0 {
			// 时钟或时序故障，静默丢弃
			return BuzzOutcome{Kind: BuzzIgnored}
		}
		p.Status = PlayerDone
		p.ReactionTime = reaction
		r.scoreboard.Append(p.Name, reaction.Seconds())
		r.lastActivity = now
		return BuzzOutcome{
			Kind:       BuzzScored,
			PlayerName: p.Name,
			Reaction:   reaction,
			Roster:     r.rosterLocked(),
			Results:    r.scoreboard.Entries(),
		}
	}

	return BuzzOutcome{Kind: BuzzIgnored}
}

// --- 快照 ---

func (r *Room) rosterLocked() []models.RosterEntry {
	roster := make([]models.RosterEntry, 0, len(r.players))
	for _, p := range r.players {
		roster = append(roster, models.RosterEntry{
			Name:   p.Name,
			Status: p.Status.String(),
		})
	}
	return roster
}

func (r *Room) Roster() []models.RosterEntry {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.rosterLocked()
}

func (r *Room) Results() []models.ResultEntry {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.scoreboard.Entries()
}

func (r *Room) Status() Status {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.status
}

func (r *Room) Info() models.RoomInfo {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return models.RoomInfo{
		Code:        r.Code,
		Name:        r.Name,
		Status:      r.status.String(),
		PlayerCount: len(r.players),
		HasHost:     r.hostID != "",
	}
}

// IsIdle reports whether the room has sat empty and hostless for
// longer than ttl. Rooms with any binding are never idle.
func (r *Room) IsIdle(ttl time.Duration) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.hostID != "" || len(r.players) > 0 {
		return false
	}
	return r.clock.Now().Sub(r.lastActivity) > ttl
}
