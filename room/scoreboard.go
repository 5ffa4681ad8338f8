// room/scoreboard.go
package room

import (
	"sort"

	"github.com/wfunc/buzzroom/models"
)

// Scoreboard keeps the round's results in ascending reaction-time
// order, ties broken by append order. Not locked itself; every access
// happens under the owning room's mutex.
type Scoreboard struct {
	entries []models.ResultEntry
}

// Append 记录一条成绩并保持有序
func (b *Scoreboard) Append(name string, seconds float64) {
	b.entries = append(b.entries, models.ResultEntry{
		Name:         name,
		ReactionTime: seconds,
	})
	sort.SliceStable(b.entries, func(i, j int) bool {
		return b.entries[i].ReactionTime < b.entries[j].ReactionTime
	})
}

// Entries returns a copy; callers broadcast it after the room lock is
// released.
func (b *Scoreboard) Entries() []models.ResultEntry {
	out := make([]models.ResultEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Scoreboard) Len() int {
	return len(b.entries)
}

func (b *Scoreboard) Clear() {
	b.entries = b.entries[:0]
}
