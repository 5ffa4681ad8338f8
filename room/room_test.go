package room

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func newTestRoom(t *testing.T) (*Room, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return NewRoom("TESTRM", "Quiz", clock), clock
}

func hostedRoom(t *testing.T) (*Room, *clockwork.FakeClock) {
	t.Helper()
	r, clock := newTestRoom(t)
	if _, err := r.BindHost("host"); err != nil {
		t.Fatalf("BindHost failed: %v", err)
	}
	return r, clock
}

func TestRoom_BindHost_FirstClaimWins(t *testing.T) {
	r, _ := newTestRoom(t)

	roster, err := r.BindHost("host1")
	if err != nil {
		t.Fatalf("first host claim should succeed, got %v", err)
	}
	if len(roster) != 0 {
		t.Errorf("expected empty roster snapshot, got %d entries", len(roster))
	}

	if _, err := r.BindHost("host2"); err != ErrHostAlreadyBound {
		t.Errorf("second host claim should fail with ErrHostAlreadyBound, got %v", err)
	}
}

func TestRoom_HostRebindAfterUnbind(t *testing.T) {
	r, _ := hostedRoom(t)

	if !r.UnbindHost("host") {
		t.Fatal("UnbindHost should report the host was removed")
	}
	if r.UnbindHost("host") {
		t.Error("second UnbindHost should be a no-op")
	}
	if r.HasHost() {
		t.Error("room should be headless after unbind")
	}

	if _, err := r.BindHost("host2"); err != nil {
		t.Errorf("new host claim on a headless room should succeed, got %v", err)
	}
}

func TestRoom_StartUnauthorized(t *testing.T) {
	r, _ := hostedRoom(t)
	r.AddPlayer("p1", "Ann")

	if err := r.Start("p1"); err != ErrUnauthorized {
		t.Errorf("player start should be ErrUnauthorized, got %v", err)
	}
	if r.Status() != StatusWaiting {
		t.Errorf("failed start must not mutate status, got %v", r.Status())
	}
}

func TestRoom_StartOnHeadlessRoomUnauthorized(t *testing.T) {
	r, _ := hostedRoom(t)
	r.UnbindHost("host")

	if err := r.Start("host"); err != ErrUnauthorized {
		t.Errorf("start after host unbind should be ErrUnauthorized, got %v", err)
	}
}

func TestRoom_StartOnlyFromWaiting(t *testing.T) {
	r, _ := hostedRoom(t)

	if err := r.Start("host"); err != nil {
		t.Fatalf("start from waiting should succeed, got %v", err)
	}
	if err := r.Start("host"); err != ErrInvalidTransition {
		t.Errorf("start from started should be ErrInvalidTransition, got %v", err)
	}
}

func TestRoom_StartResetsRound(t *testing.T) {
	r, clock := hostedRoom(t)
	r.AddPlayer("p1", "Ann")
	r.AddPlayer("p2", "Bob")

	// play a round so there is state to wipe
	r.Start("host")
	clock.Advance(300 * time.Millisecond)
	r.Buzz("p1")
	r.Reset("host")
	r.Buzz("p2") // foul in waiting

	if err := r.Start("host"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if got := len(r.Results()); got != 0 {
		t.Errorf("results must be empty after start, got %d entries", got)
	}
	for _, entry := range r.Roster() {
		if entry.Status != "waiting" {
			t.Errorf("player %s should be waiting after start, got %s", entry.Name, entry.Status)
		}
	}
	for _, p := range r.players {
		if p.ReactionTime != 0 {
			t.Errorf("player %s reaction time should be undefined after start", p.Name)
		}
	}
}

func TestRoom_FreshStartInstantEveryRound(t *testing.T) {
	r, clock := hostedRoom(t)
	r.AddPlayer("p1", "Ann")

	r.Start("host")
	first := r.startedAt

	clock.Advance(5 * time.Second)
	r.Reset("host")
	r.Start("host")

	if !r.startedAt.After(first) {
		t.Error("start instant must be captured fresh on every start")
	}

	// reaction time is measured against the second round's instant
	clock.Advance(250 * time.Millisecond)
	outcome := r.Buzz("p1")
	if outcome.Kind != BuzzScored {
		t.Fatalf("expected scored buzz, got %v", outcome.Kind)
	}
	if outcome.Reaction != 250*time.Millisecond {
		t.Errorf("expected 250ms reaction, got %v", outcome.Reaction)
	}
}

// Scenario: Bob buzzes at T+0.5s, Ann at T+0.3s; the scoreboard
// re-sorts and a duplicate buzz changes nothing.
func TestRoom_BuzzScoringAndOrdering(t *testing.T) {
	r, clock := hostedRoom(t)
	r.AddPlayer("ann", "Ann")
	r.AddPlayer("bob", "Bob")

	if err := r.Start("host"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	clock.Advance(500 * time.Millisecond)
	outcome := r.Buzz("bob")
	if outcome.Kind != BuzzScored {
		t.Fatalf("expected scored buzz for Bob, got %v", outcome.Kind)
	}
	if outcome.Reaction != 500*time.Millisecond {
		t.Errorf("expected 0.5s reaction, got %v", outcome.Reaction)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Name != "Bob" {
		t.Fatalf("unexpected results after Bob: %+v", outcome.Results)
	}

	// The fake clock cannot run backwards, so give Ann a faster time
	// by moving the start instant: her buzz arrives after Bob's but
	// must sort ahead of it.
	r.mutex.Lock()
	r.startedAt = clock.Now().Add(-300 * time.Millisecond)
	r.mutex.Unlock()

	outcome = r.Buzz("ann")
	if outcome.Kind != BuzzScored {
		t.Fatalf("expected scored buzz for Ann, got %v", outcome.Kind)
	}
	if len(outcome.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(outcome.Results))
	}
	if outcome.Results[0].Name != "Ann" || outcome.Results[1].Name != "Bob" {
		t.Errorf("results not re-sorted ascending: %+v", outcome.Results)
	}
	if outcome.Results[0].ReactionTime != 0.3 {
		t.Errorf("expected Ann at 0.3s, got %v", outcome.Results[0].ReactionTime)
	}

	// duplicate buzz: no mutation, no broadcast material
	dup := r.Buzz("ann")
	if dup.Kind != BuzzIgnored {
		t.Errorf("repeat buzz should be ignored, got %v", dup.Kind)
	}
	if got := len(r.Results()); got != 2 {
		t.Errorf("repeat buzz must not grow results, got %d", got)
	}
}

// Scenario: buzzing before start fouls the player and leaves the
// results untouched.
func TestRoom_FoulBeforeStart(t *testing.T) {
	r, _ := hostedRoom(t)
	r.AddPlayer("carl", "Carl")

	outcome := r.Buzz("carl")
	if outcome.Kind != BuzzFouled {
		t.Fatalf("expected foul, got %v", outcome.Kind)
	}
	if len(r.Results()) != 0 {
		t.Error("a foul must not touch the results")
	}

	found := false
	for _, entry := range outcome.Roster {
		if entry.Name == "Carl" {
			found = true
			if entry.Status != "foul" {
				t.Errorf("roster should reflect foul, got %s", entry.Status)
			}
		}
	}
	if !found {
		t.Error("fouled player missing from roster snapshot")
	}

	// foul is terminal until reset
	if again := r.Buzz("carl"); again.Kind != BuzzIgnored {
		t.Errorf("buzz after foul should be ignored, got %v", again.Kind)
	}
}

// Scenario: the host disconnects mid-round; the round continues,
// scoring still works, and start/reset stay locked until a new host
// claim succeeds.
func TestRoom_HostDisconnectMidRound(t *testing.T) {
	r, clock := hostedRoom(t)
	r.AddPlayer("p1", "Ann")

	r.Start("host")
	if !r.UnbindHost("host") {
		t.Fatal("UnbindHost failed")
	}

	if r.Status() != StatusStarted {
		t.Error("room status must survive a host disconnect")
	}

	clock.Advance(400 * time.Millisecond)
	outcome := r.Buzz("p1")
	if outcome.Kind != BuzzScored || outcome.Reaction != 400*time.Millisecond {
		t.Errorf("player should still be scored correctly, got %v %v", outcome.Kind, outcome.Reaction)
	}

	if _, err := r.Reset("host"); err != ErrUnauthorized {
		t.Errorf("reset by the old host must fail, got %v", err)
	}

	if _, err := r.BindHost("host2"); err != nil {
		t.Fatalf("new host claim should succeed, got %v", err)
	}
	if _, err := r.Reset("host2"); err != nil {
		t.Errorf("reset by the new host should succeed, got %v", err)
	}
}

func TestRoom_BuzzAfterRemovalIsNoop(t *testing.T) {
	r, _ := hostedRoom(t)
	r.AddPlayer("p1", "Ann")
	r.Start("host")

	removed, _ := r.RemovePlayer("p1")
	if !removed {
		t.Fatal("RemovePlayer failed")
	}

	if outcome := r.Buzz("p1"); outcome.Kind != BuzzIgnored {
		t.Errorf("buzz racing a disconnect must be dropped, got %v", outcome.Kind)
	}
}

func TestRoom_NegativeReactionRejected(t *testing.T) {
	r, clock := hostedRoom(t)
	r.AddPlayer("p1", "Ann")
	r.Start("host")

	// simulate a sequencing fault: start instant in the future
	r.mutex.Lock()
	r.startedAt = clock.Now().Add(time.Hour)
	r.mutex.Unlock()

	outcome := r.Buzz("p1")
	if outcome.Kind != BuzzIgnored {
		t.Fatalf("negative reaction must be silently rejected, got %v", outcome.Kind)
	}
	if len(r.Results()) != 0 {
		t.Error("rejected buzz must not be recorded")
	}
	// the player stays waiting and may buzz again once time is sane
	r.mutex.Lock()
	r.startedAt = clock.Now().Add(-100 * time.Millisecond)
	r.mutex.Unlock()
	if outcome := r.Buzz("p1"); outcome.Kind != BuzzScored {
		t.Errorf("player should remain eligible after a rejected buzz, got %v", outcome.Kind)
	}
}

func TestRoom_ResetClearsAndReportsFinishedRound(t *testing.T) {
	r, clock := hostedRoom(t)
	r.AddPlayer("p1", "Ann")
	r.Start("host")
	clock.Advance(200 * time.Millisecond)
	r.Buzz("p1")

	outcome, err := r.Reset("host")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if outcome.FinishedRound == nil {
		t.Fatal("reset after a scored round should report the finished round")
	}
	if len(outcome.FinishedRound.Results) != 1 || outcome.FinishedRound.Results[0].Name != "Ann" {
		t.Errorf("unexpected archived results: %+v", outcome.FinishedRound.Results)
	}

	if r.Status() != StatusWaiting {
		t.Errorf("room should be waiting after reset, got %v", r.Status())
	}
	if len(r.Results()) != 0 {
		t.Error("results should be cleared by reset")
	}

	// resetting an untouched room reports nothing to archive
	outcome, err = r.Reset("host")
	if err != nil {
		t.Fatalf("second reset failed: %v", err)
	}
	if outcome.FinishedRound != nil {
		t.Error("reset without results should not report a finished round")
	}
}

func TestRoom_AddPlayerReusesEntry(t *testing.T) {
	r, _ := hostedRoom(t)
	r.AddPlayer("p1", "Ann")
	r.Buzz("p1") // foul

	// duplicate join delivery for the same connection keeps the entry
	roster, status, err := r.AddPlayer("p1", "Ann")
	if err != nil {
		t.Fatalf("duplicate delivery should reuse the entry, got %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected 1 roster entry, got %d", len(roster))
	}
	if roster[0].Status != "foul" {
		t.Errorf("existing entry must be reused, got status %s", roster[0].Status)
	}
	if status != "waiting" {
		t.Errorf("expected room status waiting, got %s", status)
	}
}

func TestRoom_AddPlayerRejectsDuplicateName(t *testing.T) {
	r, _ := hostedRoom(t)
	if _, _, err := r.AddPlayer("p1", "Ann"); err != nil {
		t.Fatalf("first join should succeed, got %v", err)
	}

	if _, _, err := r.AddPlayer("p2", "Ann"); err != ErrNameTaken {
		t.Fatalf("second connection with the same name should get ErrNameTaken, got %v", err)
	}
	if r.PlayerCount() != 1 {
		t.Errorf("rejected join must not enter the room, got %d players", r.PlayerCount())
	}

	// the name is free again once its holder leaves
	r.RemovePlayer("p1")
	if _, _, err := r.AddPlayer("p2", "Ann"); err != nil {
		t.Errorf("name should be reusable after its holder left, got %v", err)
	}
}

func TestRoom_ConcurrentSameNameJoinsAdmitOne(t *testing.T) {
	r, _ := hostedRoom(t)

	const contenders = 8
	start := make(chan struct{})
	errs := make(chan error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			<-start
			_, _, err := r.AddPlayer(fmt.Sprintf("conn-%d", id), "Ann")
			errs <- err
		}(i)
	}
	close(start)
	wg.Wait()
	close(errs)

	admitted := 0
	for err := range errs {
		if err == nil {
			admitted++
		} else if err != ErrNameTaken {
			t.Errorf("unexpected join error: %v", err)
		}
	}
	if admitted != 1 {
		t.Errorf("exactly one racing join may win the name, got %d", admitted)
	}
	if r.PlayerCount() != 1 {
		t.Errorf("expected 1 player after the race, got %d", r.PlayerCount())
	}
}

func TestRoom_IsIdle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRoom("IDLE01", "Idle", clock)

	clock.Advance(time.Hour)
	if !r.IsIdle(10 * time.Minute) {
		t.Error("empty hostless room past the TTL should be idle")
	}

	r.AddPlayer("p1", "Ann")
	clock.Advance(time.Hour)
	if r.IsIdle(10 * time.Minute) {
		t.Error("a room with players is never idle")
	}

	r.RemovePlayer("p1")
	if r.IsIdle(10 * time.Minute) {
		t.Error("activity resets the idle window")
	}
	clock.Advance(11 * time.Minute)
	if !r.IsIdle(10 * time.Minute) {
		t.Error("room should go idle again after the TTL")
	}
}
