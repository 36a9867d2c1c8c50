package kings

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func newTestSession(t *testing.T, rng Random, names ...string) *Session {
	t.Helper()

	s := NewSession(NewRoster(sequentialIDs()), rng, DefaultTiming)
	for _, name := range names {
		if _, err := s.AddPlayer(name); err != nil {
			t.Fatalf("add %q: %v", name, err)
		}
	}

	return s
}

// spinToResult spins the wheel and stops it, returning the pending request.
func spinToResult(t *testing.T, s *Session) Pending {
	t.Helper()

	_, ticket, err := s.Spin()
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	pending, err := s.StopWheel(ticket)
	if err != nil {
		t.Fatalf("stop wheel: %v", err)
	}

	return pending
}

func TestSessionStartNeedsTwoPlayers(t *testing.T) {
	s := newTestSession(t, &fixedRandom{}, "solo")

	if err := s.Start(); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("start err = %v, want ErrNotEnoughPlayers", err)
	}
	if s.Phase() != PhaseSetup || s.Round() != 0 {
		t.Fatalf("refused start changed state: %s round %d", s.Phase(), s.Round())
	}

	if _, err := s.AddPlayer("duo"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Phase() != PhasePlaying || s.Round() != 1 || s.Wheel() == nil {
		t.Fatalf("unexpected state after start: %s round %d", s.Phase(), s.Round())
	}
}

func TestSessionSetupOnlyActions(t *testing.T) {
	s := newTestSession(t, &fixedRandom{}, "A", "B")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	checks := map[string]error{
		"add":       func() error { _, err := s.AddPlayer("C"); return err }(),
		"remove":    s.RemovePlayer("p1"),
		"partner":   s.SetPartner("p1", "p2"),
		"mode":      s.SetMode(ModeSurvival),
		"intensity": s.SetIntensity(IntensityMild),
		"start":     s.Start(),
		"next":      s.Next(),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrWrongPhase) {
			t.Errorf("%s err = %v, want ErrWrongPhase", name, err)
		}
	}

	if s.Roster.Len() != 2 || s.Mode() != ModeWheel || s.Intensity() != IntensitySpicy {
		t.Fatal("refused actions changed the session")
	}

	if err := s.SetLanguage(LanguageTagalog); err != nil {
		t.Fatalf("set language while playing: %v", err)
	}
	if err := s.SetLanguage("fr"); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("set language fr err = %v, want ErrInvalidSetting", err)
	}
	if s.Language() != LanguageTagalog {
		t.Fatalf("language = %s", s.Language())
	}
}

func TestSessionRejectsUnknownSettings(t *testing.T) {
	s := newTestSession(t, &fixedRandom{})

	if err := s.SetMode("darts"); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("mode err = %v", err)
	}
	if err := s.SetIntensity("volcanic"); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("intensity err = %v", err)
	}
	if s.Mode() != ModeWheel || s.Intensity() != IntensitySpicy {
		t.Fatal("defaults changed")
	}
}

func TestSessionPairedWheelRound(t *testing.T) {
	s := newTestSession(t, &fixedRandom{values: []int{0}}, "A", "B")
	if err := s.SetPartner("p1", "p2"); err != nil {
		t.Fatalf("pair: %v", err)
	}
	if err := s.SetIntensity(IntensitySpicy); err != nil {
		t.Fatalf("intensity: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	pending := spinToResult(t, s)

	if pending.Outcome.Player.Name != "A" {
		t.Fatalf("wheel picked %q, want A", pending.Outcome.Player.Name)
	}
	if pending.Request.Pairing != PairingExclusive || pending.Request.Target != "B" {
		t.Fatalf("request = %+v, want exclusive with B", pending.Request)
	}
	if pending.Request.Intensity != IntensitySpicy || pending.Request.Mode != ModeWheel {
		t.Fatalf("request settings = %+v", pending.Request)
	}

	if s.Phase() != PhaseResult || !s.Loading() {
		t.Fatalf("expected loading result, got %s loading=%v", s.Phase(), s.Loading())
	}

	if err := s.Next(); !errors.Is(err, ErrPunishmentPending) {
		t.Fatalf("next while loading err = %v, want ErrPunishmentPending", err)
	}

	o := &Orchestrator{Generator: GeneratorFunc(func(_ context.Context, req Request) (Punishment, error) {
		return Punishment{
			KO:    req.Target + "에게 러브샷",
			EN:    "Love shot with " + req.Target,
			TL:    "Love shot kasama si " + req.Target,
			Emoji: "🥂",
		}, nil
	})}
	p, generated := o.Punish(context.Background(), pending.Request)
	if err := s.ApplyPunishment(pending.Ticket, p, generated); err != nil {
		t.Fatalf("apply: %v", err)
	}

	v := s.View()
	if v.Phase != PhaseResult || v.Loading {
		t.Fatalf("view phase %s loading %v", v.Phase, v.Loading)
	}
	if v.Outcome == nil || v.Outcome.Player.Name != "A" {
		t.Fatalf("view outcome %+v", v.Outcome)
	}
	if v.Punishment == nil || v.Punishment.KO == "" || v.Punishment.EN == "" || v.Punishment.TL == "" {
		t.Fatalf("view punishment %+v", v.Punishment)
	}
	if v.Punishment.EN != "Love shot with B" {
		t.Fatalf("punishment does not reference B: %q", v.Punishment.EN)
	}
	if v.Text != v.Punishment.KO {
		t.Fatalf("text = %q, want the Korean phrase", v.Text)
	}
	if got := s.History(); len(got) != 1 || got[0] != "Love shot with B" {
		t.Fatalf("history = %v", got)
	}
}

func TestSessionHistoryAccumulates(t *testing.T) {
	s := newTestSession(t, NewRandom(3), "A", "B", "C")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	var want []string
	for i := 0; i < 12; i++ {
		pending := spinToResult(t, s)

		p := testPunishment
		p.EN = fmt.Sprintf("punishment %d", i)
		if err := s.ApplyPunishment(pending.Ticket, p, true); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		want = append(want, p.EN)

		if err := s.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if s.Round() != i+2 {
			t.Fatalf("round = %d, want %d", s.Round(), i+2)
		}
	}

	got := s.History()
	if len(got) != len(want) {
		t.Fatalf("history length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	pending := spinToResult(t, s)
	if len(pending.Request.History) != RecentHistory || pending.Request.History[RecentHistory-1] != "punishment 11" {
		t.Fatalf("request history = %v", pending.Request.History)
	}
}

func TestSessionFallbackIsNotHistory(t *testing.T) {
	s := newTestSession(t, &fixedRandom{}, "A", "B")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	pending := spinToResult(t, s)
	if err := s.ApplyPunishment(pending.Ticket, Fallback, false); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.Punishment() == nil || *s.Punishment() != Fallback {
		t.Fatal("fallback not shown")
	}
	if len(s.History()) != 0 {
		t.Fatalf("history = %v, want empty", s.History())
	}
}

func TestSessionStaleReplyAfterNext(t *testing.T) {
	s := newTestSession(t, &fixedRandom{}, "A", "B")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	first := spinToResult(t, s)
	if err := s.ApplyPunishment(first.Ticket, testPunishment, true); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.ApplyPunishment(first.Ticket, testPunishment, true); !errors.Is(err, ErrStale) {
		t.Fatalf("second apply err = %v, want ErrStale", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	second := spinToResult(t, s)
	if second.Ticket.Round != first.Ticket.Round+1 {
		t.Fatalf("second ticket %+v after %+v", second.Ticket, first.Ticket)
	}

	if err := s.ApplyPunishment(first.Ticket, Fallback, false); !errors.Is(err, ErrStale) {
		t.Fatalf("stale apply err = %v, want ErrStale", err)
	}
	if s.Punishment() != nil || !s.Loading() {
		t.Fatal("stale reply changed the current round")
	}
	if len(s.History()) != 1 {
		t.Fatalf("history = %v", s.History())
	}
}

func TestSessionStaleEventsAfterBack(t *testing.T) {
	s := newTestSession(t, &fixedRandom{}, "A", "B")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, oldSpin, err := s.Spin()
	if err != nil {
		t.Fatalf("spin: %v", err)
	}

	s.Back()
	if s.Phase() != PhaseSetup || s.Round() != 0 || s.Wheel() != nil {
		t.Fatalf("back left state behind: %s round %d", s.Phase(), s.Round())
	}

	if err := s.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if s.Round() != 1 {
		t.Fatalf("round after restart = %d, want 1", s.Round())
	}
	if _, _, err := s.Spin(); err != nil {
		t.Fatalf("spin after restart: %v", err)
	}

	// Same round number, different epoch: the old timer must not stop the
	// new spin.
	if _, err := s.StopWheel(oldSpin); !errors.Is(err, ErrStale) {
		t.Fatalf("stale stop err = %v, want ErrStale", err)
	}
	if !s.Wheel().Spinning() || s.Phase() != PhasePlaying {
		t.Fatal("stale stop resolved the new spin")
	}

	pending, err := s.StopWheel(s.Ticket())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}

	s.Back()
	if err := s.ApplyPunishment(pending.Ticket, testPunishment, true); !errors.Is(err, ErrStale) {
		t.Fatalf("apply after back err = %v, want ErrStale", err)
	}
	if s.Punishment() != nil || len(s.History()) != 0 {
		t.Fatal("abandoned reply was applied")
	}
}

func TestSessionSurvivalRound(t *testing.T) {
	// Bomb under fuse 2, then the target pick.
	s := newTestSession(t, &fixedRandom{values: []int{2, 0}}, "A", "B", "C")
	if err := s.SetMode(ModeSurvival); err != nil {
		t.Fatalf("mode: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, _, err := s.Spin(); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("spin in survival err = %v, want ErrWrongMode", err)
	}

	for _, slot := range []int{0, 1} {
		exploded, _, err := s.Cut(slot)
		if err != nil || exploded {
			t.Fatalf("cut %d = %v, %v", slot, exploded, err)
		}
	}

	v := s.View()
	if v.Survival == nil || v.Survival.TurnName != "C" {
		t.Fatalf("survival view %+v", v.Survival)
	}

	exploded, ticket, err := s.Cut(2)
	if err != nil || !exploded {
		t.Fatalf("cut bomb = %v, %v", exploded, err)
	}
	if s.Phase() != PhasePlaying {
		t.Fatalf("phase before settle = %s", s.Phase())
	}
	if _, _, err := s.Cut(3); !errors.Is(err, ErrExploded) {
		t.Fatalf("cut after explosion err = %v", err)
	}

	pending, err := s.Detonate(ticket)
	if err != nil {
		t.Fatalf("detonate: %v", err)
	}
	if pending.Outcome.Index != 2 || pending.Outcome.Player.Name != "C" {
		t.Fatalf("outcome = %+v, want C", pending.Outcome)
	}
	if pending.Request.Pairing != PairingOpen || pending.Request.Target != "A" {
		t.Fatalf("request = %+v", pending.Request)
	}
	if _, err := s.Detonate(ticket); !errors.Is(err, ErrStale) {
		t.Fatalf("second detonate err = %v, want ErrStale", err)
	}
}

func TestSessionNextRebuildsEngine(t *testing.T) {
	s := newTestSession(t, &fixedRandom{values: []int{4}}, "A", "B")
	if err := s.SetMode(ModeSurvival); err != nil {
		t.Fatalf("mode: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	first := s.Survival()
	exploded, ticket, err := s.Cut(4)
	if err != nil || !exploded {
		t.Fatalf("cut = %v, %v", exploded, err)
	}
	pending, err := s.Detonate(ticket)
	if err != nil {
		t.Fatalf("detonate: %v", err)
	}
	if err := s.ApplyPunishment(pending.Ticket, testPunishment, true); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	if s.Survival() == first {
		t.Fatal("next round reused the engine")
	}
	if s.Survival().Remaining() != FuseCount || s.Survival().Turn() != 0 {
		t.Fatal("new engine is not fresh")
	}
	if s.Outcome() != nil || s.Punishment() != nil || s.Loading() {
		t.Fatal("next round kept the previous result")
	}
}

func TestViewHidesBomb(t *testing.T) {
	s := newTestSession(t, &fixedRandom{values: []int{7}}, "A", "B")
	if err := s.SetMode(ModeSurvival); err != nil {
		t.Fatalf("mode: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, f := range s.View().Survival.Fuses {
		if f != FuseIntact {
			t.Fatalf("fresh view shows %q", f)
		}
	}

	v := s.View()
	if v.Labels["survivalTitle"] != "지뢰를 피하세요!" {
		t.Fatalf("labels = %v", v.Labels)
	}
}
