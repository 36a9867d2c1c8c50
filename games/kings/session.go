package kings

// Ticket identifies the round an asynchronous event belongs to. Round is
// the user-visible round counter, which goes back to zero on Back; Epoch
// never goes backwards, so a ticket from before a Back never matches again.
type Ticket struct {
	Round int    `json:"round"`
	Epoch uint64 `json:"epoch"`
}

// Outcome is the loser of a round.
type Outcome struct {
	Index  int    `json:"index"`
	Player Player `json:"player"`
}

// Pending is a punishment the caller has to fetch: pass Request to an
// Orchestrator and hand the result back with ApplyPunishment(Ticket, ...).
type Pending struct {
	Ticket  Ticket
	Outcome Outcome
	Request Request
}

// Session is the whole state of one table: the roster and settings chosen
// during setup, the engine for the current round, and the result.
//
//	Setup --Start--> Playing --outcome--> Result --Next--> Playing
//	  ^                 |                   |
//	  +------Back-------+-------Back--------+
//
// Start and Next build a fresh engine; the roster and the punishment
// history are the only things carried between rounds.
type Session struct {
	Roster *Roster

	rng    Random
	timing Timing

	phase     Phase
	mode      Mode
	intensity Intensity
	language  Language

	round int
	epoch uint64

	wheel    *Wheel
	survival *Survival

	outcome    *Outcome
	punishment *Punishment
	loading    bool
	history    []string
}

// NewSession returns a session in setup with an empty roster.
func NewSession(roster *Roster, rng Random, timing Timing) *Session {
	if roster == nil {
		roster = NewRoster(nil)
	}

	return &Session{
		Roster:    roster,
		rng:       rng,
		timing:    timing,
		phase:     PhaseSetup,
		mode:      ModeWheel,
		intensity: IntensitySpicy,
		language:  LanguageKorean,
	}
}

func (s *Session) Phase() Phase { return s.phase }
func (s *Session) Mode() Mode { return s.mode }
func (s *Session) Intensity() Intensity { return s.intensity }
func (s *Session) Language() Language { return s.language }
func (s *Session) Round() int { return s.round }
func (s *Session) Loading() bool { return s.loading }
func (s *Session) Timing() Timing { return s.timing }
func (s *Session) Wheel() *Wheel { return s.wheel }
func (s *Session) Survival() *Survival { return s.survival }
func (s *Session) Ticket() Ticket { return Ticket{Round: s.round, Epoch: s.epoch} }
func (s *Session) Outcome() *Outcome { return s.outcome }
func (s *Session) Punishment() *Punishment { return s.punishment }

// History returns the English text of every punishment so far.
func (s *Session) History() []string {
	return append([]string(nil), s.history...)
}

func (s *Session) AddPlayer(name string) (Player, error) {
	if s.phase != PhaseSetup {
		return Player{}, ErrWrongPhase
	}

	return s.Roster.Add(name)
}

func (s *Session) RemovePlayer(id string) error {
	if s.phase != PhaseSetup {
		return ErrWrongPhase
	}

	return s.Roster.Remove(id)
}

func (s *Session) SetPartner(id, partnerID string) error {
	if s.phase != PhaseSetup {
		return ErrWrongPhase
	}

	return s.Roster.SetPartner(id, partnerID)
}

func (s *Session) SetMode(m Mode) error {
	if s.phase != PhaseSetup {
		return ErrWrongPhase
	}
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}

	s.mode = m

	return nil
}

func (s *Session) SetIntensity(i Intensity) error {
	if s.phase != PhaseSetup {
		return ErrWrongPhase
	}
	if _, err := ParseIntensity(string(i)); err != nil {
		return err
	}

	s.intensity = i

	return nil
}

// SetLanguage switches the display language. It is allowed in every phase
// and touches nothing else.
func (s *Session) SetLanguage(l Language) error {
	if _, err := ParseLanguage(string(l)); err != nil {
		return err
	}

	s.language = l

	return nil
}

// Start leaves setup and begins round one.
func (s *Session) Start() error {
	if s.phase != PhaseSetup {
		return ErrWrongPhase
	}
	if s.Roster.Len() < 2 {
		return ErrNotEnoughPlayers
	}

	s.newRound()

	return nil
}

// Next begins another round from the result screen. It is refused while
// the punishment for the current round is still being generated.
func (s *Session) Next() error {
	if s.phase != PhaseResult {
		return ErrWrongPhase
	}
	if s.loading {
		return ErrPunishmentPending
	}

	s.newRound()

	return nil
}

// Back returns to setup from anywhere, abandoning the round and any
// punishment still in flight.
func (s *Session) Back() {
	s.phase = PhaseSetup
	s.round = 0
	s.epoch++
	s.reset()
}

func (s *Session) newRound() {
	s.reset()
	s.round++
	s.epoch++
	s.phase = PhasePlaying

	switch s.mode {
	case ModeSurvival:
		s.survival = NewSurvival(s.Roster.Len(), s.timing.Settle, s.rng)
	default:
		s.wheel = NewWheel(s.Roster.Len(), s.timing.Spin, s.rng)
	}
}

func (s *Session) reset() {
	s.wheel = nil
	s.survival = nil
	s.outcome = nil
	s.punishment = nil
	s.loading = false
}

// Spin starts the wheel. Call StopWheel with the returned ticket once
// spin.Duration has passed.
func (s *Session) Spin() (Spin, Ticket, error) {
	if s.phase != PhasePlaying {
		return Spin{}, Ticket{}, ErrWrongPhase
	}
	if s.wheel == nil {
		return Spin{}, Ticket{}, ErrWrongMode
	}

	spin, err := s.wheel.Spin()
	if err != nil {
		return Spin{}, Ticket{}, err
	}

	return spin, s.Ticket(), nil
}

// StopWheel resolves the spin started under t and moves to the result.
func (s *Session) StopWheel(t Ticket) (Pending, error) {
	if t != s.Ticket() || s.phase != PhasePlaying || s.wheel == nil {
		return Pending{}, ErrStale
	}

	i, err := s.wheel.Stop()
	if err != nil {
		return Pending{}, err
	}

	return s.finish(i), nil
}

// Cut cuts a fuse for the current player. When it returns true the bomb
// went off: call Detonate with the returned ticket after the settle delay.
func (s *Session) Cut(slot int) (bool, Ticket, error) {
	if s.phase != PhasePlaying {
		return false, Ticket{}, ErrWrongPhase
	}
	if s.survival == nil {
		return false, Ticket{}, ErrWrongMode
	}

	exploded, err := s.survival.Cut(slot)
	if err != nil {
		return false, Ticket{}, err
	}

	return exploded, s.Ticket(), nil
}

// Detonate announces the survival loser for the round under t.
func (s *Session) Detonate(t Ticket) (Pending, error) {
	if t != s.Ticket() || s.phase != PhasePlaying || s.survival == nil {
		return Pending{}, ErrStale
	}

	i, err := s.survival.Loser()
	if err != nil {
		return Pending{}, err
	}

	return s.finish(i), nil
}

func (s *Session) finish(i int) Pending {
	winner := s.Roster.At(i)
	s.outcome = &Outcome{Index: i, Player: winner}
	s.punishment = nil
	s.loading = true
	s.phase = PhaseResult

	return Pending{
		Ticket:  s.Ticket(),
		Outcome: *s.outcome,
		Request: Compose(winner, s.Roster, s.history, s.mode, s.intensity, s.rng),
	}
}

// ApplyPunishment shows p for the round under t. Generated punishments are
// added to the history; fallbacks are not. Replies for a round that has
// already ended are refused with ErrStale and change nothing.
func (s *Session) ApplyPunishment(t Ticket, p Punishment, generated bool) error {
	if t != s.Ticket() || s.phase != PhaseResult || !s.loading {
		return ErrStale
	}

	s.punishment = &p
	s.loading = false

	if generated {
		s.history = append(s.history, p.EN)
	}

	return nil
}
