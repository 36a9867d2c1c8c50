package kings

// View is the read-only projection of a Session sent to clients. The bomb
// position is never part of it.
type View struct {
	Phase     Phase     `json:"phase"`
	Mode      Mode      `json:"mode"`
	Intensity Intensity `json:"intensity"`
	Language  Language  `json:"language"`
	Round     int       `json:"round"`
	Players   []Player  `json:"players"`
	CanStart  bool      `json:"can_start"`

	Wheel    *WheelView    `json:"wheel,omitempty"`
	Survival *SurvivalView `json:"survival,omitempty"`

	Outcome    *Outcome    `json:"outcome,omitempty"`
	Punishment *Punishment `json:"punishment,omitempty"`
	Text       string      `json:"text,omitempty"`
	Loading    bool        `json:"loading"`

	Labels map[string]string `json:"labels"`
}

// WheelView carries the spin animation length in DurationMS; the winner is
// resolved after exactly this long.
type WheelView struct {
	Rotation   int   `json:"rotation"`
	Spinning   bool  `json:"spinning"`
	DurationMS int64 `json:"duration_ms"`
}

type SurvivalView struct {
	Fuses    []FuseState `json:"fuses"`
	Turn     int         `json:"turn"`
	TurnName string      `json:"turn_name"`
	Color    string      `json:"color"`
	Exploded bool        `json:"exploded"`
}

// View projects the session for display.
func (s *Session) View() View {
	v := View{
		Phase:     s.phase,
		Mode:      s.mode,
		Intensity: s.intensity,
		Language:  s.language,
		Round:     s.round,
		Players:   s.Roster.Players(),
		CanStart:  s.phase == PhaseSetup && s.Roster.Len() >= 2,
		Loading:   s.loading,
		Labels:    Labels(s.language),
	}

	if s.wheel != nil {
		v.Wheel = &WheelView{
			Rotation:   s.wheel.Rotation(),
			Spinning:   s.wheel.Spinning(),
			DurationMS: s.timing.Spin.Milliseconds(),
		}
	}

	if s.survival != nil {
		turn := s.survival.Turn()
		p := s.Roster.At(turn)
		v.Survival = &SurvivalView{
			Fuses:    s.survival.Fuses(),
			Turn:     turn,
			TurnName: p.Name,
			Color:    p.Color,
			Exploded: s.survival.Exploded(),
		}
	}

	if s.outcome != nil {
		o := *s.outcome
		v.Outcome = &o
	}

	if s.punishment != nil {
		p := *s.punishment
		v.Punishment = &p
		v.Text = p.Text(s.language)
	}

	return v
}

var labels = map[Language]map[string]string{
	LanguageKorean: {
		"title": "왕게임", "setting": "설정", "mode": "게임 모드", "intensity": "수위 조절",
		"players": "참가자 & 커플 설정", "add": "추가", "start": "게임 시작", "input": "이름 입력",
		"partner": "커플/파트너", "wheel": "룰렛", "survival": "서바이벌",
		"mild": "순한맛", "spicy": "매운맛", "extreme": "19금",
		"wheelTitle": "누가 왕이 될까?", "survivalTitle": "지뢰를 피하세요!", "spin": "돌리기!",
		"turn": "현재 순서", "stabilizing": "코어 안정화 중...", "exploded": "폭발 감지!",
		"winner": "당첨", "next": "다음 라운드", "loading": "벌칙 생성 중...", "back": "처음으로", "share": "공유",
	},
	LanguageEnglish: {
		"title": "King's Game", "setting": "Setup", "mode": "Game Mode", "intensity": "Intensity",
		"players": "Players & Couples", "add": "Add", "start": "Start Game", "input": "Enter Name",
		"partner": "Partner", "wheel": "Roulette", "survival": "Survival",
		"mild": "Mild", "spicy": "Spicy", "extreme": "19+",
		"wheelTitle": "Who is the King?", "survivalTitle": "Avoid the Mine!", "spin": "SPIN!",
		"turn": "Current Turn", "stabilizing": "Stabilizing Core...", "exploded": "EXPLOSION DETECTED!",
		"winner": "Winner", "next": "Next Round", "loading": "Generating punishment...", "back": "Back", "share": "Share",
	},
	LanguageTagalog: {
		"title": "King's Game", "setting": "Setup", "mode": "Laro Mode", "intensity": "Intensity",
		"players": "Manlalaro & Partner", "add": "Dagdag", "start": "Simulan", "input": "Pangalan",
		"partner": "Partner", "wheel": "Roulette", "survival": "Survival",
		"mild": "Banayad", "spicy": "Maanghang", "extreme": "19+",
		"wheelTitle": "Sino ang Hari?", "survivalTitle": "Iwasan ang Bomba!", "spin": "IKOT!",
		"turn": "Turno ni", "stabilizing": "Pumili ng fuse...", "exploded": "Sumabog na!",
		"winner": "Panalo", "next": "Susunod", "loading": "Gumagawa ng parusa...", "back": "Bumalik", "share": "Ibahagi",
	},
}

// Labels returns a copy of the interface strings for l, falling back to
// English.
func Labels(l Language) map[string]string {
	src, ok := labels[l]
	if !ok {
		src = labels[LanguageEnglish]
	}

	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}

	return out
}
