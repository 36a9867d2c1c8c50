package kings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RecentHistory is how many past punishments are sent back to the
// generator.
const RecentHistory = 10

// Punishment is one generated phrase in every display language.
type Punishment struct {
	KO    string `json:"ko"`
	EN    string `json:"en"`
	TL    string `json:"tl"`
	Emoji string `json:"emoji"`
}

// Fallback is what everyone gets when the generator lets us down.
var Fallback = Punishment{
	KO:    "다같이 한잔해! (오류 발생)",
	EN:    "Everyone drink! (Error occurred)",
	TL:    "Tagay tayong lahat! (May Error)",
	Emoji: "🍻",
}

// Text returns the phrase for the given display language.
func (p Punishment) Text(l Language) string {
	switch l {
	case LanguageKorean:
		return p.KO
	case LanguageTagalog:
		return p.TL
	}
	return p.EN
}

// Validate reports ErrMalformedReply unless all four fields are present.
func (p Punishment) Validate() error {
	fields := []struct{ name, value string }{
		{"ko", p.KO}, {"en", p.EN}, {"tl", p.TL}, {"emoji", p.Emoji},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: missing %q", ErrMalformedReply, f.name)
		}
	}

	return nil
}

// Pairing says who the punishment is allowed to involve.
type Pairing string

const (
	// PairingExclusive: the loser has a partner and only those two take part.
	PairingExclusive Pairing = "exclusive"
	// PairingOpen: the loser is single and may interact with the target.
	PairingOpen Pairing = "open"
)

// AnyoneTarget is used when the loser has nobody else to pick on.
const AnyoneTarget = "Anyone"

// Request is everything the generator is told about a round.
type Request struct {
	Winner    string    `json:"winner"`
	Target    string    `json:"target"`
	Pairing   Pairing   `json:"pairing"`
	Mode      Mode      `json:"mode"`
	Intensity Intensity `json:"intensity"`
	// History holds at most RecentHistory entries, oldest first.
	History   []string   `json:"history"`
	Languages []Language `json:"languages"`
}

// Compose builds the request for winner. A partner is always the target;
// otherwise one of the other players is picked at random.
func Compose(winner Player, roster *Roster, history []string, mode Mode, intensity Intensity, rng Random) Request {
	req := Request{
		Winner:    winner.Name,
		Pairing:   PairingOpen,
		Mode:      mode,
		Intensity: intensity,
		History:   recent(history, RecentHistory),
		Languages: append([]Language(nil), Languages...),
	}

	if partner, ok := roster.Partner(winner); ok {
		req.Target = partner.Name
		req.Pairing = PairingExclusive

		return req
	}

	others := make([]Player, 0, roster.Len())
	for _, p := range roster.Players() {
		if p.ID != winner.ID {
			others = append(others, p)
		}
	}

	if len(others) == 0 {
		req.Target = AnyoneTarget
	} else {
		req.Target = others[rng.Intn(len(others))].Name
	}

	return req
}

func recent(history []string, n int) []string {
	if len(history) > n {
		history = history[len(history)-n:]
	}

	return append([]string{}, history...)
}

// Prompt renders the request as instructions for a text model.
func (r Request) Prompt() string {
	var b strings.Builder

	relationship := fmt.Sprintf("%s is SINGLE. They can interact with %s.", r.Winner, r.Target)
	if r.Pairing == PairingExclusive {
		relationship = fmt.Sprintf("CRITICAL RULE: %s is a COUPLE with %s. The punishment MUST involve ONLY these two interacting. Do NOT involve others in physical contact.", r.Winner, r.Target)
	}

	history, err := json.Marshal(r.History)
	if err != nil || r.History == nil {
		history = []byte("[]")
	}

	b.WriteString("Context: We are playing an adult party game (King's Game / Roulette).\n")
	fmt.Fprintf(&b, "Winner/Victim: %s\n", r.Winner)
	fmt.Fprintf(&b, "Partner/Target: %s\n", r.Target)
	fmt.Fprintf(&b, "Relationship Status: %s\n", relationship)
	fmt.Fprintf(&b, "Intensity Level: %s (Description: %s)\n\n", strings.ToUpper(string(r.Intensity)), r.Intensity.Description())
	b.WriteString("Previous Punishments (AVOID THESE):\n")
	b.Write(history)
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("1. Create a unique punishment for the Winner.\n")
	b.WriteString("2. Ideally, it involves the Partner/Target.\n")
	b.WriteString("3. Occasionally (10% chance), make EVERYONE do something.\n")
	b.WriteString("4. Provide the result in 3 languages: Korean (ko), English (en), and Tagalog (tl).\n")
	b.WriteString("5. Keep it short and clear.\n\n")
	b.WriteString("Return JSON with 'ko', 'en', 'tl', and 'emoji'.\n")

	return b.String()
}

// Generator produces a punishment for a request. Implementations talk to
// a text model; they may fail in any way they like.
type Generator interface {
	Generate(ctx context.Context, req Request) (Punishment, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Punishment, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Punishment, error) {
	return f(ctx, req)
}

// Orchestrator calls the generator once per round and never fails: any
// error, timeout, malformed reply or panic becomes the Fallback.
type Orchestrator struct {
	Generator Generator
	// Timeout bounds the generator call. Zero means no extra bound.
	Timeout time.Duration
	Logf    func(format string, args ...any)
}

// Punish returns the punishment for req, and whether it came from the
// generator rather than the fallback. It returns once the generator replies
// or ctx (bounded by Timeout) is done, whichever comes first.
func (o *Orchestrator) Punish(ctx context.Context, req Request) (Punishment, bool) {
	if o.Generator == nil {
		o.logf("generate punishment for %q: %v", req.Winner, ErrNoGenerator)

		return Fallback, false
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	type reply struct {
		p   Punishment
		err error
	}

	replies := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				replies <- reply{err: fmt.Errorf("generator panicked: %v", r)}
			}
		}()

		p, err := o.Generator.Generate(ctx, req)
		replies <- reply{p: p, err: err}
	}()

	var r reply
	select {
	case r = <-replies:
		if r.err == nil {
			r.err = r.p.Validate()
		}
	case <-ctx.Done():
		r.err = ctx.Err()
	}

	if r.err != nil {
		o.logf("generate punishment for %q: %v", req.Winner, r.err)

		return Fallback, false
	}

	return r.p, true
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}
