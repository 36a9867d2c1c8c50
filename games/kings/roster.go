package kings

import (
	"strings"

	"github.com/google/uuid"
)

// Palette is cycled through as players are added.
var Palette = []string{
	"#FF0055", "#0033FF", "#00CC44", "#FFCC00", "#9900FF", "#FF6600", "#00CCFF", "#FF00CC",
}

// Player is one person at the table.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	PartnerID string `json:"partner_id,omitempty"`
}

// Roster is the ordered list of players. Order matters: it assigns colors
// and lays out the wheel segments.
//
// Pairings are kept symmetric and exclusive by every method: if A.PartnerID
// is B then B.PartnerID is A, and nobody has more than one partner.
type Roster struct {
	players []Player
	newID   func() string
}

// NewRoster returns an empty roster. If newID is nil, random UUIDs are used.
func NewRoster(newID func() string) *Roster {
	if newID == nil {
		newID = uuid.NewString
	}

	return &Roster{newID: newID}
}

func (r *Roster) Len() int {
	return len(r.players)
}

// Players returns a copy of the roster in order.
func (r *Roster) Players() []Player {
	out := make([]Player, len(r.players))
	copy(out, r.players)

	return out
}

// At returns the player at index i.
func (r *Roster) At(i int) Player {
	return r.players[i]
}

// Get looks a player up by id.
func (r *Roster) Get(id string) (Player, bool) {
	i := r.index(id)
	if i < 0 {
		return Player{}, false
	}

	return r.players[i], true
}

// Partner returns p's partner, if p has one.
func (r *Roster) Partner(p Player) (Player, bool) {
	if p.PartnerID == "" {
		return Player{}, false
	}

	return r.Get(p.PartnerID)
}

// Add appends a player named name, trimmed. Names that trim to nothing are
// refused.
func (r *Roster) Add(name string) (Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, ErrEmptyName
	}

	p := Player{
		ID:    r.newID(),
		Name:  name,
		Color: Palette[len(r.players)%len(Palette)],
	}
	r.players = append(r.players, p)

	return p, nil
}

// Remove drops the player with the given id and clears their partner's
// back-reference.
func (r *Roster) Remove(id string) error {
	if r.index(id) < 0 {
		return ErrUnknownPlayer
	}

	dst := r.players[:0]
	for _, p := range r.players {
		if p.ID == id {
			continue
		}
		if p.PartnerID == id {
			p.PartnerID = ""
		}
		dst = append(dst, p)
	}
	clear(r.players[len(dst):])
	r.players = dst

	return nil
}

// SetPartner pairs id with partnerID, or unpairs id when partnerID is empty.
// Any existing pairing on either side is dissolved first. Refused calls
// leave the roster untouched.
func (r *Roster) SetPartner(id, partnerID string) error {
	a := r.index(id)
	if a < 0 {
		return ErrUnknownPlayer
	}

	if partnerID == "" {
		r.unpair(a)

		return nil
	}

	if partnerID == id {
		return ErrSelfPairing
	}

	b := r.index(partnerID)
	if b < 0 {
		return ErrUnknownPlayer
	}

	r.unpair(a)
	r.unpair(b)

	r.players[a].PartnerID = partnerID
	r.players[b].PartnerID = id

	return nil
}

func (r *Roster) unpair(i int) {
	old := r.players[i].PartnerID
	r.players[i].PartnerID = ""

	if j := r.index(old); j >= 0 && r.players[j].PartnerID == r.players[i].ID {
		r.players[j].PartnerID = ""
	}
}

func (r *Roster) index(id string) int {
	if id == "" {
		return -1
	}

	for i := range r.players {
		if r.players[i].ID == id {
			return i
		}
	}

	return -1
}
