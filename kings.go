// King's Game
//
// One device (or several, via the QR code) drives a table of players. The
// server keeps the whole game per game ID; browsers only send actions and
// render the state they are sent back.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - Setup: add/remove players, pair couples, pick mode, intensity and language
// - Roulette: spin the wheel, the loser is wherever the pointer stops
// - Survival: take turns cutting fuses until someone hits the bomb
// - Punishments generated in Korean, English and Tagalog
// - Spin and explosion timers run server-side so every screen agrees on the loser
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	_ "embed"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/kingsgame/games/kings"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var errUnknownAction = errors.New("unknown action")

// Messages coming from clients
type ClientMessage struct {
	Type      string `json:"type"`                 // "add_player", "remove_player", "set_partner", "set_mode", "set_intensity", "set_language", "start", "spin", "choose", "next", "back"
	Name      string `json:"name,omitempty"`       // add_player
	PlayerID  string `json:"player_id,omitempty"`  // remove_player / set_partner
	PartnerID string `json:"partner_id,omitempty"` // set_partner, empty to unpair
	Value     string `json:"value,omitempty"`      // set_mode / set_intensity / set_language
	Slot      *int   `json:"slot,omitempty"`       // choose
}

// StateMessage carries the full game state after every change.
type StateMessage struct {
	Type  string     `json:"type"` // "state"
	Game  string     `json:"game"`
	State kings.View `json:"state"`
}

// ErrorMessage is sent only to the client whose action was refused.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type actionRequest struct {
	client *Client
	msg    ClientMessage
}

// Events posted back to the hub by timers and generator calls.
type wheelStopped struct {
	ticket kings.Ticket
}

type bombSettled struct {
	ticket kings.Ticket
}

type punishmentReady struct {
	ticket     kings.Ticket
	punishment kings.Punishment
	generated  bool
}

// Hub owns one game. Every change to the session happens on the run
// goroutine.
type Hub struct {
	id      string
	clients map[*Client]bool
	session *kings.Session
	punish  *kings.Orchestrator

	register chan *Client
	unreg    chan *Client
	actions  chan actionRequest
	events   chan any

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
}

func newHub(gameID string, session *kings.Session, punish *kings.Orchestrator) *Hub {
	now := time.Now()
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		session:    session,
		punish:     punish,
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan actionRequest),
		events:     make(chan any, 8),
		ctx:        ctx,
		cancel:     cancel,
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()

			return

		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true
			h.mu.Unlock()

			h.sendTo(c, h.stateMessage())

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case a := <-h.actions:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.mu.Unlock()

			if err := h.handleAction(cfg, a.msg); err != nil {
				h.sendTo(a.client, ErrorMessage{
					Type:    "error",
					Message: err.Error(),
				})

				continue
			}

			h.broadcastState()

		case e := <-h.events:
			if h.handleEvent(cfg, e) {
				h.broadcastState()
			}
		}
	}
}

// stop shuts the hub down and abandons any generator call in flight.
func (h *Hub) stop() {
	h.once.Do(h.cancel)
}

// post hands an event to the run loop, unless the hub is gone.
func (h *Hub) post(e any) {
	select {
	case h.events <- e:
	case <-h.ctx.Done():
	}
}

func (h *Hub) handleAction(cfg *Config, msg ClientMessage) error {
	s := h.session

	switch msg.Type {
	case "add_player":
		p, err := s.AddPlayer(msg.Name)
		if err != nil {
			return err
		}
		logf(cfg, "GAMES: Player %q joined %s", p.Name, h.id)

	case "remove_player":
		return s.RemovePlayer(msg.PlayerID)

	case "set_partner":
		return s.SetPartner(msg.PlayerID, msg.PartnerID)

	case "set_mode":
		m, err := kings.ParseMode(msg.Value)
		if err != nil {
			return err
		}
		return s.SetMode(m)

	case "set_intensity":
		i, err := kings.ParseIntensity(msg.Value)
		if err != nil {
			return err
		}
		return s.SetIntensity(i)

	case "set_language":
		l, err := kings.ParseLanguage(msg.Value)
		if err != nil {
			return err
		}
		return s.SetLanguage(l)

	case "start":
		if err := s.Start(); err != nil {
			return err
		}
		logf(cfg, "GAMES: Round %d of %s started (%s, %s)", s.Round(), h.id, s.Mode(), s.Intensity())

	case "next":
		if err := s.Next(); err != nil {
			return err
		}
		logf(cfg, "GAMES: Round %d of %s started (%s, %s)", s.Round(), h.id, s.Mode(), s.Intensity())

	case "back":
		s.Back()

	case "spin":
		spin, ticket, err := s.Spin()
		if err != nil {
			return err
		}
		time.AfterFunc(spin.Duration, func() {
			h.post(wheelStopped{ticket: ticket})
		})

	case "choose":
		if msg.Slot == nil {
			return kings.ErrSlotOutOfRange
		}
		exploded, ticket, err := s.Cut(*msg.Slot)
		if err != nil {
			return err
		}
		if exploded {
			time.AfterFunc(s.Survival().Settle(), func() {
				h.post(bombSettled{ticket: ticket})
			})
		}

	default:
		return errUnknownAction
	}

	return nil
}

// handleEvent applies a timer or generator result, and reports whether the
// state changed.
func (h *Hub) handleEvent(cfg *Config, e any) bool {
	switch ev := e.(type) {
	case wheelStopped:
		pending, err := h.session.StopWheel(ev.ticket)
		if err != nil {
			logf(cfg, "GAMES: Ignoring wheel stop in %s: %v", h.id, err)
			return false
		}
		h.requestPunishment(cfg, pending)

	case bombSettled:
		pending, err := h.session.Detonate(ev.ticket)
		if err != nil {
			logf(cfg, "GAMES: Ignoring explosion in %s: %v", h.id, err)
			return false
		}
		h.requestPunishment(cfg, pending)

	case punishmentReady:
		if err := h.session.ApplyPunishment(ev.ticket, ev.punishment, ev.generated); err != nil {
			logf(cfg, "GAMES: Discarding punishment for round %d in %s: %v", ev.ticket.Round, h.id, err)
			return false
		}

	default:
		return false
	}

	return true
}

func (h *Hub) requestPunishment(cfg *Config, pending kings.Pending) {
	logf(cfg, "GAMES: %q lost round %d of %s, target %q (%s)",
		pending.Outcome.Player.Name, pending.Ticket.Round, h.id, pending.Request.Target, pending.Request.Pairing)

	go func() {
		p, generated := h.punish.Punish(h.ctx, pending.Request)
		h.post(punishmentReady{
			ticket:     pending.Ticket,
			punishment: p,
			generated:  generated,
		})
	}()
}

func (h *Hub) stateMessage() StateMessage {
	return StateMessage{
		Type:  "state",
		Game:  h.id,
		State: h.session.View(),
	}
}

func (h *Hub) sendTo(c *Client, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastState() {
	msg := h.stateMessage()

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	timing      kings.Timing
	punish      *kings.Orchestrator
}

func newGameManager(idleTimeout time.Duration, timing kings.Timing, punish *kings.Orchestrator) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		timing:      timing,
		punish:      punish,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

// getHub returns the hub for gameID, creating it with the given display
// language if it does not exist yet.
func (gm *GameManager) getHub(cfg *Config, gameID string, lang kings.Language) (*Hub, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub, nil
	}

	seed, err := kings.NewSeed()
	if err != nil {
		return nil, err
	}

	session := kings.NewSession(nil, kings.NewRandom(seed), gm.timing)
	_ = session.SetLanguage(lang)

	hub := newHub(gameID, session, gm.punish)
	gm.hubs[gameID] = hub
	go hub.run(cfg)

	logf(cfg, "GAMES: Opened %s (%s)", gameID, lang)

	return hub, nil
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(max(gm.idleTimeout/2, time.Second))
	for range ticker.C {
		gm.reap(time.Now().Add(-gm.idleTimeout))
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			hub.stop()
		}
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub, err := gm.getHub(cfg, gameID, preferredLanguage(r))
		if err != nil {
			logf(cfg, "ERROR: open game %s: %v", gameID, err)
			http.Error(w, "unable to open game", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: upgrade %s: %v", realIP(r), err)
			return
		}
		conn.SetReadLimit(4096)

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
		}

		select {
		case hub.register <- client:
		case <-hub.ctx.Done():
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.ctx.Done():
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.actions <- actionRequest{client: c, msg: msg}:
		case <-h.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

//go:embed assets/kings/index.html
var indexHTML []byte

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Language", string(preferredLanguage(r)))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerKingsGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerKingsGame(cfg *Config, path string, mux *httprouter.Router, gm *GameManager) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)
}
