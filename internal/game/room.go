package game

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
	"github.com/sanguosha-online/sgs-server-go/internal/game/skill"
)

// maxResolutionDepth caps reactive event chains; hitting it aborts the
// chain with ErrResolutionDepthExceeded, not the room.
const maxResolutionDepth = 10

// Notifier pushes events to clients. The websocket gateway implements it;
// tests use a recorder.
type Notifier interface {
	Notify(playerID string, ev rules.Event)
	Broadcast(ev rules.Event)
}

// Journal receives every dispatched event in order. Replay rebuilds room
// state from it.
type Journal interface {
	Append(ev rules.Event) error
}

// nopNotifier drops everything; rooms without a gateway use it.
type nopNotifier struct{}

func (nopNotifier) Notify(string, rules.Event) {}
func (nopNotifier) Broadcast(rules.Event)      {}

// Options configures a room.
type Options struct {
	ID         string
	Catalog    *catalog.Catalog
	Skills     *skill.Registry
	Notifier   Notifier
	Journal    Journal
	Logger     *zap.Logger
	AskTimeout time.Duration
	// Seed drives the deck shuffle; zero means time-based.
	Seed int64
}

// Room owns one game's timeline. All methods assume the caller holds the
// room's single writer slot (the manager's room goroutine); the ask table
// is the only internally synchronized piece, so answers can arrive from
// gateway goroutines while the room blocks in Ask.
type Room struct {
	id       string
	catalog  *catalog.Catalog
	skills   *skill.Registry
	notifier Notifier
	journal  Journal
	logger   *zap.Logger

	players  []*Player
	byID     map[string]*Player
	turn     *rules.TurnManager
	asks     *rules.AskTable
	rng      *rand.Rand

	drawStack    []int
	discardStack []int

	depth    int
	dyingID  string
	started  bool
	gameOver bool
	winners  []string
	losers   []string
}

// NewRoom creates an unstarted room. Players join before Start.
func NewRoom(opts Options) *Room {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Room{
		id:       opts.ID,
		catalog:  opts.Catalog,
		skills:   opts.Skills,
		notifier: opts.Notifier,
		journal:  opts.Journal,
		logger:   opts.Logger.With(zap.String("room_id", opts.ID)),
		byID:     map[string]*Player{},
		asks:     rules.NewAskTable(opts.AskTimeout),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// AddPlayer seats a player with a character and role. Rejected once the
// game started.
func (r *Room) AddPlayer(id, name string, characterID int, role Role) (*Player, error) {
	if r.started {
		return nil, rules.NewIllegalAction(id, "enter", "game already started")
	}
	if _, exists := r.byID[id]; exists {
		return nil, rules.NewIllegalAction(id, "enter", "already seated")
	}

	char, err := r.catalog.CharacterByID(characterID)
	if err != nil {
		return nil, err
	}

	p := NewPlayer(id, name, len(r.players))
	p.CharacterID = characterID
	p.Nationality = char.Nationality
	p.MaxHP = char.MaxHP
	p.HP = char.MaxHP
	p.Role = role
	p.ObtainSkills(char.SkillNames...)

	r.players = append(r.players, p)
	r.byID[id] = p

	enter := rules.NewEvent(rules.EventPlayerEnter, id)
	r.record(enter)
	r.notifier.Broadcast(enter)
	return p, nil
}

// Start shuffles the deck, deals opening hands, and dispatches GameStart.
// The first turn's prepare phase is entered; Run drives the rest.
func (r *Room) Start() error {
	if r.started {
		return rules.NewIllegalAction("", "start", "game already started")
	}
	if len(r.players) < 2 {
		return rules.NewIllegalAction("", "start", "need at least two players")
	}
	r.started = true

	r.drawStack = r.catalog.DeckOrder()
	r.rng.Shuffle(len(r.drawStack), func(i, j int) {
		r.drawStack[i], r.drawStack[j] = r.drawStack[j], r.drawStack[i]
	})

	seats := make([]string, len(r.players))
	for i, p := range r.players {
		seats[i] = p.ID
	}
	r.turn = rules.NewTurnManager(seats)

	ready := rules.NewEvent(rules.EventGameReady, "")
	r.record(ready)
	r.notifier.Broadcast(ready)

	// Opening hands: four cards each, no draw events before game start.
	for _, p := range r.players {
		for i := 0; i < 4 && len(r.drawStack) > 0; i++ {
			p.AddCard(rules.AreaHand, r.drawStack[0])
			r.drawStack = r.drawStack[1:]
		}
	}

	start := rules.NewEvent(rules.EventGameStart, "")
	start.Players = seats
	r.record(start)
	r.notifier.Broadcast(start)

	r.logger.Info("game started",
		zap.Int("players", len(r.players)),
		zap.Int("draw_stack", len(r.drawStack)))
	return nil
}

// Run plays turns until the game ends or the turn cap is hit (a safety for
// rooms whose players keep declining everything).
func (r *Room) Run(maxTurns int) error {
	for !r.gameOver {
		if maxTurns > 0 && r.turn.TurnNumber() > maxTurns {
			return fmt.Errorf("room %s: turn cap %d reached", r.id, maxTurns)
		}
		if err := r.PlayPhase(); err != nil {
			if rules.IsFatal(err) {
				return err
			}
			r.logger.Error("phase aborted", zap.Error(err))
		}
		if r.gameOver {
			break
		}
		if err := r.AdvancePhase(); err != nil {
			if rules.IsFatal(err) {
				return err
			}
			r.logger.Error("phase change aborted", zap.Error(err))
		}
	}
	return nil
}

// Queries. These implement skill.Room's read side.

func (r *Room) Catalog() *catalog.Catalog { return r.catalog }

func (r *Room) CurrentPlayerID() string {
	if r.turn == nil {
		return ""
	}
	return r.turn.CurrentPlayer()
}

func (r *Room) CurrentPhase() rules.PlayerPhase {
	if r.turn == nil {
		return rules.PhasePrepare
	}
	return r.turn.CurrentPhase()
}

func (r *Room) PlayerAlive(playerID string) bool {
	p, ok := r.byID[playerID]
	return ok && !p.Dead
}

func (r *Room) AlivePlayerIDs(fromID string) []string {
	if fromID == "" {
		fromID = r.CurrentPlayerID()
	}
	var out []string
	for _, id := range r.turn.SeatsFrom(fromID) {
		if r.PlayerAlive(id) {
			out = append(out, id)
		}
	}
	return out
}

func (r *Room) PlayerHP(playerID string) (int, int) {
	p, ok := r.byID[playerID]
	if !ok {
		return 0, 0
	}
	return p.HP, p.MaxHP
}

func (r *Room) PlayerCards(playerID string, areas ...rules.CardArea) []int {
	p, ok := r.byID[playerID]
	if !ok {
		return nil
	}
	return p.CardsIn(areas...)
}

func (r *Room) CardUseCount(playerID, cardName string) int {
	p, ok := r.byID[playerID]
	if !ok {
		return 0
	}
	return p.CardUseCount(cardName)
}

func (r *Room) SkillUseCount(playerID, skillName string) int {
	p, ok := r.byID[playerID]
	if !ok {
		return 0
	}
	return p.SkillUseCount(skillName)
}

func (r *Room) InvisibleMark(playerID, markName string) int {
	p, ok := r.byID[playerID]
	if !ok {
		return 0
	}
	return p.InvisibleMark(markName)
}

func (r *Room) SetInvisibleMark(playerID, markName string, amount int) {
	if p, ok := r.byID[playerID]; ok {
		p.SetInvisibleMark(markName, amount)
	}
}

func (r *Room) AddExtraHoldCards(playerID string, delta int) {
	if p, ok := r.byID[playerID]; ok {
		p.AddExtraHoldCards(delta)
	}
}

func (r *Room) SeatDistance(fromID, toID string) int {
	base := r.turn.SeatDistance(fromID, toID)
	if base < 0 {
		return -1
	}
	// Seat distance is symmetric-min in play; ride deltas shift it.
	reverse := r.turn.SeatDistance(toID, fromID)
	if reverse >= 0 && reverse < base {
		base = reverse
	}
	base += r.distanceDelta(fromID, offenseDelta) + r.distanceDelta(toID, defenseDelta)
	if base < 1 && fromID != toID {
		base = 1
	}
	return base
}

type deltaSide int

const (
	offenseDelta deltaSide = iota
	defenseDelta
)

func (r *Room) distanceDelta(playerID string, side deltaSide) int {
	p, ok := r.byID[playerID]
	if !ok {
		return 0
	}
	total := 0
	for _, s := range r.playerSkills(p) {
		ds, ok := s.(skill.DistanceSkill)
		if !ok {
			continue
		}
		if side == offenseDelta {
			total += ds.OffenseDelta()
		} else {
			total += ds.DefenseDelta()
		}
	}
	return total
}

// AttackDistance is the equipped weapon's range (default 1) with no seat
// component; CanAttack compares it to seat distance.
func (r *Room) AttackDistance(playerID string) int {
	p, ok := r.byID[playerID]
	if !ok {
		return 0
	}
	reach := 1
	for _, cardID := range p.EquippedCards() {
		def, err := r.catalog.CardByID(cardID)
		if err != nil {
			continue
		}
		if def.Slot == catalog.SlotWeapon && def.AttackRange > reach {
			reach = def.AttackRange
		}
	}
	return reach
}

func (r *Room) CanAttack(fromID, toID string) bool {
	if fromID == toID || !r.PlayerAlive(toID) {
		return false
	}
	dist := r.SeatDistance(fromID, toID)
	return dist >= 0 && dist <= r.AttackDistance(fromID)
}

func (r *Room) PeekDrawStack(n int) []int {
	if n > len(r.drawStack) {
		n = len(r.drawStack)
	}
	out := make([]int, n)
	copy(out, r.drawStack[:n])
	return out
}

// DyingPlayerID names the player inside the rescue pipeline, if any.
func (r *Room) DyingPlayerID() string { return r.dyingID }

// GameOver reports the terminal state.
func (r *Room) GameOver() bool { return r.gameOver }

// Winners returns the winning player ids once the game is over.
func (r *Room) Winners() []string { return r.winners }

// Protocol.

func (r *Room) Broadcast(ev rules.Event) {
	r.record(ev)
	r.notifier.Broadcast(ev)
}

func (r *Room) Notify(playerID string, ev rules.Event) {
	r.notifier.Notify(playerID, ev)
}

// Ask suspends the caller until the player answers. Timeouts, disconnects,
// and malformed answers resolve to the request's default: a decline for
// cancellable asks, a server-picked legal answer otherwise.
func (r *Room) Ask(playerID string, request rules.Event) (rules.Response, error) {
	if !r.PlayerAlive(playerID) {
		return rules.Response{FromID: playerID}, nil
	}

	pending, err := r.asks.Open(playerID, request)
	if err != nil {
		return rules.Response{}, err
	}
	r.notifier.Notify(playerID, request)

	resp, timedOut := r.asks.Await(playerID, pending)
	if timedOut {
		r.logger.Debug("ask timed out",
			zap.String("player_id", playerID),
			zap.String("kind", string(request.Kind)))
		return r.defaultAnswer(playerID, request), nil
	}
	if !r.validAnswer(playerID, request, resp) {
		r.logger.Warn("malformed answer replaced by default",
			zap.String("player_id", playerID),
			zap.String("kind", string(request.Kind)))
		return r.defaultAnswer(playerID, request), nil
	}
	if resp.Declined() && request.Uncancellable {
		return r.defaultAnswer(playerID, request), nil
	}
	return resp, nil
}

// DeliverAnswer routes a client answer into the ask table. Safe to call
// from gateway goroutines.
func (r *Room) DeliverAnswer(playerID string, resp rules.Response) error {
	return r.asks.Deliver(playerID, resp)
}

// CancelAsk resolves a disconnected player's pending ask with its default.
func (r *Room) CancelAsk(playerID string) {
	r.asks.Cancel(playerID)
}

// validAnswer checks an answer against the request's matcher and the
// player's actual cards. Declines are always well formed.
func (r *Room) validAnswer(playerID string, request rules.Event, resp rules.Response) bool {
	if resp.Declined() {
		return true
	}
	p, ok := r.byID[playerID]
	if !ok {
		return false
	}

	checkCard := func(cardID int) bool {
		if !p.HasCard(cardID) {
			return false
		}
		if request.Matcher != nil && !r.catalog.MatchesID(*request.Matcher, cardID) {
			return false
		}
		return true
	}

	if resp.CardID != 0 && !checkCard(resp.CardID) {
		return false
	}
	for _, cardID := range resp.DroppedCards {
		if !p.HasCard(cardID) {
			return false
		}
	}
	for _, id := range resp.SelectedPlayers {
		if _, exists := r.byID[id]; !exists {
			return false
		}
	}
	return true
}

// defaultAnswer builds the configured fallback: decline for cancellable
// asks, the first legal selection for uncancellable ones.
func (r *Room) defaultAnswer(playerID string, request rules.Event) rules.Response {
	resp := rules.Response{FromID: playerID}
	if !request.Uncancellable {
		return resp
	}

	p, ok := r.byID[playerID]
	if !ok {
		return resp
	}

	switch request.Kind {
	case rules.EventAskForCardDrop:
		areas := request.FromAreas
		if len(areas) == 0 {
			areas = []rules.CardArea{rules.AreaHand}
		}
		cards := p.CardsIn(areas...)
		n := request.CardAmount
		if n > len(cards) {
			n = len(cards)
		}
		resp.DroppedCards = append(resp.DroppedCards, cards[:n]...)
	case rules.EventAskForChoosingPlayer:
		if len(request.Players) > 0 {
			n := request.RequiredAmount
			if n <= 0 {
				n = 1
			}
			if n > len(request.Players) {
				n = len(request.Players)
			}
			resp.SelectedPlayers = append(resp.SelectedPlayers, request.Players[:n]...)
		}
	case rules.EventAskForChoosingOptions:
		if len(request.Options) > 0 {
			resp.SelectedOption = request.Options[0]
		}
	case rules.EventAskForCardUse, rules.EventAskForCardResponse:
		for _, cardID := range p.CardsIn(rules.AreaHand) {
			if request.Matcher == nil || r.catalog.MatchesID(*request.Matcher, cardID) {
				resp.CardID = cardID
				break
			}
		}
	}
	return resp
}

// record appends to the journal; journal failures are logged, not fatal,
// so a dead database never stalls a running game.
func (r *Room) record(ev rules.Event) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Append(ev); err != nil {
		r.logger.Error("journal append failed", zap.Error(err))
	}
}

func (r *Room) player(playerID string) (*Player, error) {
	p, ok := r.byID[playerID]
	if !ok {
		return nil, rules.NewIllegalAction(playerID, "lookup", "unknown player")
	}
	return p, nil
}

// playerSkills resolves a player's skill descriptors: character and
// obtained skills plus their shadows, then equip skills, in declaration
// order.
func (r *Room) playerSkills(p *Player) []skill.Skill {
	var out []skill.Skill
	for _, name := range p.SkillNames() {
		if s, ok := r.skills.Get(name); ok {
			out = append(out, s)
			out = append(out, r.skills.ShadowsOf(name)...)
		}
	}
	for _, cardID := range p.EquippedCards() {
		def, err := r.catalog.CardByID(cardID)
		if err != nil || def.SkillName == "" {
			continue
		}
		if s, ok := r.skills.Get(def.SkillName); ok {
			out = append(out, s)
		}
	}
	return out
}
