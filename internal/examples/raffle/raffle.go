// Package raffle is a reference handler: players join and deposit a
// fixed-stake pool, a randomized draw picks one winner, the winner
// withdraws the pool, and the game resets for the next round.
//
// Grounded on _examples/original_source/examples/raffle/src/lib.rs,
// carried into the native-handler shape internal/handler exposes
// instead of the original's Borsh-derived GameHandler trait.
package raffle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/race-sub000/gamecore/internal/event"
	"github.com/race-sub000/gamecore/internal/handler"
)

const (
	drawTimeoutMillis uint64 = 60_000
	endTimeoutMillis  uint64 = 10_000
)

type playerStatus int

const (
	statusInit playerStatus = iota
	statusReady
)

type player struct {
	ID      int          `json:"id"`
	Balance uint64       `json:"balance"`
	Status  playerStatus `json:"status"`
}

// state is the handler's serialized form, round-tripped through
// GameContext's handler-state bytes between events.
type state struct {
	WinnerPlayerID *int     `json:"winner_player_id,omitempty"`
	Players        []player `json:"players"`
	RandomID       int      `json:"random_id"`
	DrawTime       uint64   `json:"draw_time"`
	PrizePool      uint64   `json:"prize_pool"`
}

// NewHandler returns the raffle's native handler implementation.
func NewHandler() handler.HandlerT {
	return handler.NativeFunc{Init: initState, Handle: handleEvent}
}

func initState(initData []byte, effect *handler.Effect) ([]byte, error) {
	return json.Marshal(&state{})
}

func handleEvent(stateRaw []byte, eventRaw []byte, effect *handler.Effect) ([]byte, error) {
	var st state
	if err := json.Unmarshal(stateRaw, &st); err != nil {
		return nil, fmt.Errorf("raffle: decode state: %w", err)
	}

	ev, err := event.Decode(eventRaw)
	if err != nil {
		return nil, fmt.Errorf("raffle: decode event: %w", err)
	}

	switch ev.Kind {
	case event.KindCustom:
		if err := handleCustom(&st, effect, ev); err != nil {
			return nil, err
		}
	case event.KindWaitingTimeout:
		handleWaitingTimeout(&st, effect)
	case event.KindRandomnessReady:
		effect.Reveal(st.RandomID, []int{0})
	case event.KindSecretsReady:
		if err := handleSecretsReady(&st, effect); err != nil {
			return nil, err
		}
	case event.KindOperationTimeout:
		cancelGame(&st, effect)
	}

	raw, err := json.Marshal(&st)
	if err != nil {
		return nil, fmt.Errorf("raffle: encode state: %w", err)
	}
	if effect.IsCheckpoint {
		effect.Checkpoint = raw
	}
	return raw, nil
}

// handleCustom reads the two join/deposit notifications the event loop's
// Sync handling raises for every new player and every confirmed deposit,
// each carrying the player's id as the event's Sender.
func handleCustom(st *state, effect *handler.Effect, ev event.Event) error {
	payload := string(ev.Raw)
	switch {
	case strings.HasPrefix(payload, "join:"):
		st.Players = append(st.Players, player{ID: ev.Sender, Status: statusInit})
	case strings.HasPrefix(payload, "deposit:"):
		amountStr := strings.TrimPrefix(payload, "deposit:")
		amount, err := strconv.ParseUint(amountStr, 10, 64)
		if err != nil {
			return fmt.Errorf("raffle: invalid deposit amount %q: %w", amountStr, err)
		}
		idx := findPlayer(st.Players, ev.Sender)
		if idx < 0 {
			return fmt.Errorf("raffle: deposit from unknown player %d", ev.Sender)
		}
		st.Players[idx].Balance += amount
		st.Players[idx].Status = statusReady
		st.PrizePool += amount
		if len(st.Players) >= 1 {
			st.DrawTime = effect.Timestamp + drawTimeoutMillis
			effect.WaitTimeoutFor(drawTimeoutMillis)
		}
	}
	return nil
}

// handleWaitingTimeout fires either after the draw-scheduling delay, or
// after the post-draw display delay cleanup scheduled in
// handleSecretsReady — distinguished by whether a winner was recorded.
func handleWaitingTimeout(st *state, effect *handler.Effect) {
	switch {
	case st.WinnerPlayerID != nil:
		cleanup(st, effect)
	case len(st.Players) > 1:
		effect.SetStartGame()
		options := make([]string, len(st.Players))
		for i, p := range st.Players {
			options[i] = strconv.Itoa(p.ID)
		}
		st.RandomID = effect.InitRandomState(handler.InitRandomState{Options: options, Size: len(options)})
	default:
		cancelGame(st, effect)
	}
}

func handleSecretsReady(st *state, effect *handler.Effect) error {
	revealed, ok := effect.GetRevealed(st.RandomID)
	if !ok {
		return fmt.Errorf("raffle: random state %d not revealed", st.RandomID)
	}
	value, ok := revealed[0]
	if !ok {
		return fmt.Errorf("raffle: index 0 not revealed for random state %d", st.RandomID)
	}
	winner, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("raffle: invalid winner id %q: %w", value, err)
	}

	for _, p := range st.Players {
		if p.ID == winner {
			effect.SettleOne(handler.SettleSubOp(p.ID, st.PrizePool))
			break
		}
	}
	effect.IsCheckpoint = true
	st.WinnerPlayerID = &winner
	effect.WaitTimeoutFor(endTimeoutMillis)
	return nil
}

// cleanup ejects every player and resets the round, run once the winner
// has had its display delay.
func cleanup(st *state, effect *handler.Effect) {
	for _, p := range st.Players {
		effect.SettleOne(handler.SettleEjectOp(p.ID))
	}
	effect.IsCheckpoint = true
	st.WinnerPlayerID = nil
	st.Players = nil
	st.RandomID = 0
	st.DrawTime = 0
	st.PrizePool = 0
}

// cancelGame refunds every player's deposit, then resets the round; run
// when the draw timer elapses with fewer than two players, or when a
// server operation times out mid-draw.
func cancelGame(st *state, effect *handler.Effect) {
	for _, p := range st.Players {
		if p.Balance > 0 {
			effect.SettleOne(handler.SettleSubOp(p.ID, p.Balance))
		}
	}
	cleanup(st, effect)
}

func findPlayer(players []player, id int) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
