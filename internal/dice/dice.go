// Package dice implements the dice bet endpoint: the player pays a bet,
// guesses a die face and wins BetRate times the bet when the roll matches.
package dice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	loggingpkg "github.com/drblury/hostbridge/internal/runtime/logging"
	"github.com/drblury/hostbridge/internal/runtime/sdk"
	"github.com/drblury/hostbridge/internal/runtime/validate"
)

// BetRate multiplies the bet amount on a win.
const BetRate = 3

const (
	minFace = 1
	maxFace = 6
)

// MaxBetAmount is the largest bet whose prize still fits in a uint64.
const MaxBetAmount uint64 = math.MaxUint64 / BetRate

// ErrInvalidParams is returned for a bet payload that fails validation.
var ErrInvalidParams = errors.New("hostbridge: invalid bet params")

// invalidParamsMessage is the error text clients receive for a rejected payload.
const invalidParamsMessage = "Invalid params"

// Request is the bet payload.
type Request struct {
	BetAmount      uint64 `json:"betAmount"`
	PaymentAddress string `json:"paymentAddress"`
	BetDiceNumber  int    `json:"betDiceNumber"`
	TxID           string `json:"txId"`
}

// Validate checks every field and joins the failures.
func (r Request) Validate() error {
	var face error
	if r.BetDiceNumber < minFace || r.BetDiceNumber > maxFace {
		face = &validate.Error{Field: "betDiceNumber", Reason: fmt.Sprintf("must be between %d and %d", minFace, maxFace)}
	}
	var amount error
	if r.BetAmount > MaxBetAmount {
		amount = &validate.Error{Field: "betAmount", Reason: fmt.Sprintf("must not exceed %d", MaxBetAmount)}
	}
	return errors.Join(
		validate.NanoAmount("betAmount", r.BetAmount),
		amount,
		validate.PaymentAddress("paymentAddress", r.PaymentAddress),
		face,
		validate.Required("txId", r.TxID),
	)
}

// Lose is reported when the roll misses.
type Lose struct {
	Lose                uint64 `json:"lose"`
	BetDiceNumberResult int    `json:"betDiceNumberResult"`
}

// Win is reported when the roll matches; the prize is already on its way.
type Win struct {
	Win                 uint64 `json:"win"`
	BetDiceNumberResult int    `json:"betDiceNumberResult"`
	Message             string `json:"message"`
	TxID                string `json:"txId"`
}

// Roller returns a die face in [1, 6].
type Roller interface {
	Roll() int
}

// RollerFunc adapts a function to Roller.
type RollerFunc func() int

func (f RollerFunc) Roll() int { return f() }

// FixedRoller always rolls the same face.
func FixedRoller(face int) Roller {
	return RollerFunc(func() int { return face })
}

type uniformRoller struct{}

func (uniformRoller) Roll() int { return rand.IntN(maxFace) + minFace }

// TxVerifier confirms the player's bet transaction before the roll.
type TxVerifier interface {
	CheckTx(ctx context.Context, txID string) error
}

// TxVerifierFunc adapts a function to TxVerifier.
type TxVerifierFunc func(ctx context.Context, txID string) error

func (f TxVerifierFunc) CheckTx(ctx context.Context, txID string) error { return f(ctx, txID) }

// Payer sends the prize. *sdk.Client satisfies it.
type Payer interface {
	Transfer(ctx context.Context, toAddress string, nanoAmount uint64, info string) (sdk.TxResult, error)
}

// Option customises a Game.
type Option func(*Game)

// WithRoller replaces the uniform roller.
func WithRoller(r Roller) Option {
	return func(g *Game) {
		if r != nil {
			g.roller = r
		}
	}
}

// WithVerifier sets the bet transaction verifier.
func WithVerifier(v TxVerifier) Option {
	return func(g *Game) {
		if v != nil {
			g.verifier = v
		}
	}
}

// WithLogger sets the game logger.
func WithLogger(log loggingpkg.ServiceLogger) Option {
	return func(g *Game) { g.logger = loggingpkg.OrNop(log) }
}

// Game rolls bets and pays winners.
type Game struct {
	payer    Payer
	roller   Roller
	verifier TxVerifier
	logger   loggingpkg.ServiceLogger
}

// NewGame creates a game paying prizes through payer. Without a verifier,
// every bet transaction id is accepted.
func NewGame(payer Payer, opts ...Option) *Game {
	g := &Game{
		payer:    payer,
		roller:   uniformRoller{},
		verifier: TxVerifierFunc(func(context.Context, string) error { return nil }),
		logger:   loggingpkg.NopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Play verifies the bet transaction, rolls and settles the bet. The result
// is a Lose or a Win.
func (g *Game) Play(ctx context.Context, req Request) (any, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if err := g.verifier.CheckTx(ctx, req.TxID); err != nil {
		return nil, fmt.Errorf("verify bet tx %s: %w", req.TxID, err)
	}

	result := g.roller.Roll()
	fields := loggingpkg.LogFields{
		"payment_address": req.PaymentAddress,
		"bet":             req.BetDiceNumber,
		"result":          result,
	}
	if result != req.BetDiceNumber {
		fields["lost"] = req.BetAmount
		g.logger.Debug("Bet lost", fields)
		return Lose{Lose: req.BetAmount, BetDiceNumberResult: result}, nil
	}

	prize := req.BetAmount * BetRate
	tx, err := g.payer.Transfer(ctx, req.PaymentAddress, prize, "dice prize")
	if err != nil {
		return nil, fmt.Errorf("pay prize: %w", err)
	}

	fields["won"] = prize
	fields["tx_id"] = tx.TxID
	g.logger.Debug("Bet won", fields)
	return Win{
		Win:                 prize,
		BetDiceNumberResult: result,
		Message:             fmt.Sprintf("You will receive %d nano PRV in a couple minutes", prize),
		TxID:                tx.TxID,
	}, nil
}
