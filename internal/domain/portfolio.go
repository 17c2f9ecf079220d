package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinPositions = 2
	MaxPositions = 8
)

var hundred = decimal.NewFromInt(100)

type Position struct {
	Symbol string
	// percentage, 0-100 when balanced
	Weight decimal.Decimal
}

func NewPosition(symbol string, weight decimal.Decimal) Position {
	return Position{
		Symbol: NormalizeSymbol(symbol),
		Weight: weight,
	}
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Portfolio is the ordered list of weighted positions the user is building.
// Size always stays within [MinPositions, MaxPositions]; the weights are
// allowed to drift away from 100 while the user is editing.
type Portfolio struct {
	positions []Position
}

func NewPortfolio(positions ...Position) (*Portfolio, error) {
	if len(positions) < MinPositions || len(positions) > MaxPositions {
		return nil, fmt.Errorf("portfolio must hold between %d and %d positions, got %d", MinPositions, MaxPositions, len(positions))
	}
	p := &Portfolio{
		positions: make([]Position, 0, len(positions)),
	}
	for _, position := range positions {
		if NormalizeSymbol(position.Symbol) == "" {
			return nil, ErrEmptySymbol
		}
		p.positions = append(p.positions, NewPosition(position.Symbol, position.Weight))
	}
	return p, nil
}

// DefaultPortfolio is what a freshly mounted portfolio page starts with.
func DefaultPortfolio() *Portfolio {
	return &Portfolio{
		positions: []Position{
			NewPosition("AAPL", decimal.NewFromInt(30)),
			NewPosition("MSFT", decimal.NewFromInt(30)),
			NewPosition("GOOGL", decimal.NewFromInt(20)),
			NewPosition("TSLA", decimal.NewFromInt(20)),
		},
	}
}

func (p Portfolio) Len() int {
	return len(p.positions)
}

func (p Portfolio) CanAdd() bool {
	return len(p.positions) < MaxPositions
}

func (p Portfolio) CanRemove() bool {
	return len(p.positions) > MinPositions
}

// Positions returns a copy, callers can't mutate the model through it.
func (p Portfolio) Positions() []Position {
	out := make([]Position, len(p.positions))
	copy(out, p.positions)
	return out
}

func (p Portfolio) DeepCopy() *Portfolio {
	return &Portfolio{
		positions: p.Positions(),
	}
}

func (p *Portfolio) Add(symbol string, weight decimal.Decimal) error {
	if !p.CanAdd() {
		return ErrCapacityExceeded
	}
	if NormalizeSymbol(symbol) == "" {
		return ErrEmptySymbol
	}
	p.positions = append(p.positions, NewPosition(symbol, weight))
	return nil
}

func (p *Portfolio) Remove(index int) error {
	if err := p.checkIndex(index); err != nil {
		return err
	}
	if !p.CanRemove() {
		return ErrMinimumSizeViolation
	}
	p.positions = append(p.positions[:index], p.positions[index+1:]...)
	return nil
}

// SetWeight does not clamp; out of range values are repaired by Normalize.
func (p *Portfolio) SetWeight(index int, value decimal.Decimal) error {
	if err := p.checkIndex(index); err != nil {
		return err
	}
	p.positions[index].Weight = value
	return nil
}

// SetSymbol replaces the symbol at index. Duplicate symbols across rows are allowed.
func (p *Portfolio) SetSymbol(index int, symbol string) error {
	if err := p.checkIndex(index); err != nil {
		return err
	}
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return ErrEmptySymbol
	}
	p.positions[index].Symbol = symbol
	return nil
}

func (p Portfolio) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for _, position := range p.positions {
		total = total.Add(position.Weight)
	}
	return total
}

func (p Portfolio) IsBalanced() bool {
	return p.TotalWeight().Equal(hundred)
}

// Normalize rescales every weight proportionally so the total becomes 100.
// A zero total can't be rescaled and an already balanced portfolio is left
// alone; both return false. The division residual lands on the last
// position so the stored total is exactly 100.
func (p *Portfolio) Normalize() bool {
	total := p.TotalWeight()
	if total.IsZero() || total.Equal(hundred) {
		return false
	}

	newTotal := decimal.Zero
	for i := range p.positions {
		p.positions[i].Weight = p.positions[i].Weight.Mul(hundred).Div(total)
		newTotal = newTotal.Add(p.positions[i].Weight)
	}
	last := len(p.positions) - 1
	p.positions[last].Weight = p.positions[last].Weight.Add(hundred.Sub(newTotal))

	return true
}

func (p Portfolio) checkIndex(index int) error {
	if index < 0 || index >= len(p.positions) {
		return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, index, len(p.positions))
	}
	return nil
}
