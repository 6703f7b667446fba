package instrument

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/apca/pkg/osi"
)

// SlotKind is the instrument a strategy slot requires.
type SlotKind int

const (
	StockSlot SlotKind = iota
	CallSlot
	PutSlot
)

// String returns STOCK, CALL or PUT.
func (k SlotKind) String() string {
	switch k {
	case StockSlot:
		return "STOCK"
	case CallSlot:
		return "CALL"
	case PutSlot:
		return "PUT"
	default:
		return fmt.Sprintf("SlotKind(%d)", int(k))
	}
}

// Slot is a required leg of a strategy with a fixed direction and ratio.
// Option slots take their strike from the caller.
type Slot struct {
	Name     string
	Kind     SlotKind
	Position Position
	Ratio    int
}

// Strategy is an ordered template of slots.
type Strategy struct {
	Name  string
	Slots []Slot
}

// OptionSlots returns the names of the slots that need a strike.
func (s Strategy) OptionSlots() []string {
	var names []string
	for _, slot := range s.Slots {
		if slot.Kind != StockSlot {
			names = append(names, slot.Name)
		}
	}
	return names
}

// MissingStrikeError names the first slot without a strike.
type MissingStrikeError struct {
	Strategy string
	Slot     string
}

// Error implements the error interface.
func (e *MissingStrikeError) Error() string {
	return fmt.Sprintf("strategy %s: missing strike for slot %q", e.Strategy, e.Slot)
}

func stock(name string, p Position) Slot { return Slot{Name: name, Kind: StockSlot, Position: p, Ratio: StockRatio} }
func call(name string, p Position) Slot { return Slot{Name: name, Kind: CallSlot, Position: p, Ratio: OptionRatio} }
func put(name string, p Position) Slot { return Slot{Name: name, Kind: PutSlot, Position: p, Ratio: OptionRatio} }

// Strategies maps a strategy tag to its slot template.
var Strategies = map[string]Strategy{
	"long-call":      {Name: "long-call", Slots: []Slot{call("long-call", Long)}},
	"long-put":       {Name: "long-put", Slots: []Slot{put("long-put", Long)}},
	"short-call":     {Name: "short-call", Slots: []Slot{call("short-call", Short)}},
	"short-put":      {Name: "short-put", Slots: []Slot{put("short-put", Short)}},
	"vertical-call":  {Name: "vertical-call", Slots: []Slot{call("long-call", Long), call("short-call", Short)}},
	"vertical-put":   {Name: "vertical-put", Slots: []Slot{put("long-put", Long), put("short-put", Short)}},
	"covered-call":   {Name: "covered-call", Slots: []Slot{stock("long-stock", Long), call("short-call", Short)}},
	"protective-put": {Name: "protective-put", Slots: []Slot{stock("long-stock", Long), put("long-put", Long)}},
	"collar":         {Name: "collar", Slots: []Slot{stock("long-stock", Long), put("long-put", Long), call("short-call", Short)}},
	"straddle":       {Name: "straddle", Slots: []Slot{call("long-call", Long), put("long-put", Long)}},
	"strangle":       {Name: "strangle", Slots: []Slot{put("long-put", Long), call("long-call", Long)}},
	"iron-condor": {Name: "iron-condor", Slots: []Slot{
		put("long-put", Long),
		put("short-put", Short),
		call("short-call", Short),
		call("long-call", Long),
	}},
}

// LookupStrategy returns the template registered under tag.
func LookupStrategy(tag string) (Strategy, error) {
	s, ok := Strategies[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return Strategy{}, fmt.Errorf("unknown strategy %q (available: %s)", tag, strings.Join(StrategyNames(), ", "))
	}
	return s, nil
}

// StrategyNames returns the registered tags in sorted order.
func StrategyNames() []string {
	names := make([]string, 0, len(Strategies))
	for name := range Strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StrategyLegs resolves each slot of strategy against strikeBySlot and
// returns the legs in slot order. Stock slots take no strike.
func StrategyLegs(strategy Strategy, settlement Settlement, strikeBySlot map[string]decimal.Decimal) (Legs, error) {
	legs := make(Legs, 0, len(strategy.Slots))
	for _, slot := range strategy.Slots {
		var (
			leg Leg
			err error
		)
		switch slot.Kind {
		case StockSlot:
			leg, err = StockLeg(settlement.Ticker, slot.Position)
		case CallSlot, PutSlot:
			strike, ok := strikeBySlot[slot.Name]
			if !ok {
				return nil, &MissingStrikeError{Strategy: strategy.Name, Slot: slot.Name}
			}
			optionType := osi.Call
			if slot.Kind == PutSlot {
				optionType = osi.Put
			}
			leg, err = OptionLeg(settlement, optionType, strike, slot.Position)
		default:
			err = fmt.Errorf("unknown slot kind %s", slot.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("strategy %s slot %q: %w", strategy.Name, slot.Name, err)
		}
		if slot.Ratio > 0 {
			leg.Ratio = slot.Ratio
		}
		legs = append(legs, leg)
	}
	return legs, nil
}
