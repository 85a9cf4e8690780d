// Package deck supplies the card content for sessions: a YAML-backed
// catalogue of named decks plus the bot difficulty table. The engine itself
// never reads files; it is handed a []engine.Card.
package deck

import (
	"fmt"

	"chronoline/internal/engine"
)

// Deck is one named set of chronology cards.
type Deck struct {
	ID          string        `mapstructure:"id"`
	Name        string        `mapstructure:"name"`
	Description string        `mapstructure:"description"`
	Difficulty  string        `mapstructure:"difficulty"`
	Cards       []engine.Card `mapstructure:"cards"`
}

// Catalogue holds every loaded deck plus the id to use when none is asked
// for.
type Catalogue struct {
	Decks     map[string]Deck `mapstructure:"decks"`
	DefaultID string          `mapstructure:"defaultDeck"`
}

// Get returns the deck for id, or the default deck when id is empty.
func (c *Catalogue) Get(id string) (Deck, error) {
	if id == "" {
		id = c.DefaultID
	}
	d, ok := c.Decks[id]
	if !ok {
		return Deck{}, fmt.Errorf("unknown deck %q", id)
	}
	return d, nil
}

// FilterYears returns a sub-deck restricted to cards with from <= year < to,
// keeping the parent's metadata. Used for era-scoped decks.
func (d Deck) FilterYears(from, to int) Deck {
	out := d
	out.Cards = nil
	for _, c := range d.Cards {
		if c.Year >= from && c.Year < to {
			out.Cards = append(out.Cards, c)
		}
	}
	return out
}

func validate(c *Catalogue) error {
	if len(c.Decks) == 0 {
		return fmt.Errorf("no decks defined")
	}
	if c.DefaultID != "" {
		if _, ok := c.Decks[c.DefaultID]; !ok {
			return fmt.Errorf("default deck %q not defined", c.DefaultID)
		}
	}
	for id, d := range c.Decks {
		if len(d.Cards) == 0 {
			return fmt.Errorf("deck %q has no cards", id)
		}
		seen := make(map[int]string, len(d.Cards))
		for _, card := range d.Cards {
			if card.Name == "" {
				return fmt.Errorf("deck %q: card %d has no name", id, card.ID)
			}
			if prev, dup := seen[card.ID]; dup {
				return fmt.Errorf("deck %q: card id %d used by both %q and %q", id, card.ID, prev, card.Name)
			}
			seen[card.ID] = card.Name
		}
	}
	return nil
}
