// Package basket defines futures baskets and generates the ordered
// historical-data requests for them.
package basket

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
)

// DayRule selects how a month's expiration date is computed.
type DayRule string

const (
	// DayRuleThirdFriday is the standard equity-index convention.
	DayRuleThirdFriday DayRule = "third-friday"
	// DayRuleThirdLastBusinessDay is the commodity convention: the
	// 3rd-from-last business day of the expiration month.
	DayRuleThirdLastBusinessDay DayRule = "third-last-business-day"
)

// QueueDiscipline selects the order the driver consumes requests in.
type QueueDiscipline string

const (
	QueueFIFO QueueDiscipline = "fifo"
	QueueLIFO QueueDiscipline = "lifo"
)

// Definition is a static basket description. It is validated once and
// never mutated at runtime.
type Definition struct {
	Name     string   `yaml:"name" validate:"required"`
	Exchange string   `yaml:"exchange" validate:"required"`
	Currency string   `yaml:"currency" validate:"required,len=3"`
	Symbols  []string `yaml:"symbols" validate:"dive,required"`
	// ExpirationMonths is the contract cycle, e.g. [3 6 9 12].
	ExpirationMonths []time.Month `yaml:"expiration_months" validate:"required,min=1,dive,min=1,max=12"`
	// RollOffsetDays is subtracted from the expiration date to get the
	// roll cutoff.
	RollOffsetDays int     `yaml:"roll_offset_days" validate:"min=0"`
	DayRule        DayRule `yaml:"day_rule" validate:"required,oneof=third-friday third-last-business-day"`
	// InclusiveCutoff selects >= instead of > when comparing candidate
	// expirations against the reference date. Some basket flavors roll
	// on the expiration day itself.
	InclusiveCutoff bool            `yaml:"inclusive_cutoff"`
	Discipline      QueueDiscipline `yaml:"discipline" validate:"required,oneof=fifo lifo"`
	Duration        string          `yaml:"duration" validate:"required"`
	BarSize         string          `yaml:"bar_size" validate:"required"`
	UseRTH          bool            `yaml:"use_rth"`
}

// Validate checks the definition against its struct tags.
func (d Definition) Validate() error {
	if err := validator.New().Struct(d); err != nil {
		return errors.Wrapf(errors.ErrCodeBasketConfigInvalid, err, "basket %q failed validation", d.Name)
	}

	return nil
}

// Predefined returns the built-in basket definitions keyed by name.
func Predefined() map[string]Definition {
	return map[string]Definition{
		"index": {
			Name:             "index",
			Exchange:         "CME",
			Currency:         "USD",
			Symbols:          []string{"ES", "NQ"},
			ExpirationMonths: []time.Month{time.March, time.June, time.September, time.December},
			RollOffsetDays:   8,
			DayRule:          DayRuleThirdFriday,
			InclusiveCutoff:  false,
			Discipline:       QueueFIFO,
			Duration:         "1 D",
			BarSize:          "1 min",
			UseRTH:           true,
		},
		"metals": {
			Name:             "metals",
			Exchange:         "COMEX",
			Currency:         "USD",
			Symbols:          []string{"GC", "SI"},
			ExpirationMonths: []time.Month{time.February, time.April, time.June, time.August, time.October, time.December},
			RollOffsetDays:   2,
			DayRule:          DayRuleThirdLastBusinessDay,
			InclusiveCutoff:  true,
			Discipline:       QueueFIFO,
			Duration:         "1 D",
			BarSize:          "1 min",
			UseRTH:           false,
		},
	}
}

// Lookup returns a predefined basket by name.
func Lookup(name string) (Definition, error) {
	def, ok := Predefined()[name]
	if !ok {
		return Definition{}, errors.Newf(errors.ErrCodeUnknownBasket, "no basket named %q", name)
	}

	return def, nil
}

// Single builds an ad-hoc one-symbol basket using the index defaults.
// It backs the --symbol/--exchange CLI mode.
func Single(symbol, exchange string) Definition {
	def := Predefined()["index"]
	def.Name = symbol
	def.Exchange = exchange
	def.Symbols = []string{symbol}

	return def
}

// LoadDefinitions reads user basket definitions from a YAML file and
// validates each one.
func LoadDefinitions(path string) (map[string]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read baskets file %s", path)
	}

	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse baskets file", err)
	}

	out := make(map[string]Definition, len(defs))

	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}

		out[def.Name] = def
	}

	return out, nil
}
