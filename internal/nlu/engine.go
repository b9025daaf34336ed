// Package nlu maps normalized utterance text to an intent with named slots.
//
// The engine walks an ordered rule list once; the first rule whose pattern
// matches wins. Declaration order is the only precedence there is.
package nlu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"go.uber.org/zap"
)

// FieldKind tells the engine how to convert a captured slot
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldInt
)

// Rule pairs a matcher with the intent and numeric fields it yields
type Rule struct {
	Intent  string
	Pattern *regexp.Regexp
	Fields  map[string]FieldKind
}

// NewRule compiles a case-insensitive rule. Every named group becomes a
// declared text field; names listed in numeric are parsed as integers.
func NewRule(intent, expr string, numeric ...string) (Rule, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", intent, err)
	}

	fields := make(map[string]FieldKind)
	for _, name := range re.SubexpNames() {
		if name != "" {
			fields[name] = FieldText
		}
	}
	for _, name := range numeric {
		if _, ok := fields[name]; !ok {
			return Rule{}, fmt.Errorf("rule %s: numeric field %q is not a named group", intent, name)
		}
		fields[name] = FieldInt
	}

	return Rule{Intent: intent, Pattern: re, Fields: fields}, nil
}

// MustRule is NewRule for static tables
func MustRule(intent, expr string, numeric ...string) Rule {
	r, err := NewRule(intent, expr, numeric...)
	if err != nil {
		panic(err)
	}
	return r
}

// UnknownField carries the whole text of an unmatched utterance
const UnknownField = "text"

var catchAll = MustRule(model.IntentUnknown, `(?s)^(?P<text>.*)$`)

// Engine is an immutable ordered rule list, safe for concurrent use
type Engine struct {
	rules []Rule
}

// NewEngine copies rules and terminates the list with the catch-all Unknown rule
func NewEngine(rules ...Rule) *Engine {
	list := make([]Rule, 0, len(rules)+1)
	list = append(list, rules...)
	list = append(list, catchAll)
	return &Engine{rules: list}
}

// NewDefaultEngine builds the engine over the default warehouse rules
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultRules(DefaultStems())...)
}

// Rules returns the rule list in evaluation order
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Extract returns the intent of the first matching rule. It is total: the
// trailing catch-all matches any input, including the empty string. Spelled
// numbers are converted to digits before matching; the catch-all keeps the
// text as given.
func (e *Engine) Extract(text string) model.Intent {
	digits := Digitize(text)
	for _, rule := range e.rules {
		in := digits
		if rule.Pattern == catchAll.Pattern {
			in = text
		}
		m := rule.Pattern.FindStringSubmatch(in)
		if m == nil {
			continue
		}
		return model.Intent{Name: rule.Intent, Fields: rule.capture(m)}
	}

	return model.Intent{Name: model.IntentUnknown, Fields: model.Fields{}}
}

func (r Rule) capture(m []string) model.Fields {
	fields := make(model.Fields)
	for i, name := range r.Pattern.SubexpNames() {
		if name == "" {
			continue
		}
		value := strings.TrimSpace(m[i])
		if value == "" {
			continue
		}

		switch r.Fields[name] {
		case FieldInt:
			n, err := strconv.Atoi(value)
			if err != nil {
				logger.Debug("Dropping non-numeric slot",
					zap.String("intent", r.Intent),
					zap.String("field", name),
					zap.String("value", value))
				continue
			}
			fields[name] = n
		default:
			fields[name] = value
		}
	}
	return fields
}
