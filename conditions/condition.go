// conditions/condition.go
// Boolean goal-condition trees: AND/OR/NOT/"at least N of" composites over
// leaf predicates supplied by the caller.
package conditions

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/WarperSan/BingoAPI/internal/logger"
)

// Condition is one node of an evaluated expression tree.
type Condition interface {
	// Check reports whether the condition currently holds.
	Check() bool
}

// ParseFunc builds a condition of one action kind from its raw JSON node.
// The registry is passed so composite conditions can parse their children.
type ParseFunc func(r *Registry, raw json.RawMessage) (Condition, error)

// node is the wire shape of every condition: an action discriminator, child
// conditions, and free-form parameters.
type node struct {
	Action     string                     `json:"action"`
	Conditions []json.RawMessage          `json:"conditions"`
	Params     map[string]json.RawMessage `json:"params"`
}

// Registry maps action names to parsers. Builtins (and, or, not, some) are
// registered on construction; leaf predicates are registered explicitly by
// the caller at startup. Action names are case-insensitive.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]ParseFunc
	log     *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewLogger("conditions")
	}
	r := &Registry{
		parsers: make(map[string]ParseFunc),
		log:     log,
	}
	r.parsers["and"] = parseAnd
	r.parsers["or"] = parseOr
	r.parsers["not"] = parseNot
	r.parsers["some"] = parseSome
	return r
}

// Register adds a parser for the given action. Registering an action twice
// is an error and keeps the first parser.
func (r *Registry) Register(action string, parse ParseFunc) error {
	action = strings.ToLower(action)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.parsers[action]; exists {
		return fmt.Errorf("condition action %q is already registered", action)
	}
	r.parsers[action] = parse
	return nil
}

// RegisterLeaf is a convenience for predicates that ignore their JSON node.
func (r *Registry) RegisterLeaf(action string, check func() bool) error {
	return r.Register(action, func(*Registry, json.RawMessage) (Condition, error) {
		return leaf(check), nil
	})
}

type leaf func() bool

func (l leaf) Check() bool { return l() }

// Parse builds the condition tree rooted at raw. Unknown root actions and
// malformed nodes are errors; unknown actions nested inside a composite are
// logged and skipped, so one unsupported child does not discard a whole
// tree.
func (r *Registry) Parse(raw json.RawMessage) (Condition, error) {
	var n node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("parsing condition: %w", err)
	}

	action := strings.ToLower(n.Action)
	r.mu.RLock()
	parse, ok := r.parsers[action]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unhandled condition action %q", n.Action)
	}
	return parse(r, raw)
}

// parseChildren parses a composite's child list, skipping children whose
// action is not registered.
func (r *Registry) parseChildren(n node) []Condition {
	children := make([]Condition, 0, len(n.Conditions))
	for _, raw := range n.Conditions {
		child, err := r.Parse(raw)
		if err != nil {
			r.log.Errorf("Skipping condition child: %v", err)
			continue
		}
		children = append(children, child)
	}
	return children
}

// uintParam reads an unsigned integer parameter, falling back to def when
// the parameter is absent or malformed.
func (n node) uintParam(name string, def uint) uint {
	raw, ok := n.Params[name]
	if !ok {
		return def
	}
	var value uint
	if err := json.Unmarshal(raw, &value); err != nil {
		return def
	}
	return value
}

func decodeNode(raw json.RawMessage) (node, error) {
	var n node
	if err := json.Unmarshal(raw, &n); err != nil {
		return node{}, fmt.Errorf("parsing condition node: %w", err)
	}
	return n, nil
}
