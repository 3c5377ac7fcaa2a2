// bingo/goal.go
// Goal registry: the pool of candidate goals a board can be generated from.
package bingo

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Goal is one candidate board entry. GUID must be unique within a registry;
// Title is the text shown on the square.
type Goal struct {
	GUID   string
	Title  string
	Active bool
}

// GoalRegistry collects goals from any number of providers and serializes
// the active ones into the board JSON used at room creation. Safe for
// concurrent use.
type GoalRegistry struct {
	mu          sync.Mutex
	goals       map[string]Goal
	order       []string
	activeCount int
}

func NewGoalRegistry() *GoalRegistry {
	return &GoalRegistry{goals: make(map[string]Goal)}
}

// Register adds a goal under the given GUID, active by default. Registering
// a GUID twice is an error and leaves the first registration in place.
func (r *GoalRegistry) Register(guid, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.goals[guid]; exists {
		return fmt.Errorf("goal %q is already registered", guid)
	}
	r.goals[guid] = Goal{GUID: guid, Title: title, Active: true}
	r.order = append(r.order, guid)
	r.activeCount++
	return nil
}

// SetActive toggles a registered goal in or out of the candidate pool.
func (r *GoalRegistry) SetActive(guid string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	goal, ok := r.goals[guid]
	if !ok {
		return fmt.Errorf("no goal registered under %q", guid)
	}
	if goal.Active == active {
		return nil
	}
	if active {
		r.activeCount++
	} else {
		r.activeCount--
	}
	goal.Active = active
	r.goals[guid] = goal
	return nil
}

// ActiveCount reports how many registered goals are currently active.
func (r *GoalRegistry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeCount
}

// Goals returns every registered goal in registration order.
func (r *GoalRegistry) Goals() []Goal {
	r.mu.Lock()
	defer r.mu.Unlock()

	goals := make([]Goal, 0, len(r.order))
	for _, guid := range r.order {
		goals = append(goals, r.goals[guid])
	}
	return goals
}

// ActiveGoals returns the active subset in registration order.
func (r *GoalRegistry) ActiveGoals() []Goal {
	goals := r.Goals()
	active := goals[:0]
	for _, goal := range goals {
		if goal.Active {
			active = append(active, goal)
		}
	}
	return active
}

// BoardJSON serializes a goal list into the minimal `[{"name":...}]` array
// the create-room call expects.
func BoardJSON(goals []Goal) (string, error) {
	type entry struct {
		Name string `json:"name"`
	}
	entries := make([]entry, len(goals))
	for i, goal := range goals {
		entries[i] = entry{Name: goal.Title}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
