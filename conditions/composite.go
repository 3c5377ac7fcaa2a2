// conditions/composite.go
// The builtin composite and decorator conditions.
package conditions

import (
	"encoding/json"
	"errors"
)

// andCondition holds when every child holds. Vacuously true when empty.
type andCondition struct {
	children []Condition
}

func (c *andCondition) Check() bool {
	for _, child := range c.children {
		if !child.Check() {
			return false
		}
	}
	return true
}

func parseAnd(r *Registry, raw json.RawMessage) (Condition, error) {
	n, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	return &andCondition{children: r.parseChildren(n)}, nil
}

// orCondition holds when at least one child holds.
type orCondition struct {
	children []Condition
}

func (c *orCondition) Check() bool {
	for _, child := range c.children {
		if child.Check() {
			return true
		}
	}
	return false
}

func parseOr(r *Registry, raw json.RawMessage) (Condition, error) {
	n, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	return &orCondition{children: r.parseChildren(n)}, nil
}

// notCondition negates its single child.
type notCondition struct {
	child Condition
}

func (c *notCondition) Check() bool { return !c.child.Check() }

func parseNot(r *Registry, raw json.RawMessage) (Condition, error) {
	n, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	children := r.parseChildren(n)
	if len(children) < 1 {
		return nil, errors.New("not condition needs one child")
	}
	return &notCondition{child: children[0]}, nil
}

// someCondition holds when at least `amount` children hold. The amount
// parameter defaults to 1, making an unparameterized some equivalent to or.
type someCondition struct {
	children []Condition
	amount   uint
}

func (c *someCondition) Check() bool {
	if uint(len(c.children)) < c.amount {
		return false
	}

	var held uint
	for _, child := range c.children {
		if !child.Check() {
			continue
		}
		held++
		if held >= c.amount {
			return true
		}
	}
	return false
}

func parseSome(r *Registry, raw json.RawMessage) (Condition, error) {
	n, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	return &someCondition{
		children: r.parseChildren(n),
		amount:   n.uintParam("amount", 1),
	}, nil
}
