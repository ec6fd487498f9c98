// Package actions exposes the agent-facing capability surface: every action
// takes a flat mapping of named arguments and returns a single string.
// Failures never cross this boundary as error values.
package actions

import (
	"fmt"
	"strconv"
)

// Args is the flat argument mapping an action receives from the
// capability-dispatch layer. Values arrive as strings or numbers depending
// on how the caller decoded them.
type Args map[string]any

func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (a Args) Int(key string, fallback int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Action is one capability exposed to the agent. Parameters is the JSON
// Schema object describing the arguments, in the shape function-calling
// APIs expect.
type Action struct {
	Name        string
	Description string
	Parameters  map[string]any
	Run         func(args Args) string
}

// NoParams is the schema of an action that takes no inputs.
func NoParams() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
