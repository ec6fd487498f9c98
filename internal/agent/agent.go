package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"hyperagent/internal/actions"
	"hyperagent/internal/logger"
)

// Agent runs the tool-calling loop: call the model, dispatch the requested
// actions, feed the results back, repeat until the model answers in plain
// text or the iteration cap is hit.
type Agent struct {
	provider      Provider
	registry      *actions.Registry
	session       *Session
	maxIterations int
	out           io.Writer
}

func New(provider Provider, registry *actions.Registry, sessionWindow int, maxIterations int, out io.Writer) *Agent {
	return &Agent{
		provider:      provider,
		registry:      registry,
		session:       NewSession(sessionWindow),
		maxIterations: maxIterations,
		out:           out,
	}
}

// Run processes one user message through the full loop and returns the final
// assistant text.
func (a *Agent) Run(ctx context.Context, userInput string) (string, error) {
	a.session.Add(Message{Role: "user", Content: userInput})

	toolDefs := a.definitions()

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		sessionMsgs := a.session.Get()
		messages := make([]Message, 0, len(sessionMsgs)+1)
		messages = append(messages, Message{Role: "system", Content: a.systemPrompt()})
		messages = append(messages, sessionMsgs...)

		resp, err := a.provider.Call(ctx, messages, toolDefs)
		if err != nil {
			return "", fmt.Errorf("LLM call failed (iteration %d): %w", iteration+1, err)
		}

		if len(resp.ToolCalls) == 0 {
			a.session.Add(Message{Role: "assistant", Content: resp.Content})
			return resp.Content, nil
		}

		a.session.Add(Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if resp.Content != "" {
			fmt.Fprintln(a.out, resp.Content)
		}

		toolMessages, err := a.executeToolCalls(ctx, resp.ToolCalls)
		if err != nil {
			return "", err
		}

		a.session.AddAll(toolMessages)
	}

	return "", fmt.Errorf("agent exceeded maximum iterations (%d)", a.maxIterations)
}

// ClearSession resets the conversation history.
func (a *Agent) ClearSession() {
	a.session.Clear()
}

func (a *Agent) executeToolCalls(ctx context.Context, toolCalls []ToolCall) ([]Message, error) {
	var toolMessages []Message

	for _, tc := range toolCalls {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if tc.Function == nil {
			logger.Warn("Tool call %s carries no function", tc.ID)
			toolMessages = append(toolMessages, Message{
				Role:       "tool",
				Content:    "error: tool call has no function definition",
				ToolCallID: tc.ID,
			})
			continue
		}

		fmt.Fprintf(a.out, "[tool: %s]\n", tc.Function.Name)

		args, err := parseToolArgs(tc.Function.Arguments)
		if err != nil {
			toolMessages = append(toolMessages, Message{
				Role:       "tool",
				Content:    fmt.Sprintf("error parsing tool arguments: %v", err),
				ToolCallID: tc.ID,
			})
			continue
		}

		started := time.Now()
		reply := a.registry.Dispatch(tc.Function.Name, args)
		logger.Info("Action %s finished in %v", tc.Function.Name, time.Since(started).Round(time.Millisecond))

		toolMessages = append(toolMessages, Message{
			Role:       "tool",
			Content:    reply,
			ToolCallID: tc.ID,
		})
	}

	return toolMessages, nil
}

func (a *Agent) definitions() []ToolDefinition {
	all := a.registry.All()

	defs := make([]ToolDefinition, 0, len(all))
	for _, action := range all {
		params := action.Parameters
		if params == nil {
			params = actions.NoParams()
		}

		defs = append(defs, ToolDefinition{
			Type: "function",
			Function: ToolDefFunction{
				Name:        action.Name,
				Description: action.Description,
				Parameters:  params,
			},
		})
	}

	return defs
}

func (a *Agent) systemPrompt() string {
	var b strings.Builder

	b.WriteString("You are an infrastructure agent that manages GPU compute and Ethereum nodes on remote servers.\n\n")
	b.WriteString("You can rent GPU machines on the Hyperbolic marketplace, connect to them over SSH, run shell commands on them and provision Ethereum snap-sync nodes.\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("- Connect with ssh_connect before using remote_shell or spin_up_snap_node.\n")
	b.WriteString("- Shell command replies starting with \"Error:\" or \"SSH\" indicate a failure; read them and adjust.\n")
	b.WriteString("- Be concise. Report what you did and what the outcome was.\n\n")
	b.WriteString(fmt.Sprintf("Current time: %s\n\n", time.Now().Format(time.RFC1123)))

	b.WriteString("Available tools:\n")
	for _, action := range a.registry.All() {
		summary := action.Description
		if idx := strings.IndexByte(summary, '\n'); idx > 0 {
			summary = summary[:idx]
		}
		fmt.Fprintf(&b, "- %s: %s\n", action.Name, summary)
	}

	return b.String()
}

// parseToolArgs decodes the JSON arguments string of a tool call. An empty
// string decodes to an empty argument map.
func parseToolArgs(argsJSON string) (actions.Args, error) {
	if argsJSON == "" || argsJSON == "{}" {
		return actions.Args{}, nil
	}

	var args actions.Args
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return nil, fmt.Errorf("invalid JSON arguments: %w", err)
	}
	if args == nil {
		args = actions.Args{}
	}
	return args, nil
}
