package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/rs/zerolog/log"
)

// ToolErrorPrefix marca le tool calls rifiutate o non valide
const ToolErrorPrefix = "[TOOL ERROR]"

const finalAnswerPrompt = "You have reached the maximum number of tool calls. " +
	"Do not call any more tools. Give your best complete final answer now."

// Execute esegue il ciclo di ragionamento dell'agente sul task.
//
// Finché il modello risponde con tool calls, i tool vengono invocati e i
// risultati rimandati al modello; la prima risposta testuale è il risultato.
// Dopo maxIterations round viene fatta un'ultima chiamata senza tool.
func (a *Agent) Execute(ctx context.Context, task *Task) (*TaskOutput, error) {
	start := time.Now()
	out := &TaskOutput{Task: task.Name(), Agent: a.name}

	logger := log.With().
		Str("agent", a.name).
		Str("task", task.Name()).
		Logger()

	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: a.systemPrompt()},
		{Role: providers.RoleUser, Content: userPrompt(task)},
	}
	defs := a.toolDefinitions()

	logger.Debug().
		Bool("degraded", a.Degraded()).
		Strs("tools", a.ToolNames()).
		Msg("Agent started task")

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		msg, err := a.complete(ctx, messages, defs, &out.Usage)
		if err != nil {
			return nil, err
		}

		if len(msg.ToolCalls) == 0 {
			return a.finish(out, msg.Content, start)
		}

		logger.Debug().
			Int("iteration", iteration).
			Int("tool_calls", len(msg.ToolCalls)).
			Msg("Agent requested tools")

		messages = append(messages, providers.Message{
			Role:      providers.RoleAssistant,
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})

		for _, call := range msg.ToolCalls {
			result := a.invokeTool(ctx, call)
			out.ToolCalls++

			messages = append(messages, providers.Message{
				Role:       providers.RoleTool,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	logger.Warn().
		Int("max_iterations", a.maxIterations).
		Msg("Tool call budget exhausted, forcing final answer")

	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: finalAnswerPrompt})

	msg, err := a.complete(ctx, messages, nil, &out.Usage)
	if err != nil {
		return nil, err
	}

	return a.finish(out, msg.Content, start)
}

// complete esegue una singola chiamata al modello
func (a *Agent) complete(ctx context.Context, messages []providers.Message, defs []providers.Tool, usage *providers.Usage) (providers.Message, error) {
	if err := ctx.Err(); err != nil {
		return providers.Message{}, err
	}

	resp, err := a.llm.Provider.ChatCompletion(ctx, a.llm.Request(messages, defs))
	if err != nil {
		return providers.Message{}, fmt.Errorf("agent %q: model call failed: %w", a.name, err)
	}

	usage.Add(resp.Usage)

	msg, ok := resp.FirstMessage()
	if !ok {
		return providers.Message{}, fmt.Errorf("agent %q: %w", a.name, ErrEmptyOutput)
	}
	return msg, nil
}

func (a *Agent) finish(out *TaskOutput, content string, start time.Time) (*TaskOutput, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("agent %q: %w", a.name, ErrEmptyOutput)
	}

	out.Raw = content
	out.Duration = time.Since(start)
	return out, nil
}

// invokeTool esegue una tool call solo se il tool appartiene all'agente
func (a *Agent) invokeTool(ctx context.Context, call providers.ToolCall) string {
	if !a.HasTool(call.Function.Name) {
		log.Warn().
			Str("agent", a.name).
			Str("tool", call.Function.Name).
			Msg("Agent requested a tool outside its set")
		return fmt.Sprintf("%s tool %q is not available to agent %q", ToolErrorPrefix, call.Function.Name, a.name)
	}

	tool := a.tools[call.Function.Name]
	start := time.Now()
	result := tool.Invoke(ctx, call.Function.Arguments)

	log.Debug().
		Str("agent", a.name).
		Str("tool", tool.Name).
		Dur("duration", time.Since(start)).
		Int("result_len", len(result)).
		Msg("Tool executed")

	return result
}

func (a *Agent) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are %s. %s\n", a.name, a.role))
	sb.WriteString(fmt.Sprintf("Your personal goal is: %s\n", a.goal))
	if a.backstory != "" {
		sb.WriteString(a.backstory)
		sb.WriteByte('\n')
	}
	if len(a.toolNames) > 0 {
		sb.WriteString(fmt.Sprintf("You can use these tools when useful: %s.\n", strings.Join(a.toolNames, ", ")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func userPrompt(task *Task) string {
	var sb strings.Builder
	sb.WriteString("Current Task: ")
	sb.WriteString(task.Description())

	if task.ExpectedOutput() != "" {
		sb.WriteString("\n\nThis is the expected criteria for your final answer: ")
		sb.WriteString(task.ExpectedOutput())
		sb.WriteString("\nYou MUST return the actual complete content as the final answer, not a summary.")
	}

	if c, ok := task.Context(); ok && c != "" {
		sb.WriteString("\n\nThis is the context you're working with:\n")
		sb.WriteString(c)
	}

	sb.WriteString("\n\nBegin! This is VERY important to you, use the tools available and give your best Final Answer.")
	return sb.String()
}
