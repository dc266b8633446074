package social

import (
	"fmt"

	"github.com/biodoia/goleapsocial/internal/agents"
	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/internal/tools"
)

const (
	researchTaskName = "research"
	writingTaskName  = "writing"

	researchExpectedOutput = "A structured research summary in bullet-point format."
)

// CrewDeps contiene le dipendenze per-run della crew
type CrewDeps struct {
	LLM           *providers.Handle
	Registry      *tools.Registry
	MaxIterations int
}

// BuildPipeline costruisce la crew research → write/post per topic e piattaforma.
// Agenti e task sono nuovi a ogni chiamata.
func BuildPipeline(topic string, platform Platform, deps CrewDeps, observers ...chaining.Observer) (*chaining.Pipeline, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("%w: tool registry is required", ErrConfiguration)
	}

	researchTools, err := deps.Registry.Select(tools.SearchToolName)
	if err != nil {
		return nil, err
	}
	writerTools, err := deps.Registry.Select(tools.PostToolName)
	if err != nil {
		return nil, err
	}

	researcher, err := agents.New(agents.Config{
		Name: "Research Analyst",
		Role: "Investigates and gathers latest online information.",
		Goal: fmt.Sprintf("Provide accurate, concise research about %s from reliable sources.", topic),
		Backstory: "You are a detail-oriented research expert who finds factual, " +
			"traceable online information and summarizes it clearly.",
		LLM:           deps.LLM,
		Tools:         researchTools,
		MaxIterations: deps.MaxIterations,
	})
	if err != nil {
		return nil, err
	}

	writer, err := agents.New(agents.Config{
		Name: "Social Media Manager",
		Role: "Turns research into engaging social media posts and publishes them.",
		Goal: fmt.Sprintf("Write and publish a compelling %s post about %s.", platform, topic),
		Backstory: "You are an experienced social media strategist who writes " +
			"clear, factual posts tailored to each platform's audience.",
		LLM:           deps.LLM,
		Tools:         writerTools,
		MaxIterations: deps.MaxIterations,
	})
	if err != nil {
		return nil, err
	}

	research, err := agents.NewTask(agents.TaskConfig{
		Name:           researchTaskName,
		Description:    ResearchDescription(topic),
		ExpectedOutput: researchExpectedOutput,
		Agent:          researcher,
	})
	if err != nil {
		return nil, err
	}

	writing, err := agents.NewTask(agents.TaskConfig{
		Name:           writingTaskName,
		Description:    WritingDescription(topic, platform),
		ExpectedOutput: WritingExpectedOutput(platform),
		Agent:          writer,
	})
	if err != nil {
		return nil, err
	}

	return chaining.NewPipeline([]*agents.Task{research, writing}, observers...)
}

// ResearchDescription restituisce la descrizione del task di ricerca
func ResearchDescription(topic string) string {
	return fmt.Sprintf("Search the web and compile key findings for the following topic:\n%s\n\n"+
		"Return bullet points containing facts, stats, trends, and insights.", topic)
}

// WritingDescription restituisce la descrizione del task di scrittura
func WritingDescription(topic string, platform Platform) string {
	return fmt.Sprintf("Using the research summary, write an engaging %s post about the following topic:\n%s\n\n"+
		"%s\nKeep it factual and easy to read. When the post is final, publish it with the %s tool, "+
		"then return the exact published post text as your final answer.",
		platform, topic, platform.Constraint(), tools.PostToolName)
}

// WritingExpectedOutput restituisce il formato atteso del post
func WritingExpectedOutput(platform Platform) string {
	return fmt.Sprintf("The final %s post text, ready to publish. %s", platform, platform.Constraint())
}
