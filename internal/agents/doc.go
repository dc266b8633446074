// Package agents definisce gli agenti LLM e i task che eseguono.
//
// Un Agent è immutabile dopo la costruzione: nome, ruolo, obiettivo, backstory,
// l'Handle del modello e l'insieme di tool che può invocare. Un Task lega un
// agente a una descrizione in linguaggio naturale e riceve il proprio contesto
// una sola volta, subito prima dell'esecuzione.
//
// Esempio di utilizzo:
//
//	researcher, err := agents.New(agents.Config{
//	    Name:  "Research Analyst",
//	    Role:  "Investigates and gathers latest online information.",
//	    Goal:  "Provide accurate, concise research from reliable sources.",
//	    LLM:   handle,
//	    Tools: []tools.Tool{searchTool},
//	})
//
//	task, err := agents.NewTask(agents.TaskConfig{
//	    Name:           "research",
//	    Description:    "Search the web and compile key findings for: Generative AI",
//	    ExpectedOutput: "A structured research summary in bullet-point format.",
//	    Agent:          researcher,
//	})
//
//	_ = task.SetContext("Generative AI")
//	out, err := task.Execute(ctx)
package agents
