// Package tools espone gli effetti esterni come capability con nome e un solo
// argomento, invocabili dal ciclo di ragionamento di un agente.
package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/biodoia/goleapsocial/internal/providers"
)

// Func è il corpo testo-in/testo-out di una capability. I fallimenti sono
// riportati nel testo restituito, mai come errore Go, così il modello li legge.
type Func func(ctx context.Context, input string) string

// Tool è una capability con nome e descrizione e un solo argomento stringa
type Tool struct {
	Name         string
	Description  string
	Argument     string
	ArgumentHelp string
	Fn           Func
}

// Middleware decora un tool al momento della registrazione
type Middleware func(Tool) Tool

// Definition restituisce lo schema della funzione annunciato al modello
func (t Tool) Definition() providers.Tool {
	return providers.Tool{
		Type: "function",
		Function: providers.Function{
			Name:        t.Name,
			Description: t.Description,
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					t.Argument: map[string]interface{}{
						"type":        "string",
						"description": t.ArgumentHelp,
					},
				},
				"required": []string{t.Argument},
			},
		},
	}
}

// Invoke esegue il tool con gli argomenti JSON grezzi prodotti dal modello
func (t Tool) Invoke(ctx context.Context, rawArgs string) string {
	return t.Fn(ctx, t.ParseArgument(rawArgs))
}

// ParseArgument estrae l'argomento del tool da un oggetto JSON. Sono accettati
// anche una stringa semplice o una chiave con nome diverso.
func (t Tool) ParseArgument(rawArgs string) string {
	raw := strings.TrimSpace(rawArgs)

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		var s string
		if json.Unmarshal([]byte(raw), &s) == nil {
			return s
		}
		return raw
	}

	if v, ok := args[t.Argument].(string); ok {
		return v
	}

	if len(args) == 1 {
		for _, v := range args {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}

	return ""
}
