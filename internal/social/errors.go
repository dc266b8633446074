package social

import (
	"errors"

	"github.com/biodoia/goleapsocial/internal/providers"
)

var (
	// ErrInvalidRequest segnala input utente non valido (topic o piattaforma)
	ErrInvalidRequest = errors.New("invalid request")
	// ErrConfiguration segnala una credenziale mancante o malformata.
	// Anche providers.ErrUnauthorized viene classificato come configurazione.
	ErrConfiguration = errors.New("configuration error")
	// ErrPipelineFailed segnala il fallimento di un'esecuzione
	ErrPipelineFailed = errors.New("pipeline failed")
)

// Kind classifica un errore per il livello di presentazione
type Kind string

const (
	KindRequest       Kind = "request"
	KindConfiguration Kind = "configuration"
	KindPipeline      Kind = "pipeline"
)

// Classify restituisce la categoria di err; errori sconosciuti sono KindPipeline
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return KindRequest
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	// credenziale valida nel formato ma rifiutata dal provider a run avviato
	case errors.Is(err, providers.ErrUnauthorized):
		return KindConfiguration
	default:
		return KindPipeline
	}
}

// Hint suggerisce all'utente come procedere
func (k Kind) Hint() string {
	switch k {
	case KindRequest:
		return "Check the topic and platform, then try again."
	case KindConfiguration:
		return "Fix the API key or configuration, then try again."
	default:
		return "Retry, or try a different topic."
	}
}
