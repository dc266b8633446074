package webui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/biodoia/goleapsocial/internal/social"
)

const defaultTopic = "Generative AI"

// FormData contiene i valori precompilati del form
type FormData struct {
	Topic     string
	Platform  social.Platform
	KeyStored bool
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Agentic Social Media Manager</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<style>
body{font-family:system-ui,sans-serif;max-width:720px;margin:2rem auto;padding:0 1rem;color:#1f2937}
label{display:block;margin-top:1rem;font-weight:600}
input,select{width:100%;padding:.5rem;margin-top:.25rem;box-sizing:border-box}
button{margin-top:1.5rem;padding:.6rem 1.2rem;font-weight:600;cursor:pointer}
.htmx-indicator{display:none}.htmx-request .htmx-indicator,.htmx-request.htmx-indicator{display:block}
.success{background:#ecfdf5;border:1px solid #10b981;padding:.75rem;margin-top:1.5rem}
.error{background:#fef2f2;border:1px solid #ef4444;padding:.75rem;margin-top:1.5rem}
.warning{background:#fffbeb;border:1px solid #f59e0b;padding:.75rem;margin-top:1rem}
.post{white-space:pre-wrap;border-left:4px solid #6366f1;padding:.5rem 1rem;background:#f9fafb}
.hint{color:#6b7280;font-size:.9rem}
</style>
</head>
<body>
`

// Page renderizza la pagina con il form di generazione
func Page(form FormData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		topic := form.Topic
		if topic == "" {
			topic = defaultTopic
		}

		var sb strings.Builder
		sb.WriteString(pageHead)
		sb.WriteString(`<h1>🤖 Agentic Social Media Manager</h1>
<p>Enter a topic, and your AI crew will research and write a post for you.</p>
<form method="post" action="/generate" hx-post="/generate" hx-target="#result" hx-indicator="#spinner">
<label for="api_key">OpenAI API Key</label>
<input type="password" id="api_key" name="api_key" autocomplete="off"`)
		if form.KeyStored {
			sb.WriteString(` placeholder="Using the key from the server configuration"`)
		}
		sb.WriteString(`>
<label for="topic">What topic should we post about?</label>
<input type="text" id="topic" name="topic" maxlength="200" value="`)
		sb.WriteString(templ.EscapeString(topic))
		sb.WriteString(`">
<label for="platform">Select Platform</label>
<select id="platform" name="platform">`)
		for _, p := range social.Platforms() {
			selected := ""
			if p == form.Platform {
				selected = " selected"
			}
			sb.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`,
				templ.EscapeString(string(p)), selected, templ.EscapeString(string(p))))
		}
		sb.WriteString(`</select>
<button type="submit">Generate &amp; Post</button>
</form>
<p id="spinner" class="htmx-indicator hint">🤖 The Agents are working... (Researching &amp; Writing)</p>
<div id="result"></div>
</body>
</html>
`)

		_, err := io.WriteString(w, sb.String())
		return err
	})
}

// ResultFragment renderizza il post generato
func ResultFragment(resp *social.Response) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<div class="success">Task Complete!</div>`)

		if resp.Degraded {
			sb.WriteString(`<div class="warning">Degraded mode: `)
			sb.WriteString(templ.EscapeString(strings.Join(resp.DegradedReasons, "; ")))
			sb.WriteString(`</div>`)
		}

		sb.WriteString(fmt.Sprintf(`<h2>📝 Generated Post (%s):</h2>`, templ.EscapeString(string(resp.Platform))))
		sb.WriteString(`<div class="post">`)
		sb.WriteString(templ.EscapeString(resp.Post))
		sb.WriteString(`</div>`)
		sb.WriteString(fmt.Sprintf(`<p class="hint">Run %s completed in %s.</p>`,
			templ.EscapeString(resp.RunID), resp.Duration.Round(time.Millisecond)))

		_, err := io.WriteString(w, sb.String())
		return err
	})
}

// ErrorFragment renderizza un errore con il suggerimento per l'utente
func ErrorFragment(kind social.Kind, err error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, werr := io.WriteString(w, fmt.Sprintf(
			`<div class="error" data-kind="%s"><strong>An error occurred:</strong> %s<br><span class="hint">%s</span></div>`,
			templ.EscapeString(string(kind)),
			templ.EscapeString(err.Error()),
			templ.EscapeString(kind.Hint()),
		))
		return werr
	})
}
