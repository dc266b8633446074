package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/biodoia/goleapsocial/internal/social"
	"github.com/biodoia/goleapsocial/internal/tui"
	"github.com/spf13/cobra"
)

var (
	runTopic    string
	runPlatform string
	runAPIKey   string
	runPlain    bool
	runJSON     bool
)

// RunCmd esegue una singola generazione dal terminale
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Research a topic and write a post from the terminal",
	Long: `Run the research and writing agents once and print the generated post.

The API key is read from --api-key, then llm.api_key / OPENAI_API_KEY.`,
	Example: `  # Default topic on Twitter/X with the progress view
  goleapsocial run

  # LinkedIn post, plain output for scripts
  goleapsocial run --topic "Generative AI" --platform LinkedIn --plain

  # JSON output
  goleapsocial run --topic "Rust vs Go" --json`,
	RunE: runRun,
}

func init() {
	RunCmd.Flags().StringVarP(&runTopic, "topic", "t", "Generative AI", "Topic to research and post about")
	RunCmd.Flags().StringVarP(&runPlatform, "platform", "p", string(social.PlatformTwitter), "Target platform (Twitter/X, LinkedIn, Instagram)")
	RunCmd.Flags().StringVar(&runAPIKey, "api-key", "", "LLM API key (overrides configuration)")
	RunCmd.Flags().BoolVar(&runPlain, "plain", false, "Disable the progress view")
	RunCmd.Flags().BoolVar(&runJSON, "json", false, "Print the result as JSON (implies --plain)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	interactive := !runPlain && !runJSON
	level := logLevel(cmd, cfg)
	if interactive && level != "debug" {
		// Il progress view occupa il terminale
		level = "error"
	}
	setupLogger(level, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := newRuntime(cfg)
	defer rt.Close()

	req := social.Request{
		Topic:    runTopic,
		Platform: runPlatform,
		APIKey:   runAPIKey,
	}

	if interactive {
		// La vista finale mostra già l'esito
		_, err := tui.Run(ctx, rt.runner, req)
		return err
	}

	resp, err := rt.runner.Run(ctx, req)
	if runJSON {
		return printJSON(resp, err)
	}

	fmt.Print(tui.RenderOutcome(resp, err))
	return err
}

func printJSON(resp *social.Response, runErr error) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if runErr != nil {
		kind := social.Classify(runErr)
		_ = enc.Encode(map[string]string{
			"error": runErr.Error(),
			"kind":  string(kind),
			"hint":  kind.Hint(),
		})
		return runErr
	}

	return enc.Encode(resp)
}
