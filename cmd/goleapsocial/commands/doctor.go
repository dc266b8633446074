package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/internal/providers/openai"
	"github.com/biodoia/goleapsocial/internal/tools"
	"github.com/biodoia/goleapsocial/pkg/cache"
	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/spf13/cobra"
)

// DoctorCmd rappresenta il comando doctor
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health diagnostics",
	Long: `Check that GoLeapSocial can run: credential format, LLM reachability,
web search and the search cache backend.`,
	Example: `  # Run full diagnostic
  goleapsocial doctor

  # Check only the LLM endpoint
  goleapsocial doctor --check llm

  # Verbose output
  goleapsocial doctor --verbose`,
	RunE: runDoctor,
}

var (
	doctorCheck   string
	doctorVerbose bool
)

func init() {
	DoctorCmd.Flags().StringVar(&doctorCheck, "check", "", "Run specific check (credential, llm, search, cache)")
	DoctorCmd.Flags().BoolVarP(&doctorVerbose, "verbose", "v", false, "Verbose output")
}

type doctorCheckFunc func(ctx context.Context, cfg *config.Config) error

type namedCheck struct {
	name string
	fn   doctorCheckFunc
}

var doctorChecks = []namedCheck{
	{"credential", checkCredential},
	{"llm", checkLLM},
	{"search", checkSearch},
	{"cache", checkCache},
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger("error", true)

	fmt.Println("GoLeapSocial System Health Check")
	fmt.Println("================================")
	fmt.Println()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if doctorCheck != "" {
		for _, c := range doctorChecks {
			if c.name == doctorCheck {
				return c.fn(ctx, cfg)
			}
		}
		return fmt.Errorf("unknown check: %s", doctorCheck)
	}

	failed := 0
	results := make([]bool, len(doctorChecks))
	for i, c := range doctorChecks {
		fmt.Printf("[%d/%d] ", i+1, len(doctorChecks))
		results[i] = c.fn(ctx, cfg) == nil
		if !results[i] {
			failed++
		}
		fmt.Println()
	}

	fmt.Println("Summary")
	fmt.Println("-------")
	for i, c := range doctorChecks {
		status := "✓ PASS"
		if !results[i] {
			status = "✗ FAIL"
		}
		fmt.Printf("%-15s %s\n", c.name+":", status)
	}

	fmt.Println()
	if failed == 0 {
		fmt.Println("✓ All checks passed - ready to post")
		return nil
	}

	fmt.Println("✗ Some checks failed - please review errors above")
	return fmt.Errorf("%d health check(s) failed", failed)
}

func checkCredential(ctx context.Context, cfg *config.Config) error {
	fmt.Println("Credential Check")
	fmt.Println("----------------")

	if err := providers.ValidateAPIKey(cfg.LLM.APIKey); err != nil {
		fmt.Printf("✗ %v\n", err)
		if errors.Is(err, providers.ErrMissingAPIKey) {
			fmt.Println("  Set OPENAI_API_KEY or llm.api_key (users can still enter a key in the form)")
		}
		if cfg.LLM.AllowDegraded {
			fmt.Println("⚠️  llm.allow_degraded is on: runs will use labelled placeholder answers")
		}
		return err
	}

	fmt.Println("✓ API key present and well-formed")
	return nil
}

func checkLLM(ctx context.Context, cfg *config.Config) error {
	fmt.Println("LLM Health Check")
	fmt.Println("----------------")

	handle, err := providers.Open(cfg.LLM, cfg.LLM.APIKey, openai.NewFactory())
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return err
	}
	if handle.Degraded {
		fmt.Printf("✗ Skipped: %v\n", handle.Reason)
		return handle.Reason
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	start := time.Now()
	if err := handle.Provider.HealthCheck(ctx); err != nil {
		fmt.Printf("✗ %s unreachable: %v\n", cfg.LLM.BaseURL, err)
		return err
	}

	fmt.Printf("✓ %s reachable (%s)\n", cfg.LLM.BaseURL, time.Since(start).Round(time.Millisecond))
	if doctorVerbose {
		fmt.Printf("  Model: %s\n", cfg.LLM.Model)
		fmt.Printf("  Temperature: %.2f\n", cfg.LLM.Temperature)
		fmt.Printf("  Max tokens: %d\n", cfg.LLM.MaxTokens)
	}
	return nil
}

func checkSearch(ctx context.Context, cfg *config.Config) error {
	fmt.Println("Search Check")
	fmt.Println("------------")

	res := tools.ResolveSearch(cfg.Search)
	if res.Degraded {
		fmt.Printf("⚠️  Search degraded: %v\n", res.Reason)
		fmt.Printf("   Agents will receive %q answers\n", tools.MockSearchPrefix)
		if errors.Is(res.Reason, tools.ErrSearchDisabled) {
			return nil
		}
		return res.Reason
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Search.Timeout)
	defer cancel()

	results, err := res.Provider.Search(ctx, "golang", 1)
	if err != nil {
		fmt.Printf("✗ %s search failed: %v\n", res.Provider.Name(), err)
		return err
	}

	fmt.Printf("✓ %s search returned %d result(s)\n", res.Provider.Name(), len(results))
	if doctorVerbose && len(results) > 0 {
		fmt.Printf("  First: %s (%s)\n", results[0].Title, results[0].URL)
	}
	return nil
}

func checkCache(ctx context.Context, cfg *config.Config) error {
	fmt.Println("Cache Check")
	fmt.Println("-----------")

	switch cfg.Cache.Type {
	case "none":
		fmt.Println("⚠️  Search cache disabled")
		return nil
	case "memory":
		fmt.Printf("✓ In-memory cache (%d entries, ttl %s)\n", cfg.Cache.MaxEntries, cfg.Cache.TTL)
		return nil
	}

	rc, err := cache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.TTL)
	if err != nil {
		fmt.Printf("✗ Redis at %s: %v\n", cfg.Redis.Host, err)
		fmt.Println("   (the server starts without a cache when Redis is down)")
		return err
	}
	defer rc.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rc.Ping(ctx); err != nil {
		fmt.Printf("✗ Redis ping failed: %v\n", err)
		return err
	}

	fmt.Printf("✓ Redis reachable at %s\n", cfg.Redis.Host)
	return nil
}
