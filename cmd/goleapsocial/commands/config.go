package commands

import (
	"fmt"
	"os"

	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigCmd rappresenta il comando config
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage GoLeapSocial configuration files.

This command allows you to view, validate, and generate configuration files.`,
	Example: `  # Show current configuration
  goleapsocial config show

  # Validate configuration file
  goleapsocial config validate -c config.yaml

  # Generate template configuration
  goleapsocial config generate -o config.yaml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the loaded configuration (file, environment and defaults). Secrets are masked.`,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate a configuration file for syntax and semantic errors.`,
	RunE:  runConfigValidate,
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate template configuration",
	Long:  `Generate a template configuration file with all available options.`,
	Example: `  # Generate to stdout
  goleapsocial config generate

  # Generate to file
  goleapsocial config generate -o config.yaml`,
	RunE: runConfigGenerate,
}

var configOutput string

func init() {
	configGenerateCmd.Flags().StringVarP(&configOutput, "output", "o", "", "Output file path (stdout if not specified)")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configGenerateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := yaml.Marshal(redacted(cfg))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Println("# Current Configuration")
	fmt.Println("# =====================")
	fmt.Println()
	fmt.Print(string(data))

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = "(default search paths)"
	}

	fmt.Printf("Validating configuration: %s\n\n", configPath)

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Println("✗ Configuration validation failed")
		return err
	}

	fmt.Println("✓ Configuration is valid")
	fmt.Println()
	fmt.Println("Configuration summary:")
	fmt.Printf("  Server:     %s:%d (rate limit %d/min)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.RateLimit)
	fmt.Printf("  LLM:        %s @ %s\n", cfg.LLM.Model, cfg.LLM.BaseURL)
	fmt.Printf("  API key:    %s\n", mask(cfg.LLM.APIKey))
	fmt.Printf("  Search:     %s (max %d results)\n", cfg.Search.Provider, cfg.Search.MaxResults)
	fmt.Printf("  Cache:      %s\n", cfg.Cache.Type)
	fmt.Printf("  Prometheus: %v\n", cfg.Monitoring.Prometheus.Enabled)

	return nil
}

func runConfigGenerate(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	output := `# GoLeapSocial Configuration File
# ===============================
#
# Every value can be overridden with GOLEAPSOCIAL_<SECTION>_<KEY>,
# e.g. GOLEAPSOCIAL_LLM_MODEL. OPENAI_API_KEY and BRAVE_API_KEY are also read.

`
	output += string(data)

	if configOutput != "" {
		if err := os.WriteFile(configOutput, []byte(output), 0600); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		fmt.Printf("✓ Configuration template generated: %s\n", configOutput)
	} else {
		fmt.Print(output)
	}

	return nil
}

// redacted restituisce una copia con i segreti mascherati
func redacted(cfg *config.Config) *config.Config {
	out := *cfg
	out.LLM.APIKey = mask(cfg.LLM.APIKey)
	out.Search.APIKey = mask(cfg.Search.APIKey)
	out.Redis.Password = mask(cfg.Redis.Password)
	return &out
}

func mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return secret[:3] + "****" + secret[len(secret)-4:]
	}
}
