package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gradecoach/gradecoach/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after merging defaults, the config
file, environment variables, and flags. Credentials are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Setting", "Value"})

		t.AppendRows([]table.Row{
			{"server.host", cfg.Server.Host},
			{"server.port", cfg.Server.Port},
			{"server.read_timeout", cfg.Server.ReadTimeout},
			{"server.write_timeout", cfg.Server.WriteTimeout},
			{"server.idle_timeout", cfg.Server.IdleTimeout},
			{"server.shutdown_timeout", cfg.Server.ShutdownTimeout},
		})
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"limiter.limit", cfg.Limiter.Limit},
			{"limiter.window", cfg.Limiter.Window},
			{"limiter.sweep_interval", sweepLabel(cfg.Limiter.SweepInterval)},
		})
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"openai.base_url", cfg.OpenAI.BaseURL},
			{"openai.api_key", maskCredential(cfg.OpenAI.APIKey)},
			{"openai.model", cfg.OpenAI.Model},
			{"openai.timeout", cfg.OpenAI.Timeout},
		})
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"grader.tones_file", orUnset(cfg.Grader.TonesFile)},
			{"cors.allowed_origin", cfg.CORS.AllowedOrigin},
			{"logging.level", cfg.Logging.Level},
			{"metrics.enabled", cfg.Metrics.Enabled},
			{"metrics.port", cfg.Metrics.Port},
		})

		t.Render()

		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", file)
		}
		return nil
	},
}

// maskCredential keeps enough of the key to recognize it without exposing it.
func maskCredential(key string) string {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return "(unset)"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "..." + key[len(key)-4:]
	}
}

func sweepLabel(d time.Duration) string {
	if d <= 0 {
		return "disabled"
	}
	return d.String()
}

func orUnset(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(built-in defaults)"
	}
	return s
}

func init() {
	rootCmd.AddCommand(configCmd)
}
