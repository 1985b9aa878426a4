package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ThomasVuNguyen/sim/engine/core"
	"github.com/ThomasVuNguyen/sim/engine/sandbox"
	"github.com/ThomasVuNguyen/sim/pkg/logger"
	"github.com/spf13/cobra"
)

func ExecCmd() *cobra.Command {
	var (
		language  string
		timeoutMs int
		envPairs  []string
	)
	cmd := &cobra.Command{
		Use:   "exec <file>",
		Short: "Run a script file once and print the execution envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script file: %w", err)
			}
			envVars := core.EnvMap{}
			for _, pair := range envPairs {
				key, value, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --env entry %q, expected KEY=VALUE", pair)
				}
				envVars[key] = value
			}
			req := &sandbox.ExecutionRequest{
				Code:      string(code),
				Language:  sandbox.Language(language),
				TimeoutMs: timeoutMs,
				EnvVars:   envVars,
			}
			log := logger.NewLogger(&logger.Config{Level: logger.WarnLevel})
			ctx := logger.ContextWithLogger(cmd.Context(), log)
			result, err := sandbox.NewService().Execute(ctx, req)
			if err != nil {
				if dErr, ok := sandbox.IsDelegation(err); ok {
					return fmt.Errorf("this script requires the external sandbox service (%s)", dErr.Reason)
				}
				return err
			}
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if !result.Success {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", string(sandbox.LanguageJavaScript), "script language")
	cmd.Flags().IntVar(&timeoutMs, "timeout", 0, "execution timeout in milliseconds (0 uses the default)")
	cmd.Flags().StringArrayVar(&envPairs, "env", nil, "environment values as KEY=VALUE, referenced via {{KEY}}")
	return cmd
}
