package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/vango-dev/sizewatch/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe an error code",
		Long: `Explain prints the category, message and detail of an error code
such as E120. Without an argument it lists every known code.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errs.Codes() {
					t, _ := errs.Lookup(code)
					fmt.Fprintf(out, "%s  %-13s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			t, ok := errs.Lookup(code)
			if !ok {
				return fmt.Errorf("unknown error code %q", args[0])
			}
			fmt.Fprintf(out, "%s: %s\n", code, t.Message)
			fmt.Fprintf(out, "  Category: %s\n", t.Category)
			if t.Detail != "" {
				fmt.Fprintf(out, "  %s\n", t.Detail)
			}
			return nil
		},
	}
}
