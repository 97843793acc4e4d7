package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/trs/internal/rule"
)

var (
	rulesSearch searchFlags
	rulesAsYAML bool
	listBuiltin bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the rules a search would use",
	Run: func(cmd *cobra.Command, args []string) {
		if listBuiltin {
			for _, name := range rule.BuiltinNames() {
				fmt.Println(name)
			}
			return
		}

		cfg, err := rulesSearch.loadConfig(cmd)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		set, err := cfg.LoadRules()
		if err != nil {
			logger.Fatal("Failed to load rules", zap.Error(err))
		}

		if err := printRules(os.Stdout, set, rulesAsYAML); err != nil {
			logger.Error("Error printing rules", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	rulesSearch.register(rulesCmd)
	rulesCmd.Flags().BoolVar(&rulesAsYAML, "yaml", false, "Print the rules as a YAML rule file")
	rulesCmd.Flags().BoolVar(&listBuiltin, "builtin", false, "List the names of the built-in rule sets")
}

func printRules(out io.Writer, set rule.Set, asYAML bool) error {
	if asYAML {
		d, err := set.Marshal()
		if err != nil {
			return err
		}
		_, err = out.Write(d)
		return err
	}

	fmt.Fprintf(out, "%s (%d rules)\n", set.Name, set.Len())
	for _, r := range set.Rules {
		if _, err := fmt.Fprintf(out, "  %-22s %s\n", r.Name, r); err != nil {
			return err
		}
	}
	return nil
}
