package commands

import (
	"fmt"
	"strings"

	"github.com/FranksOps/followtrack/internal/count"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Parse a follower count the way the sources do.",
	Example: `  followtrack parse "1.5M"
  followtrack parse "200,123,456"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		n, err := count.Parse(text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d (%s)\n", n, humanize.Comma(n))
		fmt.Fprintf(out, "structural range: %s\n", verdict(count.StructuralRange.Contains(n)))
		fmt.Fprintf(out, "generic range:    %s\n", verdict(count.GenericRange.Contains(n)))
		return nil
	},
}

func verdict(ok bool) string {
	if ok {
		return "plausible"
	}
	return "rejected"
}
