package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// NewOptionsCmd creates the options command.
func NewOptionsCmd(deps CommandDependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List accepted option values and the configured defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			resp, err := resolveAnnotator(cliCtx, deps).Options(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, optionsResult{resp})
		},
	}
}

type optionsResult struct {
	resp *dto.OptionsResponse
}

func (o optionsResult) JSONValue() interface{} { return o.resp }

func (o optionsResult) String() string {
	d := o.resp.Defaults
	var sb strings.Builder
	fmt.Fprintf(&sb, "hdisp:      %s (default %s)\n", strings.Join(o.resp.HydrogenDisplays, ", "), d.HydrogenDisplay)
	fmt.Fprintf(&sb, "dat:        %s (default %s)\n", strings.Join(o.resp.DativePolicies, ", "), d.Dative)
	fmt.Fprintf(&sb, "arw:        %s\n", strings.Join(o.resp.Arrows, ", "))
	fmt.Fprintf(&sb, "hydrates:   %t\n", d.Hydrates)
	fmt.Fprintf(&sb, "sync:       %t\n", d.Sync)
	fmt.Fprintf(&sb, "mapchanges: %t\n", d.MapChanges)
	return sb.String()
}

func (o optionsResult) TableHeaders() []string {
	return []string{"OPTION", "VALUES", "DEFAULT"}
}

func (o optionsResult) TableRows() [][]string {
	d := o.resp.Defaults
	return [][]string{
		{"hdisp", strings.Join(o.resp.HydrogenDisplays, ","), d.HydrogenDisplay},
		{"dat", strings.Join(o.resp.DativePolicies, ","), d.Dative},
		{"arw", strings.Join(o.resp.Arrows, ","), d.Arrow},
		{"hydrates", "true,false", fmt.Sprint(d.Hydrates)},
		{"sync", "true,false", fmt.Sprint(d.Sync)},
		{"mapchanges", "true,false", fmt.Sprint(d.MapChanges)},
	}
}

//Personal.AI order the ending
