package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ListSense/pkg/client"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// NewEntitiesCmd creates the entities command group.
func NewEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entities",
		Aliases: []string{"entity"},
		Short:   "Inspect the entity catalog",
	}

	var kind string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntitiesList(cmd, kind)
		},
	}
	listCmd.Flags().StringVarP(&kind, "type", "t", "", "filter by kind: list or pattern")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one entity definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntitiesShow(cmd, args[0])
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func runEntitiesList(cmd *cobra.Command, kind string) error {
	k := entity.Kind(strings.ToLower(kind))
	switch k {
	case "", entity.KindList, entity.KindPattern:
	default:
		return errors.New(errors.ErrCodeValidation, "invalid entity type").
			WithDetailf("type=%q, expected list|pattern", kind)
	}

	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	backend, err := cliCtx.Backend()
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.Context(cmd.Context())
	defer cancel()

	infos, err := backend.ListEntities(ctx, k)
	if err != nil {
		return err
	}
	return PrintResult(cmd, entityList(infos))
}

func runEntitiesShow(cmd *cobra.Command, name string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	backend, err := cliCtx.Backend()
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.Context(cmd.Context())
	defer cancel()

	info, err := backend.GetEntity(ctx, name)
	if err != nil {
		return err
	}
	return PrintResult(cmd, entityDetail(*info))
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

type entityList []client.EntityInfo

func (l entityList) TableHeaders() []string {
	return []string{"Name", "Type", "Values", "Threshold / Pattern"}
}

func (l entityList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		values, detail := summarize(e)
		rows = append(rows, []string{e.Name, string(e.Kind), values, detail})
	}
	return rows
}

func (l entityList) String() string {
	if len(l) == 0 {
		return "Catalog is empty.\n"
	}
	var sb strings.Builder
	for _, e := range l {
		values, detail := summarize(e)
		fmt.Fprintf(&sb, "%-20s %-8s %6s  %s\n", e.Name, e.Kind, values, detail)
	}
	return sb.String()
}

func summarize(e client.EntityInfo) (string, string) {
	switch {
	case e.List != nil:
		return fmt.Sprintf("%d", len(e.List.Values)), fmt.Sprintf("%.2f", e.List.Fuzzy)
	case e.Pattern != nil:
		return "-", e.Pattern.Pattern
	default:
		return "-", "-"
	}
}

type entityDetail client.EntityInfo

func (d entityDetail) TableHeaders() []string { return []string{"Value", "Synonyms"} }

func (d entityDetail) TableRows() [][]string {
	if d.List == nil {
		if d.Pattern != nil {
			return [][]string{{d.Name, d.Pattern.Pattern}}
		}
		return nil
	}
	rows := make([][]string, 0, len(d.List.Values))
	for _, v := range d.List.Values {
		rows = append(rows, []string{v.Name, strings.Join(synonymTexts(v), ", ")})
	}
	return rows
}

func (d entityDetail) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", d.Name, d.Kind)
	switch {
	case d.List != nil:
		fmt.Fprintf(&sb, "  threshold: %.2f\n", d.List.Fuzzy)
		for _, v := range d.List.Values {
			fmt.Fprintf(&sb, "  %s: %s\n", v.Name, strings.Join(synonymTexts(v), ", "))
		}
	case d.Pattern != nil:
		fmt.Fprintf(&sb, "  pattern: %s\n", d.Pattern.Pattern)
		if d.Pattern.MatchCase {
			sb.WriteString("  match case: yes\n")
		}
	}
	return sb.String()
}

func synonymTexts(v entity.ValueDefinition) []string {
	out := make([]string, 0, len(v.Synonyms))
	for _, s := range v.Synonyms {
		out = append(out, strings.Join(s.Tokens, ""))
	}
	return out
}

//Personal.AI order the ending
