package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/intelligence/list_extractor"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

type extractOptions struct {
	entities    []string
	definitions string
	minConf     float64
}

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract [text...]",
		Short: "Extract entities from text",
		Long: "Extract list and pattern entities from text. The text is taken from the\n" +
			"arguments, or from stdin when no arguments are given. With --definitions the\n" +
			"list entities in that file are used instead of the catalog.",
		Example: `  listsense extract --catalog catalog.yaml "I flew to San-Francisco"
  echo "red apple" | listsense extract --catalog catalog.yaml --entities fruit
  listsense extract --definitions airports.yaml -o table "AC1234 to SF"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.entities, "entities", "e", nil, "catalog entities to use (default: all)")
	cmd.Flags().StringVarP(&opts.definitions, "definitions", "d", "", "YAML/JSON file of inline list entity definitions")
	cmd.Flags().Float64Var(&opts.minConf, "min-confidence", 0, "drop matches below this confidence (0.0-1.0)")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string, opts *extractOptions) error {
	if opts.minConf < 0 || opts.minConf > 1 {
		return errors.New(errors.ErrCodeValidation, "min-confidence must be between 0.0 and 1.0").
			WithDetailf("got %.2f", opts.minConf)
	}
	if opts.definitions != "" && len(opts.entities) > 0 {
		return errors.New(errors.ErrCodeValidation, "--entities and --definitions are mutually exclusive")
	}
	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
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

	var found []entity.Entity
	if opts.definitions != "" {
		defs, err := loadDefinitions(opts.definitions)
		if err != nil {
			return err
		}
		results, err := backend.ExtractTokens(ctx, list_extractor.SpaceTokenizer(text), defs)
		if err != nil {
			return err
		}
		for _, r := range results {
			found = append(found, entity.Entity{Type: entity.KindList, ExtractionResult: r})
		}
	} else {
		if found, err = backend.ExtractText(ctx, text, opts.entities); err != nil {
			return err
		}
	}

	out := make(extractResult, 0, len(found))
	for _, e := range found {
		if e.Confidence >= opts.minConf {
			out = append(out, e)
		}
	}
	cliCtx.Logger.Debug("extraction completed",
		logging.Int("text_length", len(text)),
		logging.Int("entities", len(out)))
	return PrintResult(cmd, out)
}

// readText joins args with spaces, or reads all of in when args is empty.
func readText(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "cannot read stdin")
	}
	text := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(text) == "" {
		return "", errors.New(errors.ErrCodeEmptyUtterance, "no text given")
	}
	return text, nil
}

// loadDefinitions reads a bare list of list entities or a catalog-shaped
// document with a "lists" key, and compiles each with the space tokenizer.
func loadDefinitions(path string) ([]entity.EntityDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "cannot read definitions file").WithDetail(path)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "invalid definitions file").WithDetail(path)
	}

	var raw []entity.ListEntityDef
	if len(doc.Content) > 0 && doc.Content[0].Kind == yaml.SequenceNode {
		err = doc.Content[0].Decode(&raw)
	} else {
		var wrapped struct {
			Lists []entity.ListEntityDef `yaml:"lists"`
		}
		err = doc.Decode(&wrapped)
		raw = wrapped.Lists
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "invalid definitions file").WithDetail(path)
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDefinition, "definitions file has no list entities").WithDetail(path)
	}

	defs := make([]entity.EntityDefinition, 0, len(raw))
	for _, r := range raw {
		def, err := r.Compile(list_extractor.SpaceTokenizer)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

type extractResult []entity.Entity

func (r extractResult) TableHeaders() []string {
	return []string{"Type", "Entity", "Value", "Source", "Span", "Confidence"}
}

func (r extractResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, e := range r {
		rows = append(rows, []string{
			string(e.Type),
			e.Name,
			e.Value,
			e.Source,
			fmt.Sprintf("%d-%d", e.CharStart, e.CharEnd),
			colorizeConfidence(e.Confidence),
		})
	}
	return rows
}

func (r extractResult) String() string {
	if len(r) == 0 {
		return "No entities found.\n"
	}
	var sb strings.Builder
	for _, e := range r {
		fmt.Fprintf(&sb, "%s %s=%s %q [%d,%d) %s\n",
			color.CyanString(string(e.Type)), e.Name, color.New(color.Bold).Sprint(e.Value),
			e.Source, e.CharStart, e.CharEnd, colorizeConfidence(e.Confidence))
	}
	return sb.String()
}

func colorizeConfidence(c float64) string {
	s := fmt.Sprintf("%.2f", c)
	switch {
	case c >= 0.9:
		return color.GreenString(s)
	case c >= 0.7:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

//Personal.AI order the ending
