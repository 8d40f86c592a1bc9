package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// Annotator is what annotate and options need.  *client.Client satisfies it
// directly; the in-process service is adapted by localAnnotator.
type Annotator interface {
	Annotate(ctx context.Context, req *dto.AnnotateRequest) (*dto.AnnotateResponse, error)
	Options(ctx context.Context) (*dto.OptionsResponse, error)
}

type localAnnotator struct {
	svc depict.Service
}

func (l localAnnotator) Annotate(ctx context.Context, req *dto.AnnotateRequest) (*dto.AnnotateResponse, error) {
	return l.svc.Annotate(ctx, req)
}

func (l localAnnotator) Options(ctx context.Context) (*dto.OptionsResponse, error) {
	return l.svc.Options(ctx), nil
}

// resolveAnnotator prefers injected deps, then --server, then an in-process
// service built from the depict config section.
func resolveAnnotator(cliCtx *CLIContext, deps CommandDependencies) Annotator {
	if deps.Annotator != nil {
		return deps.Annotator
	}
	if cliCtx.Client != nil {
		return cliCtx.Client
	}
	return localAnnotator{svc: depict.NewService(cliCtx.Config.ServiceConfig(), nil, nil, cliCtx.Logger)}
}

// annotateFlags are the per-invocation option overrides.
type annotateFlags struct {
	file      string
	requestID string
	hdisp     string
	dative    string
	arrow     string
}

// boolOverrides name the boolean options that override the request only
// when given on the command line.
var boolOverrides = []string{"suppressh", "hydrates", "sync", "mapchanges"}

// NewAnnotateCmd creates the annotate command.
func NewAnnotateCmd(deps CommandDependencies) *cobra.Command {
	f := &annotateFlags{}
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Annotate one molecule or reaction",
		Long: "Read an annotation request (JSON, '-' for stdin), run the valence, hydrogen\n" +
			"and abbreviation passes and print the annotated graph.",
		Example: "  depict annotate --file nitro.json --dat always -o table\n" +
			"  cat rxn.json | depict annotate -f - --mapchanges --server http://localhost:8080",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, f, deps)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "request file, or - for stdin (required)")
	fl.StringVar(&f.requestID, "request-id", "", "request id echoed in the response")
	fl.StringVar(&f.hdisp, "hdisp", "", "hydrogen display: provided, minimal, explicit, stereo, smart")
	fl.StringVar(&f.dative, "dat", "", "dative bonds: always, metals, never")
	fl.StringVar(&f.arrow, "arw", "", "reaction arrow override: equ, ngo, ret, res")
	fl.Bool("suppressh", true, "allow hydrogen suppression")
	fl.Bool("hydrates", false, "contract waters into a hydrate group")
	fl.Bool("sync", true, "synchronise abbreviations across the reaction")
	fl.Bool("mapchanges", false, "highlight atoms whose mapped connectivity changed")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAnnotate(cmd *cobra.Command, f *annotateFlags, deps CommandDependencies) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	req, err := readRequest(cmd.InOrStdin(), f.file)
	if err != nil {
		return err
	}
	if f.requestID != "" {
		req.RequestID = f.requestID
	}
	if err := applyFlagOverrides(cmd, f, &req.Options); err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	cliCtx.Logger.Debug("Annotating", logging.String("file", f.file), logging.Int("atoms", req.AtomCount()))
	resp, err := resolveAnnotator(cliCtx, deps).Annotate(ctx, req)
	if err != nil {
		return err
	}
	return PrintResult(cmd, annotateResult{resp})
}

// readRequest decodes one AnnotateRequest from path, or from stdin for "-".
func readRequest(stdin io.Reader, path string) (*dto.AnnotateRequest, error) {
	var r io.Reader = stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return nil, errors.InvalidParam("cannot open request file").WithDetail(err.Error())
		}
		defer fh.Close()
		r = fh
	}

	var req dto.AnnotateRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			return nil, errors.New(errors.ErrCodeEmptyRequest, errors.DefaultMessageForCode(errors.ErrCodeEmptyRequest)).
				WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request JSON").WithDetail(path)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func applyFlagOverrides(cmd *cobra.Command, f *annotateFlags, opts *dto.AnnotateOptions) error {
	if f.hdisp != "" {
		opts.HydrogenDisplay = f.hdisp
	}
	if f.dative != "" {
		opts.Dative = f.dative
	}
	if f.arrow != "" {
		opts.Arrow = f.arrow
	}
	targets := map[string]**bool{
		"suppressh":  &opts.SuppressHydrogens,
		"hydrates":   &opts.Hydrates,
		"sync":       &opts.Sync,
		"mapchanges": &opts.MapChanges,
	}
	for _, name := range boolOverrides {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetBool(name)
		if err != nil {
			return errors.InvalidOption("invalid value for " + name).WithDetail(err.Error())
		}
		*targets[name] = &v
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Rendering
// ─────────────────────────────────────────────────────────────────────────────

// annotateResult renders an AnnotateResponse in the three output formats.
type annotateResult struct {
	resp *dto.AnnotateResponse
}

func (a annotateResult) JSONValue() interface{} { return a.resp }

func (a annotateResult) String() string {
	r := a.resp
	var sb strings.Builder
	fmt.Fprintf(&sb, "request:   %s\n", r.RequestID)
	fmt.Fprintf(&sb, "options:   hdisp=%s dat=%s hydrates=%t sync=%t mapchanges=%t",
		r.Options.HydrogenDisplay, r.Options.Dative, r.Options.Hydrates, r.Options.Sync, r.Options.MapChanges)
	if r.Options.Arrow != "" {
		fmt.Fprintf(&sb, " arw=%s", r.Options.Arrow)
	}
	sb.WriteString("\n")
	s := r.Stats
	fmt.Fprintf(&sb, "atoms:     %d\n", s.Atoms)
	fmt.Fprintf(&sb, "radicals:  %d\n", s.Radicals)
	fmt.Fprintf(&sb, "dative:    %d\n", s.DativeBonds)
	fmt.Fprintf(&sb, "hydrogens: +%d -%d\n", s.HydrogensAdded, s.HydrogensRemoved)
	fmt.Fprintf(&sb, "hydrates:  %d\n", s.HydrateGroups)
	fmt.Fprintf(&sb, "synced:    %d\n", s.AbbreviationsSynced)
	if len(r.Highlights) > 0 {
		fmt.Fprintf(&sb, "changed:   %d atoms\n", len(r.Highlights))
	}
	fmt.Fprintf(&sb, "elapsed:   %dms (cached=%t)\n", s.ElapsedMs, s.Cached)
	return sb.String()
}

func (a annotateResult) TableHeaders() []string {
	return []string{"MOL", "IDX", "ATOM", "CHARGE", "H", "RAD", "MAP"}
}

func (a annotateResult) TableRows() [][]string {
	var rows [][]string
	add := func(label string, m *dto.MoleculeDTO) {
		for i, at := range m.Atoms {
			sym := at.Symbol
			if sym == "" {
				sym = "#" + strconv.Itoa(at.AtomicNumber)
			}
			mapIdx := ""
			if at.MapIdx != 0 {
				mapIdx = strconv.Itoa(at.MapIdx)
			}
			rows = append(rows, []string{label, strconv.Itoa(i), sym,
				strconv.Itoa(at.Charge), strconv.Itoa(at.ImplicitH), strconv.Itoa(at.Radicals), mapIdx})
		}
	}
	if m := a.resp.Molecule; m != nil {
		add("mol", m)
	}
	if rxn := a.resp.Reaction; rxn != nil {
		for i := range rxn.Reactants {
			add("reactant "+strconv.Itoa(i), &rxn.Reactants[i])
		}
		for i := range rxn.Agents {
			add("agent "+strconv.Itoa(i), &rxn.Agents[i])
		}
		for i := range rxn.Products {
			add("product "+strconv.Itoa(i), &rxn.Products[i])
		}
	}
	return rows
}

//Personal.AI order the ending
