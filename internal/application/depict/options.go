package depict

import (
	"strconv"
	"strings"

	"github.com/turtacn/KeyIP-Depict/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Depict/internal/domain/reaction"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// Defaults are the server-side option values used when a request leaves an
// option unset.
type Defaults struct {
	HydrogenDisplay string
	Dative          string
	Hydrates        bool
	Sync            bool
	MapChanges      bool
}

// DefaultDefaults mirrors the behaviour of a plain depiction request.
func DefaultDefaults() Defaults {
	return Defaults{
		HydrogenDisplay: molecule.HydrogenSmart.String(),
		Dative:          molecule.DativeMetals.String(),
		Hydrates:        false,
		Sync:            true,
		MapChanges:      false,
	}
}

// Options are the decoded switches of one pipeline run.
type Options struct {
	HydrogenDisplay molecule.HydrogenDisplay
	Dative          molecule.DativePolicy
	// Arrow is empty when the reaction keeps its own direction.
	Arrow      string
	Hydrates   bool
	Sync       bool
	MapChanges bool
}

// ResolveOptions merges request options over the defaults.  An explicit
// suppressh=false forces provided hydrogens whatever hdisp says.
func ResolveOptions(in dto.AnnotateOptions, def Defaults) Options {
	opts := Options{
		HydrogenDisplay: molecule.ParseHydrogenDisplay(def.HydrogenDisplay),
		Dative:          molecule.ParseDativePolicy(def.Dative),
		Hydrates:        def.Hydrates,
		Sync:            def.Sync,
		MapChanges:      def.MapChanges,
	}
	if in.HydrogenDisplay != "" {
		opts.HydrogenDisplay = molecule.ParseHydrogenDisplay(in.HydrogenDisplay)
	}
	if in.SuppressHydrogens != nil && !*in.SuppressHydrogens {
		opts.HydrogenDisplay = molecule.HydrogenProvided
	}
	if in.Dative != "" {
		opts.Dative = molecule.ParseDativePolicy(in.Dative)
	}
	if in.Arrow != "" {
		opts.Arrow = reaction.ParseArrow(in.Arrow).String()
	}
	if in.Hydrates != nil {
		opts.Hydrates = *in.Hydrates
	}
	if in.Sync != nil {
		opts.Sync = *in.Sync
	}
	if in.MapChanges != nil {
		opts.MapChanges = *in.MapChanges
	}
	return opts
}

// DTO echoes the options on the wire.
func (o Options) DTO() dto.ResolvedOptions {
	return dto.ResolvedOptions{
		HydrogenDisplay: o.HydrogenDisplay.String(),
		Dative:          o.Dative.String(),
		Arrow:           o.Arrow,
		Hydrates:        o.Hydrates,
		Sync:            o.Sync,
		MapChanges:      o.MapChanges,
	}
}

// ParseBool accepts t/true/on/1 and f/false/off/0 in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "on", "1":
		return true, nil
	case "f", "false", "off", "0":
		return false, nil
	}
	return false, errors.InvalidOption("invalid boolean").WithDetail(strconv.Quote(s))
}

// arrowCodes are the short arrow codes; anything else draws a forward arrow.
var arrowCodes = []string{"equ", "ngo", "ret", "res"}

//Personal.AI order the ending
