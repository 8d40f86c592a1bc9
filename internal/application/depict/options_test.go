package depict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Depict/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

func TestResolveOptions_Defaults(t *testing.T) {
	opts := ResolveOptions(dto.AnnotateOptions{}, DefaultDefaults())

	assert.Equal(t, molecule.HydrogenSmart, opts.HydrogenDisplay)
	assert.Equal(t, molecule.DativeMetals, opts.Dative)
	assert.Empty(t, opts.Arrow)
	assert.False(t, opts.Hydrates)
	assert.True(t, opts.Sync)
	assert.False(t, opts.MapChanges)
}

func TestResolveOptions_Overrides(t *testing.T) {
	opts := ResolveOptions(dto.AnnotateOptions{
		HydrogenDisplay: "C",
		Dative:          "y",
		Arrow:           "equ",
		Hydrates:        boolPtr(true),
		Sync:            boolPtr(false),
		MapChanges:      boolPtr(true),
	}, DefaultDefaults())

	assert.Equal(t, molecule.HydrogenStereo, opts.HydrogenDisplay)
	assert.Equal(t, molecule.DativeAlways, opts.Dative)
	assert.Equal(t, "bidirectional", opts.Arrow)
	assert.True(t, opts.Hydrates)
	assert.False(t, opts.Sync)
	assert.True(t, opts.MapChanges)

	wire := opts.DTO()
	assert.Equal(t, "stereo", wire.HydrogenDisplay)
	assert.Equal(t, "always", wire.Dative)
}

func TestResolveOptions_SuppressHydrogensFalseForcesProvided(t *testing.T) {
	opts := ResolveOptions(dto.AnnotateOptions{HydrogenDisplay: "explicit", SuppressHydrogens: boolPtr(false)}, DefaultDefaults())
	assert.Equal(t, molecule.HydrogenProvided, opts.HydrogenDisplay)

	opts = ResolveOptions(dto.AnnotateOptions{HydrogenDisplay: "explicit", SuppressHydrogens: boolPtr(true)}, DefaultDefaults())
	assert.Equal(t, molecule.HydrogenExplicit, opts.HydrogenDisplay)
}

func TestResolveOptions_ServerDefaults(t *testing.T) {
	opts := ResolveOptions(dto.AnnotateOptions{}, Defaults{HydrogenDisplay: "minimal", Dative: "never", Hydrates: true})
	assert.Equal(t, molecule.HydrogenMinimal, opts.HydrogenDisplay)
	assert.Equal(t, molecule.DativeNever, opts.Dative)
	assert.True(t, opts.Hydrates)
	assert.False(t, opts.Sync)
}

func TestParseBool(t *testing.T) {
	for _, in := range []string{"t", "TRUE", "on", "1", " true "} {
		v, err := ParseBool(in)
		require.NoError(t, err, in)
		assert.True(t, v, in)
	}
	for _, in := range []string{"f", "False", "OFF", "0"} {
		v, err := ParseBool(in)
		require.NoError(t, err, in)
		assert.False(t, v, in)
	}
	for _, in := range []string{"", "yes", "2"} {
		_, err := ParseBool(in)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidOption), in)
	}
}

//Personal.AI order the ending
