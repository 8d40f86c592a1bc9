// Package depict defines the Data Transfer Objects exchanged with callers of
// the annotation API, the CLI and the asynchronous worker.  No domain logic
// lives here; graphs are described by plain indices and string enumerations so
// that the package is safe to import from clients.
package depict

import (
	"time"

	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Graph
// ─────────────────────────────────────────────────────────────────────────────

// AtomDTO describes one atom.  Either Symbol or AtomicNumber must be set; when
// both are present AtomicNumber wins.
type AtomDTO struct {
	Symbol       string `json:"symbol,omitempty"`
	AtomicNumber int    `json:"atomic_number,omitempty"`
	Charge       int    `json:"charge,omitempty"`
	ImplicitH    int    `json:"implicit_h"`
	Mass         int    `json:"mass,omitempty"`
	Aromatic     bool   `json:"aromatic,omitempty"`
	MapIdx       int    `json:"map_idx,omitempty"`
	Radicals     int    `json:"radicals,omitempty"`
}

// BondDTO describes one bond by the indices of its two atoms.
type BondDTO struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
	// Order is one of unset, single, double, triple, quadruple (or 0-4).
	Order string `json:"order"`
	// Display is one of solid, wedge_begin, wedge_end, hash_begin, hash_end,
	// bold, hash, arrow_begin, arrow_end.  Empty means solid.
	Display string `json:"display,omitempty"`
	InRing  bool   `json:"in_ring,omitempty"`
}

// StereoDTO describes a stereo element.  Focus is a bond index for cis_trans
// and an atom index for every other kind.
type StereoDTO struct {
	Kind     string `json:"kind"`
	Focus    int    `json:"focus"`
	Carriers []int  `json:"carriers"`
	Config   int    `json:"config"`
	Group    int    `json:"group,omitempty"`
}

// SgroupDTO describes an abbreviation or multiple-group annotation.
type SgroupDTO struct {
	Type        string `json:"type"`
	Subscript   string `json:"subscript,omitempty"`
	Atoms       []int  `json:"atoms"`
	Bonds       []int  `json:"bonds,omitempty"`
	ParentAtoms []int  `json:"parent_atoms,omitempty"`
}

// MoleculeDTO is a complete molecular graph.
type MoleculeDTO struct {
	Title   string      `json:"title,omitempty"`
	Atoms   []AtomDTO   `json:"atoms"`
	Bonds   []BondDTO   `json:"bonds"`
	Stereo  []StereoDTO `json:"stereo,omitempty"`
	Sgroups []SgroupDTO `json:"sgroups,omitempty"`
}

// ReactionDTO groups molecules by role.
type ReactionDTO struct {
	Title     string        `json:"title,omitempty"`
	Reactants []MoleculeDTO `json:"reactants"`
	Products  []MoleculeDTO `json:"products"`
	Agents    []MoleculeDTO `json:"agents,omitempty"`
	// Arrow is the reaction direction (forward, bidirectional, no_go,
	// retro_synthetic, resonance).
	Arrow string `json:"arrow,omitempty"`
}

// AtomCount is the number of atoms across every component.
func (r *ReactionDTO) AtomCount() int {
	n := 0
	for _, side := range [][]MoleculeDTO{r.Reactants, r.Products, r.Agents} {
		for i := range side {
			n += len(side[i].Atoms)
		}
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Annotation
// ─────────────────────────────────────────────────────────────────────────────

// AnnotateOptions selects what the pipeline does.  Empty strings and nil
// pointers fall back to the server defaults.
type AnnotateOptions struct {
	// HydrogenDisplay is provided, minimal, explicit, stereo or smart (or the
	// letters P, M, X, C, S).
	HydrogenDisplay string `json:"hdisp,omitempty"`
	// SuppressHydrogens false forces the provided mode.
	SuppressHydrogens *bool `json:"suppressh,omitempty"`
	// Dative is always, metals or never (y, m, n).
	Dative string `json:"dat,omitempty"`
	// Arrow overrides the reaction direction (equ, ngo, ret, res).
	Arrow      string `json:"arw,omitempty"`
	Hydrates   *bool  `json:"hydrates,omitempty"`
	Sync       *bool  `json:"sync,omitempty"`
	MapChanges *bool  `json:"mapchanges,omitempty"`
}

// AnnotateRequest carries exactly one of Molecule or Reaction.
type AnnotateRequest struct {
	RequestID string          `json:"request_id,omitempty"`
	Molecule  *MoleculeDTO    `json:"molecule,omitempty"`
	Reaction  *ReactionDTO    `json:"reaction,omitempty"`
	Options   AnnotateOptions `json:"options"`
}

// Validate checks the request envelope.  Graph contents are checked when the
// request is mapped onto the domain model.
func (r *AnnotateRequest) Validate() error {
	switch {
	case r.Molecule == nil && r.Reaction == nil:
		return errors.New(errors.ErrCodeEmptyRequest, errors.DefaultMessageForCode(errors.ErrCodeEmptyRequest))
	case r.Molecule != nil && r.Reaction != nil:
		return errors.InvalidParam("request must carry a molecule or a reaction, not both")
	}
	return nil
}

// AtomCount is the number of atoms the request submits.
func (r *AnnotateRequest) AtomCount() int {
	if r.Molecule != nil {
		return len(r.Molecule.Atoms)
	}
	if r.Reaction != nil {
		return r.Reaction.AtomCount()
	}
	return 0
}

// AtomHighlight marks an atom whose connectivity changed across a mapped
// reaction.  Role is reactant, product or agent; Mol indexes that side.
type AtomHighlight struct {
	Role  string `json:"role"`
	Mol   int    `json:"mol"`
	Atom  int    `json:"atom"`
	Group int    `json:"group"`
}

// AnnotateStats summarises what the pipeline changed.
type AnnotateStats struct {
	Atoms               int   `json:"atoms"`
	Radicals            int   `json:"radicals"`
	DativeBonds         int   `json:"dative_bonds"`
	HydrogensAdded      int   `json:"hydrogens_added"`
	HydrogensRemoved    int   `json:"hydrogens_removed"`
	HydrateGroups       int   `json:"hydrate_groups"`
	AbbreviationsSynced int   `json:"abbreviations_synced"`
	ElapsedMs           int64 `json:"elapsed_ms"`
	Cached              bool  `json:"cached"`
}

// ResolvedOptions echoes the options actually applied.
type ResolvedOptions struct {
	HydrogenDisplay string `json:"hdisp"`
	Dative          string `json:"dat"`
	Arrow           string `json:"arw,omitempty"`
	Hydrates        bool   `json:"hydrates"`
	Sync            bool   `json:"sync"`
	MapChanges      bool   `json:"mapchanges"`
}

// AnnotateResponse is the annotated graph plus a summary.
type AnnotateResponse struct {
	RequestID  string          `json:"request_id"`
	Molecule   *MoleculeDTO    `json:"molecule,omitempty"`
	Reaction   *ReactionDTO    `json:"reaction,omitempty"`
	Highlights []AtomHighlight `json:"highlights,omitempty"`
	Options    ResolvedOptions `json:"options"`
	Stats      AnnotateStats   `json:"stats"`
}

// OptionsResponse lists the values the annotate endpoint accepts.
type OptionsResponse struct {
	HydrogenDisplays []string        `json:"hydrogen_displays"`
	DativePolicies   []string        `json:"dative_policies"`
	Arrows           []string        `json:"arrows"`
	Defaults         ResolvedOptions `json:"defaults"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Jobs
// ─────────────────────────────────────────────────────────────────────────────

// JobStatus is the state of an asynchronous annotation job.  Completion
// events only carry succeeded or failed.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// AnnotateJob is the payload of an annotation request event.  The request is
// either inlined or stored in the object store under InputKey.
type AnnotateJob struct {
	JobID    string           `json:"job_id"`
	Request  *AnnotateRequest `json:"request,omitempty"`
	InputKey string           `json:"input_key,omitempty"`
}

// Validate checks that the job identifies its input.
func (j *AnnotateJob) Validate() error {
	if j.JobID == "" {
		return errors.New(errors.ErrCodeJobInvalid, "job_id is required")
	}
	if j.Request == nil && j.InputKey == "" {
		return errors.New(errors.ErrCodeJobInvalid, "job carries neither request nor input_key").
			WithDetail("job_id=" + j.JobID)
	}
	return nil
}

// AnnotateCompleted is the payload of an annotation completion event.
type AnnotateCompleted struct {
	JobID     string    `json:"job_id"`
	ResultKey string    `json:"result_key,omitempty"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// JobInfo is the ledger view of a job.
type JobInfo struct {
	JobID       string     `json:"job_id"`
	Status      JobStatus  `json:"status"`
	InputKey    string     `json:"input_key,omitempty"`
	ResultKey   string     `json:"result_key,omitempty"`
	Error       string     `json:"error,omitempty"`
	Attempts    int        `json:"attempts"`
	Worker      string     `json:"worker,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobList is the response of a job listing.
type JobList struct {
	Jobs []*JobInfo `json:"jobs"`
}

//Personal.AI order the ending
