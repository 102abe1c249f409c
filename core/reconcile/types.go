package reconcile

import (
	"time"

	"dailies/core/index"
	"dailies/core/media"
)

// Classification is the sync state of one identity between a source and a
// target index. It is always recomputed, never persisted.
type Classification string

const (
	// Missing: present in the source, absent from the target.
	Missing Classification = "MISSING"
	// Stale: present in both, the target's signature differs from the source.
	Stale Classification = "STALE"
	// UpToDate: present in both with matching signatures.
	UpToDate Classification = "UP_TO_DATE"
	// OrphanTarget: present in the target, absent from the source.
	OrphanTarget Classification = "ORPHAN_TARGET"
)

// Result is the classification of one identity.
type Result struct {
	// Key is the identity key.
	Key string `json:"key"`
	// Identity is the source identity, or the target identity for orphans.
	Identity media.Identity `json:"identity"`
	// Classification is the computed state.
	Classification Classification `json:"classification"`
	// Source is the source entry; nil for orphans.
	Source *index.Entry `json:"source,omitempty"`
	// Target is the target entry; nil for missing identities.
	Target *index.Entry `json:"target,omitempty"`
	// Reason describes the signature mismatch of a STALE identity.
	Reason string `json:"reason,omitempty"`
}

// Action is a planned operation for one identity.
type Action string

const (
	ActionCopy            Action = "COPY"
	ActionTranscode       Action = "TRANSCODE"
	ActionSkip            Action = "SKIP"
	ActionFlagOrphan      Action = "FLAG_ORPHAN"
	ActionEligibleForWipe Action = "ELIGIBLE_FOR_WIPE"
)

// Mutating reports whether the action writes to the target.
func (a Action) Mutating() bool {
	return a == ActionCopy || a == ActionTranscode
}

// Item is one step of a plan.
type Item struct {
	// Key is the identity key.
	Key string `json:"key"`
	// Identity is the identity the item acts on.
	Identity media.Identity `json:"identity"`
	// Classification is the state that produced the item.
	Classification Classification `json:"classification"`
	// Action is the proposed operation.
	Action Action `json:"action"`
	// EstimatedBytes is the number of bytes the action reads.
	EstimatedBytes int64 `json:"estimated_bytes"`
	// SourcePath is the path relative to the source root.
	SourcePath string `json:"source_path,omitempty"`
	// TargetPath is the path relative to the target root.
	TargetPath string `json:"target_path,omitempty"`
	// DuplicatePaths are confirmed copies of the source file, erased along
	// with it on wipe.
	DuplicatePaths []string `json:"duplicate_paths,omitempty"`
	// Reason explains the item for reviewers.
	Reason string `json:"reason,omitempty"`
}

// Placer maps a source entry to its path relative to the target root.
type Placer interface {
	Place(e index.Entry) string
}

// PlacerFunc adapts a function to Placer.
type PlacerFunc func(e index.Entry) string

// Place implements Placer.
func (f PlacerFunc) Place(e index.Entry) string {
	return f(e)
}

// MirrorPlacement keeps the source's relative path.
var MirrorPlacement = PlacerFunc(func(e index.Entry) string { return e.RelativePath })

// Pair names the two roots of one reconciliation.
type Pair struct {
	// Name labels the pair in reports (e.g. "ingest", "proxy").
	Name string `json:"name"`
	// Source is the authoritative root.
	Source index.RootKind `json:"source"`
	// Target is the root being brought up to date.
	Target index.RootKind `json:"target"`
	// OrphanScope restricts which orphans can block a wipe: only orphans
	// whose target path lies under this prefix count. Empty means none.
	OrphanScope string `json:"orphan_scope,omitempty"`
	// Placer places missing files in the target. Nil mirrors paths.
	Placer Placer `json:"-"`
}

// Derived reports whether the target holds transcoded derivatives.
func (p Pair) Derived() bool {
	return p.Target == index.RootProxy
}

// WipeCandidate reports whether the pair can authorize a card wipe.
func (p Pair) WipeCandidate() bool {
	return p.Source == index.RootCard && p.Target == index.RootPool
}

func (p Pair) place(e index.Entry) string {
	if p.Placer == nil {
		return e.RelativePath
	}
	return p.Placer.Place(e)
}

// Policy configures the planner and the comparers.
type Policy struct {
	// TranscodeProfile names the proxy profile for TRANSCODE items.
	TranscodeProfile string `mapstructure:"transcode_profile" default:"proxy_1080p" json:"transcode_profile"`
	// SkipIfUpToDate plans SKIP for UP_TO_DATE identities. When false they
	// are copied or transcoded again.
	SkipIfUpToDate bool `mapstructure:"skip_if_up_to_date" default:"true" json:"skip_if_up_to_date"`
	// AllowWipeOnOrphan lets in-scope orphans coexist with wipe eligibility.
	AllowWipeOnOrphan bool `mapstructure:"allow_wipe_on_orphan" default:"false" json:"allow_wipe_on_orphan"`
	// MTimeTolerance absorbs coarse filesystem timestamps (FAT: 2s).
	MTimeTolerance time.Duration `mapstructure:"mtime_tolerance" default:"2s" json:"mtime_tolerance"`
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		TranscodeProfile: "proxy_1080p",
		SkipIfUpToDate:   true,
		MTimeTolerance:   2 * time.Second,
	}
}

// Blocker is one identity that prevents wipe eligibility.
type Blocker struct {
	// Key is the identity key, empty for index-level blockers.
	Key string `json:"key,omitempty"`
	// Path is the source path, or the target path for orphans.
	Path string `json:"path,omitempty"`
	// Classification is the blocking state, empty for index-level blockers.
	Classification Classification `json:"classification,omitempty"`
	// Reason explains the blocker.
	Reason string `json:"reason"`
}

// Summary aggregates a plan for review.
type Summary struct {
	// Identities is the number of identities in source ∪ target.
	Identities int `json:"identities"`
	// Classifications counts identities per classification.
	Classifications map[Classification]int `json:"classifications"`
	// Actions counts items per action.
	Actions map[Action]int `json:"actions"`
	// TransferFiles is the number of COPY and TRANSCODE items.
	TransferFiles int `json:"transfer_files"`
	// TransferBytes is the estimated bytes of COPY and TRANSCODE items.
	TransferBytes int64 `json:"transfer_bytes"`
}

// Plan is an ordered, side-effect-free list of items.
type Plan struct {
	// Pair is the reconciled pair.
	Pair Pair `json:"pair"`
	// Policy is the policy the plan was built with.
	Policy Policy `json:"policy"`
	// Items are ordered COPY/TRANSCODE, SKIP, FLAG_ORPHAN, ELIGIBLE_FOR_WIPE.
	Items []Item `json:"items"`
	// Summary aggregates the items.
	Summary Summary `json:"summary"`
	// WipeEligible reports whether ELIGIBLE_FOR_WIPE items were emitted.
	WipeEligible bool `json:"wipe_eligible"`
	// Blockers lists why the batch is not wipe eligible.
	Blockers []Blocker `json:"blockers,omitempty"`
}

// Mutations returns the COPY and TRANSCODE items.
func (p *Plan) Mutations() []Item {
	var out []Item
	for _, it := range p.Items {
		if it.Action.Mutating() {
			out = append(out, it)
		}
	}
	return out
}

// WipeItems returns the ELIGIBLE_FOR_WIPE items.
func (p *Plan) WipeItems() []Item {
	var out []Item
	for _, it := range p.Items {
		if it.Action == ActionEligibleForWipe {
			out = append(out, it)
		}
	}
	return out
}
