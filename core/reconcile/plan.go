package reconcile

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"dailies/core/index"
)

var actionRank = map[Action]int{
	ActionCopy:            0,
	ActionTranscode:       0,
	ActionSkip:            1,
	ActionFlagOrphan:      2,
	ActionEligibleForWipe: 3,
}

// BuildPlan turns classifications into an ordered plan. It is pure: the
// indices are only read, for placement conflicts and wipe eligibility.
//
// Orphans are only ever flagged. Wipe eligibility is a whole-batch judgment
// made for CARD→POOL pairs: one MISSING or STALE identity, an incomplete card
// index or an in-scope orphan blocks every ELIGIBLE_FOR_WIPE item.
func BuildPlan(pair Pair, source, target *index.SetIndex, results []Result, policy Policy) *Plan {
	plan := &Plan{Pair: pair, Policy: policy, Items: make([]Item, 0, len(results))}
	claimed := occupiedPaths(target)

	transfer := ActionCopy
	if pair.Derived() {
		transfer = ActionTranscode
	}

	// 1. One item per classified identity.
	for _, r := range results {
		item := Item{Key: r.Key, Identity: r.Identity, Classification: r.Classification}
		if r.Source != nil {
			item.SourcePath = r.Source.RelativePath
		}

		switch r.Classification {
		case Missing:
			item.Action = transfer
			item.EstimatedBytes = r.Source.Size
			item.TargetPath = claim(claimed, pair.place(*r.Source))
			item.Reason = "absent from " + strings.ToLower(string(pair.Target))
		case Stale:
			item.Action = transfer
			item.EstimatedBytes = r.Source.Size
			item.TargetPath = r.Target.RelativePath
			item.Reason = r.Reason
		case UpToDate:
			item.TargetPath = r.Target.RelativePath
			if policy.SkipIfUpToDate {
				item.Action = ActionSkip
				item.Reason = "up to date at " + r.Target.RelativePath
			} else {
				item.Action = transfer
				item.EstimatedBytes = r.Source.Size
				item.Reason = "forced by policy"
			}
		case OrphanTarget:
			item.Action = ActionFlagOrphan
			item.TargetPath = r.Target.RelativePath
			item.Reason = "no matching identity in " + strings.ToLower(string(pair.Source))
		}
		plan.Items = append(plan.Items, item)
	}

	// 2. Whole-batch wipe judgment.
	if pair.WipeCandidate() {
		plan.Blockers = wipeBlockers(pair, source, target, results, policy)
		if len(plan.Blockers) == 0 {
			plan.WipeEligible = true
			for _, r := range results {
				if r.Source == nil {
					continue
				}
				plan.Items = append(plan.Items, Item{
					Key:            r.Key,
					Identity:       r.Identity,
					Classification: r.Classification,
					Action:         ActionEligibleForWipe,
					EstimatedBytes: r.Source.Size,
					SourcePath:     r.Source.RelativePath,
					TargetPath:     r.Target.RelativePath,
					DuplicatePaths: r.Source.DuplicatePaths,
					Reason:         "verified in " + strings.ToLower(string(pair.Target)),
				})
			}
		}
	}

	// 3. Transfers first, wipe last, ties by identity key.
	sort.SliceStable(plan.Items, func(i, j int) bool {
		ri, rj := actionRank[plan.Items[i].Action], actionRank[plan.Items[j].Action]
		if ri != rj {
			return ri < rj
		}
		return plan.Items[i].Key < plan.Items[j].Key
	})

	plan.Summary = summarize(results, plan.Items)
	return plan
}

func wipeBlockers(pair Pair, source, target *index.SetIndex, results []Result, policy Policy) []Blocker {
	var blockers []Blocker

	if source.Len() == 0 && len(source.Errors) == 0 && len(source.Collisions) == 0 {
		blockers = append(blockers, Blocker{Reason: "card index is empty"})
	}
	for _, e := range source.Errors {
		blockers = append(blockers, Blocker{Path: e.Path, Reason: fmt.Sprintf("card index partial: %s: %s", e.Kind, e.Message)})
	}
	for _, c := range source.Collisions {
		blockers = append(blockers, Blocker{
			Key:    c.Identity.Key(),
			Path:   c.Paths[1],
			Reason: "card index partial: identity collision with " + c.Paths[0],
		})
	}
	for _, c := range target.Collisions {
		if _, onCard := source.Get(c.Identity.Key()); onCard {
			blockers = append(blockers, Blocker{
				Key:    c.Identity.Key(),
				Path:   c.Paths[1],
				Reason: "pool holds colliding files for this identity: " + c.Paths[0],
			})
		}
	}

	for _, r := range results {
		switch r.Classification {
		case Missing:
			blockers = append(blockers, Blocker{Key: r.Key, Path: r.Source.RelativePath, Classification: r.Classification, Reason: "not in pool"})
		case Stale:
			blockers = append(blockers, Blocker{Key: r.Key, Path: r.Source.RelativePath, Classification: r.Classification, Reason: r.Reason})
		case OrphanTarget:
			if policy.AllowWipeOnOrphan || !inScope(pair.OrphanScope, r.Target.RelativePath) {
				continue
			}
			blockers = append(blockers, Blocker{
				Key:            r.Key,
				Path:           r.Target.RelativePath,
				Classification: r.Classification,
				Reason:         "orphan inside " + pair.OrphanScope,
			})
		}
	}
	return blockers
}

func inScope(scope, rel string) bool {
	scope = strings.Trim(scope, "/")
	if scope == "" {
		return false
	}
	return rel == scope || strings.HasPrefix(rel, scope+"/")
}

// occupiedPaths returns every path present in the target, case-folded for
// case-insensitive volumes.
func occupiedPaths(target *index.SetIndex) map[string]struct{} {
	taken := make(map[string]struct{})
	for _, e := range target.Entries() {
		taken[strings.ToLower(e.RelativePath)] = struct{}{}
		for _, p := range e.DuplicatePaths {
			taken[strings.ToLower(p)] = struct{}{}
		}
	}
	for _, c := range target.Collisions {
		taken[strings.ToLower(c.Paths[1])] = struct{}{}
	}
	for _, e := range target.Errors {
		taken[strings.ToLower(e.Path)] = struct{}{}
	}
	return taken
}

// claim reserves rel, or the first free "__dupN" variant of it.
func claim(taken map[string]struct{}, rel string) string {
	candidate := rel
	ext := path.Ext(rel)
	base := strings.TrimSuffix(rel, ext)
	for n := 1; ; n++ {
		if _, ok := taken[strings.ToLower(candidate)]; !ok {
			taken[strings.ToLower(candidate)] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s__dup%d%s", base, n, ext)
	}
}

func summarize(results []Result, items []Item) Summary {
	s := Summary{
		Identities:      len(results),
		Classifications: make(map[Classification]int),
		Actions:         make(map[Action]int),
	}
	for _, r := range results {
		s.Classifications[r.Classification]++
	}
	for _, it := range items {
		s.Actions[it.Action]++
		if it.Action.Mutating() {
			s.TransferFiles++
			s.TransferBytes += it.EstimatedBytes
		}
	}
	return s
}
