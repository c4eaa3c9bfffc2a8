package services

import (
	"fmt"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// repoGroup is a main repository followed by its paired archive, if any.
// Orphaned archives form a group of their own.
type repoGroup struct {
	main    domain.RepositoryDetail
	archive *domain.RepositoryDetail
}

func (g repoGroup) ids() []int64 {
	if g.archive == nil {
		return []int64{g.main.ID}
	}
	return []int64{g.main.ID, g.archive.ID}
}

// pairArchives splits repositories, given in weight order, into main
// groups and orphaned archives. An archive pairs with the first main
// repository sharing its certificate. A second archive with the same
// certificate is treated as a main repository.
func pairArchives(repos []domain.RepositoryDetail) (groups []repoGroup, orphans []domain.RepositoryDetail) {
	mainByCert := make(map[string]int)
	var archives []domain.RepositoryDetail
	for _, r := range repos {
		if r.IsArchive() {
			archives = append(archives, r)
			continue
		}
		if _, ok := mainByCert[r.Certificate]; !ok && r.Certificate != "" {
			mainByCert[r.Certificate] = len(groups)
		}
		groups = append(groups, repoGroup{main: r})
	}

	for _, a := range archives {
		i, ok := mainByCert[a.Certificate]
		switch {
		case ok && groups[i].archive == nil:
			groups[i].archive = &a
		case ok:
			// A duplicate archive keeps its slot in weight order.
			groups = insertByWeight(groups, repoGroup{main: a})
			mainByCert = reindex(groups)
		default:
			orphans = append(orphans, a)
		}
	}
	return groups, orphans
}

func insertByWeight(groups []repoGroup, g repoGroup) []repoGroup {
	i := 0
	for i < len(groups) && groups[i].main.Preferences.Weight > g.main.Preferences.Weight {
		i++
	}
	groups = append(groups, repoGroup{})
	copy(groups[i+1:], groups[i:])
	groups[i] = g
	return groups
}

func reindex(groups []repoGroup) map[string]int {
	byCert := make(map[string]int, len(groups))
	for i, g := range groups {
		if g.main.IsArchive() || g.main.Certificate == "" {
			continue
		}
		if _, ok := byCert[g.main.Certificate]; !ok {
			byCert[g.main.Certificate] = i
		}
	}
	return byCert
}

// migratedWeights assigns a strictly descending sequence starting at
// BaseWeight. Every main repository takes two slots, its archive the lower
// one. Orphaned archives follow one slot each.
func migratedWeights(repos []domain.RepositoryDetail) map[int64]int64 {
	groups, orphans := pairArchives(repos)
	weights := make(map[int64]int64, len(repos))
	next := domain.BaseWeight
	for _, g := range groups {
		weights[g.main.ID] = next
		if g.archive != nil {
			weights[g.archive.ID] = next - 1
		}
		next -= 2
	}
	for _, o := range orphans {
		weights[o.ID] = next
		next--
	}
	return weights
}

// reorderedWeights moves the group of moveID to the position of the group
// of targetID and hands out the existing weights in the new order.
func reorderedWeights(repos []domain.RepositoryDetail, moveID, targetID int64) (map[int64]int64, error) {
	var move, target *domain.RepositoryDetail
	for i := range repos {
		if repos[i].ID == moveID {
			move = &repos[i]
		}
		if repos[i].ID == targetID {
			target = &repos[i]
		}
	}
	if move == nil {
		return nil, fmt.Errorf("repo %d: %w", moveID, domain.ErrRepositoryNotFound)
	}
	if target == nil {
		return nil, fmt.Errorf("repo %d: %w", targetID, domain.ErrRepositoryNotFound)
	}
	if move.IsArchive() || target.IsArchive() {
		return nil, domain.ErrArchiveReorder
	}

	groups, orphans := pairArchives(repos)
	for _, o := range orphans {
		groups = insertByWeight(groups, repoGroup{main: o})
	}
	from, to := -1, -1
	for i, g := range groups {
		if g.main.ID == moveID {
			from = i
		}
		if g.main.ID == targetID {
			to = i
		}
	}

	moved := groups[from]
	groups = append(groups[:from], groups[from+1:]...)
	groups = append(groups[:to], append([]repoGroup{moved}, groups[to:]...)...)

	// repos is in weight order, so its weights are the slots to hand out.
	weights := make(map[int64]int64, len(repos))
	slot := 0
	for _, g := range groups {
		for _, id := range g.ids() {
			weights[id] = repos[slot].Preferences.Weight
			slot++
		}
	}
	return weights, nil
}
