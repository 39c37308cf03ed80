package engine

import (
	"sort"

	"docaudit/internal/audit/models"
)

// Aggregate groups violations by owner and computes run totals. The result is
// fully materialized and deterministically ordered: owner groups sort
// lexicographically with the unassigned sentinel last, and violations within
// a group sort by (document id, rule id). Checked always equals the input
// document count, independent of how many violations were found.
//
// The report ID and creation timestamp are assigned by the caller; keeping
// them out of aggregation keeps identical inputs producing identical reports.
func Aggregate(violations []models.Violation, checked int, region models.Region, period models.DateRange) models.Report {
	grouped := make(map[string][]models.Violation)
	for _, v := range violations {
		owner := v.Owner
		if owner == "" {
			owner = models.OwnerUnassigned
			v.Owner = owner
		}
		grouped[owner] = append(grouped[owner], v)
	}

	owners := make([]string, 0, len(grouped))
	for owner := range grouped {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool {
		if owners[i] == models.OwnerUnassigned {
			return false
		}
		if owners[j] == models.OwnerUnassigned {
			return true
		}
		return owners[i] < owners[j]
	})

	groups := make([]models.OwnerGroup, 0, len(owners))
	total := 0
	for _, owner := range owners {
		vs := grouped[owner]
		sort.Slice(vs, func(i, j int) bool {
			if vs[i].DocumentID != vs[j].DocumentID {
				return vs[i].DocumentID < vs[j].DocumentID
			}
			return vs[i].RuleID < vs[j].RuleID
		})
		groups = append(groups, models.OwnerGroup{Owner: owner, Violations: vs})
		total += len(vs)
	}

	rate := 0.0
	if checked > 0 {
		rate = float64(total) / float64(checked)
	}

	return models.Report{
		Region: region,
		Period: period,
		Totals: models.Totals{
			Checked:       checked,
			Violations:    total,
			ViolationRate: rate,
		},
		Groups: groups,
	}
}
