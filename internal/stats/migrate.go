package stats

import "invitewatch-backend/internal/domain"

// migrateStats rewrites legacy records found in the loaded stats document.
// The old format stored a single cumulative "total"; it becomes joins, with
// leaves and bonus zeroed and the last invite code preserved. Current-format
// records never carry a "total" field, so the rewrite is idempotent: a second
// run finds nothing legacy. Returns whether anything changed.
func migrateStats(all map[string]map[string]*domain.InviterStats) bool {
	changed := false
	for _, guild := range all {
		for _, rec := range guild {
			if rec.LegacyTotal == nil {
				continue
			}
			rec.Joins = *rec.LegacyTotal
			rec.Leaves = 0
			rec.Bonus = 0
			rec.LegacyTotal = nil
			changed = true
		}
	}
	return changed
}
