// internal/domain/aq/reminder.go
package aq

import "sort"

// ReminderTier identifies one of the three one-shot reminder thresholds of
// a run. Each tier fires at most once for the life of the run.
type ReminderTier string

const (
	TierSection1 ReminderTier = "SECTION_1"
	TierSection2 ReminderTier = "SECTION_2"
	TierFinal    ReminderTier = "FINAL"
)

// ReminderTiers returns all tiers in escalation order.
func ReminderTiers() []ReminderTier {
	return []ReminderTier{TierSection1, TierSection2, TierFinal}
}

// Sections returns the section keys a tier's slacker computation spans:
// the section-1 tier looks at s1 only, the section-2 tier at s1 and s2,
// and the final tier at all three.
func (t ReminderTier) Sections() []SectionKey {
	switch t {
	case TierSection1:
		return []SectionKey{Section1}
	case TierSection2:
		return []SectionKey{Section1, Section2}
	case TierFinal:
		return []SectionKey{Section1, Section2, Section3}
	default:
		return nil
	}
}

// ReminderSent reports whether the tier's one-shot flag is already set.
func (r *Run) ReminderSent(t ReminderTier) bool {
	switch t {
	case TierSection1:
		return r.Section1ReminderSent
	case TierSection2:
		return r.Section2ReminderSent
	case TierFinal:
		return r.FinalReminderSent
	default:
		return false
	}
}

// MarkReminderSent sets the tier's one-shot flag. Flags only ever move
// false to true; there is no reset path for the life of the run.
func (r *Run) MarkReminderSent(t ReminderTier) {
	switch t {
	case TierSection1:
		r.Section1ReminderSent = true
	case TierSection2:
		r.Section2ReminderSent = true
	case TierFinal:
		r.FinalReminderSent = true
	}
}

// Slackers returns the participants with incomplete progress in any of the
// tier's sections. The result is de-duplicated (a participant incomplete in
// several sections appears once) and sorted by id so mention output is
// deterministic.
func (r *Run) Slackers(t ReminderTier) []string {
	seen := make(map[string]struct{})
	for _, key := range t.Sections() {
		for id, progress := range r.SectionProgress[key] {
			if !progress.Done {
				seen[id] = struct{}{}
			}
		}
	}

	slackers := make([]string, 0, len(seen))
	for id := range seen {
		slackers = append(slackers, id)
	}
	sort.Strings(slackers)
	return slackers
}
