// internal/domain/aq/run.go
package aq

import (
	"errors"
	"time"
)

// LifecycleState is the lifecycle of a tracked alliance quest run.
// All states other than ACTIVE are terminal; a terminal run's record is
// removed from the store as part of the transition.
type LifecycleState string

const (
	StateActive          LifecycleState = "ACTIVE"
	StateEndedByOfficer  LifecycleState = "ENDED_BY_OFFICER"
	StateCompleted       LifecycleState = "COMPLETED"
	StateEndedAbnormally LifecycleState = "ENDED_ABNORMALLY"
)

// SectionKey identifies one of the three fixed quest sections.
type SectionKey string

const (
	Section1 SectionKey = "s1"
	Section2 SectionKey = "s2"
	Section3 SectionKey = "s3"
)

// Sections returns all section keys in quest order.
func Sections() []SectionKey {
	return []SectionKey{Section1, Section2, Section3}
}

// Progress is one participant's completion state within a section.
type Progress struct {
	Done bool `json:"done"`
}

var ErrNotTracked = errors.New("participant is not tracked for this section")

const (
	questDuration = 24 * time.Hour
	// Reminders near the nominal 24-hour boundary should fire before the
	// literal deadline, so the scheduled end carries a small buffer.
	scheduledEndBuffer = 10 * time.Minute
)

// Run is the persisted document for one actively tracked alliance quest,
// keyed by the channel its status board is posted in.
type Run struct {
	ChannelID             string                             `json:"channelId"`
	AllianceID            int64                              `json:"allianceId"`
	AnnouncementMessageID string                             `json:"announcementMessageId"`
	UpdateThreadID        string                             `json:"updateThreadId,omitempty"`
	ParticipantRoleID     string                             `json:"participantRoleId"`
	Day                   int                                `json:"day"`
	Lifecycle             LifecycleState                     `json:"lifecycleState"`
	MapStatusLabel        string                             `json:"mapStatusLabel"`
	SectionProgress       map[SectionKey]map[string]Progress `json:"sectionProgress"`
	StartedAt             time.Time                          `json:"startedAt"`
	ScheduledEndAt        time.Time                          `json:"scheduledEndAt"`
	Section1ReminderSent  bool                               `json:"section1ReminderSent"`
	Section2ReminderSent  bool                               `json:"section2ReminderSent"`
	FinalReminderSent     bool                               `json:"finalReminderSent"`
	Revision              int64                              `json:"revision"`
}

// NewRun seeds a fresh ACTIVE run for the given channel. The member list is
// a snapshot of the participant role taken at creation time; every member
// is tracked in all three sections and latecomers are never added.
func NewRun(channelID string, allianceID int64, roleID string, day int, memberIDs []string, now time.Time) *Run {
	sections := make(map[SectionKey]map[string]Progress, len(Sections()))
	for _, key := range Sections() {
		participants := make(map[string]Progress, len(memberIDs))
		for _, id := range memberIDs {
			participants[id] = Progress{Done: false}
		}
		sections[key] = participants
	}

	return &Run{
		ChannelID:         channelID,
		AllianceID:        allianceID,
		ParticipantRoleID: roleID,
		Day:               day,
		Lifecycle:         StateActive,
		MapStatusLabel:    "Section 1 in Progress",
		SectionProgress:   sections,
		StartedAt:         now,
		ScheduledEndAt:    now.Add(questDuration - scheduledEndBuffer),
	}
}

// ToggleProgress flips the participant's done flag for the given section
// and reports the new value. The toggle is reversible; a player may undo a
// completion. Participants outside the creation-time snapshot are rejected.
func (r *Run) ToggleProgress(section SectionKey, participantID string) (bool, error) {
	participants, ok := r.SectionProgress[section]
	if !ok {
		return false, ErrNotTracked
	}
	progress, ok := participants[participantID]
	if !ok {
		return false, ErrNotTracked
	}
	progress.Done = !progress.Done
	participants[participantID] = progress
	return progress.Done, nil
}
