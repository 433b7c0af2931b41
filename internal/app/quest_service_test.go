package app

import (
	"context"
	"fmt"
	"testing"

	"alliance_quest_bot/internal/domain/alliance"
	"alliance_quest_bot/internal/domain/aq"
	idb "alliance_quest_bot/internal/infra/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type questFixture struct {
	svc          *QuestService
	runRepo      *fakeRunRepo
	allianceRepo *fakeAllianceRepo
	chat         *fakeChat
}

func newQuestFixture(members ...string) *questFixture {
	runRepo := newFakeRunRepo()
	allianceRepo := newFakeAllianceRepo()
	allianceRepo.add(&alliance.Alliance{GuildID: "guild-1", Name: "The Avengers", Timezone: "UTC"})
	chat := &fakeChat{members: members}

	return &questFixture{
		svc:          NewQuestService(runRepo, allianceRepo, chat, fakeRenderer{}, testLogger()),
		runRepo:      runRepo,
		allianceRepo: allianceRepo,
		chat:         chat,
	}
}

func startParams() StartParams {
	return StartParams{GuildID: "guild-1", ChannelID: "chan-1", Day: 2, RoleID: "role-bg1"}
}

func TestStartRun_SeedsRosterAndPostsBoard(t *testing.T) {
	f := newQuestFixture("u1", "u2")

	run, err := f.svc.StartRun(context.Background(), startParams())
	require.NoError(t, err)

	assert.Equal(t, aq.StateActive, run.Lifecycle)
	assert.Equal(t, 2, run.Day)
	assert.Equal(t, "msg-1", run.AnnouncementMessageID)
	for _, key := range aq.Sections() {
		require.Len(t, run.SectionProgress[key], 2)
		assert.False(t, run.SectionProgress[key]["u1"].Done)
		assert.False(t, run.SectionProgress[key]["u2"].Done)
	}

	require.Len(t, f.chat.posts, 1)
	assert.Equal(t, "chan-1", f.chat.posts[0].target)
	assert.Contains(t, f.chat.posts[0].msg.Content, "board:live")

	stored, err := f.runRepo.Get(context.Background(), "chan-1")
	require.NoError(t, err)
	assert.Equal(t, aq.StateActive, stored.Lifecycle)
}

func TestStartRun_RejectsUnregisteredAlliance(t *testing.T) {
	f := newQuestFixture("u1")
	p := startParams()
	p.GuildID = "guild-unknown"

	_, err := f.svc.StartRun(context.Background(), p)
	assert.ErrorIs(t, err, ErrAllianceNotRegistered)
	assert.Empty(t, f.chat.posts)
	assert.Empty(t, f.runRepo.runs)
}

func TestStartRun_RejectsSecondActiveRun(t *testing.T) {
	f := newQuestFixture("u1")
	first, err := f.svc.StartRun(context.Background(), startParams())
	require.NoError(t, err)

	_, err = f.svc.StartRun(context.Background(), startParams())
	assert.ErrorIs(t, err, ErrRunAlreadyActive)

	// The existing run is untouched and nothing new was posted.
	require.Len(t, f.chat.posts, 1)
	stored, err := f.runRepo.Get(context.Background(), "chan-1")
	require.NoError(t, err)
	assert.Equal(t, first.Revision, stored.Revision)
}

func TestStartRun_RejectsEmptyRole(t *testing.T) {
	f := newQuestFixture() // no members

	_, err := f.svc.StartRun(context.Background(), startParams())
	assert.ErrorIs(t, err, ErrRoleHasNoMembers)
	assert.Empty(t, f.chat.posts)
}

func TestStartRun_CreatesCompanionThread(t *testing.T) {
	f := newQuestFixture("u1")
	p := startParams()
	p.CreateThread = true

	run, err := f.svc.StartRun(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "thread-1", run.UpdateThreadID)
}

func TestStartRun_ThreadPermissionFailureDegrades(t *testing.T) {
	f := newQuestFixture("u1")
	f.chat.threadErr = fmt.Errorf("missing permission")
	p := startParams()
	p.CreateThread = true

	run, err := f.svc.StartRun(context.Background(), p)
	require.NoError(t, err, "start must succeed without the thread")
	assert.Empty(t, run.UpdateThreadID)

	// Board plus a warning about the missing thread.
	require.Len(t, f.chat.posts, 2)
	assert.Contains(t, f.chat.posts[1].msg.Content, "thread")

	_, err = f.runRepo.Get(context.Background(), "chan-1")
	assert.NoError(t, err)
}

func TestToggleProgress_PersistsAndRedrawsBoard(t *testing.T) {
	f := newQuestFixture("u1", "u2")
	_, err := f.svc.StartRun(context.Background(), startParams())
	require.NoError(t, err)

	run, err := f.svc.ToggleProgress(context.Background(), "chan-1", "u1", aq.Section1)
	require.NoError(t, err)
	assert.True(t, run.SectionProgress[aq.Section1]["u1"].Done)

	stored, err := f.runRepo.Get(context.Background(), "chan-1")
	require.NoError(t, err)
	assert.True(t, stored.SectionProgress[aq.Section1]["u1"].Done)

	// Board re-rendered in place; no new message posted.
	require.Len(t, f.chat.edits, 1)
	assert.Equal(t, "msg-1", f.chat.edits[0].messageID)
	require.Len(t, f.chat.posts, 1)

	// Toggling again restores the original value.
	run, err = f.svc.ToggleProgress(context.Background(), "chan-1", "u1", aq.Section1)
	require.NoError(t, err)
	assert.False(t, run.SectionProgress[aq.Section1]["u1"].Done)
}

func TestToggleProgress_RejectsNonParticipant(t *testing.T) {
	f := newQuestFixture("u1")
	_, err := f.svc.StartRun(context.Background(), startParams())
	require.NoError(t, err)

	_, err = f.svc.ToggleProgress(context.Background(), "chan-1", "latecomer", aq.Section1)
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.Empty(t, f.chat.edits)
}

func TestToggleProgress_RequiresActiveRun(t *testing.T) {
	f := newQuestFixture("u1")
	_, err := f.svc.ToggleProgress(context.Background(), "chan-1", "u1", aq.Section1)
	assert.ErrorIs(t, err, ErrNoActiveRun)
}

func TestClearSection_AnnouncesAndAdvancesLabel(t *testing.T) {
	f := newQuestFixture("u1", "u2")
	_, err := f.svc.StartRun(context.Background(), startParams())
	require.NoError(t, err)
	_, err = f.svc.ToggleProgress(context.Background(), "chan-1", "u1", aq.Section1)
	require.NoError(t, err)

	err = f.svc.ClearSection(context.Background(), "chan-1", 1, "Sentinel miniboss")
	require.NoError(t, err)

	require.Len(t, f.chat.posts, 2)
	announcement := f.chat.posts[1]
	assert.Equal(t, "chan-1", announcement.target)
	assert.Contains(t, announcement.msg.Content, "Sentinel miniboss")
	assert.Contains(t, announcement.msg.Content, "Section 2")

	stored, err := f.runRepo.Get(context.Background(), "chan-1")
	require.NoError(t, err)
	assert.Equal(t, "Section 2 in Progress", stored.MapStatusLabel)
	assert.Equal(t, aq.StateActive, stored.Lifecycle)
	// Player-level tracking is untouched by clear announcements.
	assert.True(t, stored.SectionProgress[aq.Section1]["u1"].Done)
	assert.False(t, stored.SectionProgress[aq.Section1]["u2"].Done)
}

func TestClearSection_PrefersThread(t *testing.T) {
	f := newQuestFixture("u1")
	p := startParams()
	p.CreateThread = true
	_, err := f.svc.StartRun(context.Background(), p)
	require.NoError(t, err)

	err = f.svc.ClearSection(context.Background(), "chan-1", 2, "Dormammu")
	require.NoError(t, err)

	require.Len(t, f.chat.posts, 2)
	assert.Equal(t, "thread-1", f.chat.posts[1].target)
}

func TestClearSection_RejectsBadSection(t *testing.T) {
	f := newQuestFixture("u1")
	err := f.svc.ClearSection(context.Background(), "chan-1", 3, "boss")
	assert.ErrorIs(t, err, ErrInvalidSection)
}

func TestClearMap_CompletesAndDeletesRun(t *testing.T) {
	f := newQuestFixture("u1")
	p := startParams()
	p.CreateThread = true
	_, err := f.svc.StartRun(context.Background(), p)
	require.NoError(t, err)

	err = f.svc.ClearMap(context.Background(), "chan-1", "The Collector")
	require.NoError(t, err)

	// Celebration in the thread, mentioning the participant role.
	require.Len(t, f.chat.posts, 2)
	celebration := f.chat.posts[1]
	assert.Equal(t, "thread-1", celebration.target)
	assert.Contains(t, celebration.msg.Content, "The Collector")
	assert.Contains(t, celebration.msg.Content, "<@&role-bg1>")

	// Board replaced with the completed variant, thread locked, record gone.
	require.Len(t, f.chat.edits, 1)
	assert.Equal(t, "board:completed", f.chat.edits[0].msg.Content)
	assert.Equal(t, []string{"thread-1"}, f.chat.lockedThreads)
	_, err = f.runRepo.Get(context.Background(), "chan-1")
	assert.ErrorIs(t, err, idb.ErrRunNotFound)
}

func TestEndRun_ClosesBoardAndDeletesRun(t *testing.T) {
	f := newQuestFixture("u1")
	_, err := f.svc.StartRun(context.Background(), startParams())
	require.NoError(t, err)

	err = f.svc.EndRun(context.Background(), "chan-1")
	require.NoError(t, err)

	// Board edited to the manual-end notice; no new messages posted.
	require.Len(t, f.chat.posts, 1)
	require.Len(t, f.chat.edits, 1)
	assert.Equal(t, "board:ended", f.chat.edits[0].msg.Content)

	// Record removed: a new start in the channel succeeds.
	_, err = f.svc.StartRun(context.Background(), startParams())
	assert.NoError(t, err)
}

func TestEndRun_BoardEditFailureStillDeletesRecord(t *testing.T) {
	f := newQuestFixture("u1")
	_, err := f.svc.StartRun(context.Background(), startParams())
	require.NoError(t, err)

	f.chat.editErr = fmt.Errorf("message deleted by someone")
	err = f.svc.EndRun(context.Background(), "chan-1")
	require.NoError(t, err)

	assert.Empty(t, f.runRepo.runs)
}
