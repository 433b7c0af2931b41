package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"alliance_quest_bot/internal/domain/alliance"
	"alliance_quest_bot/internal/domain/aq"
	domainDiscord "alliance_quest_bot/internal/domain/discord"
	idb "alliance_quest_bot/internal/infra/database"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var (
	_ aq.Repository               = (*fakeRunRepo)(nil)
	_ alliance.Repository         = (*fakeAllianceRepo)(nil)
	_ domainDiscord.Client        = (*fakeChat)(nil)
	_ domainDiscord.BoardRenderer = fakeRenderer{}
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeRunRepo stores run documents by channel id. Get and ListAll return
// deep copies so the fake behaves like a real store: mutating a loaded run
// does not change the persisted document until Save.
type fakeRunRepo struct {
	runs    map[string][]byte
	saveErr error
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[string][]byte)}
}

func (r *fakeRunRepo) Get(_ context.Context, channelID string) (*aq.Run, error) {
	raw, ok := r.runs[channelID]
	if !ok {
		return nil, idb.ErrRunNotFound
	}
	run := &aq.Run{}
	if err := json.Unmarshal(raw, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *fakeRunRepo) Save(_ context.Context, run *aq.Run) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	run.Revision++
	raw, err := json.Marshal(run)
	if err != nil {
		return err
	}
	r.runs[run.ChannelID] = raw
	return nil
}

func (r *fakeRunRepo) Clear(_ context.Context, channelID string) error {
	delete(r.runs, channelID)
	return nil
}

func (r *fakeRunRepo) ListAll(ctx context.Context) ([]*aq.Run, error) {
	channels := make([]string, 0, len(r.runs))
	for id := range r.runs {
		channels = append(channels, id)
	}
	sort.Strings(channels)

	runs := make([]*aq.Run, 0, len(channels))
	for _, id := range channels {
		run, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

type fakeAllianceRepo struct {
	byGuild     map[string]*alliance.Alliance
	byID        map[int64]*alliance.Alliance
	settings    map[int64]*alliance.ReminderSettings
	settingsErr error
	nextID      int64
}

func newFakeAllianceRepo() *fakeAllianceRepo {
	return &fakeAllianceRepo{
		byGuild:  make(map[string]*alliance.Alliance),
		byID:     make(map[int64]*alliance.Alliance),
		settings: make(map[int64]*alliance.ReminderSettings),
	}
}

func (r *fakeAllianceRepo) add(a *alliance.Alliance) *alliance.Alliance {
	r.nextID++
	a.ID = r.nextID
	r.byGuild[a.GuildID] = a
	r.byID[a.ID] = a
	return a
}

func (r *fakeAllianceRepo) Create(_ context.Context, a *alliance.Alliance) error {
	if _, ok := r.byGuild[a.GuildID]; ok {
		return idb.ErrDuplicateGuildID
	}
	r.add(a)
	return nil
}

func (r *fakeAllianceRepo) GetByID(_ context.Context, id int64) (*alliance.Alliance, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, idb.ErrAllianceNotFound
	}
	return a, nil
}

func (r *fakeAllianceRepo) GetByGuildID(_ context.Context, guildID string) (*alliance.Alliance, error) {
	a, ok := r.byGuild[guildID]
	if !ok {
		return nil, idb.ErrAllianceNotFound
	}
	return a, nil
}

func (r *fakeAllianceRepo) GetReminderSettings(_ context.Context, allianceID int64) (*alliance.ReminderSettings, error) {
	if r.settingsErr != nil {
		return nil, r.settingsErr
	}
	s, ok := r.settings[allianceID]
	if !ok {
		return nil, idb.ErrReminderSettingsNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeAllianceRepo) UpsertReminderSettings(_ context.Context, s *alliance.ReminderSettings) error {
	copied := *s
	r.settings[s.AllianceID] = &copied
	return nil
}

type sentMessage struct {
	target string
	msg    *discordgo.MessageSend
}

type editedMessage struct {
	channelID string
	messageID string
	msg       *discordgo.MessageSend
}

// fakeChat records outbound traffic and lets tests inject failures.
type fakeChat struct {
	posts         []sentMessage
	edits         []editedMessage
	lockedThreads []string
	members       []string

	postErr    error
	editErr    error
	threadErr  error
	resolveErr error

	nextMessageID int
}

func (c *fakeChat) PostMessage(channelID string, msg *discordgo.MessageSend) (string, error) {
	if c.postErr != nil {
		return "", c.postErr
	}
	c.nextMessageID++
	c.posts = append(c.posts, sentMessage{target: channelID, msg: msg})
	return fmt.Sprintf("msg-%d", c.nextMessageID), nil
}

func (c *fakeChat) EditMessage(channelID, messageID string, msg *discordgo.MessageSend) error {
	if c.editErr != nil {
		return c.editErr
	}
	c.edits = append(c.edits, editedMessage{channelID: channelID, messageID: messageID, msg: msg})
	return nil
}

func (c *fakeChat) CreateThread(channelID, messageID, name string) (string, error) {
	if c.threadErr != nil {
		return "", c.threadErr
	}
	return "thread-1", nil
}

func (c *fakeChat) LockThread(threadID string) error {
	c.lockedThreads = append(c.lockedThreads, threadID)
	return nil
}

func (c *fakeChat) ResolveRoleMembers(guildID, roleID string) ([]string, error) {
	if c.resolveErr != nil {
		return nil, c.resolveErr
	}
	return c.members, nil
}

// fakeRenderer tags each board variant so tests can tell them apart.
type fakeRenderer struct{}

func (fakeRenderer) LiveBoard(run *aq.Run) *discordgo.MessageSend {
	return &discordgo.MessageSend{Content: "board:live:" + run.MapStatusLabel}
}

func (fakeRenderer) ManualEndBoard(run *aq.Run) *discordgo.MessageSend {
	return &discordgo.MessageSend{Content: "board:ended"}
}

func (fakeRenderer) CompletedBoard(run *aq.Run) *discordgo.MessageSend {
	return &discordgo.MessageSend{Content: "board:completed"}
}
