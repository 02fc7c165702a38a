package services

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"

	"habboverify/internal/config"
	"habboverify/internal/habbo"
	"habboverify/internal/models"
)

const (
	testRoleID  uint64 = 987654321012345678
	testRoleStr        = "987654321012345678"
)

// fakeRoles is an in-memory guild: the set of roles and the members holding the verify role.
type fakeRoles struct {
	mu        sync.Mutex
	roles     []string
	holders   map[string]bool
	rolesErr  error
	addErr    error
	removeErr error
	adds      []string
	removes   []string
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{roles: []string{"1", testRoleStr}, holders: map[string]bool{}}
}

func (f *fakeRoles) GuildRoleIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return append([]string(nil), f.roles...), nil
}

func (f *fakeRoles) AddMemberRole(_ context.Context, userID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, userID)
	if f.addErr != nil {
		return f.addErr
	}
	f.holders[userID] = true
	return nil
}

func (f *fakeRoles) RemoveMemberRole(_ context.Context, userID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, userID)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.holders, userID)
	return nil
}

func (f *fakeRoles) MembersWithRole(context.Context, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for uid := range f.holders {
		out = append(out, uid)
	}
	return out, nil
}

func (f *fakeRoles) holds(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holders[userID]
}

func (f *fakeRoles) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adds) + len(f.removes)
}

// fakeProfiles answers with whatever motto the test put on the account.
type fakeProfiles struct {
	mu      sync.Mutex
	mottos  map[string]string
	err     error
	onFetch func(name string)
}

func (f *fakeProfiles) Fetch(_ context.Context, name string) (*models.Profile, error) {
	if f.onFetch != nil {
		f.onFetch(name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &models.Profile{UniqueID: "hhus-" + name, Motto: f.mottos[name]}, nil
}

func (f *fakeProfiles) setMotto(name, motto string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mottos == nil {
		f.mottos = map[string]string{}
	}
	f.mottos[name] = motto
}

var (
	errTransport = &habbo.FetchError{Kind: habbo.KindTransport, Name: "x", Err: errors.New("dial tcp: refused")}
	errPrivate   = &habbo.FetchError{Kind: habbo.KindNotFound, Name: "x", Message: "not-found"}
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, ev Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type fakeTelegram struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func configuredSettings() *config.Settings {
	cfg := &config.Config{}
	cfg.Discord.GuildID = "42"
	cfg.Discord.VerifyRoleID = testRoleID
	return config.NewSettings("", cfg)
}

func unsetSettings() *config.Settings {
	cfg := &config.Config{}
	cfg.Discord.GuildID = "42"
	return config.NewSettings("", cfg)
}
