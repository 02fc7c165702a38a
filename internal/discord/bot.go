package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"habboverify/internal/logger"
)

// NewSession prepares a bot session with the intents the commands and the repair pass need. The
// gateway is opened by Bot.Start.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMembers
	s.SyncEvents = false
	return s, nil
}

// Bot owns the gateway connection and runs one goroutine per interaction.
type Bot struct {
	session  *discordgo.Session
	handler  *Handler
	guildID  string
	activity string

	ctx    context.Context
	cancel context.CancelFunc
	remove []func()

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewBot(session *discordgo.Session, handler *Handler, guildID, activity string) *Bot {
	return &Bot{session: session, handler: handler, guildID: guildID, activity: activity}
}

// Start connects to the gateway. Interactions run under ctx until Close.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.remove = append(b.remove,
		b.session.AddHandler(b.onReady),
		b.session.AddHandler(b.onInteraction),
	)
	if err := b.session.Open(); err != nil {
		b.cancel()
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

// Close cancels running interactions, waits for them and disconnects.
func (b *Bot) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	for _, rm := range b.remove {
		rm()
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Log.Infof("[discord][ready] logged in as %s#%s", r.User.Username, r.User.Discriminator)

	err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status:     string(discordgo.StatusDoNotDisturb),
		Activities: []*discordgo.Activity{{Name: b.activity, Type: discordgo.ActivityTypeGame}},
	})
	if err != nil {
		logger.Log.Warnf("[discord][status][err] %v", err)
	}

	cmds, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.guildID, Commands(), discordgo.WithContext(b.ctx))
	if err != nil {
		logger.Log.Errorf("[discord][commands][err] %v", err)
		return
	}
	logger.Log.Infof("[discord][commands] registered %d commands in guild %s", len(cmds), b.guildID)
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if !b.track() {
		logger.Log.Debug("[discord][interaction] dropped, shutting down")
		return
	}
	defer b.wg.Done()
	b.handler.Handle(b.ctx, s, ic)
}

// track registers a running interaction unless Close has started.
func (b *Bot) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.wg.Add(1)
	return true
}
