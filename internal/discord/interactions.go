package discord

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"habboverify/internal/logger"
	"habboverify/internal/models"
	"habboverify/internal/services"
)

const (
	finalReplyTimeout = 10 * time.Second

	embedColorGold = 0xF1C40F
	avatarURL      = "https://www.habbo.com/habbo-imaging/avatarimage?size=l&figure=%s&size=b&direction=4&head_direction=4&crr=0&gesture=sml&frame=1"
)

// responder is the part of *discordgo.Session an interaction reply needs.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handler turns slash commands into service calls. Every command is answered with a deferred
// ephemeral reply that is edited with the result.
type Handler struct {
	verify   *services.VerifyService
	info     *services.InfoService
	settings *services.SettingsService
}

func NewHandler(verify *services.VerifyService, info *services.InfoService, settings *services.SettingsService) *Handler {
	return &Handler{verify: verify, info: info, settings: settings}
}

func (h *Handler) Handle(ctx context.Context, r responder, ic *discordgo.InteractionCreate) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return
	}
	user := invoker(ic.Interaction)
	if user == nil {
		return
	}
	data := ic.ApplicationCommandData()
	log := logger.Log.WithFields(logrus.Fields{"command": data.Name, "user_id": user.ID})
	log.Info("[discord][command]")

	err := r.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Errorf("[discord][defer][err] %v", err)
		return
	}

	edit := func(ctx context.Context, msg string) {
		if _, err := r.InteractionResponseEdit(ic.Interaction, &discordgo.WebhookEdit{Content: &msg}, discordgo.WithContext(ctx)); err != nil {
			log.Errorf("[discord][edit][err] %v", err)
		}
	}
	progress := func(msg string) { edit(ctx, msg) }

	var result string
	switch data.Name {
	case cmdVerify:
		result = h.verify.Verify(ctx, user.ID, optionString(data, "username"), progress)
	case cmdCheck:
		result = h.verify.Check(ctx, user.ID, optionString(data, "user"))
	case cmdReset:
		result = h.verify.Reset(ctx, user.ID)
	case cmdInfo:
		name := optionString(data, "username")
		var profile *models.Profile
		result, profile = h.info.Info(ctx, user.ID, name)
		if profile != nil {
			msg := &discordgo.MessageSend{
				Content: fmt.Sprintf("<@%s>, here is your requested information about this Habbo.", user.ID),
				Embeds:  []*discordgo.MessageEmbed{profileEmbed(name, profile)},
			}
			if _, err := r.ChannelMessageSendComplex(ic.ChannelID, msg, discordgo.WithContext(ctx)); err != nil {
				log.Errorf("[discord][info][send][err] %v", err)
			}
		}
	case cmdInit:
		result = h.settings.Init(user.ID, isAdmin(ic.Interaction), optionString(data, "role"))
	default:
		result = services.UnknownCommand()
	}

	// the final reply still goes out after shutdown cancelled ctx
	replyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalReplyTimeout)
	defer cancel()
	edit(replyCtx, result)
}

// invoker is the member's user inside a guild and the plain user in DMs.
func invoker(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func isAdmin(i *discordgo.Interaction) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// optionString returns the raw value of a string, user or role option. Users and roles arrive as ids.
func optionString(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name != name {
			continue
		}
		if s, ok := opt.Value.(string); ok {
			return s
		}
	}
	return ""
}

func profileEmbed(name string, p *models.Profile) *discordgo.MessageEmbed {
	badges := ""
	for i, b := range p.SelectedBadges {
		if i > 0 {
			badges += "\n"
		}
		badges += fmt.Sprintf("[%s] %s", b.Code, b.Name)
	}
	return &discordgo.MessageEmbed{
		Title:     name,
		Color:     embedColorGold,
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: fmt.Sprintf(avatarURL, p.FigureString)},
		Fields: []*discordgo.MessageEmbedField{
			field("id", p.UniqueID, false),
			field("figure", p.FigureString, false),
			field("motto", p.Motto, false),
			field("online", strconv.FormatBool(p.Online), false),
			field("member since", p.MemberSince, true),
			field("last login", p.LastAccessTime, true),
			field("badges", badges, false),
		},
	}
}

// field substitutes a dash for empty values, which the API rejects.
func field(name, value string, inline bool) *discordgo.MessageEmbedField {
	if value == "" {
		value = "-"
	}
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline}
}
