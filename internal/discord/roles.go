package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const membersPageSize = 1000

// roleSession is the part of *discordgo.Session the role API calls.
type roleSession interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

// GuildRoles manages roles of one guild.
type GuildRoles struct {
	session roleSession
	guildID string
}

func NewGuildRoles(s roleSession, guildID string) *GuildRoles {
	return &GuildRoles{session: s, guildID: guildID}
}

func (g *GuildRoles) GuildRoleIDs(ctx context.Context) ([]string, error) {
	roles, err := g.session.GuildRoles(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild roles: %w", err)
	}
	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (g *GuildRoles) AddMemberRole(ctx context.Context, userID, roleID string) error {
	if err := g.session.GuildMemberRoleAdd(g.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role %s to %s: %w", roleID, userID, err)
	}
	return nil
}

func (g *GuildRoles) RemoveMemberRole(ctx context.Context, userID, roleID string) error {
	if err := g.session.GuildMemberRoleRemove(g.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("remove role %s from %s: %w", roleID, userID, err)
	}
	return nil
}

// MembersWithRole pages through the member list. Needs the guild members intent.
func (g *GuildRoles) MembersWithRole(ctx context.Context, roleID string) ([]string, error) {
	var (
		out   []string
		after string
	)
	for {
		page, err := g.session.GuildMembers(g.guildID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("guild members: %w", err)
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			for _, r := range m.Roles {
				if r == roleID {
					out = append(out, m.User.ID)
					break
				}
			}
		}
		if len(page) < membersPageSize {
			return out, nil
		}
		last := page[len(page)-1]
		if last.User == nil {
			return out, nil
		}
		after = last.User.ID
	}
}
