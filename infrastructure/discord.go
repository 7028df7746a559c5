package infrastructure

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sirupsen/logrus"

	"wordbearer/domain"
)

// Discord is the bot's gateway session and REST client.
type Discord struct {
	client  bot.Client
	guildID snowflake.ID
	log     logrus.FieldLogger

	ready     chan struct{}
	readyOnce sync.Once
}

// NewDiscord builds a client with the guild and member intents. Listeners
// receive gateway events once Open is called.
func NewDiscord(token string, guildID uint64, log logrus.FieldLogger, listeners ...bot.EventListener) (*Discord, error) {
	d := &Discord{guildID: snowflake.ID(guildID), log: log, ready: make(chan struct{})}
	listeners = append(listeners, bot.NewListenerFunc(d.onReady), bot.NewListenerFunc(d.onGuildsReady))

	client, err := disgo.New(token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMembers),
		),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return nil, fmt.Errorf("create discord client: %w", err)
	}
	d.client = client
	return d, nil
}

func (d *Discord) onReady(e *events.Ready) {
	d.log.Infof("Logged in as %s (ID: %s)", e.User.Username, e.User.ID)
}

// onGuildsReady fires once every guild from READY is in the cache.
func (d *Discord) onGuildsReady(*events.GuildsReady) {
	d.readyOnce.Do(func() {
		d.log.Info("guilds cached, ready to send")
		close(d.ready)
	})
}

// Ready is closed once channel lookups can be trusted.
func (d *Discord) Ready() <-chan struct{} {
	return d.ready
}

func (d *Discord) Open(ctx context.Context) error {
	if err := d.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

func (d *Discord) Close(ctx context.Context) {
	d.client.Close(ctx)
}

// SyncCommands replaces the registered application commands, in the
// configured guild if there is one, otherwise globally.
func (d *Discord) SyncCommands(ctx context.Context, cmds []discord.ApplicationCommandCreate) error {
	var err error
	if d.guildID != 0 {
		_, err = d.client.Rest().SetGuildCommands(d.client.ApplicationID(), d.guildID, cmds, rest.WithCtx(ctx))
	} else {
		_, err = d.client.Rest().SetGlobalCommands(d.client.ApplicationID(), cmds, rest.WithCtx(ctx))
	}
	if err != nil {
		return fmt.Errorf("sync commands: %w", err)
	}
	d.log.WithField("commands", len(cmds)).Info("application commands synced")
	return nil
}

// Send posts msg to a cached text channel or thread. Until the guilds are
// cached it fails with domain.ErrNotReady rather than reporting a missing
// channel.
func (d *Discord) Send(ctx context.Context, channelID domain.ID, msg domain.OutgoingMessage) error {
	select {
	case <-d.ready:
	default:
		return domain.ErrNotReady
	}

	id := snowflake.ID(channelID)
	ch, ok := d.client.Caches().Channel(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrChannelNotFound, channelID)
	}
	if !messageable(ch) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidChannel, channelID)
	}

	create, closeFiles, err := buildMessage(msg)
	if err != nil {
		return err
	}
	defer closeFiles()

	if _, err := d.client.Rest().CreateMessage(id, create, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return nil
}

func messageable(ch discord.Channel) bool {
	switch ch.(type) {
	case discord.GuildTextChannel, discord.GuildNewsChannel, discord.GuildThread:
		return true
	}
	return false
}

func buildMessage(msg domain.OutgoingMessage) (discord.MessageCreate, func(), error) {
	b := discord.NewMessageCreateBuilder().
		SetContent(msg.Content).
		SetAllowedMentions(allowedMentions(msg))

	var files []io.Closer
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	for _, path := range msg.Files {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return discord.MessageCreate{}, nil, fmt.Errorf("attach %s: %w", path, err)
		}
		files = append(files, f)
		b.AddFile(filepath.Base(path), "", f)
	}
	return b.Build(), closeAll, nil
}

func allowedMentions(msg domain.OutgoingMessage) *discord.AllowedMentions {
	parse := []discord.AllowedMentionType{}
	if msg.MentionUsers {
		parse = append(parse, discord.AllowedMentionTypeUsers)
	}
	if msg.MentionRoles {
		parse = append(parse, discord.AllowedMentionTypeRoles)
	}
	return &discord.AllowedMentions{Parse: parse}
}
