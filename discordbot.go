package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/tr4cks/grove/modules"
)

// Discord limits the number of choices of a command option.
const maxOptionChoices = 25

type DiscordBot struct {
	config  *DiscordBotConfig
	manager *Manager

	logger             zerolog.Logger
	session            *discordgo.Session
	commands           []*discordgo.ApplicationCommand
	registeredCommands []*discordgo.ApplicationCommand
}

type DiscordBotConfig struct {
	BotToken        string `yaml:"bot-token" validate:"required"`
	GuildId         string `yaml:"guild-id"`
	NotifyChannelId string `yaml:"notify-channel-id"`
}

func (d *DiscordBot) Start() error {
	err := d.session.Open()
	if err != nil {
		return fmt.Errorf("cannot open the session: %w", err)
	}

	d.logger.Info().Msg("Adding commands...")
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(d.commands))
	for _, v := range d.commands {
		cmd, err := d.session.ApplicationCommandCreate(d.session.State.User.ID, d.config.GuildId, v)
		if err != nil {
			d.logger.Error().Err(err).Str("command", v.Name).Msg("Cannot create command")
			continue
		}
		registeredCommands = append(registeredCommands, cmd)
	}
	d.registeredCommands = registeredCommands

	return nil
}

func (d *DiscordBot) Stop() {
	d.logger.Info().Msg("Removing commands...")

	for _, v := range d.registeredCommands {
		err := d.session.ApplicationCommandDelete(d.session.State.User.ID, d.config.GuildId, v.ID)
		if err != nil {
			d.logger.Error().Err(err).Str("command", v.Name).Msg("Cannot delete command")
		}
	}

	err := d.session.Close()
	if err != nil {
		d.logger.Error().Err(err).Msg("Unable to close the session")
	}

	d.logger.Info().Msg("Gracefully shutting down")
}

// Notify posts a trigger notification to the configured channel.
func (d *DiscordBot) Notify(output string, channel int) {
	if d.config.NotifyChannelId == "" {
		return
	}
	_, err := d.session.ChannelMessageSend(d.config.NotifyChannelId,
		fmt.Sprintf("⚡ Output **%s** switched at startup, triggering functions of channel %d", output, channel))
	if err != nil {
		d.logger.Error().Err(err).Str("output", output).Msg("Failed to send trigger notification")
	}
}

func (d *DiscordBot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, logger zerolog.Logger, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: content,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to send interaction response")
	}
}

func (d *DiscordBot) interactionLogger(i *discordgo.InteractionCreate, output string) zerolog.Logger {
	username := ""
	if i.Member != nil && i.Member.User != nil {
		username = i.Member.User.Username
	} else if i.User != nil {
		username = i.User.Username
	}
	return d.logger.With().Str("username", username).Str("output", output).Logger()
}

func outputName(i *discordgo.InteractionCreate) string {
	for _, option := range i.ApplicationCommandData().Options {
		if option.Name == "name" {
			return option.StringValue()
		}
	}
	return ""
}

func (d *DiscordBot) outputStatusHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := outputName(i)
	logger := d.interactionLogger(i, name)
	logger.Info().Msg("A user checks the output status")

	status, err := d.manager.Status(name)
	if err != nil {
		d.respond(s, i, logger, fmt.Sprintf("❓ Unknown output %q", name))
		return
	}
	if status.Error != "" {
		logger.Error().Str("error", status.Error).Msg("Failed to retrieve output state")
	}
	d.respond(s, i, logger, statusMessage(status))
}

func statusMessage(status OutputStatus) string {
	if !status.Setup {
		return fmt.Sprintf("🔌 %s is unavailable", status.Name)
	}
	switch status.State {
	case modules.StateOn.String():
		return fmt.Sprintf("🌞 %s is on", status.Name)
	case modules.StateOff.String():
		return fmt.Sprintf("💤 %s is off", status.Name)
	}
	return fmt.Sprintf("❔ %s is in an unknown state", status.Name)
}

func (d *DiscordBot) switchHandler(state modules.State) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		name := outputName(i)
		logger := d.interactionLogger(i, name)
		logger.Info().Str("state", state.String()).Msg("A user switches an output")

		result, err := d.manager.Switch(name, state)
		if err != nil {
			d.respond(s, i, logger, fmt.Sprintf("❓ Unknown output %q", name))
			return
		}
		if result.Err != nil {
			logger.Error().Err(result.Err).Msg("A problem occurred when switching the output")
			d.respond(s, i, logger, fmt.Sprintf("❌ Oops! Something went wrong while switching %s %s", name, state))
			return
		}
		logger.Info().Msg("Output switched")
		d.respond(s, i, logger, fmt.Sprintf("✅ %s is now %s", name, state))
	}
}

func buildCommands(names []string) []*discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		if len(choices) == maxOptionChoices {
			break
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	nameOption := func() []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Output name",
				Required:    true,
				Choices:     choices,
			},
		}
	}
	adminOnly := func() *int64 {
		perms := int64(discordgo.PermissionAdministrator)
		return &perms
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "output_status",
			Description: "Provides the current state of an output",
			Options:     nameOption(),
		},
		{
			Name:                     "output_on",
			Description:              "Turns an output on",
			Options:                  nameOption(),
			DefaultMemberPermissions: adminOnly(),
		},
		{
			Name:                     "output_off",
			Description:              "Turns an output off",
			Options:                  nameOption(),
			DefaultMemberPermissions: adminOnly(),
		},
	}
}

func NewDiscordBot(config *DiscordBotConfig, manager *Manager, logger zerolog.Logger) (*DiscordBot, error) {
	session, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("invalid bot parameters: %w", err)
	}

	bot := &DiscordBot{
		config:   config,
		manager:  manager,
		logger:   logger,
		session:  session,
		commands: buildCommands(manager.Names()),
	}

	commandHandlers := map[string]func(*discordgo.Session, *discordgo.InteractionCreate){
		"output_status": bot.outputStatusHandler,
		"output_on":     bot.switchHandler(modules.StateOn),
		"output_off":    bot.switchHandler(modules.StateOff),
	}

	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if h, ok := commandHandlers[i.ApplicationCommandData().Name]; ok {
			h(s, i)
		}
	})

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info().
			Str("discriminator", s.State.User.Discriminator).
			Str("username", s.State.User.Username).
			Msg(fmt.Sprintf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator))
	})

	manager.OnTrigger(bot.Notify)

	return bot, nil
}
