package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/service"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

// NewSession builds the discordgo session with the intents the bot needs.
func NewSession(cfg config.BotConfig) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers
	return session, nil
}

// Gateway owns the Discord connection: it registers the slash commands and
// translates interactions into service calls.
type Gateway struct {
	session   *discordgo.Session
	cfg       config.BotConfig
	lifecycle *service.LifecycleService
	admin     *service.AdminService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewGateway constructs the gateway.
func NewGateway(session *discordgo.Session, cfg config.BotConfig, lifecycle *service.LifecycleService, admin *service.AdminService, metrics *observability.Metrics, logger *zap.Logger) *Gateway {
	return &Gateway{
		session:   session,
		cfg:       cfg,
		lifecycle: lifecycle,
		admin:     admin,
		metrics:   metrics,
		logger:    logger,
	}
}

// Start opens the session and registers the guild commands.
func (g *Gateway) Start(ctx context.Context) error {
	g.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		g.logger.Info("gateway ready", zap.String("user", r.User.Username))
	})
	g.session.AddHandler(g.handleInteraction)

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	if _, err := g.session.ApplicationCommandBulkOverwrite(g.session.State.User.ID, g.cfg.GuildID, commandDefinitions()); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	return nil
}

// Stop closes the session.
func (g *Gateway) Stop() error {
	return g.session.Close()
}

// Connected reports whether the gateway heartbeat is healthy.
func (g *Gateway) Connected() bool {
	return g.session.DataReady
}

func (g *Gateway) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("panic in interaction handler", zap.Any("panic", r))
			g.respond(i, "Something went wrong while processing your request.", true)
		}
	}()

	// Ticket interactions only make sense inside a guild.
	if i.Member == nil || i.Member.User == nil {
		return
	}

	ctx := context.Background()
	actor := actorFromInteraction(i)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		g.handleCommand(ctx, actor, i)
	case discordgo.InteractionMessageComponent:
		g.handleComponent(ctx, actor, i)
	}
}

func (g *Gateway) handleCommand(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	kind := "cmd:" + data.Name
	g.metrics.RecordInteraction(kind)

	switch data.Name {
	case "ticket":
		g.handleTicketCommand(ctx, actor, i, data)
	case "setup":
		g.handleSetupCommand(ctx, actor, i, data)
	case "addcategory":
		g.handleAddCategoryCommand(ctx, actor, i, data)
	case "deletecategory":
		g.handleDeleteCategoryCommand(ctx, actor, i, data)
	default:
		g.logger.Warn("unknown command", zap.String("name", data.Name))
	}
}

func (g *Gateway) handleTicketCommand(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if err := g.admin.CanPostPrompt(actor); err != nil {
		g.respondError(i, "cmd:ticket", err)
		return
	}

	opts := optionMap(data.Options)
	channel := opts["channel"].ChannelValue(g.session)
	if channel == nil || channel.Type != discordgo.ChannelTypeGuildText {
		g.respondError(i, "cmd:ticket", util.NewValidationError("please choose a text channel", nil))
		return
	}

	entries := g.admin.MenuEntries()
	if len(entries) == 0 {
		g.respondError(i, "cmd:ticket", util.NewValidationError("no categories configured yet, run /setup or /addcategory first", nil))
		return
	}

	if _, err := g.session.ChannelMessageSendComplex(channel.ID, promptMessage(entries)); err != nil {
		g.respondError(i, "cmd:ticket", util.NewExternalCallError("could not post the ticket prompt", err))
		return
	}
	g.respond(i, fmt.Sprintf("Ticket prompt posted in <#%s>.", channel.ID), true)
}

func (g *Gateway) handleSetupCommand(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)

	containers := make(map[string]string, 4)
	for _, name := range []string{"exchange_category", "staff_category", "winners_category", "other_category"} {
		channel := opts[name].ChannelValue(g.session)
		if channel == nil || channel.Type != discordgo.ChannelTypeGuildCategory {
			g.respondError(i, "cmd:setup", util.NewValidationError(fmt.Sprintf("please choose a category channel for %s", name), nil))
			return
		}
		containers[name] = channel.ID
	}
	role := opts["support_role"].RoleValue(g.session, i.GuildID)
	if role == nil {
		g.respondError(i, "cmd:setup", util.NewValidationError("please choose a support role", nil))
		return
	}

	err := g.admin.Setup(ctx, actor, service.SetupInput{
		ExchangeID:    containers["exchange_category"],
		StaffID:       containers["staff_category"],
		WinnersID:     containers["winners_category"],
		OtherID:       containers["other_category"],
		SupportRoleID: role.ID,
	})
	if err != nil {
		g.respondError(i, "cmd:setup", err)
		return
	}
	g.respond(i, "Ticket system configured: stock categories seeded and support role set.", true)
}

func (g *Gateway) handleAddCategoryCommand(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	container := opts["category_channel"].ChannelValue(g.session)
	if container == nil || container.Type != discordgo.ChannelTypeGuildCategory {
		g.respondError(i, "cmd:addcategory", util.NewValidationError("please choose a category channel", nil))
		return
	}

	key := opts["name"].StringValue()
	added, err := g.admin.AddCategory(ctx, actor, key, domain.Category{
		ChannelID:   container.ID,
		Label:       opts["label"].StringValue(),
		Description: opts["description"].StringValue(),
		Emoji:       opts["emoji"].StringValue(),
	})
	if err != nil {
		g.respondError(i, "cmd:addcategory", err)
		return
	}
	g.respond(i, fmt.Sprintf("Category %s **%s** (`%s`) added.", added.Emoji, added.Label, key), true)
}

func (g *Gateway) handleDeleteCategoryCommand(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)
	key := opts["name"].StringValue()

	removed, err := g.admin.DeleteCategory(ctx, actor, key)
	if err != nil {
		g.respondError(i, "cmd:deletecategory", err)
		return
	}
	g.respond(i, fmt.Sprintf("Category **%s** (`%s`) deleted.", removed.Label, key), true)
}

func (g *Gateway) handleComponent(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()

	if data.CustomID == TopicSelectID {
		g.metrics.RecordInteraction("select:" + TopicSelectID)
		g.handleTopicSelect(ctx, actor, i, data)
		return
	}

	action, err := ParseComponentID(data.CustomID)
	if err != nil {
		g.logger.Warn("unparseable component id", zap.String("custom_id", data.CustomID), zap.Error(err))
		return
	}
	kind := "button:" + string(action.Kind)
	g.metrics.RecordInteraction(kind)

	switch action.Kind {
	case ActionClose:
		g.handleCloseButton(ctx, actor, i, action)
	case ActionDelete:
		g.handleDeleteButton(ctx, actor, i, action)
	case ActionConfirmDelete:
		g.handleConfirmDelete(ctx, actor, i, action)
	case ActionCancelDelete:
		g.lifecycle.CancelDelete(ctx, actor, action.TicketID)
		g.updatePrompt(i, "Ticket deletion cancelled.")
	case ActionClosedIndicator:
		// Disabled control; nothing to do if it ever arrives.
	}
}

func (g *Gateway) handleTopicSelect(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate, data discordgo.MessageComponentInteractionData) {
	if len(data.Values) == 0 {
		return
	}

	// Channel provisioning can exceed the 3 second interaction deadline, so
	// acknowledge first and deliver the result as a followup.
	if err := g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		g.logger.Warn("interaction ack failed", zap.Error(err))
		return
	}

	ticket, err := g.lifecycle.OpenTicket(ctx, actor, data.Values[0])
	if err != nil {
		g.followUpError(i, "select:"+TopicSelectID, err)
		return
	}
	g.followUp(i, fmt.Sprintf("Your ticket has been created: <#%s>", ticket.ChannelID))
}

func (g *Gateway) handleCloseButton(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate, action ComponentAction) {
	ticket, err := g.lifecycle.CloseTicket(ctx, actor, action.TicketID)
	if err != nil {
		g.respondError(i, "button:"+string(action.Kind), err)
		return
	}
	g.respond(i, fmt.Sprintf("Ticket closed by <@%s>.", actor.ID), false)
	g.logger.Info("ticket closed via button", zap.String("ticket_id", ticket.ID), zap.String("actor_id", actor.ID))
}

func (g *Gateway) handleDeleteButton(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate, action ComponentAction) {
	ticket, err := g.lifecycle.RequestDelete(ctx, actor, action.TicketID)
	if err != nil {
		g.respondError(i, "button:"+string(action.Kind), err)
		return
	}

	if err := g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: confirmPromptData(ticket),
	}); err != nil {
		g.logger.Warn("confirm prompt failed", zap.Error(err))
	}
}

func (g *Gateway) handleConfirmDelete(ctx context.Context, actor domain.Actor, i *discordgo.InteractionCreate, action ComponentAction) {
	err := g.lifecycle.ConfirmDelete(ctx, actor, action.TicketID)
	switch {
	case err == nil:
		g.updatePrompt(i, "Ticket deleted.")
	case util.IsCode(err, util.CodeNotFound):
		// Racing deletion: the other confirmation already removed it.
		g.updatePrompt(i, "This ticket no longer exists.")
	default:
		g.metrics.RecordError("button:"+string(action.Kind), util.ToDomainError(err).Code)
		g.updatePrompt(i, userMessage(err))
	}
}

// respond sends the initial interaction response.
func (g *Gateway) respond(i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		g.logger.Warn("interaction respond failed", zap.Error(err))
	}
}

// updatePrompt replaces the originating ephemeral prompt with a bare result.
func (g *Gateway) updatePrompt(i *discordgo.InteractionCreate, content string) {
	if err := g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	}); err != nil {
		g.logger.Warn("interaction update failed", zap.Error(err))
	}
}

func (g *Gateway) followUp(i *discordgo.InteractionCreate, content string) {
	if _, err := g.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		g.logger.Warn("interaction followup failed", zap.Error(err))
	}
}

func (g *Gateway) respondError(i *discordgo.InteractionCreate, kind string, err error) {
	g.metrics.RecordError(kind, util.ToDomainError(err).Code)
	g.respond(i, userMessage(err), true)
}

func (g *Gateway) followUpError(i *discordgo.InteractionCreate, kind string, err error) {
	g.metrics.RecordError(kind, util.ToDomainError(err).Code)
	g.followUp(i, userMessage(err))
}

// userMessage renders an error for the requesting member. Internal errors
// stay generic; everything else carries its specific explanation.
func userMessage(err error) string {
	domainErr := util.ToDomainError(err)
	switch domainErr.Code {
	case util.CodeInternal, util.CodePersistenceFailed:
		return "Something went wrong while processing your request."
	case util.CodeConflict:
		if channelID, ok := domainErr.Details["channelId"].(string); ok {
			return fmt.Sprintf("You already have an open ticket: <#%s>", channelID)
		}
		return domainErr.Message
	default:
		return domainErr.Message
	}
}

func actorFromInteraction(i *discordgo.InteractionCreate) domain.Actor {
	member := i.Member
	return domain.Actor{
		ID:             member.User.ID,
		Username:       member.User.Username,
		Admin:          member.Permissions&discordgo.PermissionAdministrator != 0,
		ManageChannels: member.Permissions&discordgo.PermissionManageChannels != 0,
		RoleIDs:        member.Roles,
	}
}
