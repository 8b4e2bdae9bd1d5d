package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/application/query"
	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLER
// The admin panel: overview, mandatory channel management, granting
// admin rights and broadcasts. Every entry point re-checks IsAdmin, the
// router gate is not trusted alone.
// ══════════════════════════════════════════════════════════════════════════════

// AdminHandler handles the admin panel.
type AdminHandler struct {
	overview      *query.GetAdminOverviewHandler
	addChannel    *command.AddChannelHandler
	removeChannel *command.RemoveChannelHandler
	grantAdmin    *command.GrantAdminHandler
	broadcast     *command.BroadcastHandler
	channels      channel.Repository
	sessions      session.Store
	texts         *presenter.TextPresenter
	stats         *presenter.StatsPresenter
	keyboards     *presenter.KeyboardBuilder
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	overview *query.GetAdminOverviewHandler,
	addChannel *command.AddChannelHandler,
	removeChannel *command.RemoveChannelHandler,
	grantAdmin *command.GrantAdminHandler,
	broadcast *command.BroadcastHandler,
	channels channel.Repository,
	sessions session.Store,
	texts *presenter.TextPresenter,
	stats *presenter.StatsPresenter,
	keyboards *presenter.KeyboardBuilder,
) *AdminHandler {
	return &AdminHandler{
		overview:      overview,
		addChannel:    addChannel,
		removeChannel: removeChannel,
		grantAdmin:    grantAdmin,
		broadcast:     broadcast,
		channels:      channels,
		sessions:      sessions,
		texts:         texts,
		stats:         stats,
		keyboards:     keyboards,
	}
}

// notAdmin is the refusal shown to non-privileged users.
func (h *AdminHandler) notAdmin() *Response {
	return HTML("🔒 Bu bo'lim faqat adminlar uchun.")
}

// Panel shows the admin overview.
func (h *AdminHandler) Panel(ctx context.Context, user *identity.User) (*Response, error) {
	if !user.IsAdmin {
		return h.notAdmin(), nil
	}

	view, err := h.overview.Handle(ctx)
	if err != nil {
		return nil, err
	}

	return HTML(h.stats.AdminOverview(view)).
		WithKeyboard(h.keyboards.AdminPanelKeyboard()), nil
}

// Channels shows the mandatory channel list with removal buttons.
func (h *AdminHandler) Channels(ctx context.Context, user *identity.User) (*Response, error) {
	if !user.IsAdmin {
		return h.notAdmin(), nil
	}

	active, err := h.channels.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	resp := HTML(h.stats.ChannelList(len(active)))
	if len(active) > 0 {
		resp.WithKeyboard(h.keyboards.ChannelListKeyboard(active))
	} else {
		resp.WithKeyboard(h.keyboards.AdminPanelKeyboard())
	}
	return resp, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ADD / REMOVE CHANNEL
// ─────────────────────────────────────────────────────────────────────────────

// BeginAddChannel starts the add-channel flow.
func (h *AdminHandler) BeginAddChannel(ctx context.Context, user *identity.User) (*Response, error) {
	if !user.IsAdmin {
		return h.notAdmin(), nil
	}

	sess := session.New(int64(user.TelegramID))
	sess.Transition(session.StateAwaitingChannel)
	if err := h.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	return HTML("➕ <b>Kanal qo'shish</b>\n\n" +
		"Kanal @username yoki raqamli chat ID ni yuboring.\n" +
		"Bot kanalda admin bo'lishi shart.").
		WithKeyboard(h.keyboards.CancelKeyboard()), nil
}

// HandleChannelInput registers the typed channel.
func (h *AdminHandler) HandleChannelInput(ctx context.Context, user *identity.User, text string) (*Response, error) {
	res, err := h.addChannel.Handle(ctx, command.AddChannelCommand{
		Identifier: strings.TrimSpace(text),
	})
	if err != nil {
		if shared.IsUserFacing(err) || shared.IsNotFound(err) {
			return HTML(h.texts.ErrorText(err)).
				WithKeyboard(h.keyboards.CancelKeyboard()), nil
		}
		// Unresolvable chat: most likely a typo or the bot is not a member.
		return HTML("❌ Kanal topilmadi.\n" +
			"Username to'g'riligini va bot kanalga qo'shilganini tekshiring.").
			WithKeyboard(h.keyboards.CancelKeyboard()), nil
	}

	if err := h.sessions.Clear(ctx, int64(user.TelegramID)); err != nil {
		return nil, err
	}

	title := res.Channel.Title
	if title == "" {
		title = res.Channel.Username
	}
	text = fmt.Sprintf("✅ Kanal qo'shildi: <b>%s</b>", presenter.EscapeHTML(title))
	if res.Reactivated {
		text = fmt.Sprintf("✅ Kanal qayta faollashtirildi: <b>%s</b>", presenter.EscapeHTML(title))
	}
	return HTML(text).WithKeyboard(h.keyboards.AdminPanelKeyboard()), nil
}

// RemoveChannel deactivates a channel by chat ID.
func (h *AdminHandler) RemoveChannel(ctx context.Context, user *identity.User, chatID int64) (*Response, error) {
	if !user.IsAdmin {
		return h.notAdmin(), nil
	}

	err := h.removeChannel.Handle(ctx, command.RemoveChannelCommand{
		ChatID: channel.ChatID(chatID),
	})
	if err != nil {
		if shared.IsNotFound(err) {
			return HTML(h.texts.ErrorText(err)), nil
		}
		return nil, err
	}

	return h.Channels(ctx, user)
}

// ─────────────────────────────────────────────────────────────────────────────
// GRANT ADMIN
// ─────────────────────────────────────────────────────────────────────────────

// BeginGrantAdmin starts the promotion flow.
func (h *AdminHandler) BeginGrantAdmin(ctx context.Context, user *identity.User) (*Response, error) {
	if !user.IsAdmin {
		return h.notAdmin(), nil
	}

	sess := session.New(int64(user.TelegramID))
	sess.Transition(session.StateAwaitingAdminID)
	if err := h.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	return HTML("👤 <b>Admin tayinlash</b>\n\n" +
		"Yangi adminning Telegram ID sini yuboring.\n" +
		"U avval botga /start yuborgan bo'lishi kerak.").
		WithKeyboard(h.keyboards.CancelKeyboard()), nil
}

// HandleAdminIDInput promotes the typed Telegram ID. The returned ID is
// non-zero on success so the caller can invalidate its access cache.
func (h *AdminHandler) HandleAdminIDInput(ctx context.Context, user *identity.User, text string) (*Response, int64, error) {
	targetID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || targetID <= 0 {
		return HTML("✏️ Telegram ID raqam bo'lishi kerak, masalan: <code>123456789</code>").
			WithKeyboard(h.keyboards.CancelKeyboard()), 0, nil
	}

	res, err := h.grantAdmin.Handle(ctx, command.GrantAdminCommand{TargetTelegramID: targetID})
	if err != nil {
		if shared.IsNotFound(err) {
			return HTML(h.texts.ErrorText(err)).
				WithKeyboard(h.keyboards.CancelKeyboard()), 0, nil
		}
		return nil, 0, err
	}

	if err := h.sessions.Clear(ctx, int64(user.TelegramID)); err != nil {
		return nil, 0, err
	}

	if res.AlreadyAdmin {
		return HTML(fmt.Sprintf("ℹ️ %s allaqachon admin.",
			presenter.EscapeHTML(res.User.DisplayName()))), 0, nil
	}
	return HTML(fmt.Sprintf("✅ %s admin etib tayinlandi.",
		presenter.EscapeHTML(res.User.DisplayName()))), targetID, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// BROADCAST
// ─────────────────────────────────────────────────────────────────────────────

// BeginBroadcast starts the broadcast flow.
func (h *AdminHandler) BeginBroadcast(ctx context.Context, user *identity.User) (*Response, error) {
	if !user.IsAdmin {
		return h.notAdmin(), nil
	}

	sess := session.New(int64(user.TelegramID))
	sess.Transition(session.StateAwaitingBroadcast)
	if err := h.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	return HTML("📣 <b>Xabar yuborish</b>\n\n" +
		"Barcha foydalanuvchilarga yuboriladigan xabar matnini kiriting.\n" +
		"HTML formatlash qo'llab-quvvatlanadi.").
		WithKeyboard(h.keyboards.CancelKeyboard()), nil
}

// HandleBroadcastInput sends the typed message to every user.
func (h *AdminHandler) HandleBroadcastInput(ctx context.Context, user *identity.User, text string) (*Response, error) {
	if err := h.sessions.Clear(ctx, int64(user.TelegramID)); err != nil {
		return nil, err
	}

	res, err := h.broadcast.Handle(ctx, command.BroadcastCommand{HTML: text})
	if err != nil {
		return nil, err
	}

	return HTML(h.stats.BroadcastReport(res)).
		WithKeyboard(h.keyboards.AdminPanelKeyboard()), nil
}
