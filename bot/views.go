package bot

import (
	"context"
	"fmt"

	"assistant-telegram/models"
	"assistant-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// The "modals" of the mobile client rendered as bot views: hours, menu
// browser, item detail and cart. View state only; data comes from the
// services.

func (b *Bot) sendScheduleView(chatID int64, userID int64, sess *services.Session) {
	if sess.RestaurantEmail == "" {
		b.send(chatID, textNoEmail)
		return
	}
	week, err := b.client.FetchSchedule(context.Background(), sess.RestaurantEmail)
	if err != nil {
		b.log.Warn("fetch schedule", zap.Error(err))
		b.send(chatID, textScheduleFailed)
		return
	}
	b.send(chatID, services.FormatWeekSchedule(week))
}

func (b *Bot) sendMenuView(chatID int64, userID int64, sess *services.Session) {
	items, err := b.menus.ActivatedMenu(context.Background(), sess.RestaurantID)
	if err != nil {
		b.log.Warn("load menu", zap.Error(err))
		b.send(chatID, textMenuFailed)
		return
	}
	if len(items) == 0 {
		b.send(chatID, "O cardápio está vazio no momento.")
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s — %s", item.Name, formatPrice(item.Price)),
				"item:"+item.ID,
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🛒 Ver carrinho", "cart"),
	))
	b.sendWithInline(chatID, "Cardápio — toque em um item para ver os detalhes:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// sendOrderBuilder is the order modal: the same activated menu, but every
// tap adds the item straight to the cart.
func (b *Bot) sendOrderBuilder(chatID int64, userID int64, sess *services.Session) {
	items, err := b.menus.ActivatedMenu(context.Background(), sess.RestaurantID)
	if err != nil {
		b.log.Warn("load menu", zap.Error(err))
		b.send(chatID, textMenuFailed)
		return
	}
	if len(items) == 0 {
		b.send(chatID, "O cardápio está vazio no momento.")
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("➕ %s — %s", item.Name, formatPrice(item.Price)),
				"add:"+item.ID,
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🛒 Ver carrinho", "cart"),
	))
	b.sendWithInline(chatID, "Monte seu pedido:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) findMenuItem(sess *services.Session, itemID string) (*models.MenuItem, error) {
	items, err := b.menus.ActivatedMenu(context.Background(), sess.RestaurantID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == itemID {
			return &items[i], nil
		}
	}
	return nil, nil
}

func (b *Bot) sendItemDetail(chatID int64, sess *services.Session, itemID string) {
	item, err := b.findMenuItem(sess, itemID)
	if err != nil {
		b.log.Warn("load menu", zap.Error(err))
		b.send(chatID, textMenuFailed)
		return
	}
	if item == nil {
		b.send(chatID, "Este item não está mais no cardápio.")
		return
	}
	text := fmt.Sprintf("%s\n%s", item.Name, formatPrice(item.Price))
	if item.Description != "" {
		text += "\n\n" + item.Description
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Adicionar ao carrinho", "add:"+item.ID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Voltar", "menu"),
		),
	)
	b.sendWithInline(chatID, text, kb)
}

func (b *Bot) addToCart(chatID int64, userID int64, sess *services.Session, itemID string) {
	item, err := b.findMenuItem(sess, itemID)
	if err != nil {
		b.log.Warn("load menu", zap.Error(err))
		b.send(chatID, textMenuFailed)
		return
	}
	if item == nil {
		b.send(chatID, "Este item não está mais no cardápio.")
		return
	}
	if err := b.cartFor(userID).AddItem(*item); err != nil {
		b.log.Warn("add to cart", zap.String("item", item.ID), zap.Error(err))
		b.send(chatID, "Este item está indisponível no momento.")
		return
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Ver carrinho", "cart"),
			tgbotapi.NewInlineKeyboardButtonData("Continuar pedindo", "menu"),
		),
	)
	b.sendWithInline(chatID, fmt.Sprintf("%s adicionado ao carrinho.", item.Name), kb)
}

// sendCartView renders the cart with per-line quantity controls. With a
// non-zero editMsgID the existing message is edited in place, so +/− taps
// update one view instead of spamming the chat.
func (b *Bot) sendCartView(chatID int64, userID int64, sess *services.Session, editMsgID int) {
	cart := b.cartFor(userID)
	lines := cart.Lines()
	if len(lines) == 0 {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Ver cardápio", "menu"),
			),
		)
		b.sendWithInline(chatID, textEmptyCart, kb)
		return
	}

	text := "🛒 Seu carrinho:\n"
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range lines {
		text += fmt.Sprintf("• %dx %s — %s\n", l.Quantity, l.Name, formatPrice(l.Subtotal()))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ "+l.Name, "dec:"+l.ItemID),
			tgbotapi.NewInlineKeyboardButtonData("➕", "inc:"+l.ItemID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", "rm:"+l.ItemID),
		))
	}
	text += fmt.Sprintf("\nTotal: %s", formatPrice(cart.Total()))
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Enviar pedido", "submit"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cardápio", "menu"),
			tgbotapi.NewInlineKeyboardButtonData("Descartar", "cart_close"),
		),
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)

	if editMsgID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, editMsgID, text, kb)
		if _, err := b.api.Send(edit); err != nil {
			b.log.Debug("edit cart view", zap.Error(err))
		}
		return
	}
	b.sendWithInline(chatID, text, kb)
}

func (b *Bot) sendOrdersView(chatID int64, userID int64, sess *services.Session) {
	orders, err := b.client.ListOrders(context.Background(), sess.UserID, sess.RestaurantID)
	if err != nil {
		b.log.Warn("list orders", zap.Error(err))
		b.send(chatID, textOrdersFailed)
		return
	}
	b.send(chatID, services.FormatOrders(orders))
}
