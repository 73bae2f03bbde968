package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"assistant-telegram/config"
	"assistant-telegram/models"
	"assistant-telegram/platform"
	"assistant-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	textWelcome = "Bem-vindo! Envie uma mensagem para falar com o assistente do restaurante.\n\n" +
		"Use /vincular para conectar sua conta e escolher o restaurante.\n" +
		"/cardapio — ver o cardápio\n" +
		"/carrinho — ver seu carrinho\n" +
		"/horario — horário de funcionamento\n" +
		"/pedidos — acompanhar seus pedidos\n" +
		"/limpar — limpar a conversa"
	textNeedSession    = "Antes de continuar, vincule sua conta com /vincular."
	textReplyPending   = "Aguarde a resposta anterior antes de enviar outra mensagem."
	textClearConfirm   = "Tem certeza que deseja apagar todo o histórico desta conversa?"
	textOrderSent      = "Pedido enviado! Seu pedido foi realizado com sucesso."
	textOrderConfirmed = "Seu pedido foi realizado com sucesso!"
	textOrderFailed    = "Não foi possível enviar o pedido."
	textEmptyCart      = "Seu carrinho está vazio."
	textMenuFailed     = "Não foi possível carregar o cardápio."
	textScheduleFailed = "Erro ao buscar o horário de funcionamento."
	textNoEmail        = "Este restaurante não tem horário cadastrado."
	textOrdersFailed   = "Erro ao carregar pedidos."
)

// linkState walks the /vincular flow: platform user id, restaurant id,
// restaurant contact email ("-" to skip).
type linkState struct {
	stage   int
	session services.Session
}

type Bot struct {
	api    *tgbotapi.BotAPI
	cfg    *config.Config
	log    *zap.Logger
	client *platform.Client
	store  *services.ConversationStore
	menus  *services.MenuCache

	exchangesMu sync.Mutex
	exchanges   map[models.ConversationKey]*services.Exchange

	cartsMu sync.Mutex
	carts   map[int64]*services.Cart

	linkingMu sync.Mutex
	linking   map[int64]*linkState
}

func New(cfg *config.Config, client *platform.Client, store *services.ConversationStore, menus *services.MenuCache, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:       api,
		cfg:       cfg,
		log:       log,
		client:    client,
		store:     store,
		menus:     menus,
		exchanges: make(map[models.ConversationKey]*services.Exchange),
		carts:     make(map[int64]*services.Cart),
		linking:   make(map[int64]*linkState),
	}, nil
}

func (b *Bot) setBotCommands() error {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Começar"},
		tgbotapi.BotCommand{Command: "vincular", Description: "Vincular conta e restaurante"},
		tgbotapi.BotCommand{Command: "cardapio", Description: "Ver o cardápio"},
		tgbotapi.BotCommand{Command: "carrinho", Description: "Ver o carrinho"},
		tgbotapi.BotCommand{Command: "horario", Description: "Horário de funcionamento"},
		tgbotapi.BotCommand{Command: "pedidos", Description: "Acompanhar pedidos"},
		tgbotapi.BotCommand{Command: "limpar", Description: "Limpar a conversa"},
	)
	_, err := b.api.Request(cmds)
	return err
}

func (b *Bot) Start() {
	if err := b.setBotCommands(); err != nil {
		b.log.Warn("set bot commands", zap.Error(err))
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery != nil {
			go b.handleCallback(update.CallbackQuery)
			continue
		}
		if update.Message == nil {
			continue
		}
		msg := update.Message
		chatID := msg.Chat.ID
		userID := msg.From.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case text == "/start":
			b.send(chatID, textWelcome)
		case text == "/vincular":
			b.startLinking(chatID, userID)
		case text == "/limpar":
			b.confirmClear(chatID)
		case text == "/cardapio":
			b.withSession(chatID, userID, b.sendMenuView)
		case text == "/carrinho":
			b.withSession(chatID, userID, func(chatID int64, userID int64, sess *services.Session) {
				b.sendCartView(chatID, userID, sess, 0)
			})
		case text == "/horario":
			b.withSession(chatID, userID, b.sendScheduleView)
		case text == "/pedidos":
			b.withSession(chatID, userID, b.sendOrdersView)
		case b.consumeLinking(chatID, userID, text):
			// handled by the linking flow
		default:
			// Everything else is a message to the assistant; runs on its own
			// goroutine so one slow reply does not stall other chats.
			go b.handleChat(chatID, userID, text)
		}
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send", zap.Error(err))
	}
}

func (b *Bot) sendWithInline(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send", zap.Error(err))
	}
}

// withSession resolves the session or prompts for /vincular; operations that
// need session context never run without it.
func (b *Bot) withSession(chatID int64, userID int64, fn func(int64, int64, *services.Session)) {
	sess, err := services.LoadSession(context.Background(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNoSession) {
			b.send(chatID, textNeedSession)
		} else {
			b.log.Warn("load session", zap.Error(err))
		}
		return
	}
	fn(chatID, userID, sess)
}

func (b *Bot) exchangeFor(key models.ConversationKey) *services.Exchange {
	b.exchangesMu.Lock()
	defer b.exchangesMu.Unlock()
	ex, ok := b.exchanges[key]
	if !ok {
		ex = services.NewExchange(b.store, b.client, key)
		b.exchanges[key] = ex
	}
	return ex
}

func (b *Bot) cartFor(userID int64) *services.Cart {
	b.cartsMu.Lock()
	defer b.cartsMu.Unlock()
	cart, ok := b.carts[userID]
	if !ok {
		cart = services.NewCart(b.client)
		b.carts[userID] = cart
	}
	return cart
}

func (b *Bot) handleChat(chatID int64, userID int64, text string) {
	if text == "" {
		return
	}
	sess, err := services.LoadSession(context.Background(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNoSession) {
			b.send(chatID, textNeedSession)
		}
		return
	}
	key := models.ConversationKey{UserID: sess.UserID, RestaurantID: sess.RestaurantID}
	ex := b.exchangeFor(key)

	// The pending placeholder lives in the conversation store; here it shows
	// as the typing indicator.
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.Debug("chat action", zap.Error(err))
	}

	seq, modals, err := ex.Send(context.Background(), text)
	if err != nil {
		if errors.Is(err, services.ErrReplyPending) {
			b.send(chatID, textReplyPending)
		}
		return
	}
	if len(seq) > 0 {
		last := seq[len(seq)-1]
		if last.Kind == models.MessageAssistant {
			b.send(chatID, last.Text)
		}
	}
	for _, modal := range modals {
		switch modal {
		case services.ModalSchedule:
			b.sendScheduleView(chatID, userID, sess)
		case services.ModalMenu:
			b.sendMenuView(chatID, userID, sess)
		case services.ModalOrder:
			b.sendOrderBuilder(chatID, userID, sess)
		}
	}
}

func (b *Bot) confirmClear(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Limpar", "clear:yes"),
			tgbotapi.NewInlineKeyboardButtonData("Cancelar", "clear:no"),
		),
	)
	b.sendWithInline(chatID, textClearConfirm, kb)
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID
	data := cq.Data

	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Debug("answer callback", zap.Error(err))
	}

	switch {
	case data == "clear:yes":
		b.withSession(chatID, userID, func(chatID int64, userID int64, sess *services.Session) {
			key := models.ConversationKey{UserID: sess.UserID, RestaurantID: sess.RestaurantID}
			seq := b.store.Clear(context.Background(), key)
			b.send(chatID, seq[0].Text)
		})
	case data == "clear:no":
		b.send(chatID, "Ok, a conversa foi mantida.")
	case strings.HasPrefix(data, "item:"):
		b.withSession(chatID, userID, func(chatID int64, userID int64, sess *services.Session) {
			b.sendItemDetail(chatID, sess, strings.TrimPrefix(data, "item:"))
		})
	case strings.HasPrefix(data, "add:"):
		b.withSession(chatID, userID, func(chatID int64, userID int64, sess *services.Session) {
			b.addToCart(chatID, userID, sess, strings.TrimPrefix(data, "add:"))
		})
	case strings.HasPrefix(data, "inc:"):
		b.cartFor(userID).AdjustQuantity(strings.TrimPrefix(data, "inc:"), 1)
		b.withSession(chatID, userID, func(chatID int64, userID int64, sess *services.Session) {
			b.sendCartView(chatID, userID, sess, cq.Message.MessageID)
		})
	case strings.HasPrefix(data, "dec:"):
		b.cartFor(userID).AdjustQuantity(strings.TrimPrefix(data, "dec:"), -1)
		b.withSession(chatID, userID, func(chatID int64, userID int64, sess *services.Session) {
			b.sendCartView(chatID, userID, sess, cq.Message.MessageID)
		})
	case strings.HasPrefix(data, "rm:"):
		b.cartFor(userID).RemoveItem(strings.TrimPrefix(data, "rm:"))
		b.withSession(chatID, userID, func(chatID int64, userID int64, sess *services.Session) {
			b.sendCartView(chatID, userID, sess, cq.Message.MessageID)
		})
	case data == "cart":
		b.withSession(chatID, userID, func(chatID int64, userID int64, sess *services.Session) {
			b.sendCartView(chatID, userID, sess, 0)
		})
	case data == "cart_close":
		// Dismissing the cart view drops the selection entirely.
		b.cartFor(userID).Clear()
		b.send(chatID, "Carrinho descartado.")
	case data == "menu":
		b.withSession(chatID, userID, b.sendMenuView)
	case data == "submit":
		b.withSession(chatID, userID, b.submitOrder)
	}
}

func (b *Bot) submitOrder(chatID int64, userID int64, sess *services.Session) {
	cart := b.cartFor(userID)
	err := cart.Submit(context.Background(), sess.UserID, sess.RestaurantID)
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		b.send(chatID, textEmptyCart)
	case err != nil:
		b.log.Warn("submit order", zap.Error(err))
		b.send(chatID, textOrderFailed)
	default:
		b.send(chatID, textOrderSent)
		key := models.ConversationKey{UserID: sess.UserID, RestaurantID: sess.RestaurantID}
		b.store.Load(context.Background(), key)
		b.store.Append(context.Background(), key, models.ChatMessage{
			ID:        services.NewLocalMessageID(),
			Kind:      models.MessageAssistant,
			Text:      textOrderConfirmed,
			CreatedAt: time.Now(),
		})
	}
}

func (b *Bot) startLinking(chatID int64, userID int64) {
	b.linkingMu.Lock()
	b.linking[userID] = &linkState{}
	b.linkingMu.Unlock()
	b.send(chatID, "Qual é o seu identificador de usuário na plataforma?")
}

// consumeLinking advances the /vincular flow; returns false when no flow is
// active so the message falls through to the assistant.
func (b *Bot) consumeLinking(chatID int64, userID int64, text string) bool {
	b.linkingMu.Lock()
	st, ok := b.linking[userID]
	b.linkingMu.Unlock()
	if !ok {
		return false
	}
	if text == "" {
		return true
	}
	switch st.stage {
	case 0:
		st.session.UserID = text
		st.stage = 1
		b.send(chatID, "Qual é o identificador do restaurante?")
	case 1:
		st.session.RestaurantID = text
		st.stage = 2
		b.send(chatID, "Qual é o e-mail de contato do restaurante? (envie - para pular)")
	case 2:
		if text != "-" {
			st.session.RestaurantEmail = text
		}
		if err := services.SaveSession(context.Background(), userID, st.session); err != nil {
			b.log.Warn("save session", zap.Error(err))
			b.send(chatID, "Não foi possível salvar o vínculo. Tente novamente.")
		} else {
			b.send(chatID, "Conta vinculada! Agora é só conversar com o assistente.")
		}
		b.linkingMu.Lock()
		delete(b.linking, userID)
		b.linkingMu.Unlock()
	}
	return true
}

func formatPrice(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}
