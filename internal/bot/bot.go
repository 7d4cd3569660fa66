// Package bot is the chat front-end of the shop. The dispatcher in this
// file knows nothing about Telegram; telegram.go adapts it to the Bot API.
package bot

import (
	"context"
	"encoding/json"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/saddiabu4/telegram-web-app-backend/internal/metrics"
	"github.com/saddiabu4/telegram-web-app-backend/internal/service"
	"net/url"
	"strings"
)

const (
	productsPageSize = 10
	menuListSize     = 5
)

// Callback data attached to inline buttons.
const (
	ActionShowProducts = "show_products"
	ActionHelp         = "help"
	ActionBackToMenu   = "back_to_menu"
)

// Button is one inline keyboard button. Exactly one of CallbackData and
// WebAppURL is set.
type Button struct {
	Text         string
	CallbackData string
	WebAppURL    string
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

// Message is an outbound chat message. A message with a PhotoURL is sent
// as a photo and Text becomes its caption.
type Message struct {
	ChatID   int64
	Text     string
	PhotoURL string
	HTML     bool
	Keyboard Keyboard
}

// Messenger delivers messages to a chat transport.
type Messenger interface {
	Send(ctx context.Context, m Message) error
	AnswerCallback(ctx context.Context, callbackID string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// User is the sender of an update.
type User struct {
	ID        int64
	FirstName string
	Username  string
}

// Update is one inbound event. Command messages carry Text, button presses
// carry CallbackID and CallbackData, storefront submissions carry WebAppData.
type Update struct {
	ChatID       int64
	MessageID    int
	From         User
	Text         string
	CallbackID   string
	CallbackData string
	WebAppData   string
}

// Catalog is the read side of the product service used by the bot.
type Catalog interface {
	Latest(ctx context.Context, n int) (service.Products, error)
}

// Config holds the links the bot renders.
type Config struct {
	// WebAppURL is the storefront base URL. Shop buttons open WebAppURL/shop.
	WebAppURL string
	// PublicURL is the API base URL used to resolve locally stored images.
	PublicURL string
	// WelcomePhotoURL overrides the /start photo.
	WelcomePhotoURL string
}

type Bot struct {
	catalog   Catalog
	messenger Messenger
	cfg       Config
	metrics   *metrics.Metrics
	log       hclog.Logger
}

func New(catalog Catalog, messenger Messenger, cfg Config, m *metrics.Metrics, log hclog.Logger) *Bot {
	if cfg.WelcomePhotoURL == "" {
		cfg.WelcomePhotoURL = welcomePhotoURL
	}
	cfg.WebAppURL = strings.TrimRight(cfg.WebAppURL, "/")
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	return &Bot{
		catalog:   catalog,
		messenger: messenger,
		cfg:       cfg,
		metrics:   m,
		log:       log,
	}
}

// Handle dispatches one update. The returned error reports a delivery
// failure; catalog failures are answered in chat and not returned.
func (b *Bot) Handle(ctx context.Context, u Update) error {
	switch {
	case u.WebAppData != "":
		return b.checkout(ctx, u)
	case u.CallbackID != "":
		return b.callback(ctx, u)
	case strings.HasPrefix(u.Text, "/"):
		return b.command(ctx, u)
	}
	return nil
}

func (b *Bot) command(ctx context.Context, u Update) error {
	switch commandName(u.Text) {
	case "start":
		return b.messenger.Send(ctx, Message{
			ChatID:   u.ChatID,
			PhotoURL: b.cfg.WelcomePhotoURL,
			Text:     welcomeCaption(u.From),
			HTML:     true,
			Keyboard: b.mainMenu(),
		})
	case "shop":
		return b.messenger.Send(ctx, Message{
			ChatID:   u.ChatID,
			Text:     shopText,
			HTML:     true,
			Keyboard: Keyboard{{b.shopButton(shopButton)}},
		})
	case "products":
		return b.products(ctx, u.ChatID)
	case "help":
		return b.messenger.Send(ctx, Message{ChatID: u.ChatID, Text: helpText, HTML: true})
	default:
		b.log.Trace("Ignoring unknown command", "text", u.Text)
		return nil
	}
}

// commandName turns "/start@shop_bot payload" into "start".
func commandName(text string) string {
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

func (b *Bot) products(ctx context.Context, chatID int64) error {
	products, err := b.catalog.Latest(ctx, productsPageSize)
	if err != nil {
		b.log.Error("Unable to load products for chat", "chat", chatID, "error", err)
		return b.messenger.Send(ctx, Message{ChatID: chatID, Text: failureText})
	}
	if len(products) == 0 {
		return b.messenger.Send(ctx, Message{ChatID: chatID, Text: noProductsText})
	}

	for _, p := range products {
		msg := Message{
			ChatID:   chatID,
			Text:     productCaption(p),
			HTML:     true,
			Keyboard: Keyboard{{b.shopButton(buyButton)}},
		}
		if p.Image != "" {
			msg.PhotoURL = b.imageURL(p)
		}
		if err := b.messenger.Send(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) callback(ctx context.Context, u Update) error {
	if err := b.messenger.AnswerCallback(ctx, u.CallbackID); err != nil {
		b.log.Warn("Unable to answer callback", "callback", u.CallbackID, "error", err)
	}
	if u.MessageID != 0 {
		if err := b.messenger.DeleteMessage(ctx, u.ChatID, u.MessageID); err != nil {
			b.log.Warn("Unable to delete menu message", "chat", u.ChatID, "message", u.MessageID, "error", err)
		}
	}

	switch u.CallbackData {
	case ActionShowProducts:
		products, err := b.catalog.Latest(ctx, menuListSize)
		if err != nil {
			b.log.Error("Unable to load products for chat", "chat", u.ChatID, "error", err)
			return b.messenger.Send(ctx, Message{ChatID: u.ChatID, Text: shortFailureText})
		}
		if len(products) == 0 {
			return b.messenger.Send(ctx, Message{ChatID: u.ChatID, Text: noProductsText})
		}
		return b.messenger.Send(ctx, Message{
			ChatID: u.ChatID,
			Text:   productList(products),
			HTML:   true,
			Keyboard: Keyboard{
				{b.shopButton(shopButton)},
				{{Text: backButton, CallbackData: ActionBackToMenu}},
			},
		})
	case ActionHelp:
		return b.messenger.Send(ctx, Message{
			ChatID:   u.ChatID,
			Text:     helpShortText,
			HTML:     true,
			Keyboard: Keyboard{{{Text: backButton, CallbackData: ActionBackToMenu}}},
		})
	case ActionBackToMenu:
		return b.messenger.Send(ctx, Message{
			ChatID:   u.ChatID,
			Text:     menuText(u.From),
			HTML:     true,
			Keyboard: b.mainMenu(),
		})
	default:
		b.log.Debug("Ignoring unknown callback", "data", u.CallbackData)
		return nil
	}
}

func (b *Bot) checkout(ctx context.Context, u Update) error {
	var order domain.WebAppPayload
	if err := json.Unmarshal([]byte(u.WebAppData), &order); err != nil {
		b.log.Warn("Discarding malformed web app data", "chat", u.ChatID, "error", err)
		return nil
	}
	if order.Action != domain.CheckoutAction {
		b.log.Debug("Ignoring web app action", "action", order.Action)
		return nil
	}
	if len(order.Items) == 0 {
		b.log.Warn("Discarding checkout without items", "chat", u.ChatID)
		return nil
	}

	err := b.messenger.Send(ctx, Message{
		ChatID: u.ChatID,
		Text:   orderSummary(u.From, order),
		HTML:   true,
	})
	if err != nil {
		return err
	}
	b.metrics.Checkouts.Inc()
	b.log.Info("Relayed order", "chat", u.ChatID, "items", len(order.Items), "total", order.Total)

	return b.messenger.Send(ctx, Message{
		ChatID:   u.ChatID,
		Text:     orderAcceptedText,
		Keyboard: Keyboard{{b.shopButton(buyAgainButton)}},
	})
}

func (b *Bot) mainMenu() Keyboard {
	return Keyboard{
		{b.shopButton(shopButton)},
		{{Text: productsButton, CallbackData: ActionShowProducts}},
		{{Text: helpButton, CallbackData: ActionHelp}},
	}
}

func (b *Bot) shopButton(text string) Button {
	return Button{Text: text, WebAppURL: b.cfg.WebAppURL + "/shop"}
}

// imageURL returns remote refs unchanged and resolves local filenames
// against the public uploads route.
func (b *Bot) imageURL(p *domain.Product) string {
	if strings.HasPrefix(p.Image, "http://") || strings.HasPrefix(p.Image, "https://") {
		return p.Image
	}
	return b.cfg.PublicURL + "/uploads/" + url.PathEscape(p.Image)
}
