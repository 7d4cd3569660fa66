package bot

import (
	"fmt"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"html"
	"strconv"
	"strings"
)

const (
	welcomePhotoURL = "https://images.unsplash.com/photo-1596462502278-27bfdc403348?w=800"

	shopButton     = "🛒 Do'konni Ochish"
	buyButton      = "🛒 Xarid qilish"
	buyAgainButton = "🛒 Yana xarid qilish"
	productsButton = "📋 Mahsulotlar"
	helpButton     = "ℹ️ Yordam"
	backButton     = "🔙 Orqaga"

	noProductsText    = "😔 Hozircha mahsulotlar mavjud emas"
	failureText       = "❌ Xatolik yuz berdi. Keyinroq urinib ko'ring."
	shortFailureText  = "❌ Xatolik yuz berdi"
	shopText          = "🛍 <b>Cosmetic Shop</b>\n\nQuyidagi tugmani bosib do'konni oching:"
	orderAcceptedText = "✅ Buyurtmangiz qabul qilindi!\n\n📞 Tez orada operatorimiz siz bilan bog'lanadi."

	helpText = "ℹ️ <b>Yordam</b>\n\n" +
		"🔸 /start - Botni ishga tushirish\n" +
		"🔸 /shop - Mini App do'konni ochish\n" +
		"🔸 /products - Mahsulotlar ro'yxati\n" +
		"🔸 /help - Yordam\n\n" +
		"📞 <b>Aloqa:</b> @admin_username\n" +
		"📧 <b>Email:</b> support@cosmetic.shop"

	helpShortText = "ℹ️ <b>Yordam</b>\n\n" +
		"🔸 /start - Botni ishga tushirish\n" +
		"🔸 /shop - Mini App do'konni ochish\n" +
		"🔸 /products - Mahsulotlar ro'yxati\n\n" +
		"📞 <b>Aloqa:</b> @admin_username"
)

func esc(s string) string {
	return html.EscapeString(s)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func displayName(u User) string {
	if strings.TrimSpace(u.FirstName) == "" {
		return "User"
	}
	return u.FirstName
}

func welcomeCaption(u User) string {
	return fmt.Sprintf("✨ <b>Xush kelibsiz, %s!</b>\n\n"+
		"🛍 <b>Cosmetic Shop</b> - eng yaxshi kosmetika mahsulotlari!\n\n"+
		"📱 Mini App orqali xarid qiling yoki buyruqlardan foydalaning:\n\n"+
		"🔹 /shop - Mini App ochish\n"+
		"🔹 /products - Mahsulotlar ro'yxati\n"+
		"🔹 /help - Yordam", esc(displayName(u)))
}

func menuText(u User) string {
	return fmt.Sprintf("✨ <b>Xush kelibsiz, %s!</b>\n\n🛍 Nima qilmoqchisiz?", esc(displayName(u)))
}

func productCaption(p *domain.Product) string {
	description := esc(p.Description)
	if strings.TrimSpace(description) == "" {
		description = "Tavsif yo'q"
	}
	return fmt.Sprintf("🏷 <b>%s</b>\n\n📝 %s\n\n💰 <b>Narxi:</b> $%s",
		esc(p.Name), description, formatPrice(p.Price))
}

func productList(products []*domain.Product) string {
	var sb strings.Builder
	sb.WriteString("📦 <b>Mahsulotlar ro'yxati:</b>\n\n")
	for i, p := range products {
		fmt.Fprintf(&sb, "%d. <b>%s</b> - $%s\n", i+1, esc(p.Name), formatPrice(p.Price))
	}
	return sb.String()
}

func orderSummary(u User, order domain.WebAppPayload) string {
	username := u.Username
	if username == "" {
		username = "N/A"
	}

	var sb strings.Builder
	sb.WriteString("🛒 <b>Yangi buyurtma!</b>\n\n")
	fmt.Fprintf(&sb, "👤 <b>Mijoz:</b> %s\n", esc(u.FirstName))
	fmt.Fprintf(&sb, "📱 <b>Username:</b> @%s\n\n", esc(username))
	sb.WriteString("📦 <b>Mahsulotlar:</b>\n")
	for i, item := range order.Items {
		fmt.Fprintf(&sb, "%d. %s - $%s\n", i+1, esc(item.Name), formatPrice(item.Price))
	}
	fmt.Fprintf(&sb, "\n💰 <b>Jami:</b> $%s", formatPrice(order.Total))
	return sb.String()
}
