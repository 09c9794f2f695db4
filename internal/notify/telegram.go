package notify

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"storefront/internal/models"
)

// Telegram posts the order summary to a staff chat via the Bot API.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Notify(order *models.Order) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", buildOrderMessage(order))
	form.Set("parse_mode", "HTML")

	resp, err := t.client.PostForm(endpoint, form)
	if err != nil {
		return errors.Wrap(err, "send telegram message")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("telegram responded with status %d", resp.StatusCode)
	}
	return nil
}

// buildOrderMessage renders the Arabic summary staff receive for a new
// order. The discount line appears only when a coupon was used.
func buildOrderMessage(order *models.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📦 <b>طلب جديد #%s</b>\n", order.ID.Hex())
	b.WriteString("------------------------\n")
	fmt.Fprintf(&b, "👤 <b>العميل:</b> %s\n", order.Customer.FullName)
	fmt.Fprintf(&b, "📱 <b>الهاتف:</b> %s\n", order.Customer.Phone)
	fmt.Fprintf(&b, "📍 <b>العنوان:</b> %s\n", order.Customer.Address)
	b.WriteString("------------------------\n")
	fmt.Fprintf(&b, "💵 <b>مجموع المنتجات:</b> %s د.ع\n", order.Subtotal())
	fmt.Fprintf(&b, "🚚 <b>التوصيل:</b> %s د.ع\n", order.DeliveryFee)

	if order.DiscountAmount.IsPositive() {
		code := order.CouponCode
		if code == "" {
			code = "كود"
		}
		fmt.Fprintf(&b, "🏷 <b>خصم (%s):</b> -%s د.ع\n", code, order.DiscountAmount)
	}

	b.WriteString("------------------------\n")
	fmt.Fprintf(&b, "💰 <b>الإجمالي النهائي: %s د.ع</b>", order.TotalAmount)

	return b.String()
}
