package services

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rentabill/internal/analytics"
	"rentabill/internal/models"
)

// Notifier is the outbound push channel. The scheduler talks to this
// interface; tests substitute a recording fake.
type Notifier interface {
	Send(chatID int64, text string) error
}

type telegramNotifier struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier connects the bot API once per process.
func NewTelegramNotifier(token string) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &telegramNotifier{bot: bot}, nil
}

func (n *telegramNotifier) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := n.bot.Send(msg)
	return err
}

// BuildInvoiceNotice renders the push message for a freshly flagged invoice,
// with a per-meter breakdown limited to the payer's meters that actually
// consumed something.
func BuildInvoiceNotice(invoice models.Invoice, meters []models.Meter, paymentDetails string) string {
	var breakdown []string
	for _, m := range meters {
		if m.PaymentResponsibleID != invoice.PayerID || m.UnbilledConsumption <= 0 {
			continue
		}
		breakdown = append(breakdown, fmt.Sprintf("  %s: %.2f %s x %.2f", m.Name, m.UnbilledConsumption, m.Unit, m.Tariff))
	}

	var b strings.Builder
	b.WriteString("*You have a new invoice!*\n\n")
	fmt.Fprintf(&b, "Premise: %s\n", invoice.PremiseName)
	fmt.Fprintf(&b, "Amount due: *%.0f*\n", invoice.Amount)
	if len(breakdown) > 0 {
		b.WriteString("\n*Breakdown:*\n")
		b.WriteString(strings.Join(breakdown, "\n"))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n*Payment details:*\n`%s`\n\n", paymentDetails)
	b.WriteString("After paying, please send a photo of the receipt through the bot.")
	return b.String()
}

// BuildReadingReminder renders the monthly nudge for a tenant who has not
// submitted readings yet.
func BuildReadingReminder(debt analytics.ReadingDebt) string {
	metersText := "your meters"
	if len(debt.Meters) > 0 {
		metersText = strings.Join(debt.Meters, ", ")
	}
	return fmt.Sprintf(
		"*Meter readings reminder*\n\nPlease don't forget to submit your meter readings.\n\nAwaiting readings for: %s",
		metersText)
}

// BuildPaymentReminder renders the nudge for a tenant with outstanding
// invoices.
func BuildPaymentReminder(debt analytics.PaymentDebt, paymentDetails string) string {
	var b strings.Builder
	b.WriteString("*Payment reminder*\n\n")
	fmt.Fprintf(&b, "Amount due: *%.0f*", debt.Total)
	if len(debt.Premises) > 0 {
		fmt.Fprintf(&b, "\nPremises: %s", strings.Join(debt.Premises, ", "))
	}
	fmt.Fprintf(&b, "\n\n*Payment details:*\n`%s`\n\n", paymentDetails)
	b.WriteString("After paying, please send a photo of the receipt through the bot.")
	return b.String()
}
