package notify

import (
	"fmt"
	"strings"

	"sportsbook/events"
	"sportsbook/models"

	"github.com/bwmarrin/discordgo"
)

// ColorSuccess is the embed color for payouts
const ColorSuccess = 0x57F287 // Green

// methodNames maps payout channels to the labels shown to the payout team
var methodNames = map[models.WithdrawalMethod]string{
	models.WithdrawalMethodPagoMovil: "Pago Móvil",
	models.WithdrawalMethodOther:     "Other",
}

// CreatePayoutEmbed creates the embed posted when a withdrawal is approved
func CreatePayoutEmbed(e events.WithdrawalResolvedEvent) *discordgo.MessageEmbed {
	method, ok := methodNames[e.MethodType]
	if !ok {
		method = string(e.MethodType)
	}

	details := strings.TrimSpace(e.MethodDetails)
	if details == "" {
		details = "Not provided"
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Payout due - %s", FormatAmount(e.Amount.StringFixed(2))),
		Color:       ColorSuccess,
		Description: "A withdrawal was approved and must be paid out.",
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Method",
				Value:  method,
				Inline: true,
			},
			{
				Name:   "User",
				Value:  e.UserID,
				Inline: true,
			},
			{
				Name:   "Details",
				Value:  details,
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Request %s • approved by %s", e.RequestID, e.AdminID),
		},
	}
}

// FormatAmount adds thousand separators to a fixed-point amount string
func FormatAmount(amount string) string {
	sign := ""
	if strings.HasPrefix(amount, "-") {
		sign = "-"
		amount = amount[1:]
	}

	whole, frac, hasFrac := strings.Cut(amount, ".")

	var result strings.Builder
	n := len(whole)
	for i, digit := range whole {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	if hasFrac {
		return sign + result.String() + "." + frac
	}
	return sign + result.String()
}
