package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/maplewood-arts/registration-api/internal/shortcode"
)

// DiscordNotifier posts a heads-up in the staff channel when a payment
// commits. It never reaches the family; the email notifier does that.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(botToken, channelID string) (*DiscordNotifier, error) {
	if botToken == "" || channelID == "" {
		return nil, fmt.Errorf("discord notifier requires a bot token and channel ID")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, err
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

func (n *DiscordNotifier) PaymentConfirmation(ctx context.Context, c Confirmation) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}

	var lines []string
	for _, item := range c.Items {
		lines = append(lines, fmt.Sprintf("%s - %s ($%s)", item.StudentName, item.ActivityName, item.Cost.StringFixed(2)))
	}

	message := fmt.Sprintf("💳 **New payment** %s\n**Total:** $%s (%s)\n%s",
		shortcode.Format(c.ConfirmationCode),
		c.TotalAmount.StringFixed(2),
		c.PaymentMethod,
		strings.Join(lines, "\n"),
	)

	_, err := n.session.ChannelMessageSend(n.channelID, message)
	return err
}
