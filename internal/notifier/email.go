package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maplewood-arts/registration-api/internal/shortcode"
)

const defaultBrevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// EmailNotifier delivers transactional email through the Brevo API.
type EmailNotifier struct {
	apiKey      string
	senderEmail string
	senderName  string
	endpoint    string
	client      *http.Client
}

func NewEmailNotifier(apiKey, senderEmail, senderName string) *EmailNotifier {
	return &EmailNotifier{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  senderName,
		endpoint:    defaultBrevoEndpoint,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// WithEndpoint overrides the API endpoint. Tests point this at a local server.
func (n *EmailNotifier) WithEndpoint(url string) *EmailNotifier {
	n.endpoint = url
	return n
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoMessage struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	ReplyTo     *brevoAddress  `json:"replyTo,omitempty"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// Send delivers one HTML email. A non-2xx API response is an error.
func (n *EmailNotifier) Send(ctx context.Context, toEmail, toName, subject, htmlContent string) error {
	return n.send(ctx, toEmail, toName, nil, subject, htmlContent)
}

// SendWithReplyTo delivers one HTML email with a Reply-To set, so a staff
// reply goes to the person who wrote in rather than the sender address.
func (n *EmailNotifier) SendWithReplyTo(ctx context.Context, toEmail, toName, replyEmail, replyName, subject, htmlContent string) error {
	return n.send(ctx, toEmail, toName, &brevoAddress{Email: replyEmail, Name: replyName}, subject, htmlContent)
}

func (n *EmailNotifier) send(ctx context.Context, toEmail, toName string, replyTo *brevoAddress, subject, htmlContent string) error {
	if n.apiKey == "" {
		return fmt.Errorf("email notifier has no API key")
	}

	msg := brevoMessage{
		Sender:      brevoAddress{Email: n.senderEmail, Name: n.senderName},
		To:          []brevoAddress{{Email: toEmail, Name: toName}},
		ReplyTo:     replyTo,
		Subject:     subject,
		HTMLContent: htmlContent,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

func (n *EmailNotifier) PaymentConfirmation(ctx context.Context, c Confirmation) error {
	subject := fmt.Sprintf("Registration confirmed - %s", shortcode.Format(c.ConfirmationCode))
	return n.Send(ctx, c.RecipientEmail, c.RecipientName, subject, confirmationHTML(c))
}

func confirmationHTML(c Confirmation) string {
	var b strings.Builder

	var status string
	switch c.PaymentMethod {
	case "paypal":
		status = "Payment received via PayPal"
	case "check":
		status = "Awaiting check payment"
	default:
		status = "No payment required"
	}

	fmt.Fprintf(&b, "<h2>Thank you, %s!</h2>", html.EscapeString(c.RecipientName))
	fmt.Fprintf(&b, "<p>Your confirmation code is <strong>%s</strong>.</p>", shortcode.Format(c.ConfirmationCode))
	b.WriteString("<table>")
	for _, item := range c.Items {
		fmt.Fprintf(&b, "<tr><td><strong>%s</strong><br>%s</td><td>$%s",
			html.EscapeString(item.StudentName),
			html.EscapeString(item.ActivityName),
			item.Cost.StringFixed(2))
		if item.Donation.IsPositive() {
			fmt.Fprintf(&b, "<br>+ $%s donation", item.Donation.StringFixed(2))
		}
		b.WriteString("</td></tr>")
	}
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p>Total: <strong>$%s</strong></p>", c.TotalAmount.StringFixed(2))
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(status))
	if c.TransactionID != "" {
		fmt.Fprintf(&b, "<p>Reference: %s</p>", html.EscapeString(c.TransactionID))
	}
	return b.String()
}
