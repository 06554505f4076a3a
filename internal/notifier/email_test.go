package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEmailNotifierSend(t *testing.T) {
	var got brevoMessage
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewEmailNotifier("test-key", "office@example.org", "The Office").WithEndpoint(srv.URL)

	c := Confirmation{
		RecipientEmail:   "parent@example.com",
		RecipientName:    "Pat Doe",
		ConfirmationCode: "ABC234",
		Items: []Item{
			{StudentName: "Sam Doe", ActivityName: "Fall Dance", Cost: decimal.NewFromInt(50)},
		},
		TotalAmount:   decimal.NewFromInt(50),
		PaymentMethod: "paypal",
		TransactionID: "PP-123",
	}
	if err := n.PaymentConfirmation(context.Background(), c); err != nil {
		t.Fatalf("PaymentConfirmation returned error: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("api-key header = %q, want test-key", gotKey)
	}
	if len(got.To) != 1 || got.To[0].Email != "parent@example.com" {
		t.Errorf("recipient = %+v, want parent@example.com", got.To)
	}
	if !strings.Contains(got.Subject, "ABC-234") {
		t.Errorf("subject %q does not carry the formatted code", got.Subject)
	}
	if !strings.Contains(got.HTMLContent, "Fall Dance") || !strings.Contains(got.HTMLContent, "$50.00") {
		t.Errorf("body missing line items: %q", got.HTMLContent)
	}
}

func TestEmailNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewEmailNotifier("bad", "office@example.org", "The Office").WithEndpoint(srv.URL)
	err := n.Send(context.Background(), "to@example.com", "To", "subj", "<p>hi</p>")
	if err == nil {
		t.Fatal("Send returned nil error for a 401 response")
	}
}

func TestConfirmationHTMLEscapes(t *testing.T) {
	c := Confirmation{
		RecipientName:    "<script>",
		ConfirmationCode: "ABC234",
		TotalAmount:      decimal.NewFromInt(1),
	}
	if strings.Contains(confirmationHTML(c), "<script>") {
		t.Error("recipient name was not HTML-escaped")
	}
}
