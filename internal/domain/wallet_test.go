package domain

import "testing"

func TestHasWebhook(t *testing.T) {
	w := Wallet{Address: "abc"}
	if w.HasWebhook() {
		t.Fatal("expected no webhook when WebhookURL is nil")
	}

	empty := ""
	w.WebhookURL = &empty
	if w.HasWebhook() {
		t.Fatal("expected no webhook for an empty string URL")
	}

	url := "https://example.com/hook"
	w.WebhookURL = &url
	if !w.HasWebhook() {
		t.Fatal("expected HasWebhook true once a non-empty URL is set")
	}
}
