package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

func TestConfigured(t *testing.T) {
	if NewClient("", "from@test.dev", "http://localhost").Configured() {
		t.Error("client without token reports configured")
	}
	if !NewClient("token", "from@test.dev", "http://localhost").Configured() {
		t.Error("client with token reports unconfigured")
	}
}

func TestSendInvitation(t *testing.T) {
	var got postmarkEmail
	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("secret", "from@test.dev", "https://hearth.test", WithAPIURL(srv.URL))

	expires := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	err := c.SendInvitation("to@test.dev", "Bag End", "Bilbo", model.RoleMember, expires)
	if err != nil {
		t.Fatalf("send invitation: %v", err)
	}

	if token != "secret" {
		t.Errorf("server token = %q", token)
	}
	if got.To != "to@test.dev" || got.From != "from@test.dev" {
		t.Errorf("addresses: %+v", got)
	}
	if !strings.Contains(got.Subject, "Bag End") {
		t.Errorf("subject = %q", got.Subject)
	}
	if !strings.Contains(got.TextBody, "Bilbo") || !strings.Contains(got.TextBody, "member") {
		t.Errorf("text body = %q", got.TextBody)
	}
	if !strings.Contains(got.TextBody, "April 1, 2026") {
		t.Errorf("text body missing deadline: %q", got.TextBody)
	}
	if !strings.Contains(got.HtmlBody, "https://hearth.test/invitations") {
		t.Errorf("html body missing link: %q", got.HtmlBody)
	}
}

func TestSendReminderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient("secret", "from@test.dev", "https://hearth.test", WithAPIURL(srv.URL))
	err := c.SendInvitationReminder("to@test.dev", "Bag End", time.Now())
	if err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestSendUnconfigured(t *testing.T) {
	c := NewClient("", "from@test.dev", "https://hearth.test")
	if err := c.SendInvitation("to@test.dev", "X", "Y", model.RoleMember, time.Now()); err == nil {
		t.Fatal("expected error when unconfigured")
	}
}
