package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the Postmark endpoint. Test hook.
func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		httpClient:  http.DefaultClient,
		apiURL:      postmarkURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendInvitation emails the invited user about a new household
// invitation.
func (c *Client) SendInvitation(toEmail, householdName, inviterName string, role model.Role, expiresAt time.Time) error {
	subject := fmt.Sprintf("You've been invited to join %s on Hearth", householdName)
	link := c.baseURL + "/invitations"
	deadline := expiresAt.Format("January 2, 2006")

	textBody := fmt.Sprintf(
		"%s invited you to join %s as a %s.\n\nAccept or decline here:\n\n%s\n\nThis invitation expires on %s.",
		inviterName, householdName, role, link, deadline,
	)
	htmlBody := fmt.Sprintf(
		`<p>%s invited you to join <strong>%s</strong> as a %s.</p><p><a href="%s">Accept or decline the invitation</a></p><p>This invitation expires on %s.</p>`,
		inviterName, householdName, role, link, deadline,
	)

	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

// SendInvitationReminder emails a reminder about a still-pending
// invitation.
func (c *Client) SendInvitationReminder(toEmail, householdName string, expiresAt time.Time) error {
	subject := fmt.Sprintf("Reminder: your invitation to %s is waiting", householdName)
	link := c.baseURL + "/invitations"
	deadline := expiresAt.Format("January 2, 2006")

	textBody := fmt.Sprintf(
		"Your invitation to join %s is still waiting.\n\nAccept or decline here:\n\n%s\n\nIt expires on %s.",
		householdName, link, deadline,
	)
	htmlBody := fmt.Sprintf(
		`<p>Your invitation to join <strong>%s</strong> is still waiting.</p><p><a href="%s">Accept or decline the invitation</a></p><p>It expires on %s.</p>`,
		householdName, link, deadline,
	)

	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

func (c *Client) send(payload postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
