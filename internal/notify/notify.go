// Package notify fans invitation events out to the configured delivery
// channels. Delivery is best-effort: every send runs off the caller's
// goroutine and failures are logged, never returned.
package notify

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/push"
	"github.com/dukerupert/hearth/internal/store"
)

type Service struct {
	email  *email.Client
	push   *push.Service
	users  *store.UserStore
	subs   *store.PushStore
	logger *slog.Logger
}

func NewService(emailClient *email.Client, pushSvc *push.Service, users *store.UserStore, subs *store.PushStore, logger *slog.Logger) *Service {
	return &Service{
		email:  emailClient,
		push:   pushSvc,
		users:  users,
		subs:   subs,
		logger: logger,
	}
}

// InvitationCreated notifies the invited user of a new invitation.
func (s *Service) InvitationCreated(inv model.Invitation, householdName, inviterName string) {
	go func() {
		invited, err := s.users.GetByID(inv.InvitedUserID)
		if err != nil || invited == nil {
			s.logger.Error("notify: invited user lookup", "error", err)
			return
		}

		if s.email != nil && s.email.Configured() {
			if err := s.email.SendInvitation(invited.Email, householdName, inviterName, inv.Role, inv.ExpiresAt); err != nil {
				s.logger.Error("notify: send invitation email", "error", err)
			}
		}

		s.sendPush(inv.InvitedUserID, push.Payload{
			Title: "Household invitation",
			Body:  fmt.Sprintf("%s invited you to join %s", inviterName, householdName),
			URL:   "/invitations",
			Tag:   "invitation-" + inv.ID,
		})
	}()
}

// InvitationReminder notifies the invited user that an invitation is
// still pending.
func (s *Service) InvitationReminder(inv model.Invitation, householdName string) {
	go func() {
		invited, err := s.users.GetByID(inv.InvitedUserID)
		if err != nil || invited == nil {
			s.logger.Error("notify: invited user lookup", "error", err)
			return
		}

		if s.email != nil && s.email.Configured() {
			if err := s.email.SendInvitationReminder(invited.Email, householdName, inv.ExpiresAt); err != nil {
				s.logger.Error("notify: send reminder email", "error", err)
			}
		}

		s.sendPush(inv.InvitedUserID, push.Payload{
			Title: "Invitation reminder",
			Body:  fmt.Sprintf("Your invitation to %s is still waiting", householdName),
			URL:   "/invitations",
			Tag:   "invitation-" + inv.ID,
		})
	}()
}

func (s *Service) sendPush(userID string, payload push.Payload) {
	if s.push == nil || !s.push.Configured() {
		return
	}

	subs, err := s.subs.ListByUser(userID)
	if err != nil {
		s.logger.Error("notify: list push subscriptions", "error", err)
		return
	}

	for _, sub := range subs {
		if err := s.push.Send(&sub, payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				s.subs.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Error("notify: send push", "error", err)
			}
		}
	}
}
