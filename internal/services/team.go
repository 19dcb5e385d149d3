package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PFEPLTechHub/document-bot/internal/commands"
	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/internal/transport"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	log "github.com/sirupsen/logrus"
)

type Limits struct {
	MaxFiles int
	MaxSize  int64
}

type Access interface {
	CanUpload(ctx context.Context, user *models.User) error
	Invitation(ctx context.Context, manager *models.User) (*models.Invitation, error)
	RevokeInvitation(ctx context.Context, manager *models.User) (int64, error)
	Redeem(ctx context.Context, user *models.User, code string) (*models.Request, error)
	PendingRequests(ctx context.Context, manager *models.User) ([]models.Request, error)
	Team(ctx context.Context, manager *models.User) ([]models.User, error)
	Approve(ctx context.Context, manager *models.User, requestID int) (*models.Request, error)
	BeginReject(ctx context.Context, manager *models.User, requestID int) (*models.Request, error)
	AwaitingReason(ctx context.Context, managerID string) (bool, error)
	CancelReject(ctx context.Context, managerID string) error
	CompleteReject(ctx context.Context, manager *models.User, reason string) (*models.Request, error)
}

type TeamDeps struct {
	Access         Access
	Notify         Sender
	Limits         Limits
	InviteLinkBase string
	HistoryURL     string
}

// Team covers onboarding and the manager side: invitations, requests and the team list.
type Team struct {
	access     Access
	notify     Sender
	limits     Limits
	inviteBase string
	historyURL string
}

func NewTeam(d TeamDeps) *Team {
	return &Team{
		access:     d.Access,
		notify:     d.Notify,
		limits:     d.Limits,
		inviteBase: d.InviteLinkBase,
		historyURL: d.HistoryURL,
	}
}

func requireManager(user *models.User) error {
	if !user.Role.AtLeast(models.RoleManager) {
		return botErrors.ErrNoAccess
	}
	return nil
}

// Welcome answers /start. With a code it files a registration request, otherwise it
// greets the user according to where their registration stands.
func (t *Team) Welcome(ctx context.Context, user *models.User, code string) error {
	if code != "" {
		return t.redeem(ctx, user, code)
	}

	err := t.access.CanUpload(ctx, user)
	switch {
	case errors.Is(err, botErrors.ErrNoAccess):
		t.notify.Send(ctx, user.ID, "Welcome! Please ask your manager for an invitation link to start using the bot.", nil)
		return nil
	case err != nil:
		return err
	}
	t.notify.Send(ctx, user.ID, welcomeText(user.Role, t.limits), nil)
	return nil
}

func (t *Team) redeem(ctx context.Context, user *models.User, code string) error {
	request, err := t.access.Redeem(ctx, user, code)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": user.ID, "manager_id": request.ManagerID}).Info("registration requested")

	keyboard := transport.Keyboard{transport.Row(
		transport.Button{Text: "✅ Approve", Data: commands.Approve{RequestID: request.ID, Direct: true}.Data(), Style: transport.StylePrimary},
		transport.Button{Text: "❌ Reject", Data: commands.Reject{RequestID: request.ID, Direct: true}.Data(), Style: transport.StyleAttention},
	)}
	t.notify.Send(ctx, request.ManagerID, fmt.Sprintf("🔔 New Registration Request\n\n"+
		"User: %s\n\n"+
		"You can approve or reject this request directly using the buttons below.\n"+
		"Or check all pending requests using /manage_users", label(user)), keyboard)

	t.notify.Send(ctx, user.ID, "⏳ Your registration request has been sent to the manager.\n"+
		"Please wait for approval. You will be notified once approved.\n\n"+
		"Until then, you cannot use the bot's features.", nil)
	return nil
}

func (t *Team) Help(ctx context.Context, user *models.User) error {
	if err := t.access.CanUpload(ctx, user); err != nil {
		return err
	}
	t.notify.Send(ctx, user.ID, helpText(t.limits), nil)
	return nil
}

func (t *Team) ManageMenu(ctx context.Context, manager *models.User) error {
	if err := requireManager(manager); err != nil {
		return err
	}
	keyboard := transport.Keyboard{
		transport.Row(transport.Button{Text: "👥 Invite User", Data: commands.InviteUser{}.Data()}),
		transport.Row(transport.Button{Text: "📋 Check Requests", Data: commands.CheckRequests{}.Data()}),
		transport.Row(transport.Button{Text: "👤 Show Users", Data: commands.ShowUsers{}.Data()}),
		transport.Row(transport.Button{Text: "🚫 Revoke Invitation Link", Data: commands.RevokeInvite{}.Data(), Style: transport.StyleAttention}),
	}
	t.notify.Send(ctx, manager.ID, "👥 User Management\n\nSelect an option:", keyboard)
	return nil
}

func backKeyboard() transport.Keyboard {
	return transport.Keyboard{transport.Row(transport.Button{Text: "Back", Data: commands.ManageMenu{}.Data()})}
}

// InviteLink turns an invitation code into something a new user can follow. Without a
// configured link base the user is told to send the code to the bot.
func (t *Team) InviteLink(code string) string {
	if t.inviteBase == "" {
		return "/start " + code
	}
	return t.inviteBase + code
}

func (t *Team) Invite(ctx context.Context, manager *models.User) error {
	invitation, err := t.access.Invitation(ctx, manager)
	if err != nil {
		return err
	}
	t.notify.Send(ctx, manager.ID, fmt.Sprintf("🔗 Here's your team invitation link (reusable):\n\n"+
		"%s\n\n"+
		"Share this single link with anyone on your team.\n"+
		"All users can use this link to request access.", t.InviteLink(invitation.Code)), backKeyboard())
	return nil
}

func (t *Team) Revoke(ctx context.Context, manager *models.User) error {
	n, err := t.access.RevokeInvitation(ctx, manager)
	if err != nil {
		return err
	}
	text := "You have no active invitation link."
	if n > 0 {
		text = "🚫 Your invitation link has been revoked. Use Invite User to create a new one."
		log.WithField("manager_id", manager.ID).Info("invitation revoked")
	}
	t.notify.Send(ctx, manager.ID, text, backKeyboard())
	return nil
}

func (t *Team) CheckRequests(ctx context.Context, manager *models.User) error {
	requests, err := t.access.PendingRequests(ctx, manager)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		t.notify.Send(ctx, manager.ID, "No pending requests.", backKeyboard())
		return nil
	}

	var b strings.Builder
	b.WriteString("📋 Pending Requests\n\n")
	keyboard := make(transport.Keyboard, 0, len(requests)+1)
	for _, req := range requests {
		fmt.Fprintf(&b, "User: %s\nRequest ID: %d\n\n", label(req.User), req.ID)
		name := req.User.Name()
		keyboard = append(keyboard, transport.Row(
			transport.Button{Text: "✅ Approve " + name, Data: commands.Approve{RequestID: req.ID}.Data(), Style: transport.StylePrimary},
			transport.Button{Text: "❌ Reject " + name, Data: commands.Reject{RequestID: req.ID}.Data(), Style: transport.StyleAttention},
		))
	}
	keyboard = append(keyboard, backKeyboard()...)

	t.notify.Send(ctx, manager.ID, b.String(), keyboard)
	return nil
}

func (t *Team) ShowUsers(ctx context.Context, manager *models.User) error {
	users, err := t.access.Team(ctx, manager)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		t.notify.Send(ctx, manager.ID, "No users under your management.", backKeyboard())
		return nil
	}

	var b strings.Builder
	b.WriteString("👥 Your Users\n\n")
	for i := range users {
		fmt.Fprintf(&b, "• %s\n", label(&users[i]))
	}
	t.notify.Send(ctx, manager.ID, b.String(), backKeyboard())
	return nil
}

func (t *Team) Approve(ctx context.Context, manager *models.User, requestID int) error {
	request, err := t.access.Approve(ctx, manager, requestID)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"manager_id": manager.ID, "user_id": request.UserID}).Info("registration approved")

	t.notify.Send(ctx, manager.ID, fmt.Sprintf("✅ User %s has been approved and added to your team.", request.User.Name()), nil)
	t.notify.Send(ctx, request.UserID, "✅ Your registration has been approved!\n\n"+
		"You can now use the bot. Here are the available commands:\n"+
		"/upload - Start uploading files\n"+
		"/help - Show help information\n\n"+
		"Welcome to the team! 🎉", nil)
	return nil
}

func (t *Team) BeginReject(ctx context.Context, manager *models.User, requestID int) error {
	request, err := t.access.BeginReject(ctx, manager, requestID)
	if err != nil {
		return err
	}
	t.notify.Send(ctx, manager.ID, fmt.Sprintf("Please provide a reason for rejecting %s's request.\n"+
		"Type your reason in the next message.", request.User.Name()), nil)
	return nil
}

// AwaitingReason reports whether the manager's next plain message is a rejection reason.
func (t *Team) AwaitingReason(ctx context.Context, manager *models.User) bool {
	if !manager.Role.AtLeast(models.RoleManager) {
		return false
	}
	ok, err := t.access.AwaitingReason(ctx, manager.ID)
	if err != nil {
		log.WithField("manager_id", manager.ID).Warnf("read rejection marker: %v", err)
		return false
	}
	return ok
}

// DropReason forgets a pending rejection, e.g. when the manager moves on to a command.
func (t *Team) DropReason(ctx context.Context, manager *models.User) {
	if !manager.Role.AtLeast(models.RoleManager) {
		return
	}
	if err := t.access.CancelReject(ctx, manager.ID); err != nil {
		log.WithField("manager_id", manager.ID).Warnf("clear rejection marker: %v", err)
	}
}

func (t *Team) RejectWithReason(ctx context.Context, manager *models.User, reason string) error {
	request, err := t.access.CompleteReject(ctx, manager, reason)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"manager_id": manager.ID, "user_id": request.UserID}).Info("registration rejected")

	t.notify.Send(ctx, manager.ID, fmt.Sprintf("✅ Request from %s has been rejected.", request.User.Name()), nil)
	t.notify.Send(ctx, request.UserID, fmt.Sprintf("❌ Your registration request has been rejected\n\n"+
		"Reason: %s\n\n"+
		"Please contact your manager for a new invitation link.", reason), nil)
	return nil
}

func (t *Team) History(ctx context.Context, user *models.User) error {
	if err := t.access.CanUpload(ctx, user); err != nil {
		return err
	}
	if t.historyURL == "" {
		t.notify.Send(ctx, user.ID, "Upload history is not available right now.", nil)
		return nil
	}
	keyboard := transport.Keyboard{transport.Row(transport.Button{Text: "View History", URL: t.historyURL})}
	t.notify.Send(ctx, user.ID, "Click the button below to view upload history:", keyboard)
	return nil
}
