package services

import (
	"strings"
	"testing"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	"github.com/stretchr/testify/require"
)

func TestOnboarding(t *testing.T) {
	fx := newFixture(t, 10)

	require.NoError(t, fx.team.Invite(fx.ctx, fx.manager))
	link := fx.bot.last("m1").text
	require.Contains(t, link, "https://t.me/docbot?start=")
	code := strings.Fields(link[strings.Index(link, "start=")+len("start="):])[0]

	fx.repo.PutUser(models.User{ID: "n1", Username: "neha", DisplayName: "Neha"})
	newbie, err := fx.repo.UserByID(fx.ctx, "n1")
	require.NoError(t, err)

	require.NoError(t, fx.team.Welcome(fx.ctx, newbie, code))
	require.Contains(t, fx.bot.last("n1").text, "registration request has been sent")
	notice := fx.bot.last("m1")
	require.Contains(t, notice.text, "Neha (@neha)")
	require.Equal(t, []string{"direct_approve_2", "direct_reject_2"}, buttons(notice.keyboard))

	require.ErrorIs(t, fx.uploads.Start(fx.ctx, newbie), botErrors.ErrRequestPending)
	require.ErrorIs(t, fx.team.Welcome(fx.ctx, newbie, code), botErrors.ErrRequestPending)

	require.NoError(t, fx.team.Approve(fx.ctx, fx.manager, 2))
	require.Contains(t, fx.bot.last("m1").text, "Neha has been approved")
	require.Contains(t, fx.bot.last("n1").text, "Your registration has been approved")

	require.NoError(t, fx.uploads.Start(fx.ctx, newbie))
	require.ErrorIs(t, fx.team.Approve(fx.ctx, fx.manager, 2), botErrors.ErrRequestProcessed)
}

func TestRejectionNeedsReason(t *testing.T) {
	fx := newFixture(t, 10)
	invitation, err := fx.team.access.Invitation(fx.ctx, fx.manager)
	require.NoError(t, err)

	fx.repo.PutUser(models.User{ID: "n1", DisplayName: "Neha"})
	newbie, err := fx.repo.UserByID(fx.ctx, "n1")
	require.NoError(t, err)
	require.NoError(t, fx.team.Welcome(fx.ctx, newbie, invitation.Code))

	require.False(t, fx.team.AwaitingReason(fx.ctx, fx.manager))
	require.NoError(t, fx.team.BeginReject(fx.ctx, fx.manager, 2))
	require.Contains(t, fx.bot.last("m1").text, "reason for rejecting Neha's request")
	require.True(t, fx.team.AwaitingReason(fx.ctx, fx.manager))

	require.NoError(t, fx.team.RejectWithReason(fx.ctx, fx.manager, "wrong team"))
	require.False(t, fx.team.AwaitingReason(fx.ctx, fx.manager))
	require.Contains(t, fx.bot.last("n1").text, "Reason: wrong team")
	require.ErrorIs(t, fx.uploads.Start(fx.ctx, newbie), botErrors.ErrRequestRejected)

	require.ErrorIs(t, fx.team.RejectWithReason(fx.ctx, fx.manager, "again"), botErrors.ErrNoPendingRejection)
}

func TestDropReason(t *testing.T) {
	fx := newFixture(t, 10)
	invitation, err := fx.team.access.Invitation(fx.ctx, fx.manager)
	require.NoError(t, err)
	fx.repo.PutUser(models.User{ID: "n1", DisplayName: "Neha"})
	newbie, err := fx.repo.UserByID(fx.ctx, "n1")
	require.NoError(t, err)
	require.NoError(t, fx.team.Welcome(fx.ctx, newbie, invitation.Code))

	require.NoError(t, fx.team.BeginReject(fx.ctx, fx.manager, 2))
	fx.team.DropReason(fx.ctx, fx.manager)
	require.False(t, fx.team.AwaitingReason(fx.ctx, fx.manager))
}

func TestManagerScreens(t *testing.T) {
	fx := newFixture(t, 10)

	require.ErrorIs(t, fx.team.ManageMenu(fx.ctx, fx.employee), botErrors.ErrNoAccess)
	require.NoError(t, fx.team.ManageMenu(fx.ctx, fx.manager))
	require.Equal(t, []string{"invite_user", "check_requests", "show_users", "revoke_invite"}, buttons(fx.bot.last("m1").keyboard))

	require.NoError(t, fx.team.CheckRequests(fx.ctx, fx.manager))
	require.Contains(t, fx.bot.last("m1").text, "No pending requests.")

	require.NoError(t, fx.team.ShowUsers(fx.ctx, fx.manager))
	require.Contains(t, fx.bot.last("m1").text, "• Ravi (@ravi)")
	require.Equal(t, []string{"manage_users"}, buttons(fx.bot.last("m1").keyboard))

	require.NoError(t, fx.team.Revoke(fx.ctx, fx.manager))
	require.Contains(t, fx.bot.last("m1").text, "no active invitation link")
	require.NoError(t, fx.team.Invite(fx.ctx, fx.manager))
	require.NoError(t, fx.team.Revoke(fx.ctx, fx.manager))
	require.Contains(t, fx.bot.last("m1").text, "has been revoked")
}

func TestCheckRequestsListsButtons(t *testing.T) {
	fx := newFixture(t, 10)
	invitation, err := fx.team.access.Invitation(fx.ctx, fx.manager)
	require.NoError(t, err)
	fx.repo.PutUser(models.User{ID: "n1", Username: "neha", DisplayName: "Neha"})
	newbie, err := fx.repo.UserByID(fx.ctx, "n1")
	require.NoError(t, err)
	require.NoError(t, fx.team.Welcome(fx.ctx, newbie, invitation.Code))

	require.NoError(t, fx.team.CheckRequests(fx.ctx, fx.manager))
	msg := fx.bot.last("m1")
	require.Contains(t, msg.text, "User: Neha (@neha)")
	require.Equal(t, []string{"approve_2", "reject_2", "manage_users"}, buttons(msg.keyboard))
}

func TestWelcome(t *testing.T) {
	fx := newFixture(t, 10)

	require.NoError(t, fx.team.Welcome(fx.ctx, fx.employee, ""))
	require.Contains(t, fx.bot.last("e1").text, "Max files per session: 10")
	require.Contains(t, fx.bot.last("e1").text, "/history - View upload history")

	require.NoError(t, fx.team.Welcome(fx.ctx, fx.manager, ""))
	require.Contains(t, fx.bot.last("m1").text, "/manage_users - Manage users")

	fx.repo.PutUser(models.User{ID: "x1"})
	stranger, err := fx.repo.UserByID(fx.ctx, "x1")
	require.NoError(t, err)
	require.NoError(t, fx.team.Welcome(fx.ctx, stranger, ""))
	require.Contains(t, fx.bot.last("x1").text, "ask your manager for an invitation link")

	require.ErrorIs(t, fx.team.Welcome(fx.ctx, stranger, "bogus"), botErrors.ErrInvalidInvitation)
}

func TestHistoryButton(t *testing.T) {
	fx := newFixture(t, 10)
	require.NoError(t, fx.team.History(fx.ctx, fx.employee))
	kb := fx.bot.last("e1").keyboard
	require.Len(t, kb, 1)
	require.Equal(t, "https://history.example/", kb[0][0].URL)
}
