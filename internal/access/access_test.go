package access

import (
	"context"
	"testing"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/internal/repositories/repofake"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx      context.Context
	repo     *repofake.FakeRepo
	ctrl     *Controller
	manager  *models.User
	employee *models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := repofake.New()
	repo.PutUser(models.User{ID: "m1", DisplayName: "Meera", Role: models.RoleManager})
	repo.PutUser(models.User{ID: "e1", DisplayName: "Ravi"})

	ctx := context.Background()
	manager, err := repo.UserByID(ctx, "m1")
	require.NoError(t, err)
	employee, err := repo.UserByID(ctx, "e1")
	require.NoError(t, err)

	return fixture{
		ctx:      ctx,
		repo:     repo,
		ctrl:     New(repo, NewMemoryMarkers(nil)),
		manager:  manager,
		employee: employee,
	}
}

func TestRoleOrdering(t *testing.T) {
	require.True(t, models.RoleAdmin.AtLeast(models.RoleManager))
	require.True(t, models.RoleManager.AtLeast(models.RoleManager))
	require.False(t, models.RoleEmployee.AtLeast(models.RoleManager))
}

func TestInvitationIsIdempotent(t *testing.T) {
	fx := newFixture(t)

	first, err := fx.ctrl.Invitation(fx.ctx, fx.manager)
	require.NoError(t, err)
	second, err := fx.ctrl.Invitation(fx.ctx, fx.manager)
	require.NoError(t, err)
	require.Equal(t, first.Code, second.Code)

	_, err = fx.ctrl.Invitation(fx.ctx, fx.employee)
	require.ErrorIs(t, err, botErrors.ErrNoAccess)

	n, err := fx.ctrl.RevokeInvitation(fx.ctx, fx.manager)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	third, err := fx.ctrl.Invitation(fx.ctx, fx.manager)
	require.NoError(t, err)
	require.NotEqual(t, first.Code, third.Code)

	_, err = fx.ctrl.Redeem(fx.ctx, fx.employee, first.Code)
	require.ErrorIs(t, err, botErrors.ErrInvalidInvitation)
}

func TestRedeemAndApprove(t *testing.T) {
	fx := newFixture(t)

	require.ErrorIs(t, fx.ctrl.CanUpload(fx.ctx, fx.employee), botErrors.ErrNoAccess)
	require.NoError(t, fx.ctrl.CanUpload(fx.ctx, fx.manager))

	inv, err := fx.ctrl.Invitation(fx.ctx, fx.manager)
	require.NoError(t, err)

	_, err = fx.ctrl.Redeem(fx.ctx, fx.employee, "nope")
	require.ErrorIs(t, err, botErrors.ErrInvalidInvitation)
	_, err = fx.ctrl.Redeem(fx.ctx, fx.manager, inv.Code)
	require.ErrorIs(t, err, botErrors.ErrInvalidInvitation)

	req, err := fx.ctrl.Redeem(fx.ctx, fx.employee, inv.Code)
	require.NoError(t, err)
	require.Equal(t, models.RequestPending, req.Status)
	require.ErrorIs(t, fx.ctrl.CanUpload(fx.ctx, fx.employee), botErrors.ErrRequestPending)

	_, err = fx.ctrl.Redeem(fx.ctx, fx.employee, inv.Code)
	require.ErrorIs(t, err, botErrors.ErrRequestPending)

	pending, err := fx.ctrl.PendingRequests(fx.ctx, fx.manager)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = fx.ctrl.Approve(fx.ctx, fx.employee, req.ID)
	require.ErrorIs(t, err, botErrors.ErrNoAccess)

	approved, err := fx.ctrl.Approve(fx.ctx, fx.manager, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestApproved, approved.Status)
	require.NoError(t, fx.ctrl.CanUpload(fx.ctx, fx.employee))

	user, err := fx.repo.UserByID(fx.ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, "m1", *user.ManagerID)

	team, err := fx.ctrl.Team(fx.ctx, fx.manager)
	require.NoError(t, err)
	require.Len(t, team, 1)

	_, err = fx.ctrl.Approve(fx.ctx, fx.manager, req.ID)
	require.ErrorIs(t, err, botErrors.ErrRequestProcessed)

	_, err = fx.ctrl.Redeem(fx.ctx, fx.employee, inv.Code)
	require.ErrorIs(t, err, botErrors.ErrAlreadyMember)
}

func TestTwoStepReject(t *testing.T) {
	fx := newFixture(t)
	inv, err := fx.ctrl.Invitation(fx.ctx, fx.manager)
	require.NoError(t, err)
	req, err := fx.ctrl.Redeem(fx.ctx, fx.employee, inv.Code)
	require.NoError(t, err)

	_, err = fx.ctrl.CompleteReject(fx.ctx, fx.manager, "too early")
	require.ErrorIs(t, err, botErrors.ErrNoPendingRejection)

	_, err = fx.ctrl.BeginReject(fx.ctx, fx.manager, req.ID)
	require.NoError(t, err)
	waiting, err := fx.ctrl.AwaitingReason(fx.ctx, "m1")
	require.NoError(t, err)
	require.True(t, waiting)

	rejected, err := fx.ctrl.CompleteReject(fx.ctx, fx.manager, "not on the field team")
	require.NoError(t, err)
	require.Equal(t, models.RequestRejected, rejected.Status)
	require.Equal(t, "not on the field team", rejected.RejectionReason)

	// marker is consumed, a later message is not taken as a reason
	waiting, err = fx.ctrl.AwaitingReason(fx.ctx, "m1")
	require.NoError(t, err)
	require.False(t, waiting)
	_, err = fx.ctrl.CompleteReject(fx.ctx, fx.manager, "hello")
	require.ErrorIs(t, err, botErrors.ErrNoPendingRejection)

	require.ErrorIs(t, fx.ctrl.CanUpload(fx.ctx, fx.employee), botErrors.ErrRequestRejected)

	// a fresh redemption after rejection opens a new request
	again, err := fx.ctrl.Redeem(fx.ctx, fx.employee, inv.Code)
	require.NoError(t, err)
	require.NotEqual(t, req.ID, again.ID)
	require.ErrorIs(t, fx.ctrl.CanUpload(fx.ctx, fx.employee), botErrors.ErrRequestPending)
}

func TestBeginRejectForeignRequest(t *testing.T) {
	fx := newFixture(t)
	fx.repo.PutUser(models.User{ID: "m2", Role: models.RoleManager})
	other, err := fx.repo.UserByID(fx.ctx, "m2")
	require.NoError(t, err)

	inv, err := fx.ctrl.Invitation(fx.ctx, fx.manager)
	require.NoError(t, err)
	req, err := fx.ctrl.Redeem(fx.ctx, fx.employee, inv.Code)
	require.NoError(t, err)

	_, err = fx.ctrl.BeginReject(fx.ctx, other, req.ID)
	require.ErrorIs(t, err, botErrors.ErrRequestProcessed)
	waiting, err := fx.ctrl.AwaitingReason(fx.ctx, "m2")
	require.NoError(t, err)
	require.False(t, waiting)
}

func TestMemoryMarkersExpire(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryMarkers(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	v, ok, err := m.Peek(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok, err = m.Take(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
