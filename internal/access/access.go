// Package access decides who may upload and runs the invitation and approval workflow.
package access

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	"github.com/google/uuid"
)

const rejectionTTL = time.Hour

type Store interface {
	ActiveInvitation(ctx context.Context, managerID string) (*models.Invitation, error)
	InvitationByCode(ctx context.Context, code string) (*models.Invitation, error)
	CreateInvitation(ctx context.Context, invitation *models.Invitation) error
	RevokeInvitations(ctx context.Context, managerID string) (int64, error)

	CreateRequest(ctx context.Context, request *models.Request) error
	LatestRequest(ctx context.Context, userID string) (*models.Request, error)
	PendingRequest(ctx context.Context, requestID int, managerID string) (*models.Request, error)
	PendingRequests(ctx context.Context, managerID string) ([]models.Request, error)
	ApproveRequest(ctx context.Context, requestID int, managerID string) (*models.Request, error)
	RejectRequest(ctx context.Context, requestID int, managerID, reason string) (*models.Request, error)

	TeamMembers(ctx context.Context, managerID string) ([]models.User, error)
}

type Controller struct {
	store   Store
	markers Markers
}

func New(store Store, markers Markers) *Controller {
	return &Controller{store: store, markers: markers}
}

func rejectionKey(managerID string) string {
	return "reject_reason:" + managerID
}

func requireManager(user *models.User) error {
	if user == nil || !user.Role.AtLeast(models.RoleManager) {
		return botErrors.ErrNoAccess
	}
	return nil
}

// CanUpload allows managers and admins, and employees whose latest request was approved.
func (c *Controller) CanUpload(ctx context.Context, user *models.User) error {
	if user.Role.AtLeast(models.RoleManager) {
		return nil
	}

	request, err := c.store.LatestRequest(ctx, user.ID)
	if errors.Is(err, botErrors.ErrNotFound) {
		return botErrors.ErrNoAccess
	}
	if err != nil {
		return err
	}

	switch request.Status {
	case models.RequestApproved:
		return nil
	case models.RequestPending:
		return botErrors.ErrRequestPending
	default:
		return botErrors.ErrRequestRejected
	}
}

// Invitation returns the manager's active invitation, creating one when none exists.
func (c *Controller) Invitation(ctx context.Context, manager *models.User) (*models.Invitation, error) {
	if err := requireManager(manager); err != nil {
		return nil, err
	}

	invitation, err := c.store.ActiveInvitation(ctx, manager.ID)
	if err == nil {
		return invitation, nil
	}
	if !errors.Is(err, botErrors.ErrNotFound) {
		return nil, err
	}

	invitation = &models.Invitation{
		Code:      uuid.NewString(),
		ManagerID: manager.ID,
		Status:    models.InvitationActive,
	}
	if err := c.store.CreateInvitation(ctx, invitation); err != nil {
		return nil, err
	}
	return invitation, nil
}

func (c *Controller) RevokeInvitation(ctx context.Context, manager *models.User) (int64, error) {
	if err := requireManager(manager); err != nil {
		return 0, err
	}
	return c.store.RevokeInvitations(ctx, manager.ID)
}

// Redeem files a pending request with the invitation's manager.
func (c *Controller) Redeem(ctx context.Context, user *models.User, code string) (*models.Request, error) {
	invitation, err := c.store.InvitationByCode(ctx, code)
	if errors.Is(err, botErrors.ErrNotFound) {
		return nil, botErrors.ErrInvalidInvitation
	}
	if err != nil {
		return nil, err
	}
	if invitation.Status != models.InvitationActive || invitation.ManagerID == user.ID {
		return nil, botErrors.ErrInvalidInvitation
	}

	latest, err := c.store.LatestRequest(ctx, user.ID)
	switch {
	case errors.Is(err, botErrors.ErrNotFound):
	case err != nil:
		return nil, err
	case latest.Status == models.RequestPending:
		return latest, botErrors.ErrRequestPending
	case latest.Status == models.RequestApproved && latest.ManagerID == invitation.ManagerID:
		return latest, botErrors.ErrAlreadyMember
	}

	request := &models.Request{
		UserID:    user.ID,
		ManagerID: invitation.ManagerID,
		Status:    models.RequestPending,
	}
	if err := c.store.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	request.User = user
	return request, nil
}

func (c *Controller) PendingRequests(ctx context.Context, manager *models.User) ([]models.Request, error) {
	if err := requireManager(manager); err != nil {
		return nil, err
	}
	return c.store.PendingRequests(ctx, manager.ID)
}

func (c *Controller) Team(ctx context.Context, manager *models.User) ([]models.User, error) {
	if err := requireManager(manager); err != nil {
		return nil, err
	}
	return c.store.TeamMembers(ctx, manager.ID)
}

func (c *Controller) Approve(ctx context.Context, manager *models.User, requestID int) (*models.Request, error) {
	if err := requireManager(manager); err != nil {
		return nil, err
	}
	// approving drops any reason prompt left over for this manager
	if err := c.markers.Clear(ctx, rejectionKey(manager.ID)); err != nil {
		return nil, err
	}
	return c.store.ApproveRequest(ctx, requestID, manager.ID)
}

// BeginReject checks the request and remembers it until the manager sends a reason.
func (c *Controller) BeginReject(ctx context.Context, manager *models.User, requestID int) (*models.Request, error) {
	if err := requireManager(manager); err != nil {
		return nil, err
	}
	request, err := c.store.PendingRequest(ctx, requestID, manager.ID)
	if err != nil {
		return nil, err
	}
	err = c.markers.Set(ctx, rejectionKey(manager.ID), strconv.Itoa(requestID), rejectionTTL)
	if err != nil {
		return nil, fmt.Errorf("store rejection marker: %w", err)
	}
	return request, nil
}

func (c *Controller) AwaitingReason(ctx context.Context, managerID string) (bool, error) {
	_, ok, err := c.markers.Peek(ctx, rejectionKey(managerID))
	return ok, err
}

func (c *Controller) CancelReject(ctx context.Context, managerID string) error {
	return c.markers.Clear(ctx, rejectionKey(managerID))
}

// CompleteReject consumes the marker and rejects the remembered request with reason.
func (c *Controller) CompleteReject(ctx context.Context, manager *models.User, reason string) (*models.Request, error) {
	value, ok, err := c.markers.Take(ctx, rejectionKey(manager.ID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, botErrors.ErrNoPendingRejection
	}

	requestID, err := strconv.Atoi(value)
	if err != nil {
		return nil, botErrors.ErrNoPendingRejection
	}
	return c.store.RejectRequest(ctx, requestID, manager.ID, reason)
}
