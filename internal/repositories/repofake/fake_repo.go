// Package repofake is an in-memory stand-in for repositories.Repository used by tests.
package repofake

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
)

type FakeRepo struct {
	lock sync.RWMutex

	users       map[string]*models.User
	invitations []*models.Invitation
	requests    []*models.Request
	sessions    map[string]*models.UploadSession
	files       []*models.File
	history     []*models.History
}

func New() *FakeRepo {
	return &FakeRepo{
		users:    make(map[string]*models.User),
		sessions: make(map[string]*models.UploadSession),
	}
}

func (r *FakeRepo) UpsertUser(_ context.Context, id, username, displayName string) (*models.User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	user, ok := r.users[id]
	if !ok {
		user = &models.User{ID: id, CreatedAt: time.Now()}
		r.users[id] = user
	}
	user.Username = username
	user.DisplayName = displayName
	cp := *user
	return &cp, nil
}

// PutUser stores user as is, role and manager link included.
func (r *FakeRepo) PutUser(user models.User) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.users[user.ID] = &user
}

func (r *FakeRepo) UserByID(_ context.Context, id string) (*models.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, botErrors.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *FakeRepo) EnsureAdmin(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	user, ok := r.users[id]
	if !ok {
		user = &models.User{ID: id}
		r.users[id] = user
	}
	user.Role = models.RoleAdmin
	return nil
}

func (r *FakeRepo) TeamMembers(_ context.Context, managerID string) ([]models.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var out []models.User
	for _, u := range r.users {
		if u.ManagerID != nil && *u.ManagerID == managerID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (r *FakeRepo) ActiveInvitation(_ context.Context, managerID string) (*models.Invitation, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for i := len(r.invitations) - 1; i >= 0; i-- {
		inv := r.invitations[i]
		if inv.ManagerID == managerID && inv.Status == models.InvitationActive {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, botErrors.ErrNotFound
}

func (r *FakeRepo) InvitationByCode(_ context.Context, code string) (*models.Invitation, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, inv := range r.invitations {
		if inv.Code == code {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, botErrors.ErrNotFound
}

func (r *FakeRepo) CreateInvitation(_ context.Context, invitation *models.Invitation) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	invitation.ID = len(r.invitations) + 1
	invitation.CreatedAt = time.Now()
	cp := *invitation
	r.invitations = append(r.invitations, &cp)
	return nil
}

func (r *FakeRepo) RevokeInvitations(_ context.Context, managerID string) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var n int64
	for _, inv := range r.invitations {
		if inv.ManagerID == managerID && inv.Status == models.InvitationActive {
			inv.Status = models.InvitationRevoked
			n++
		}
	}
	return n, nil
}

func (r *FakeRepo) CreateRequest(_ context.Context, request *models.Request) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	request.ID = len(r.requests) + 1
	request.CreatedAt = time.Now()
	cp := *request
	cp.User = nil
	r.requests = append(r.requests, &cp)
	return nil
}

func (r *FakeRepo) withUser(request *models.Request) *models.Request {
	cp := *request
	if u, ok := r.users[request.UserID]; ok {
		user := *u
		cp.User = &user
	}
	return &cp
}

func (r *FakeRepo) LatestRequest(_ context.Context, userID string) (*models.Request, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for i := len(r.requests) - 1; i >= 0; i-- {
		if r.requests[i].UserID == userID {
			return r.withUser(r.requests[i]), nil
		}
	}
	return nil, botErrors.ErrNotFound
}

func (r *FakeRepo) pending(requestID int, managerID string) *models.Request {
	for _, req := range r.requests {
		if req.ID == requestID && req.ManagerID == managerID && req.Status == models.RequestPending {
			return req
		}
	}
	return nil
}

func (r *FakeRepo) PendingRequest(_ context.Context, requestID int, managerID string) (*models.Request, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	req := r.pending(requestID, managerID)
	if req == nil {
		return nil, botErrors.ErrRequestProcessed
	}
	return r.withUser(req), nil
}

func (r *FakeRepo) PendingRequests(_ context.Context, managerID string) ([]models.Request, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var out []models.Request
	for _, req := range r.requests {
		if req.ManagerID == managerID && req.Status == models.RequestPending {
			out = append(out, *r.withUser(req))
		}
	}
	return out, nil
}

func (r *FakeRepo) ApproveRequest(_ context.Context, requestID int, managerID string) (*models.Request, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	req := r.pending(requestID, managerID)
	if req == nil {
		return nil, botErrors.ErrRequestProcessed
	}
	req.Status = models.RequestApproved
	if u, ok := r.users[req.UserID]; ok {
		manager := managerID
		u.ManagerID = &manager
		u.Role = models.RoleEmployee
	}
	return r.withUser(req), nil
}

func (r *FakeRepo) RejectRequest(_ context.Context, requestID int, managerID, reason string) (*models.Request, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	req := r.pending(requestID, managerID)
	if req == nil {
		return nil, botErrors.ErrRequestProcessed
	}
	req.Status = models.RequestRejected
	req.RejectionReason = reason
	return r.withUser(req), nil
}

func (r *FakeRepo) CreateSession(_ context.Context, session *models.UploadSession) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	session.ID = len(r.sessions) + 1
	session.CreatedAt = time.Now()
	cp := *session
	r.sessions[session.SessionID] = &cp
	return nil
}

func (r *FakeRepo) CompleteSession(_ context.Context, sessionID, primaryPath, mirrorPath string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return botErrors.ErrNotFound
	}
	now := time.Now()
	s.Status = models.SessionCompleted
	s.FinalPath = primaryPath
	s.NetworkPath = mirrorPath
	s.CompletedAt = &now
	return nil
}

func (r *FakeRepo) CancelSession(_ context.Context, sessionID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if s, ok := r.sessions[sessionID]; ok && s.Status == models.SessionPending {
		s.Status = models.SessionCancelled
	}
	return nil
}

func (r *FakeRepo) CancelPendingSessions(_ context.Context, keep []string) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var n int64
	for _, s := range r.sessions {
		if s.Status == models.SessionPending && !slices.Contains(keep, s.SessionID) {
			s.Status = models.SessionCancelled
			n++
		}
	}
	return n, nil
}

func (r *FakeRepo) Session(sessionID string) (models.UploadSession, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return models.UploadSession{}, false
	}
	return *s, true
}

func (r *FakeRepo) LogFile(_ context.Context, userID string, file *models.File) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	file.ID = len(r.files) + 1
	file.CreatedAt = time.Now()
	cp := *file
	r.files = append(r.files, &cp)
	r.history = append(r.history, &models.History{
		ID:        len(r.history) + 1,
		UserID:    userID,
		FileID:    file.ID,
		SessionID: file.SessionID,
		CreatedAt: file.CreatedAt,
	})
	return nil
}

func (r *FakeRepo) Files() []models.File {
	r.lock.RLock()
	defer r.lock.RUnlock()
	out := make([]models.File, 0, len(r.files))
	for _, f := range r.files {
		out = append(out, *f)
	}
	return out
}

func (r *FakeRepo) HistoryFor(_ context.Context, viewer *models.User) ([]models.HistoryRow, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var rows []models.HistoryRow
	for i := len(r.files) - 1; i >= 0; i-- {
		f := r.files[i]
		s, ok := r.sessions[f.SessionID]
		if !ok {
			continue
		}
		owner, ok := r.users[s.UserID]
		if !ok || !visible(viewer, owner) {
			continue
		}
		rows = append(rows, models.HistoryRow{
			ID:               f.ID,
			OriginalName:     f.OriginalName,
			Size:             f.Size,
			ValidationStatus: f.ValidationStatus,
			ValidationErrors: f.ValidationErrors,
			CreatedAt:        f.CreatedAt,
			EmployeeName:     owner.DisplayName,
			UserID:           owner.ID,
			UserRole:         owner.Role,
			ManagerID:        owner.ManagerID,
		})
	}
	return rows, nil
}

func visible(viewer, owner *models.User) bool {
	switch {
	case viewer.Role.AtLeast(models.RoleAdmin):
		return true
	case viewer.Role.AtLeast(models.RoleManager):
		return owner.ID == viewer.ID || (owner.ManagerID != nil && *owner.ManagerID == viewer.ID)
	default:
		return owner.ID == viewer.ID
	}
}
