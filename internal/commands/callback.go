package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownCallback = errors.New("unknown callback")

// Callback is a decoded button press. Data is the payload the button carries.
type Callback interface {
	Data() string
	isCallback()
}

type ReadyUpload struct{}

type ContinueUpload struct{}

type FinalizeUpload struct{}

type CancelSession struct{}

// ManageMenu reopens the user management menu.
type ManageMenu struct{}

type CheckRequests struct{}

type InviteUser struct{}

type ShowUsers struct{}

type RevokeInvite struct{}

// Approve and Reject come from the request list or, with Direct set, from the
// notification a manager gets when someone redeems their invitation.
type Approve struct {
	RequestID int
	Direct    bool
}

type Reject struct {
	RequestID int
	Direct    bool
}

func (ReadyUpload) Data() string    { return "ready_upload" }
func (ContinueUpload) Data() string { return "continue_upload" }
func (FinalizeUpload) Data() string { return "finalize_upload" }
func (CancelSession) Data() string  { return "cancel_session" }
func (ManageMenu) Data() string     { return "manage_users" }
func (CheckRequests) Data() string  { return "check_requests" }
func (InviteUser) Data() string     { return "invite_user" }
func (ShowUsers) Data() string      { return "show_users" }
func (RevokeInvite) Data() string   { return "revoke_invite" }

func (a Approve) Data() string {
	return withID(a.Direct, "approve", a.RequestID)
}

func (r Reject) Data() string {
	return withID(r.Direct, "reject", r.RequestID)
}

func withID(direct bool, verb string, id int) string {
	if direct {
		return fmt.Sprintf("direct_%s_%d", verb, id)
	}
	return fmt.Sprintf("%s_%d", verb, id)
}

func (ReadyUpload) isCallback()    {}
func (ContinueUpload) isCallback() {}
func (FinalizeUpload) isCallback() {}
func (CancelSession) isCallback()  {}
func (ManageMenu) isCallback()     {}
func (CheckRequests) isCallback()  {}
func (InviteUser) isCallback()     {}
func (ShowUsers) isCallback()      {}
func (RevokeInvite) isCallback()   {}
func (Approve) isCallback()        {}
func (Reject) isCallback()         {}

var fixed = map[string]Callback{
	ReadyUpload{}.Data():    ReadyUpload{},
	ContinueUpload{}.Data(): ContinueUpload{},
	FinalizeUpload{}.Data(): FinalizeUpload{},
	CancelSession{}.Data():  CancelSession{},
	ManageMenu{}.Data():     ManageMenu{},
	CheckRequests{}.Data():  CheckRequests{},
	InviteUser{}.Data():     InviteUser{},
	ShowUsers{}.Data():      ShowUsers{},
	RevokeInvite{}.Data():   RevokeInvite{},
}

func ParseCallback(data string) (Callback, error) {
	data = strings.TrimSpace(data)
	if cb, ok := fixed[data]; ok {
		return cb, nil
	}

	direct := strings.HasPrefix(data, "direct_")
	rest := strings.TrimPrefix(data, "direct_")

	verb, rawID, ok := strings.Cut(rest, "_")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
	}
	id, err := strconv.Atoi(rawID)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
	}

	switch verb {
	case "approve":
		return Approve{RequestID: id, Direct: direct}, nil
	case "reject":
		return Reject{RequestID: id, Direct: direct}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
}
