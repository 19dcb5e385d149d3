package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		in   string
		want Text
	}{
		{"/start", Start{}},
		{"/start 3f1c-invite", Start{Code: "3f1c-invite"}},
		{"  /upload  ", Upload{}},
		{"/UPLOAD@document_bot", Upload{}},
		{"/status", Status{}},
		{"/cancel", Cancel{}},
		{"/help", Help{}},
		{"/manage_users", ManageUsers{}},
		{"/history", History{}},
		{"/frobnicate", Unknown{Name: "frobnicate"}},
		{"wrong site, please redo", Plain{Body: "wrong site, please redo"}},
		{"", Plain{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ParseText(tt.in))
		})
	}
}

func TestParseCallback(t *testing.T) {
	all := []Callback{
		ReadyUpload{}, ContinueUpload{}, FinalizeUpload{}, CancelSession{},
		ManageMenu{}, CheckRequests{}, InviteUser{}, ShowUsers{}, RevokeInvite{},
		Approve{RequestID: 12}, Approve{RequestID: 7, Direct: true},
		Reject{RequestID: 3}, Reject{RequestID: 44, Direct: true},
	}
	for _, cb := range all {
		t.Run(cb.Data(), func(t *testing.T) {
			got, err := ParseCallback(cb.Data())
			require.NoError(t, err)
			require.Equal(t, cb, got)
		})
	}

	require.Equal(t, "direct_approve_7", Approve{RequestID: 7, Direct: true}.Data())

	for _, bad := range []string{"", "approve_", "approve_x", "approve_-1", "delete_3", "direct_finalize_upload"} {
		_, err := ParseCallback(bad)
		require.ErrorIs(t, err, ErrUnknownCallback, bad)
	}
}
