package botErrors

import "errors"

var ErrNoActiveSession = errors.New("no active upload session")
var ErrSessionAlreadyOpen = errors.New("upload session already open")
var ErrSessionChanged = errors.New("upload session was closed or replaced")

var ErrCapacityExceeded = errors.New("maximum files per session reached")
var ErrEmptySession = errors.New("no files uploaded")
var ErrFinalizeInProgress = errors.New("finalize already in progress")

var ErrFinalizeFailed = errors.New("finalize failed")

var ErrNoAccess = errors.New("No access")
var ErrNotFound = errors.New("not found")

var ErrInvalidInvitation = errors.New("invalid invitation code")
var ErrRequestProcessed = errors.New("request not found or already processed")
var ErrNoPendingRejection = errors.New("no rejection awaiting a reason")

var ErrRequestPending = errors.New("registration request awaiting approval")
var ErrRequestRejected = errors.New("registration request rejected")
var ErrAlreadyMember = errors.New("already a member of this team")
