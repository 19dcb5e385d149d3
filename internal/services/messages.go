package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PFEPLTechHub/document-bot/internal/commands"
	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/internal/transport"
	"github.com/PFEPLTechHub/document-bot/internal/utils"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	log "github.com/sirupsen/logrus"
)

const GenericErrorText = "Something went wrong, please try again."

const noAccessText = "❌ You don't have access to use this command.\n" +
	"Please wait for your manager's approval or contact them for a new invitation link."

var userTexts = []struct {
	err  error
	text string
}{
	{botErrors.ErrNoAccess, noAccessText},
	{botErrors.ErrRequestPending, "⏳ Your registration request is still pending approval.\n" +
		"Please wait for your manager to approve your request."},
	{botErrors.ErrRequestRejected, "❌ Your registration request was rejected.\n" +
		"Please contact your manager for a new invitation link."},
	{botErrors.ErrInvalidInvitation, "Invalid invitation link."},
	{botErrors.ErrAlreadyMember, "You are already a member of this team."},
	{botErrors.ErrRequestProcessed, "Request not found or already processed."},
	{botErrors.ErrNoPendingRejection, "There is no rejection waiting for a reason."},

	{botErrors.ErrNoActiveSession, "📋 No active session. Use /upload to start."},
	{botErrors.ErrSessionAlreadyOpen, "You already have an active upload session.\n" +
		"Send your files, check it with /status or drop it with /cancel."},
	{botErrors.ErrSessionChanged, "Your upload session was closed while the file was processed. Use /upload to start a new one."},
	{botErrors.ErrCapacityExceeded, "Maximum file limit reached. Cannot upload more files.\nFinalize this session or /cancel it."},
	{botErrors.ErrEmptySession, "No files uploaded yet. Send at least one file before finalizing."},
	{botErrors.ErrFinalizeInProgress, "Your files are being moved right now, please wait."},
	{botErrors.ErrFinalizeFailed, "Upload failed. Please try again."},
}

// ErrorText maps a handler error to what the user should read. ok is false for
// errors without a dedicated message; those get GenericErrorText.
func ErrorText(err error) (string, bool) {
	for _, m := range userTexts {
		if errors.Is(err, m.err) {
			return m.text, true
		}
	}
	return GenericErrorText, false
}

func startText(maxFiles int) string {
	return fmt.Sprintf("Please upload your files here\n\n"+
		"You can upload 1 to %d files\n\n"+
		"Send all files at once or send one by one, We are ready to receive your files!", maxFiles)
}

func startKeyboard() transport.Keyboard {
	return transport.Keyboard{
		transport.Row(transport.Button{Text: "📁 Upload Files", Data: commands.ReadyUpload{}.Data(), Style: transport.StylePrimary}),
		transport.Row(transport.Button{Text: "❌ Cancel", Data: commands.CancelSession{}.Data(), Style: transport.StyleAttention}),
	}
}

func rejectionText(name string, errs []string) string {
	return fmt.Sprintf("File Validation Failed\n\nFile: %s\nErrors:\n%s", name, strings.Join(errs, "\n"))
}

func summaryText(files []sessionLine, count, max int) string {
	var b strings.Builder
	b.WriteString("📁 Files Validated Successfully\n\n")
	fmt.Fprintf(&b, "Files uploaded: %d/%d\n\n", count, max)
	b.WriteString("Files in this batch:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s (%s)\n", f.name, utils.FormatFileSize(f.size))
	}
	return b.String()
}

type sessionLine struct {
	name string
	size int64
}

// summaryKeyboard hides "Add More Files" once the session is full.
func summaryKeyboard(full bool) transport.Keyboard {
	finalize := transport.Button{Text: "✅ Finalize Upload", Data: commands.FinalizeUpload{}.Data(), Style: transport.StylePrimary}
	if full {
		return transport.Keyboard{transport.Row(finalize)}
	}
	more := transport.Button{Text: "📤 Add More Files", Data: commands.ContinueUpload{}.Data()}
	return transport.Keyboard{transport.Row(more, finalize)}
}

func completedText(names []string) string {
	lines := make([]string, 0, len(names))
	for _, n := range names {
		lines = append(lines, "- "+n)
	}
	return fmt.Sprintf("✅ Upload Completed Successfully\n\nFiles processed: %d\n\nFiles:\n%s",
		len(names), strings.Join(lines, "\n"))
}

func welcomeText(role models.Role, limits Limits) string {
	text := fmt.Sprintf("Document Upload Bot\n\n"+
		"Upload your documents and I'll validate them according to company standards!\n\n"+
		"Supported formats: Any file type except video formats (MP4, AVI, MOV, etc.)\n"+
		"Max files per session: %d\n"+
		"Max file size: %s\n\n"+
		"You can upload any number of files from 1 to %d files per session.",
		limits.MaxFiles, utils.FormatFileSize(limits.MaxSize), limits.MaxFiles)

	switch role {
	case models.RoleAdmin:
		text += "\n\nManager Commands:\n/upload - Upload files\n/manage_users - Manage users\n/history - View upload history"
	case models.RoleManager:
		text += "\n\nManager Commands:\n/upload - Upload files\n/manage_users - Manage users"
	default:
		text += "\n\nCommands:\n/upload - Upload files\n/history - View upload history"
	}
	return text
}

func helpText(limits Limits) string {
	return fmt.Sprintf("Validation Rules:\n\n"+
		"Extensions: All file types allowed except video formats (MP4, AVI, MOV, etc.) and executables\n"+
		"File size: Maximum %s per file\n"+
		"Files per session: 1 to %d files\n"+
		"Security: Files scanned for threats\n"+
		"Structure: Files are filed by date and uploader\n\n"+
		"Commands:\n"+
		"/start - Welcome message\n"+
		"/upload - Start new upload session\n"+
		"/status - Show the current session\n"+
		"/cancel - Cancel the current session\n"+
		"/history - View upload history\n"+
		"/help - Show this help",
		utils.FormatFileSize(limits.MaxSize), limits.MaxFiles)
}

// label is "Name (@username)", or just the name when the username is unknown.
func label(u *models.User) string {
	if u == nil {
		return "Unknown_User"
	}
	if u.Username == "" {
		return u.Name()
	}
	return fmt.Sprintf("%s (@%s)", u.Name(), u.Username)
}

// ReportError tells userID what went wrong with their action. Errors without a
// dedicated message are logged and shown as GenericErrorText.
func ReportError(ctx context.Context, notify Sender, userID string, err error) {
	if err == nil {
		return
	}
	text, known := ErrorText(err)
	if !known {
		log.WithField("user_id", userID).Errorf("handler failed: %v", err)
	}
	notify.Send(ctx, userID, text, nil)
}
