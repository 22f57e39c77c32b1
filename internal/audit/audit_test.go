package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

func TestSinkWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer

	s := NewSinkWriter(&buf)
	first := s.LogAction("admin", "CreateAccount", "", "user=ops profile=Standard_User")
	second := s.LogAction("ops", "InstallPolicy", "fgt-01", "")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "admin", got.User)
	assert.Equal(t, "CreateAccount", got.Action)
	assert.Equal(t, "user=ops profile=Standard_User", got.Details)
	assert.WithinDuration(t, first.Time, got.Time, time.Second)

	_, err := uuid.Parse(got.ID)
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, "fgt-01", got.Device)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotContains(t, lines[1], "details")
}

func TestNewSinkRollingFile(t *testing.T) {
	dir := t.TempDir()

	s := NewSink(config.Audit{Enabled: true, Path: dir, MaxSize: 1})
	s.LogAction("admin", "DeleteProfile", "", "name=Old")

	raw, err := os.ReadFile(filepath.Join(dir, defaultAuditFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"action":"DeleteProfile"`)
}

func TestNewSinkDisabled(t *testing.T) {
	dir := t.TempDir()

	s := NewSink(config.Audit{Enabled: false, Path: dir})
	s.LogAction("admin", "DeleteProfile", "", "")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type sentMail struct {
	settings document.EmailSettings
	msg      string
}

func captureSend(out *[]sentMail, err error) SendFunc {
	return func(_ context.Context, s document.EmailSettings, msg []byte) error {
		*out = append(*out, sentMail{settings: s, msg: string(msg)})
		return err
	}
}

func enabledEmail() document.EmailSettings {
	return document.EmailSettings{
		Enabled:        true,
		SMTPServer:     "smtp.example.com",
		SMTPPort:       587,
		SenderEmail:    "console@example.com",
		ReceiverEmails: []string{"noc@example.com", "sec@example.com"},
	}
}

func TestNotifierSkipsIncompleteSettings(t *testing.T) {
	tests := map[string]func(*document.EmailSettings){
		"disabled":     func(s *document.EmailSettings) { s.Enabled = false },
		"no server":    func(s *document.EmailSettings) { s.SMTPServer = "" },
		"no sender":    func(s *document.EmailSettings) { s.SenderEmail = "" },
		"no receivers": func(s *document.EmailSettings) { s.ReceiverEmails = nil },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			var sent []sentMail

			settings := enabledEmail()
			mutate(&settings)

			n := NewNotifier(func() document.EmailSettings { return settings }, captureSend(&sent, nil))
			require.NoError(t, n.Send(context.Background(), "subject", "body"))
			assert.Empty(t, sent)
		})
	}
}

func TestNotifierBuildsMessage(t *testing.T) {
	var sent []sentMail

	n := NewNotifier(enabledEmail, captureSend(&sent, nil))
	require.NoError(t, n.Send(context.Background(), "line\r\nBcc: evil@example.com", "hello\nworld"))

	require.Len(t, sent, 1)
	msg := sent[0].msg
	assert.Contains(t, msg, "From: console@example.com\r\n")
	assert.Contains(t, msg, "To: noc@example.com, sec@example.com\r\n")
	assert.Contains(t, msg, "Subject: line  Bcc: evil@example.com\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nhello\r\nworld"))
}

func TestRecorder(t *testing.T) {
	var (
		buf  bytes.Buffer
		sent []sentMail
	)

	r := NewRecorder(NewSinkWriter(&buf), NewNotifier(enabledEmail, captureSend(&sent, assert.AnError)))
	e := r.Record(context.Background(), "admin", "SetAccountPorts", "fgt-01", "user=ops")

	assert.Contains(t, buf.String(), e.ID)
	require.Len(t, sent, 1, "notification failures do not stop the recorder")
	assert.Contains(t, sent[0].msg, "Subject: [GoFMG-Admin] SetAccountPorts by admin")
	assert.Contains(t, sent[0].msg, "Device: fgt-01")
	assert.Contains(t, sent[0].msg, "Event: "+e.ID)

	withoutMail := NewRecorder(NewSinkWriter(&buf), nil)
	assert.NotEmpty(t, withoutMail.Record(context.Background(), "admin", "x", "", "").ID)
}

func TestRecorderLogSendsNoMail(t *testing.T) {
	var (
		buf  bytes.Buffer
		sent []sentMail
	)

	r := NewRecorder(NewSinkWriter(&buf), NewNotifier(enabledEmail, captureSend(&sent, nil)))
	e := r.Log("ghost", "LoginFailed", "", "reason=no such identity")

	assert.Contains(t, buf.String(), e.ID)
	assert.Empty(t, sent)
}

func TestSinkEntries(t *testing.T) {
	dir := t.TempDir()

	s := NewSink(config.Audit{Enabled: true, Path: dir, MaxSize: 1})

	entries, err := s.Entries(Query{})
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written yet")

	s.LogAction("admin", "CreateAccount", "", "user=ops")
	s.LogAction("ops", "InstallPolicy", "fgt-01", "")
	s.LogAction("ops", "InstallPolicy", "fgt-02", "")
	last := s.LogAction("admin", "DeleteAccount", "", "user=ops")

	trail, err := os.OpenFile(filepath.Join(dir, defaultAuditFile), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = trail.WriteString("not json\n{\"other\":true}\n")
	require.NoError(t, err)
	require.NoError(t, trail.Close())

	tests := []struct {
		name    string
		query   Query
		actions []string
	}{
		{
			name:    "all newest first",
			query:   Query{},
			actions: []string{"DeleteAccount", "InstallPolicy", "InstallPolicy", "CreateAccount"},
		},
		{
			name:    "by user",
			query:   Query{User: "ops"},
			actions: []string{"InstallPolicy", "InstallPolicy"},
		},
		{
			name:    "by device",
			query:   Query{Device: "fgt-01"},
			actions: []string{"InstallPolicy"},
		},
		{
			name:    "limit",
			query:   Query{Limit: 2},
			actions: []string{"DeleteAccount", "InstallPolicy"},
		},
		{
			name:    "no match",
			query:   Query{Action: "Login"},
			actions: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Entries(tc.query)
			require.NoError(t, err)

			actions := make([]string, 0, len(got))
			for _, e := range got {
				actions = append(actions, e.Action)
			}

			assert.Equal(t, tc.actions, actions)
		})
	}

	got, err := s.Entries(Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, last.ID, got[0].ID)
}

func TestSinkEntriesNotReadable(t *testing.T) {
	_, err := NewSinkWriter(&bytes.Buffer{}).Entries(Query{})
	require.ErrorIs(t, err, ErrNotReadable)

	_, err = NewSink(config.Audit{Enabled: false}).Entries(Query{})
	require.ErrorIs(t, err, ErrNotReadable)
}
