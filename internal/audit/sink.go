// Package audit records administrative actions and notifies operators by mail.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/logger"
)

const (
	defaultAuditFile = "audit.log"
	maxLineSize      = 64 * 1024
)

// ErrNotReadable is returned when the audit trail of a sink can not be read back.
var ErrNotReadable = errors.New("audit trail is not readable")

// Entry is one audit record.
type Entry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	User    string    `json:"user"`
	Action  string    `json:"action"`
	Device  string    `json:"device,omitempty"`
	Details string    `json:"details,omitempty"`
}

// OpenFunc opens the audit trail for reading.
type OpenFunc func() (io.ReadCloser, error)

// Sink writes audit entries as JSON lines.
type Sink struct {
	logger zerolog.Logger
	now    func() time.Time
	open   OpenFunc
}

// NewSink creates a sink writing to the rolling file configured in cfg.
// A disabled or unwritable audit trail yields a sink that drops entries.
func NewSink(cfg config.Audit) *Sink {
	if !cfg.Enabled {
		return NewSinkWriter(io.Discard)
	}

	file := cfg.File
	if file == "" {
		file = defaultAuditFile
	}

	w := logger.NewRollingFile(logger.Rotation{
		Dir:        cfg.Path,
		File:       file,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})
	if w == nil {
		log.Error().Str("path", cfg.Path).Msg("audit trail disabled, can't open audit file")
		return NewSinkWriter(io.Discard)
	}

	trail := filepath.Join(cfg.Path, file)

	return NewSinkReadWriter(w, func() (io.ReadCloser, error) {
		return os.Open(trail) //nolint:gosec // path comes from the process configuration
	})
}

// NewSinkWriter creates a sink writing to w. Its entries can not be read back.
func NewSinkWriter(w io.Writer) *Sink {
	return NewSinkReadWriter(w, nil)
}

// NewSinkReadWriter creates a sink writing to w and reading the trail through open.
func NewSinkReadWriter(w io.Writer, open OpenFunc) *Sink {
	return &Sink{
		logger: zerolog.New(w),
		now:    time.Now,
		open:   open,
	}
}

// Query selects audit entries. Empty fields match everything.
type Query struct {
	User   string
	Action string
	Device string
	Limit  int // 0 returns every match
}

func (q Query) match(e Entry) bool {
	return (q.User == "" || q.User == e.User) &&
		(q.Action == "" || q.Action == e.Action) &&
		(q.Device == "" || q.Device == e.Device)
}

// Entries returns the entries matching q, newest first. Lines that are not audit
// entries are skipped. A trail that was never written yields no entries.
func (s *Sink) Entries(q Query) ([]Entry, error) {
	if s.open == nil {
		return nil, ErrNotReadable
	}

	r, err := s.open()
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}

	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []Entry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize) //nolint:mnd

	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil || e.ID == "" {
			continue
		}

		if q.match(e) {
			out = append(out, e)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	if out == nil {
		out = []Entry{}
	}

	return out, nil
}

// LogAction appends one entry and returns it.
func (s *Sink) LogAction(user, action, device, details string) Entry {
	e := Entry{
		ID:      uuid.NewString(),
		Time:    s.now().UTC(),
		User:    user,
		Action:  action,
		Device:  device,
		Details: details,
	}

	ev := s.logger.Log().
		Str("id", e.ID).
		Time("time", e.Time).
		Str("user", e.User).
		Str("action", e.Action)

	if e.Device != "" {
		ev = ev.Str("device", e.Device)
	}

	if e.Details != "" {
		ev = ev.Str("details", e.Details)
	}

	ev.Send()

	return e
}
