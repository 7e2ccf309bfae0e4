// Package admin implements the passcode-gated dashboard: listing and
// searching records, pushing them to the sheet endpoint, clearing them, and
// editing the endpoint setting.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"haaziri/internal/records"
)

var (
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrUnauthorized      = errors.New("admin login required")
	ErrNoEndpoint        = errors.New("sync endpoint not configured")
	ErrNoRecords         = errors.New("no records to sync")
	ErrSyncFailed        = errors.New("sync failed")
	ErrNotConfirmed      = errors.New("clear not confirmed")
	ErrRecordNotFound    = errors.New("record not found")
)

// ClearPrompt is the confirmation the user must accept before ClearAll.
const ClearPrompt = "Are you sure you want to delete all records?"

const (
	shortNotice = 3 * time.Second
	longNotice  = 4 * time.Second
)

// Message returns the text shown to the admin for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIncorrectPassword):
		return "Incorrect password"
	case errors.Is(err, ErrUnauthorized):
		return "Admin login required"
	case errors.Is(err, ErrNoEndpoint):
		return "Set the sheet URL in Settings first."
	case errors.Is(err, ErrNoRecords):
		return "No records to sync."
	case errors.Is(err, ErrSyncFailed):
		return "Sync failed. Check URL & permissions."
	case errors.Is(err, ErrNotConfirmed):
		return ClearPrompt
	case errors.Is(err, ErrRecordNotFound):
		return "Record not found."
	default:
		return "Something went wrong."
	}
}

// Store is the part of records.Store the dashboard uses.
type Store interface {
	List(ctx context.Context) []records.Record
	Clear(ctx context.Context) error
	SyncEndpoint(ctx context.Context) string
	SetSyncEndpoint(ctx context.Context, url string) error
}

// Pusher delivers records to the sync endpoint.
type Pusher interface {
	Push(ctx context.Context, url string, recs []records.Record) error
}

// View is the dashboard's visible panel.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewSettings  View = "settings"
)

// NoticeKind colours a transient status message.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a status message that disappears on its own.
type Notice struct {
	Kind    NoticeKind `json:"type"`
	Text    string     `json:"text"`
	Expires time.Time  `json:"expiresAt"`
}

// Options hooks the flow to a clock and to metrics.
type Options struct {
	Now     func() time.Time
	OnSync  func(err error)
	OnLogin func(ok bool)
}

// Flow holds one admin session. Records and the endpoint are working copies
// loaded at login; they are not refreshed while the dashboard is open.
type Flow struct {
	gate   Gate
	store  Store
	pusher Pusher
	opts   Options

	mu       sync.Mutex
	admin    bool
	view     View
	recs     []records.Record
	sheetURL string
	draft    string
	syncing  bool
	notice   *Notice
}

// New builds a logged-out flow.
func New(gate Gate, store Store, pusher Pusher, opts Options) *Flow {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Flow{gate: gate, store: store, pusher: pusher, opts: opts, view: ViewDashboard}
}

// Login checks the passcode and opens the dashboard.
func (f *Flow) Login(ctx context.Context, passcode string) error {
	ok := f.gate.Allow(passcode)
	if f.opts.OnLogin != nil {
		f.opts.OnLogin(ok)
	}
	if !ok {
		return ErrIncorrectPassword
	}

	recs := f.store.List(ctx)
	url := f.store.SyncEndpoint(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.admin = true
	f.view = ViewDashboard
	f.recs = recs
	f.sheetURL = url
	f.draft = url
	f.notice = nil
	return nil
}

// Back leaves the dashboard and drops admin access.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admin = false
	f.view = ViewDashboard
	f.recs = nil
	f.notice = nil
}

// IsAdmin reports whether the session has passed the gate.
func (f *Flow) IsAdmin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admin
}

// Listing is a filtered page of the working copy.
type Listing struct {
	Records []records.Record `json:"records"`
	Count   int              `json:"count"`
	Total   int              `json:"total"`
}

// ListFiltered matches term case-insensitively against the name, or as a
// plain substring of the date. An empty term matches everything.
func (f *Flow) ListFiltered(term string) (Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.admin {
		return Listing{}, ErrUnauthorized
	}
	out := Filter(f.recs, term)
	return Listing{Records: out, Count: len(out), Total: len(f.recs)}, nil
}

// Filter applies the dashboard search to recs.
func Filter(recs []records.Record, term string) []records.Record {
	term = strings.ToLower(term)
	out := make([]records.Record, 0, len(recs))
	for _, r := range recs {
		if strings.Contains(strings.ToLower(r.Name), term) || strings.Contains(r.Date, term) {
			out = append(out, r)
		}
	}
	return out
}

// Photo returns the photo data URI of the record with the given id.
func (f *Flow) Photo(id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.admin {
		return "", ErrUnauthorized
	}
	for _, r := range f.recs {
		if r.ID == id {
			return r.PhotoData, nil
		}
	}
	return "", ErrRecordNotFound
}

// Sync posts every record to the configured endpoint. With no endpoint the
// settings panel is opened instead; with no records an error notice is shown.
// Once the POST is sent it runs to completion even if ctx is cancelled; the
// pusher's own timeout is the only bound. Concurrent calls are not rejected.
func (f *Flow) Sync(ctx context.Context) error {
	f.mu.Lock()
	if !f.admin {
		f.mu.Unlock()
		return ErrUnauthorized
	}
	if f.sheetURL == "" {
		f.view = ViewSettings
		f.draft = f.sheetURL
		f.mu.Unlock()
		return ErrNoEndpoint
	}
	if len(f.recs) == 0 {
		f.setNoticeLocked(NoticeError, Message(ErrNoRecords), shortNotice)
		f.mu.Unlock()
		return ErrNoRecords
	}
	url := f.sheetURL
	batch := append([]records.Record(nil), f.recs...)
	f.syncing = true
	f.notice = nil
	f.mu.Unlock()

	err := f.pusher.Push(context.WithoutCancel(ctx), url, batch)
	if f.opts.OnSync != nil {
		f.opts.OnSync(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncing = false
	if err != nil {
		log.Printf("sync error: %v", err)
		f.setNoticeLocked(NoticeError, Message(ErrSyncFailed), longNotice)
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	f.setNoticeLocked(NoticeSuccess, "Synced successfully!", longNotice)
	return nil
}

func (f *Flow) setNoticeLocked(kind NoticeKind, text string, ttl time.Duration) {
	f.notice = &Notice{Kind: kind, Text: text, Expires: f.opts.Now().Add(ttl)}
}

// ClearAll deletes every record once the user has confirmed ClearPrompt.
func (f *Flow) ClearAll(ctx context.Context, confirmed bool) error {
	if !f.IsAdmin() {
		return ErrUnauthorized
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := f.store.Clear(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	f.recs = nil
	f.mu.Unlock()
	return nil
}

// OpenSettings shows the settings panel with a draft of the saved URL.
func (f *Flow) OpenSettings() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.admin {
		return ErrUnauthorized
	}
	f.view = ViewSettings
	f.draft = f.sheetURL
	return nil
}

// EditDraft changes the draft without persisting it.
func (f *Flow) EditDraft(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.admin {
		return ErrUnauthorized
	}
	f.draft = url
	return nil
}

// SaveSettings persists the draft as-is and closes the panel.
func (f *Flow) SaveSettings(ctx context.Context) error {
	f.mu.Lock()
	if !f.admin {
		f.mu.Unlock()
		return ErrUnauthorized
	}
	draft := f.draft
	f.mu.Unlock()

	if err := f.store.SetSyncEndpoint(ctx, draft); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheetURL = draft
	f.view = ViewDashboard
	return nil
}

// CloseSettings discards the draft.
func (f *Flow) CloseSettings() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.admin {
		return ErrUnauthorized
	}
	f.view = ViewDashboard
	f.draft = f.sheetURL
	return nil
}

// Status is what the dashboard header renders.
type Status struct {
	Admin    bool    `json:"admin"`
	View     View    `json:"view"`
	SheetURL string  `json:"sheetUrl"`
	Draft    string  `json:"draft"`
	Syncing  bool    `json:"syncing"`
	Total    int     `json:"total"`
	Notice   *Notice `json:"notice,omitempty"`
}

// Status snapshots the session. Expired notices are dropped.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notice != nil && !f.opts.Now().Before(f.notice.Expires) {
		f.notice = nil
	}
	st := Status{
		Admin:    f.admin,
		View:     f.view,
		SheetURL: f.sheetURL,
		Draft:    f.draft,
		Syncing:  f.syncing,
		Total:    len(f.recs),
	}
	if f.notice != nil {
		n := *f.notice
		st.Notice = &n
	}
	return st
}
