// Package actions executes operator commands against the crawler service with
// validation, confirmation, duplicate suppression and optimistic updates.
package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/j-veylop/crawler-dashboard-tui/internal/apperr"
	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/remote"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

// ErrDeclined is wrapped in the result of a command the operator did not confirm.
var ErrDeclined = errors.New("declined by operator")

// Commander is the write side of the crawler service.
type Commander interface {
	StartAutomation(ctx context.Context) error
	StopAutomation(ctx context.Context) error
	AddAccount(ctx context.Context, acc models.NewAccount) error
	DeleteAccount(ctx context.Context, id string) error
	BatchOperate(ctx context.Context, ids []string, op models.BatchOperation) (models.BatchResult, error)
	ResetKeywords(ctx context.Context) error
	ExportData(ctx context.Context) (remote.Export, error)
}

// Refresher triggers an on-demand poll cycle after a successful command.
type Refresher interface {
	Refresh(ctx context.Context, reason string) error
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context, reason string) error

// Refresh implements Refresher.
func (f RefreshFunc) Refresh(ctx context.Context, reason string) error {
	return f(ctx, reason)
}

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) bool
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(ctx context.Context, question string) bool

// Confirm implements Prompter.
func (f PromptFunc) Confirm(ctx context.Context, question string) bool {
	return f(ctx, question)
}

// AlwaysConfirm answers yes to every question.
var AlwaysConfirm = PromptFunc(func(context.Context, string) bool { return true })

// Command names a command class. At most one command of each class runs at a time.
type Command string

const (
	// CmdAddAccount adds an account.
	CmdAddAccount Command = "add account"
	// CmdDeleteAccount deletes one account.
	CmdDeleteAccount Command = "delete account"
	// CmdBatch runs a batch operation.
	CmdBatch Command = "batch operation"
	// CmdToggleAutomation starts or stops automation.
	CmdToggleAutomation Command = "toggle automation"
	// CmdResetKeywords resets keyword statistics.
	CmdResetKeywords Command = "reset keywords"
	// CmdExport downloads a data export.
	CmdExport Command = "export data"
)

// Result describes a completed command.
type Result struct {
	Batch    *models.BatchResult
	Command  Command
	Message  string
	Path     string
	Bytes    int64
	Declined bool
}

// Config holds coordinator settings.
type Config struct {
	ExportDir string
	FileMode  os.FileMode
}

// Coordinator executes commands. It is safe for concurrent use.
type Coordinator struct {
	remote    Commander
	store     *store.Store
	refresher Refresher
	prompter  Prompter
	now       func() time.Time
	guards    map[Command]*atomic.Bool
	cfg       Config
	phase     Phase
	mu        sync.Mutex
}

// New creates a coordinator. A nil prompter confirms everything and a nil
// refresher skips post-command refreshes.
func New(c Commander, st *store.Store, r Refresher, p Prompter, cfg Config) *Coordinator {
	if p == nil {
		p = AlwaysConfirm
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0o640
	}
	guards := make(map[Command]*atomic.Bool)
	for _, cmd := range []Command{CmdAddAccount, CmdDeleteAccount, CmdBatch, CmdToggleAutomation, CmdResetKeywords, CmdExport} {
		guards[cmd] = new(atomic.Bool)
	}
	return &Coordinator{
		remote:    c,
		store:     st,
		refresher: r,
		prompter:  p,
		now:       time.Now,
		guards:    guards,
		cfg:       cfg,
	}
}

// SetPrompter replaces the confirmation prompter.
func (c *Coordinator) SetPrompter(p Prompter) {
	if p == nil {
		p = AlwaysConfirm
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompter = p
}

// SetExportDir changes where exports are written.
func (c *Coordinator) SetExportDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.ExportDir = dir
}

// Busy reports whether a command of class cmd is in flight.
func (c *Coordinator) Busy(cmd Command) bool {
	g, ok := c.guards[cmd]
	return ok && g.Load()
}

// acquire claims the guard for cmd or fails with a Busy error.
func (c *Coordinator) acquire(cmd Command) (release func(), err error) {
	g := c.guards[cmd]
	if !g.CompareAndSwap(false, true) {
		logger.Debug("duplicate command suppressed", "command", cmd)
		return nil, apperr.Busy(string(cmd))
	}
	return func() { g.Store(false) }, nil
}

func (c *Coordinator) confirm(ctx context.Context, question string) bool {
	c.mu.Lock()
	p := c.prompter
	c.mu.Unlock()
	return p.Confirm(ctx, question)
}

func (c *Coordinator) refresh(ctx context.Context, reason string) {
	c.mu.Lock()
	r := c.refresher
	c.mu.Unlock()
	if r == nil {
		return
	}
	if err := r.Refresh(ctx, reason); err != nil {
		logger.Warn("refresh after command failed", "reason", reason, "error", err)
	}
}

func declined(cmd Command) (Result, error) {
	logger.Info("command declined", "command", cmd)
	return Result{Command: cmd, Declined: true, Message: "Cancelled"}, nil
}

// AddAccount validates and registers a new account.
func (c *Coordinator) AddAccount(ctx context.Context, acc models.NewAccount) (Result, error) {
	acc = acc.Normalized()
	if err := acc.Validate(); err != nil {
		return Result{}, apperr.Validation(string(CmdAddAccount), err.Error())
	}
	release, err := c.acquire(CmdAddAccount)
	if err != nil {
		return Result{}, err
	}
	defer release()

	logger.Info("adding account", "username", acc.Username)
	if err := c.remote.AddAccount(ctx, acc); err != nil {
		logger.Error("add account failed", "username", acc.Username, "error", err)
		return Result{}, err
	}
	c.refresh(ctx, string(CmdAddAccount))
	return Result{Command: CmdAddAccount, Message: fmt.Sprintf("Account %s added", acc.Username)}, nil
}

// DeleteAccount removes an account after confirmation. The account leaves the
// local view only once the service confirmed the deletion.
func (c *Coordinator) DeleteAccount(ctx context.Context, id string) (Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Result{}, apperr.Validation(string(CmdDeleteAccount), "no account selected")
	}
	release, err := c.acquire(CmdDeleteAccount)
	if err != nil {
		return Result{}, err
	}
	defer release()

	label := id
	if acc, ok := c.store.Read().Account(id); ok && acc.Username != "" {
		label = acc.Username
	}
	if !c.confirm(ctx, fmt.Sprintf("Delete account %s?", label)) {
		return declined(CmdDeleteAccount)
	}

	logger.Info("deleting account", "id", id)
	if err := c.remote.DeleteAccount(ctx, id); err != nil {
		logger.Error("delete account failed", "id", id, "error", err)
		return Result{}, err
	}
	c.store.ApplyOptimistic(store.RemoveAccounts(id))
	c.refresh(ctx, string(CmdDeleteAccount))
	return Result{Command: CmdDeleteAccount, Message: fmt.Sprintf("Account %s deleted", label)}, nil
}

// BatchOperate applies op to ids. Only ids the service reports as succeeded
// change locally; a partially failed batch is a result, not an error.
func (c *Coordinator) BatchOperate(ctx context.Context, ids []string, op models.BatchOperation) (Result, error) {
	ids = uniqueNonEmpty(ids)
	if len(ids) == 0 {
		return Result{}, apperr.Validation(string(CmdBatch), "no accounts selected")
	}
	if !op.Valid() {
		return Result{}, apperr.Validation(string(CmdBatch), fmt.Sprintf("unknown operation %q", op))
	}
	release, err := c.acquire(CmdBatch)
	if err != nil {
		return Result{}, err
	}
	defer release()

	if op == models.BatchDelete && !c.confirm(ctx, fmt.Sprintf("Delete %d accounts?", len(ids))) {
		return declined(CmdBatch)
	}

	logger.Info("batch operation", "op", op, "count", len(ids))
	res, err := c.remote.BatchOperate(ctx, ids, op)
	if err != nil {
		logger.Error("batch operation failed", "op", op, "error", err)
		return Result{}, err
	}

	if len(res.Succeeded) > 0 {
		switch op {
		case models.BatchDelete:
			c.store.ApplyOptimistic(store.RemoveAccounts(res.Succeeded...))
		case models.BatchStart, models.BatchStop:
			c.store.ApplyOptimistic(store.SetAccountsAuto(res.Succeeded, op == models.BatchStart))
		}
		c.store.Deselect(res.Succeeded...)
		c.refresh(ctx, string(CmdBatch))
	}
	if len(res.Failed) > 0 {
		logger.Warn("batch operation partially failed", "op", op, "succeeded", len(res.Succeeded), "failed", len(res.Failed))
	}
	return Result{Command: CmdBatch, Message: res.Summary(), Batch: &res}, nil
}

// ResetKeywordStats zeroes keyword counters after confirmation.
func (c *Coordinator) ResetKeywordStats(ctx context.Context) (Result, error) {
	release, err := c.acquire(CmdResetKeywords)
	if err != nil {
		return Result{}, err
	}
	defer release()

	if !c.confirm(ctx, "Reset all keyword statistics?") {
		return declined(CmdResetKeywords)
	}

	patch := c.store.ApplyOptimistic(store.ResetKeywordCounts())
	logger.Info("resetting keyword statistics")
	if err := c.remote.ResetKeywords(ctx); err != nil {
		c.store.Revert(patch)
		logger.Error("reset keywords failed", "error", err)
		return Result{}, err
	}
	c.refresh(ctx, string(CmdResetKeywords))
	return Result{Command: CmdResetKeywords, Message: "Keyword statistics reset"}, nil
}

// RequestExport downloads the CSV export and writes it to the export directory.
func (c *Coordinator) RequestExport(ctx context.Context) (Result, error) {
	release, err := c.acquire(CmdExport)
	if err != nil {
		return Result{}, err
	}
	defer release()

	logger.Info("exporting data")
	exp, err := c.remote.ExportData(ctx)
	if err != nil {
		logger.Error("export failed", "error", err)
		return Result{}, err
	}

	c.mu.Lock()
	dir, mode := c.cfg.ExportDir, c.cfg.FileMode
	c.mu.Unlock()

	path, err := writeFileAtomic(filepath.Join(dir, ExportFilename(exp.Filename, c.now())), exp.Data, mode)
	if err != nil {
		logger.Error("failed to write export", "dir", dir, "error", err)
		return Result{}, fmt.Errorf("write export: %w", err)
	}
	logger.Info("export written", "path", path, "bytes", len(exp.Data), "suggested", exp.Filename)
	return Result{
		Command: CmdExport,
		Message: "Exported to " + path,
		Path:    path,
		Bytes:   int64(len(exp.Data)),
	}, nil
}

// defaultExportStem names exports when the server suggests no file name.
const defaultExportStem = "guild_crawler_export"

// maxExportAttempts bounds the numbered names tried when an export name is taken.
const maxExportAttempts = 100

// ExportFilename returns the local file name for an export taken at t. The
// server's suggested name, stripped of any directory and extension, becomes
// the stem; the millisecond timestamp keeps successive exports apart.
func ExportFilename(suggested string, t time.Time) string {
	stem := defaultExportStem
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(suggested), "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base != "" && base != "." && base != ".." && base != string(filepath.Separator) {
		stem = base
	}
	return fmt.Sprintf("%s_%s-%03d.csv", stem, t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond))
}

// numbered returns path with -n inserted before its extension.
func numbered(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), n, ext)
}

// reserve creates path exclusively, falling back to numbered variants when
// it already exists. It returns the name that was claimed.
func reserve(path string, mode os.FileMode) (string, error) {
	for n := 1; n <= maxExportAttempts; n++ {
		candidate := path
		if n > 1 {
			candidate = numbered(path, n)
		}
		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to reserve export file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to reserve export file: %w", err)
		}
		return candidate, nil
	}
	return "", fmt.Errorf("no free export name after %d attempts: %s", maxExportAttempts, path)
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over a freshly reserved name, so an existing file is never
// replaced. It returns the path written.
func writeFileAtomic(path string, data []byte, mode os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	remove := func(name string) {
		if rmErr := os.Remove(name); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("failed to remove file", "path", name, "error", rmErr)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		remove(tmpName)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		remove(tmpName)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		remove(tmpName)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}

	final, err := reserve(path, mode)
	if err != nil {
		remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, final); err != nil {
		remove(tmpName)
		remove(final)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return final, nil
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
