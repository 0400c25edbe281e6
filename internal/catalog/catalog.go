// Package catalog records successful captures in SQLite so they can be listed
// and compared over time.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/pagesnap/internal/drift"
	"github.com/raysh454/pagesnap/internal/extract"
	"github.com/raysh454/pagesnap/internal/logging"
	"github.com/raysh454/pagesnap/internal/utils"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned when no entry matches.
var ErrNotFound = errors.New("capture not found")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Input is what a finished capture contributes to the catalog.
type Input struct {
	URL            string
	FinalURL       string
	Title          string
	Stem           string
	ScreenshotPath string
	JSONPath       string
	Width          int
	Height         int
	HTML           string
	Duration       time.Duration
	CapturedAt     time.Time
}

// Entry is one catalog row.
type Entry struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	CanonicalURL   string    `json:"canonical_url"`
	FinalURL       string    `json:"final_url"`
	Stem           string    `json:"stem"`
	ScreenshotPath string    `json:"screenshot_path"`
	JSONPath       string    `json:"json_path"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Lang           string    `json:"lang,omitempty"`
	ImageCount     int       `json:"image_count"`
	LinkCount      int       `json:"link_count"`
	ScriptCount    int       `json:"script_count"`
	WordCount      int       `json:"word_count"`
	Text           string    `json:"-"`
	DurationMS     int64     `json:"duration_ms"`
	PrevID         string    `json:"prev_id,omitempty"`
	DriftInserted  int       `json:"drift_inserted"`
	DriftDeleted   int       `json:"drift_deleted"`
	DriftRatio     float64   `json:"drift_ratio"`
	CapturedAt     time.Time `json:"captured_at"`
}

// Filter narrows List. An empty URL lists everything.
type Filter struct {
	URL   string
	Limit int
}

// Catalog is safe for concurrent use; database/sql serializes access.
type Catalog struct {
	db     *sql.DB
	logger logging.Logger
	owned  bool
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string, logger logging.Logger) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	c, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

// New applies pragmas and schema to an existing handle.
func New(db *sql.DB, logger logging.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if err := applySchema(db); err != nil {
		return nil, err
	}
	return &Catalog{db: db, logger: logger.With(logging.F("component", "catalog"))}, nil
}

// Close closes the database if Open created it.
func (c *Catalog) Close() error {
	if !c.owned {
		return nil
	}
	return c.db.Close()
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Record stores a capture, summarizing its HTML and measuring drift against
// the previous capture of the same canonical URL.
func (c *Catalog) Record(ctx context.Context, in Input) (*Entry, error) {
	canonical, err := utils.Canonicalize(in.URL)
	if err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w", in.URL, err)
	}
	if in.CapturedAt.IsZero() {
		in.CapturedAt = time.Now()
	}

	e := &Entry{
		ID:             uuid.NewString(),
		URL:            in.URL,
		CanonicalURL:   canonical,
		FinalURL:       in.FinalURL,
		Stem:           in.Stem,
		ScreenshotPath: in.ScreenshotPath,
		JSONPath:       in.JSONPath,
		Width:          in.Width,
		Height:         in.Height,
		Title:          in.Title,
		DurationMS:     in.Duration.Milliseconds(),
		CapturedAt:     in.CapturedAt.UTC().Truncate(time.Millisecond),
	}

	if in.HTML != "" {
		summary, err := extract.Summarize(in.HTML)
		if err != nil {
			c.logger.Warn("catalog: could not summarize page", logging.F("url", in.URL), logging.Err(err))
		} else {
			applySummary(e, summary)
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			c.logger.Warn("catalog: tx rollback failed", logging.Err(rerr))
		}
	}()

	prev, err := scanEntry(tx.QueryRowContext(ctx,
		selectEntry+` WHERE canonical_url = ? ORDER BY captured_at DESC, rowid DESC LIMIT 1`, canonical))
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("look up previous capture: %w", err)
	default:
		d := drift.Compare(prev.Text, e.Text)
		e.PrevID = prev.ID
		e.DriftInserted = d.Inserted
		e.DriftDeleted = d.Deleted
		e.DriftRatio = d.Ratio
		if d.Changed {
			c.logger.Info("catalog: page changed since last capture",
				logging.F("url", canonical), logging.F("ratio", d.Ratio))
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO captures
		(id, url, canonical_url, final_url, stem, screenshot_path, json_path, width, height,
		 title, description, lang, image_count, link_count, script_count, word_count, text,
		 duration_ms, prev_id, drift_inserted, drift_deleted, drift_ratio, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.URL, e.CanonicalURL, e.FinalURL, e.Stem, e.ScreenshotPath, e.JSONPath, e.Width, e.Height,
		e.Title, e.Description, e.Lang, e.ImageCount, e.LinkCount, e.ScriptCount, e.WordCount, e.Text,
		e.DurationMS, nullString(e.PrevID), e.DriftInserted, e.DriftDeleted, e.DriftRatio, e.CapturedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert capture: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit capture: %w", err)
	}

	c.logger.Debug("catalog: recorded capture", logging.F("id", e.ID), logging.F("url", canonical))
	return e, nil
}

func applySummary(e *Entry, s *extract.Summary) {
	if e.Title == "" {
		e.Title = s.Title
	}
	e.Description = s.Description
	e.Lang = s.Lang
	e.ImageCount = s.Images
	e.LinkCount = s.Links
	e.ScriptCount = s.Scripts
	e.WordCount = s.Words
	e.Text = s.Text
}

// Get returns the entry with id or ErrNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (*Entry, error) {
	return scanEntry(c.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id))
}

// Latest returns the newest capture of url (compared canonically).
func (c *Catalog) Latest(ctx context.Context, rawURL string) (*Entry, error) {
	canonical, err := utils.Canonicalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w", rawURL, err)
	}
	return scanEntry(c.db.QueryRowContext(ctx,
		selectEntry+` WHERE canonical_url = ? ORDER BY captured_at DESC, rowid DESC LIMIT 1`, canonical))
}

// List returns entries newest first.
func (c *Catalog) List(ctx context.Context, f Filter) ([]*Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	query := selectEntry
	var args []any
	if f.URL != "" {
		canonical, err := utils.Canonicalize(f.URL)
		if err != nil {
			return nil, fmt.Errorf("canonicalize %s: %w", f.URL, err)
		}
		query += ` WHERE canonical_url = ?`
		args = append(args, canonical)
	}
	query += ` ORDER BY captured_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const selectEntry = `SELECT id, url, canonical_url, final_url, stem, screenshot_path, json_path,
	width, height, title, description, lang, image_count, link_count, script_count, word_count,
	text, duration_ms, prev_id, drift_inserted, drift_deleted, drift_ratio, captured_at
	FROM captures`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e          Entry
		prevID     sql.NullString
		capturedAt int64
	)
	err := row.Scan(&e.ID, &e.URL, &e.CanonicalURL, &e.FinalURL, &e.Stem, &e.ScreenshotPath, &e.JSONPath,
		&e.Width, &e.Height, &e.Title, &e.Description, &e.Lang, &e.ImageCount, &e.LinkCount,
		&e.ScriptCount, &e.WordCount, &e.Text, &e.DurationMS, &prevID, &e.DriftInserted,
		&e.DriftDeleted, &e.DriftRatio, &capturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan capture: %w", err)
	}
	e.PrevID = prevID.String
	e.CapturedAt = time.UnixMilli(capturedAt).UTC()
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
