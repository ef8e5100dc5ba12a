// Package store keeps translatables and their translations in PostgreSQL
// and synchronizes them with what is found in source.
package store

import (
	"context"
	"errors"
	"fmt"

	"i18n-analyzer/internal/project"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrVersionNotFound = errors.New("version not found")
	ErrVersionLocked   = errors.New("Version is locked!")
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS versions (
		id                  BIGSERIAL PRIMARY KEY,
		org_id              TEXT NOT NULL,
		project_id          TEXT NOT NULL,
		version_id          TEXT NOT NULL,
		default_language_id BIGINT,
		locked              BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (org_id, project_id, version_id)
	)`,
	`CREATE TABLE IF NOT EXISTS version_languages (
		id            BIGSERIAL PRIMARY KEY,
		version_id    BIGINT NOT NULL REFERENCES versions(id) ON DELETE CASCADE,
		language_code TEXT NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		UNIQUE (version_id, language_code)
	)`,
	`CREATE TABLE IF NOT EXISTS translatable_formats (
		id                  BIGSERIAL PRIMARY KEY,
		version_id          BIGINT NOT NULL REFERENCES versions(id) ON DELETE CASCADE,
		code_id             TEXT NOT NULL,
		package_id          TEXT NOT NULL,
		description         TEXT,
		code_default_format TEXT NOT NULL,
		is_stale            BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (version_id, code_id)
	)`,
	`CREATE TABLE IF NOT EXISTS translated_formats (
		id                   BIGSERIAL PRIMARY KEY,
		format_id            BIGINT NOT NULL REFERENCES translatable_formats(id) ON DELETE CASCADE,
		language_id          BIGINT NOT NULL REFERENCES version_languages(id) ON DELETE CASCADE,
		accepted_translation TEXT,
		version              INT NOT NULL DEFAULT 1,
		UNIQUE (format_id, language_id)
	)`,
	`CREATE INDEX IF NOT EXISTS translatable_formats_code_id_idx ON translatable_formats (code_id)`,
}

// TranslationStore is the PostgreSQL-backed translation backend.
type TranslationStore struct {
	pool *pgxpool.Pool
}

// NewTranslationStore creates a store on an open pool.
func NewTranslationStore(pool *pgxpool.Pool) *TranslationStore {
	return &TranslationStore{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (s *TranslationStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	log.Info().Msg("Translation store schema ensured")
	return nil
}

// Language is a language of a version.
type Language struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

// EnsureVersion creates the version and its default language when missing.
func (s *TranslationStore) EnsureVersion(ctx context.Context, ref project.VersionRef, defaultLang Language) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ensure version tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var versionID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO versions (org_id, project_id, version_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (org_id, project_id, version_id) DO UPDATE SET org_id = EXCLUDED.org_id
		RETURNING id
	`, ref.Org, ref.Project, ref.Version).Scan(&versionID)
	if err != nil {
		return fmt.Errorf("upsert version %s: %w", ref, err)
	}

	var langID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO version_languages (version_id, language_code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (version_id, language_code) DO UPDATE SET language_code = EXCLUDED.language_code
		RETURNING id
	`, versionID, defaultLang.LanguageCode, defaultLang.Name).Scan(&langID)
	if err != nil {
		return fmt.Errorf("upsert language %s: %w", defaultLang.LanguageCode, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE versions SET default_language_id = $2
		WHERE id = $1 AND default_language_id IS NULL
	`, versionID, langID); err != nil {
		return fmt.Errorf("set default language: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ensure version tx: %w", err)
	}
	return nil
}

// Sync reconciles the stored translatables of ref with update in one
// transaction.
func (s *TranslationStore) Sync(ctx context.Context, ref project.VersionRef, update Update) (*SyncResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin sync tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	versionID, locked, err := findVersion(ctx, tx, ref)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrVersionLocked
	}

	var langID int64
	err = tx.QueryRow(ctx, `
		SELECT id FROM version_languages WHERE version_id = $1 AND language_code = $2
	`, versionID, update.DefaultLanguageCode).Scan(&langID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("Default language %s does not exist!", update.DefaultLanguageCode)
	}
	if err != nil {
		return nil, fmt.Errorf("query default language: %w", err)
	}

	if err := createEmptyTranslations(ctx, tx, versionID); err != nil {
		return nil, err
	}

	existing, err := loadExisting(ctx, tx, versionID, langID)
	if err != nil {
		return nil, err
	}

	plan := Reconcile(existing, update)
	if err := applyPlan(ctx, tx, versionID, langID, plan); err != nil {
		return nil, err
	}

	if err := createEmptyTranslations(ctx, tx, versionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sync tx: %w", err)
	}

	log.Info().
		Str("version", ref.String()).
		Int("added", len(plan.Result.Added)).
		Int("removed", len(plan.Result.Removed)).
		Int("updated", len(plan.Result.Updated)).
		Msg("Synchronized translatables")

	return &plan.Result, nil
}

func findVersion(ctx context.Context, q pgx.Tx, ref project.VersionRef) (int64, bool, error) {
	var id int64
	var locked bool
	err := q.QueryRow(ctx, `
		SELECT id, locked FROM versions WHERE org_id = $1 AND project_id = $2 AND version_id = $3
	`, ref.Org, ref.Project, ref.Version).Scan(&id, &locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("%w: %s", ErrVersionNotFound, ref)
	}
	if err != nil {
		return 0, false, fmt.Errorf("query version %s: %w", ref, err)
	}
	return id, locked, nil
}

// createEmptyTranslations makes sure every translatable has a row for every
// language of the version.
func createEmptyTranslations(ctx context.Context, tx pgx.Tx, versionID int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO translated_formats (format_id, language_id)
		SELECT f.id, l.id
		FROM translatable_formats f
		JOIN version_languages l ON l.version_id = f.version_id
		WHERE f.version_id = $1
		ON CONFLICT (format_id, language_id) DO NOTHING
	`, versionID)
	if err != nil {
		return fmt.Errorf("create empty translations: %w", err)
	}
	return nil
}

func loadExisting(ctx context.Context, tx pgx.Tx, versionID, langID int64) ([]ExistingFormat, error) {
	rows, err := tx.Query(ctx, `
		SELECT f.id, f.code_id, f.package_id, f.description, f.code_default_format, f.is_stale, t.accepted_translation
		FROM translatable_formats f
		LEFT JOIN translated_formats t ON t.format_id = f.id AND t.language_id = $2
		WHERE f.version_id = $1
		ORDER BY f.code_id
	`, versionID, langID)
	if err != nil {
		return nil, fmt.Errorf("query translatables: %w", err)
	}
	defer rows.Close()

	var result []ExistingFormat
	for rows.Next() {
		var f ExistingFormat
		if err := rows.Scan(&f.ID, &f.CodeID, &f.PackageID, &f.Description, &f.CodeDefaultFormat, &f.IsStale, &f.DefaultTranslation); err != nil {
			return nil, fmt.Errorf("scan translatable: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translatables: %w", err)
	}
	return result, nil
}

func applyPlan(ctx context.Context, tx pgx.Tx, versionID, langID int64, plan Plan) error {
	for _, t := range plan.Inserts {
		var formatID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO translatable_formats (version_id, code_id, package_id, description, code_default_format)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, versionID, t.CodeID, t.PackageID, t.Description, t.DefaultFormat).Scan(&formatID)
		if err != nil {
			return fmt.Errorf("insert translatable %s: %w", t.CodeID, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO translated_formats (format_id, language_id, accepted_translation)
			VALUES ($1, $2, $3)
		`, formatID, langID, t.DefaultFormat); err != nil {
			return fmt.Errorf("insert default translation %s: %w", t.CodeID, err)
		}
	}

	if len(plan.MarkStale) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE translatable_formats SET is_stale = TRUE WHERE id = ANY($1)
		`, plan.MarkStale); err != nil {
			return fmt.Errorf("mark stale: %w", err)
		}
	}

	for _, f := range plan.Formats {
		if _, err := tx.Exec(ctx, `
			UPDATE translatable_formats
			SET package_id = $2, description = $3, code_default_format = $4, is_stale = FALSE
			WHERE id = $1
		`, f.ID, f.PackageID, f.Description, f.CodeDefaultFormat); err != nil {
			return fmt.Errorf("update translatable %d: %w", f.ID, err)
		}
	}

	for _, t := range plan.Translations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO translated_formats (format_id, language_id, accepted_translation)
			VALUES ($1, $2, $3)
			ON CONFLICT (format_id, language_id)
			DO UPDATE SET accepted_translation = EXCLUDED.accepted_translation,
			              version = translated_formats.version + 1
		`, t.FormatID, langID, t.Accepted); err != nil {
			return fmt.Errorf("update default translation %d: %w", t.FormatID, err)
		}
	}
	return nil
}

// AddLanguage adds a language to an existing version. Every translatable
// gets an empty translation in it.
func (s *TranslationStore) AddLanguage(ctx context.Context, ref project.VersionRef, lang Language) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin add language tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	versionID, _, err := findVersion(ctx, tx, ref)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO version_languages (version_id, language_code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (version_id, language_code) DO UPDATE SET name = EXCLUDED.name
	`, versionID, lang.LanguageCode, lang.Name); err != nil {
		return fmt.Errorf("insert language %s: %w", lang.LanguageCode, err)
	}
	if err := createEmptyTranslations(ctx, tx, versionID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit add language tx: %w", err)
	}
	log.Info().Str("version", ref.String()).Str("language", lang.LanguageCode).Msg("Added language")
	return nil
}

// SetTranslation stores the accepted translation of codeID in a language.
func (s *TranslationStore) SetTranslation(ctx context.Context, ref project.VersionRef, codeID, languageCode, text string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set translation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	versionID, locked, err := findVersion(ctx, tx, ref)
	if err != nil {
		return err
	}
	if locked {
		return ErrVersionLocked
	}

	tag, err := tx.Exec(ctx, `
		UPDATE translated_formats t
		SET accepted_translation = $1, version = t.version + 1
		FROM translatable_formats f, version_languages l
		WHERE t.format_id = f.id AND t.language_id = l.id
		  AND f.version_id = $2 AND f.code_id = $3 AND l.language_code = $4
	`, text, versionID, codeID, languageCode)
	if err != nil {
		return fmt.Errorf("update translation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no translatable %q in language %q of %s", codeID, languageCode, ref)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit set translation tx: %w", err)
	}
	return nil
}

// KnownIDs returns every code id stored for ref, stale ones included.
func (s *TranslationStore) KnownIDs(ctx context.Context, ref project.VersionRef) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT f.code_id
		FROM translatable_formats f
		JOIN versions v ON v.id = f.version_id
		WHERE v.org_id = $1 AND v.project_id = $2 AND v.version_id = $3
		ORDER BY f.code_id
	`, ref.Org, ref.Project, ref.Version)
	if err != nil {
		return nil, fmt.Errorf("query known ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
