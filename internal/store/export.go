package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"i18n-analyzer/internal/project"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ExportedTranslation is one language's accepted text for a translatable.
type ExportedTranslation struct {
	LanguageCode     string  `json:"languageCode"`
	TranslatedFormat *string `json:"translatedFormat"`
}

// ExportedTranslatable is a non-stale translatable with its translations.
type ExportedTranslatable struct {
	PackageID    string                `json:"packageId"`
	CodeID       string                `json:"codeId"`
	Description  *string               `json:"description"`
	Translations []ExportedTranslation `json:"translations"`
}

// VersionExport is the full content of a version.
type VersionExport struct {
	DefaultLanguageCode string                 `json:"defaultLanguageCode"`
	Languages           []Language             `json:"languages"`
	Translatables       []ExportedTranslatable `json:"translatables"`
}

// Export reads every non-stale translatable of ref, ordered by package and id.
func (s *TranslationStore) Export(ctx context.Context, ref project.VersionRef) (*VersionExport, error) {
	var exp VersionExport
	var versionID int64
	err := s.pool.QueryRow(ctx, `
		SELECT v.id, COALESCE(l.language_code, '')
		FROM versions v
		LEFT JOIN version_languages l ON l.id = v.default_language_id
		WHERE v.org_id = $1 AND v.project_id = $2 AND v.version_id = $3
	`, ref.Org, ref.Project, ref.Version).Scan(&versionID, &exp.DefaultLanguageCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("query version %s: %w", ref, err)
	}

	langRows, err := s.pool.Query(ctx, `
		SELECT language_code, name FROM version_languages WHERE version_id = $1 ORDER BY id
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("query languages: %w", err)
	}
	for langRows.Next() {
		var l Language
		if err := langRows.Scan(&l.LanguageCode, &l.Name); err != nil {
			langRows.Close()
			return nil, fmt.Errorf("scan language: %w", err)
		}
		exp.Languages = append(exp.Languages, l)
	}
	langRows.Close()
	if err := langRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate languages: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT f.package_id, f.code_id, f.description, l.language_code, t.accepted_translation
		FROM translatable_formats f
		JOIN translated_formats t ON t.format_id = f.id
		JOIN version_languages l ON l.id = t.language_id
		WHERE f.version_id = $1 AND NOT f.is_stale
		ORDER BY f.package_id, f.code_id, l.id
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pkg, codeID, lang string
		var description, accepted *string
		if err := rows.Scan(&pkg, &codeID, &description, &lang, &accepted); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		n := len(exp.Translatables)
		if n == 0 || exp.Translatables[n-1].CodeID != codeID || exp.Translatables[n-1].PackageID != pkg {
			exp.Translatables = append(exp.Translatables, ExportedTranslatable{
				PackageID:   pkg,
				CodeID:      codeID,
				Description: description,
			})
			n++
		}
		exp.Translatables[n-1].Translations = append(exp.Translatables[n-1].Translations,
			ExportedTranslation{LanguageCode: lang, TranslatedFormat: accepted})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}

	log.Info().Str("version", ref.String()).Int("translatables", len(exp.Translatables)).Msg("Exported version")
	return &exp, nil
}

// ExportMode selects the on-disk layout of WriteExport.
type ExportMode string

const (
	// ModeFile writes the export as one JSON document.
	ModeFile ExportMode = "file"
	// ModeDir writes meta.json plus one translations.<lang>.json per language.
	ModeDir ExportMode = "dir"
)

// LocalMeta is the meta.json of a directory export.
type LocalMeta struct {
	SupportedLanguages []Language `json:"supportedLanguages"`
	DefaultLanguage    struct {
		LanguageCode string `json:"languageCode"`
	} `json:"defaultLanguage"`
}

// LocalTranslation is one entry of a translations.<lang>.json file.
type LocalTranslation struct {
	IsUntranslatedInRequestedLanguage bool   `json:"isUntranslatedInRequestedLanguage"`
	TranslatedFormat                  string `json:"translatedFormat"`
}

// LocalPackage holds the translations of one package.
type LocalPackage struct {
	TranslationsByCodeID map[string]LocalTranslation `json:"translationsByCodeId"`
}

// LocalTranslations is the content of a translations.<lang>.json file.
type LocalTranslations struct {
	LanguageCode string                  `json:"languageCode"`
	PackagesByID map[string]LocalPackage `json:"packagesById"`
}

// WriteExport writes exp to out. In ModeDir out is a directory and
// languages without an accepted translation fall back to the default
// language.
func WriteExport(exp *VersionExport, out string, mode ExportMode) error {
	switch mode {
	case ModeFile:
		return writeJSON(out, exp)
	case ModeDir:
	default:
		return fmt.Errorf("unknown export mode %q", mode)
	}

	byLang, err := SplitByLanguage(exp)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	var meta LocalMeta
	meta.SupportedLanguages = exp.Languages
	meta.DefaultLanguage.LanguageCode = exp.DefaultLanguageCode
	if err := writeJSON(filepath.Join(out, "meta.json"), meta); err != nil {
		return err
	}

	for _, lang := range exp.Languages {
		t := byLang[lang.LanguageCode]
		if err := writeJSON(filepath.Join(out, "translations."+lang.LanguageCode+".json"), t); err != nil {
			return err
		}
	}

	log.Info().Str("dir", out).Int("languages", len(exp.Languages)).Msg("Wrote local export")
	return nil
}

// SplitByLanguage converts an export into one translation table per
// language.
func SplitByLanguage(exp *VersionExport) (map[string]*LocalTranslations, error) {
	result := make(map[string]*LocalTranslations, len(exp.Languages))
	for _, lang := range exp.Languages {
		result[lang.LanguageCode] = &LocalTranslations{
			LanguageCode: lang.LanguageCode,
			PackagesByID: make(map[string]LocalPackage),
		}
	}

	for _, e := range exp.Translatables {
		for _, lang := range exp.Languages {
			tgt := result[lang.LanguageCode]
			pkg, ok := tgt.PackagesByID[e.PackageID]
			if !ok {
				pkg = LocalPackage{TranslationsByCodeID: make(map[string]LocalTranslation)}
				tgt.PackagesByID[e.PackageID] = pkg
			}

			tr := findTranslation(e.Translations, lang.LanguageCode)
			if tr == nil || tr.TranslatedFormat == nil || *tr.TranslatedFormat == "" {
				tr = findTranslation(e.Translations, exp.DefaultLanguageCode)
				if tr == nil || tr.TranslatedFormat == nil || *tr.TranslatedFormat == "" {
					return nil, fmt.Errorf("no default found for id %s", e.CodeID)
				}
			}
			pkg.TranslationsByCodeID[e.CodeID] = LocalTranslation{
				IsUntranslatedInRequestedLanguage: tr.LanguageCode != lang.LanguageCode,
				TranslatedFormat:                  *tr.TranslatedFormat,
			}
		}
	}
	return result, nil
}

func findTranslation(translations []ExportedTranslation, lang string) *ExportedTranslation {
	for i := range translations {
		if translations[i].LanguageCode == lang {
			return &translations[i]
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
