package store

import "sort"

// UpdateKind says what a sync did with a translatable's default text.
type UpdateKind string

const (
	KindNone                     UpdateKind = "none"
	KindShouldUpdateSource       UpdateKind = "shouldUpdateSource"
	KindDidUpdateDefaultLanguage UpdateKind = "didUpdateDefaultLanguage"
)

// TranslatableUpdate is one translatable as currently found in source.
type TranslatableUpdate struct {
	PackageID     string  `json:"packageId"`
	CodeID        string  `json:"codeId"`
	DefaultFormat string  `json:"defaultFormat"`
	Description   *string `json:"description"`
}

// Update is the full set of translatables of a project.
type Update struct {
	DefaultLanguageCode string               `json:"defaultLanguageCode"`
	Translatables       []TranslatableUpdate `json:"translatables"`
}

// ExistingFormat is a stored translatable together with its accepted
// translation in the default language.
type ExistingFormat struct {
	ID                int64
	CodeID            string
	PackageID         string
	Description       *string
	CodeDefaultFormat string
	IsStale           bool
	// DefaultTranslation is nil when the default language has no accepted
	// translation.
	DefaultTranslation *string
}

// DefaultFormatUpdate describes the outcome for the default text.
type DefaultFormatUpdate struct {
	Kind                   UpdateKind `json:"kind"`
	SuggestedDefaultFormat string     `json:"suggestedDefaultFormat,omitempty"`
	OldTranslatedFormat    *string    `json:"oldTranslatedFormat,omitempty"`
	NewTranslatedFormat    string     `json:"newTranslatedFormat,omitempty"`
}

type AddedTranslatable struct {
	CodeID   string `json:"codeId"`
	WasStale bool   `json:"wasStale"`
}

type RemovedTranslatable struct {
	CodeID string `json:"codeId"`
}

type UpdatedTranslatable struct {
	CodeID              string              `json:"codeId"`
	DefaultFormatUpdate DefaultFormatUpdate `json:"defaultFormatUpdate"`
}

// SyncResult reports what a sync changed.
type SyncResult struct {
	Added   []AddedTranslatable   `json:"addedTranslatables"`
	Removed []RemovedTranslatable `json:"removedTranslatables"`
	Updated []UpdatedTranslatable `json:"updatedTranslatables"`
}

// FormatUpdate rewrites the stored metadata of an existing translatable.
type FormatUpdate struct {
	ID                int64
	PackageID         string
	Description       *string
	CodeDefaultFormat string
}

// TranslationUpdate sets the accepted default-language translation of an
// existing translatable.
type TranslationUpdate struct {
	FormatID int64
	Accepted string
}

// Plan is the set of writes a sync performs.
type Plan struct {
	Result       SyncResult
	Inserts      []TranslatableUpdate
	MarkStale    []int64
	Formats      []FormatUpdate
	Translations []TranslationUpdate
}

// Reconcile compares the stored translatables with the ones found in source.
//
// Translatables gone from source are marked stale. New ones are inserted
// with their default text as the default-language translation. For the
// rest, a default text changed in source is pushed to the default language
// unless the translation there was edited as well; a translation edited
// only in the store is suggested back to the source.
func Reconcile(existing []ExistingFormat, update Update) Plan {
	var plan Plan

	incoming := make(map[string]TranslatableUpdate, len(update.Translatables))
	for _, t := range update.Translatables {
		incoming[t.CodeID] = t
	}

	sorted := append([]ExistingFormat(nil), existing...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CodeID < sorted[j].CodeID })

	seen := make(map[string]bool, len(sorted))
	for _, ex := range sorted {
		seen[ex.CodeID] = true
		nf, ok := incoming[ex.CodeID]
		if !ok {
			if !ex.IsStale {
				plan.MarkStale = append(plan.MarkStale, ex.ID)
				plan.Result.Removed = append(plan.Result.Removed, RemovedTranslatable{CodeID: ex.CodeID})
			}
			continue
		}
		plan.reconcileOne(ex, nf)
	}

	for _, t := range update.Translatables {
		if seen[t.CodeID] {
			continue
		}
		seen[t.CodeID] = true
		plan.Inserts = append(plan.Inserts, t)
		plan.Result.Added = append(plan.Result.Added, AddedTranslatable{CodeID: t.CodeID})
	}

	return plan
}

func (p *Plan) reconcileOne(ex ExistingFormat, nf TranslatableUpdate) {
	format := FormatUpdate{
		ID:                ex.ID,
		PackageID:         ex.PackageID,
		Description:       ex.Description,
		CodeDefaultFormat: ex.CodeDefaultFormat,
	}
	formatDirty := false
	updated := false

	if ex.PackageID != nf.PackageID || ex.IsStale || !equalPtr(ex.Description, nf.Description) {
		format.PackageID = nf.PackageID
		format.Description = nf.Description
		formatDirty = true
		updated = true
	}

	accepted := ex.DefaultTranslation
	acceptedChanged := accepted == nil || *accepted != ex.CodeDefaultFormat
	defaultChanged := ex.CodeDefaultFormat != nf.DefaultFormat
	acceptedDiffers := accepted == nil || *accepted != nf.DefaultFormat

	var kind DefaultFormatUpdate
	switch {
	case (defaultChanged && !acceptedChanged) || accepted == nil:
		format.CodeDefaultFormat = nf.DefaultFormat
		formatDirty = true
		kind = DefaultFormatUpdate{
			Kind:                KindDidUpdateDefaultLanguage,
			OldTranslatedFormat: accepted,
			NewTranslatedFormat: nf.DefaultFormat,
		}
		p.Translations = append(p.Translations, TranslationUpdate{FormatID: ex.ID, Accepted: nf.DefaultFormat})
		updated = true

	case defaultChanged && acceptedChanged:
		if !acceptedDiffers {
			// Source and store were changed to the same text.
			format.CodeDefaultFormat = nf.DefaultFormat
			formatDirty = true
			kind = DefaultFormatUpdate{Kind: KindNone}
		} else {
			kind = DefaultFormatUpdate{Kind: KindShouldUpdateSource, SuggestedDefaultFormat: *accepted}
			updated = true
		}

	case acceptedChanged:
		kind = DefaultFormatUpdate{Kind: KindShouldUpdateSource, SuggestedDefaultFormat: *accepted}
		updated = true

	default:
		kind = DefaultFormatUpdate{Kind: KindNone}
	}

	if formatDirty {
		p.Formats = append(p.Formats, format)
	}
	if !updated {
		return
	}
	if ex.IsStale {
		p.Result.Added = append(p.Result.Added, AddedTranslatable{CodeID: nf.CodeID, WasStale: true})
	} else {
		p.Result.Updated = append(p.Result.Updated, UpdatedTranslatable{CodeID: nf.CodeID, DefaultFormatUpdate: kind})
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
