package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestReconcile_AddedAndRemoved(t *testing.T) {
	existing := []ExistingFormat{
		{ID: 1, CodeID: "gone", PackageID: "app", CodeDefaultFormat: "Bye", DefaultTranslation: strPtr("Bye")},
		{ID: 2, CodeID: "already-stale", PackageID: "app", CodeDefaultFormat: "X", IsStale: true, DefaultTranslation: strPtr("X")},
	}
	update := Update{DefaultLanguageCode: "en", Translatables: []TranslatableUpdate{
		{PackageID: "app", CodeID: "new", DefaultFormat: "Hello"},
	}}

	plan := Reconcile(existing, update)

	assert.Equal(t, []int64{1}, plan.MarkStale)
	assert.Equal(t, []RemovedTranslatable{{CodeID: "gone"}}, plan.Result.Removed)
	assert.Equal(t, []AddedTranslatable{{CodeID: "new"}}, plan.Result.Added)
	assert.Equal(t, update.Translatables, plan.Inserts)
	assert.Empty(t, plan.Result.Updated)
	assert.Empty(t, plan.Formats)
}

func TestReconcile_DefaultText(t *testing.T) {
	tests := []struct {
		name           string
		codeDefault    string
		accepted       *string
		newDefault     string
		wantKind       UpdateKind
		wantUpdated    bool
		wantSuggested  string
		wantTranslated bool
		wantFormat     bool
	}{
		{
			name:        "unchanged",
			codeDefault: "Hello", accepted: strPtr("Hello"), newDefault: "Hello",
			wantKind: KindNone,
		},
		{
			name:        "source changed",
			codeDefault: "Hello", accepted: strPtr("Hello"), newDefault: "Hi",
			wantKind: KindDidUpdateDefaultLanguage, wantUpdated: true, wantTranslated: true, wantFormat: true,
		},
		{
			name:        "no accepted translation",
			codeDefault: "Hello", accepted: nil, newDefault: "Hello",
			wantKind: KindDidUpdateDefaultLanguage, wantUpdated: true, wantTranslated: true, wantFormat: true,
		},
		{
			name:        "store changed",
			codeDefault: "Hello", accepted: strPtr("Hello!"), newDefault: "Hello",
			wantKind: KindShouldUpdateSource, wantUpdated: true, wantSuggested: "Hello!",
		},
		{
			name:        "both changed differently",
			codeDefault: "Hello", accepted: strPtr("Hello!"), newDefault: "Hi",
			wantKind: KindShouldUpdateSource, wantUpdated: true, wantSuggested: "Hello!",
		},
		{
			name:        "both changed to the same text",
			codeDefault: "Hello", accepted: strPtr("Hi"), newDefault: "Hi",
			wantKind: KindNone, wantFormat: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := []ExistingFormat{{
				ID: 7, CodeID: "id", PackageID: "app",
				CodeDefaultFormat: tt.codeDefault, DefaultTranslation: tt.accepted,
			}}
			update := Update{DefaultLanguageCode: "en", Translatables: []TranslatableUpdate{
				{PackageID: "app", CodeID: "id", DefaultFormat: tt.newDefault},
			}}

			plan := Reconcile(existing, update)

			if tt.wantUpdated {
				require.Len(t, plan.Result.Updated, 1)
				u := plan.Result.Updated[0].DefaultFormatUpdate
				assert.Equal(t, tt.wantKind, u.Kind)
				assert.Equal(t, tt.wantSuggested, u.SuggestedDefaultFormat)
			} else {
				assert.Empty(t, plan.Result.Updated)
			}

			if tt.wantTranslated {
				assert.Equal(t, []TranslationUpdate{{FormatID: 7, Accepted: tt.newDefault}}, plan.Translations)
			} else {
				assert.Empty(t, plan.Translations)
			}

			if tt.wantFormat {
				require.Len(t, plan.Formats, 1)
				assert.Equal(t, tt.newDefault, plan.Formats[0].CodeDefaultFormat)
			} else {
				assert.Empty(t, plan.Formats)
			}
			assert.Empty(t, plan.Result.Added)
			assert.Empty(t, plan.Result.Removed)
		})
	}
}

func TestReconcile_DidUpdateCarriesOldText(t *testing.T) {
	plan := Reconcile(
		[]ExistingFormat{{ID: 1, CodeID: "id", PackageID: "app", CodeDefaultFormat: "Old", DefaultTranslation: strPtr("Old")}},
		Update{Translatables: []TranslatableUpdate{{PackageID: "app", CodeID: "id", DefaultFormat: "New"}}},
	)
	require.Len(t, plan.Result.Updated, 1)
	u := plan.Result.Updated[0].DefaultFormatUpdate
	require.NotNil(t, u.OldTranslatedFormat)
	assert.Equal(t, "Old", *u.OldTranslatedFormat)
	assert.Equal(t, "New", u.NewTranslatedFormat)
}

func TestReconcile_RevivedStale(t *testing.T) {
	plan := Reconcile(
		[]ExistingFormat{{ID: 3, CodeID: "id", PackageID: "app", CodeDefaultFormat: "Hi", IsStale: true, DefaultTranslation: strPtr("Hi")}},
		Update{Translatables: []TranslatableUpdate{{PackageID: "app", CodeID: "id", DefaultFormat: "Hi"}}},
	)
	assert.Equal(t, []AddedTranslatable{{CodeID: "id", WasStale: true}}, plan.Result.Added)
	assert.Empty(t, plan.Result.Updated)
	require.Len(t, plan.Formats, 1)
	assert.Equal(t, int64(3), plan.Formats[0].ID)
}

func TestReconcile_MetadataChange(t *testing.T) {
	plan := Reconcile(
		[]ExistingFormat{{ID: 4, CodeID: "id", PackageID: "old", CodeDefaultFormat: "Hi", DefaultTranslation: strPtr("Hi")}},
		Update{Translatables: []TranslatableUpdate{{PackageID: "new", CodeID: "id", DefaultFormat: "Hi", Description: strPtr("greeting")}}},
	)
	require.Len(t, plan.Formats, 1)
	assert.Equal(t, "new", plan.Formats[0].PackageID)
	assert.Equal(t, "greeting", *plan.Formats[0].Description)
	require.Len(t, plan.Result.Updated, 1)
	assert.Equal(t, KindNone, plan.Result.Updated[0].DefaultFormatUpdate.Kind)
}
