package project

import (
	"encoding/json"

	"i18n-analyzer/internal/analysis"
)

// Translatable is every source element sharing one id. Text and description
// come from the first element seen.
type Translatable struct {
	ID          string
	DefaultText string
	Description *string
	Parameters  map[string]analysis.ParameterInfo
	SrcElements []*analysis.TranslatableSrcElement
}

// Translatables collects source elements across programs.
type Translatables struct {
	elems []*analysis.TranslatableSrcElement
}

// Add appends extracted elements.
func (t *Translatables) Add(elems ...*analysis.TranslatableSrcElement) {
	t.elems = append(t.elems, elems...)
}

// Elements returns every element added so far.
func (t *Translatables) Elements() []*analysis.TranslatableSrcElement {
	return t.elems
}

// List groups the elements by id in first-seen order. Elements without an
// id are left out.
func (t *Translatables) List() []*Translatable {
	var result []*Translatable
	byID := make(map[string]*Translatable)
	for _, e := range t.elems {
		id := e.IDOrEmpty()
		if id == "" {
			continue
		}
		if tr, ok := byID[id]; ok {
			tr.SrcElements = append(tr.SrcElements, e)
			continue
		}
		tr := &Translatable{
			ID:          id,
			DefaultText: e.DefaultText,
			Description: e.Description,
			Parameters:  e.Parameters,
			SrcElements: []*analysis.TranslatableSrcElement{e},
		}
		byID[id] = tr
		result = append(result, tr)
	}
	return result
}

// Find returns the translatable with the given id, or nil.
func (t *Translatables) Find(id string) *Translatable {
	for _, tr := range t.List() {
		if tr.ID == id {
			return tr
		}
	}
	return nil
}

// DuplicateGroup is a set of elements with the same default text,
// description and parameters.
type DuplicateGroup struct {
	Key      string
	Elements []*analysis.TranslatableSrcElement
}

// CanonicalID is the id every element of the group is rewritten to: the id
// of the first element that has one.
func (g DuplicateGroup) CanonicalID() string {
	for _, e := range g.Elements {
		if id := e.IDOrEmpty(); id != "" {
			return id
		}
	}
	return ""
}

// GroupDuplicates groups elements by (default text, description,
// parameters), keeping first-seen order for groups and members.
func GroupDuplicates(elems []*analysis.TranslatableSrcElement) []DuplicateGroup {
	var groups []DuplicateGroup
	index := make(map[string]int)
	for _, e := range elems {
		key := duplicateKey(e)
		if i, ok := index[key]; ok {
			groups[i].Elements = append(groups[i].Elements, e)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, DuplicateGroup{Key: key, Elements: []*analysis.TranslatableSrcElement{e}})
	}
	return groups
}

func duplicateKey(e *analysis.TranslatableSrcElement) string {
	params := e.Parameters
	if params == nil {
		params = map[string]analysis.ParameterInfo{}
	}
	// Maps marshal with sorted keys, so equal parameter sets give equal keys.
	key, _ := json.Marshal([]any{e.DefaultText, e.Description, params})
	return string(key)
}
