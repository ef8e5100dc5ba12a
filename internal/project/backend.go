package project

import "fmt"

// VersionRef identifies one version of a project in the translation store.
type VersionRef struct {
	Org     string `json:"orgId"`
	Project string `json:"projectId"`
	Version string `json:"versionId"`
}

func (r VersionRef) String() string {
	return fmt.Sprintf("orgs/%s/projects/%s/versions/%s", r.Org, r.Project, r.Version)
}

// Backend is a fully resolved backend location.
type Backend struct {
	URL string
	Ref VersionRef
}

// ResolveBackend merges flag values over the project's backend section.
// Non-empty overrides win; every coordinate must end up set.
func (p *Project) ResolveBackend(overrides BackendConfig) (Backend, error) {
	b := overrides
	if cfg := p.Config.Backend; cfg != nil {
		b.URL = firstNonEmpty(b.URL, cfg.URL)
		b.Org = firstNonEmpty(b.Org, cfg.Org)
		b.Project = firstNonEmpty(b.Project, cfg.Project)
		b.Version = firstNonEmpty(b.Version, cfg.Version)
	}

	for _, arg := range []struct{ name, value string }{
		{"backendUrl", b.URL},
		{"backendOrg", b.Org},
		{"backendProject", b.Project},
		{"backendVersion", b.Version},
	} {
		if arg.value == "" {
			return Backend{}, fmt.Errorf("Arg '%s' is missing!", arg.name)
		}
	}

	return Backend{
		URL: b.URL,
		Ref: VersionRef{Org: b.Org, Project: b.Project, Version: b.Version},
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
