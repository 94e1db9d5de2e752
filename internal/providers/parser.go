package providers

import "strings"

// ProviderRef is a parsed "name" or "name:alias" selector. The alias picks a
// key or model, depending on the provider.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

func ParseProviderRef(raw string) ProviderRef {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ProviderRef{Raw: "mock", Name: "mock"}
	}
	ref := ProviderRef{Raw: raw, Name: raw}
	if name, alias, ok := strings.Cut(raw, ":"); ok {
		ref.Name = strings.TrimSpace(name)
		ref.KeyAlias = strings.TrimSpace(alias)
	}
	ref.Name = strings.ToLower(ref.Name)
	return ref
}
