package report

import (
	"strings"
)

type Kind string

const (
	KindBuyer         Kind = "buyer"
	KindBroker        Kind = "broker"
	KindProvince      Kind = "province"
	KindCertification Kind = "certification"
)

// CertificationRWS is the only certification code the engine links to a row.
const CertificationRWS = "RWS"

func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindBuyer:
		return KindBuyer, true
	case KindBroker:
		return KindBroker, true
	case KindProvince:
		return KindProvince, true
	case KindCertification:
		return KindCertification, true
	}
	return "", false
}

type Reference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReferenceSnapshot is every resolvable reference row, loaded once per save.
// Certifications carry their code in Name.
type ReferenceSnapshot struct {
	Buyers         []Reference `json:"buyers"`
	Brokers        []Reference `json:"brokers"`
	Provinces      []Reference `json:"provinces"`
	Certifications []Reference `json:"certifications"`
}

func (s ReferenceSnapshot) rows(kind Kind) []Reference {
	switch kind {
	case KindBuyer:
		return s.Buyers
	case KindBroker:
		return s.Brokers
	case KindProvince:
		return s.Provinces
	case KindCertification:
		return s.Certifications
	}
	return nil
}

// Miss is a selection that resolved to no reference row. ID is set when the
// selection carried an id the snapshot does not know and no name to fall
// back on.
type Miss struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

type Resolver struct {
	byName map[Kind]map[string]string
	byID   map[Kind]map[string]string
	misses []Miss
}

func NewResolver(snapshot ReferenceSnapshot) *Resolver {
	r := &Resolver{
		byName: make(map[Kind]map[string]string),
		byID:   make(map[Kind]map[string]string),
	}
	for _, kind := range []Kind{KindBuyer, KindBroker, KindProvince, KindCertification} {
		names := make(map[string]string)
		ids := make(map[string]string)
		for _, ref := range snapshot.rows(kind) {
			key := NormalizeName(ref.Name)
			if key == "" || ref.ID == "" {
				continue
			}
			if _, exists := names[key]; !exists {
				names[key] = ref.ID
			}
			ids[ref.ID] = ref.Name
		}
		r.byName[kind] = names
		r.byID[kind] = ids
	}
	return r
}

// Resolve returns the id for a selection, or nil when it cannot be resolved.
// An attached id wins when it is known; otherwise the name is matched.
// Pending creations are never resolved here.
func (r *Resolver) Resolve(kind Kind, sel Selection) *string {
	if r == nil || sel.Pending() {
		return nil
	}
	if sel.ID != "" {
		if _, ok := r.byID[kind][sel.ID]; ok {
			id := sel.ID
			return &id
		}
	}

	key := NormalizeName(sel.Name)
	if key == "" {
		if sel.ID != "" {
			r.misses = append(r.misses, Miss{Kind: kind, ID: sel.ID})
		}
		return nil
	}
	if id, ok := r.byName[kind][key]; ok {
		return &id
	}

	r.misses = append(r.misses, Miss{Kind: kind, Name: strings.TrimSpace(sel.Name)})
	return nil
}

// ResolveCertification maps a certification code to its id. Only RWS is
// recognised; every other value, blank included, maps to nil.
func (r *Resolver) ResolveCertification(code string) *string {
	if !strings.EqualFold(strings.TrimSpace(code), CertificationRWS) {
		return nil
	}
	return r.Resolve(KindCertification, Named(CertificationRWS))
}

// Name returns the display name stored for id, or "" if unknown.
func (r *Resolver) Name(kind Kind, id *string) string {
	if r == nil || id == nil {
		return ""
	}
	return r.byID[kind][*id]
}

// Misses lists the names that failed resolution since the resolver was built.
func (r *Resolver) Misses() []Miss {
	if r == nil {
		return nil
	}
	out := make([]Miss, len(r.misses))
	copy(out, r.misses)
	return out
}

// NormalizeName trims, collapses inner whitespace and folds case.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
