// Package cache implements the TTL metric cache gateway over the store.
package cache

import (
	"fmt"

	"github.com/sitepulse/compete-cli/internal/model"
)

// Key is the composite cache key: one entry per subject side, owner,
// domain, and metric kind.
type Key struct {
	SubjectType model.SubjectType
	OwnerID     string
	Domain      string
	Kind        model.MetricKind
}

// String renders the canonical composite form used for store lookups.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.SubjectType, k.OwnerID, k.Domain, k.Kind)
}

// SubjectKey builds a Key for a subject and metric kind.
func SubjectKey(subject model.Subject, kind model.MetricKind) Key {
	return Key{
		SubjectType: subject.Type,
		OwnerID:     subject.OwnerID,
		Domain:      subject.Domain,
		Kind:        kind,
	}
}
