package core

import (
	"context"
	"fmt"
)

// DuplicateResolver looks for an existing patient in the same tenant that
// shares the configured key with an incoming record.
type DuplicateResolver struct {
	store PatientStore
}

// NewDuplicateResolver creates a resolver backed by store.
func NewDuplicateResolver(store PatientStore) *DuplicateResolver {
	return &DuplicateResolver{store: store}
}

// IsDuplicate reports whether rec matches an existing patient. With
// MatchBoth a match on either email or document counts. A record with no
// value for any configured key is never a duplicate.
func (d *DuplicateResolver) IsDuplicate(ctx context.Context, tenantID string, rec CanonicalRecord, field DuplicateField) (bool, error) {
	for _, key := range duplicateKeys(rec, field) {
		existing, err := d.store.FindMatching(ctx, tenantID, key.field, key.value)
		if err != nil {
			return false, fmt.Errorf("duplicate lookup by %s: %w", key.field, err)
		}
		if existing != nil {
			return true, nil
		}
	}
	return false, nil
}

type matchKey struct {
	field DuplicateField
	value string
}

func duplicateKeys(rec CanonicalRecord, field DuplicateField) []matchKey {
	var keys []matchKey
	if (field == MatchEmail || field == MatchBoth) && rec.Email != "" {
		keys = append(keys, matchKey{MatchEmail, rec.Email})
	}
	if (field == MatchDocumentID || field == MatchBoth) && rec.DocumentID != "" {
		keys = append(keys, matchKey{MatchDocumentID, rec.DocumentID})
	}
	return keys
}
