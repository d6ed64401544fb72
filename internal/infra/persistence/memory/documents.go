package memory

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Document is the JSON encoding of one model as a backend stores it.
type Document struct {
	ID   string
	Data []byte
}

// Delta lists the documents a backend must write and the model ids it must
// remove to match the store.
type Delta struct {
	Upserts []Document
	Deletes []string
	digests map[string][sha256.Size]byte
}

// Empty reports whether the backend is already up to date.
func (d Delta) Empty() bool { return len(d.Upserts) == 0 && len(d.Deletes) == 0 }

// DocumentTracker remembers the digest of every document a backend holds.
// It is not safe for concurrent use; backends guard it with their persist
// lock.
type DocumentTracker struct {
	written map[string][sha256.Size]byte
}

func NewDocumentTracker() *DocumentTracker {
	return &DocumentTracker{written: make(map[string][sha256.Size]byte)}
}

// Decode parses documents read from a backend into a snapshot and records
// them as written.
func (t *DocumentTracker) Decode(docs []Document) (Snapshot, error) {
	snapshot := Snapshot{Models: make(map[string]Model, len(docs))}
	for _, doc := range docs {
		var m Model
		if err := json.Unmarshal(doc.Data, &m); err != nil {
			return Snapshot{}, fmt.Errorf("decode model %s: %w", doc.ID, err)
		}
		m.ID = doc.ID
		snapshot.Models[doc.ID] = m
		t.written[doc.ID] = sha256.Sum256(doc.Data)
	}
	return snapshot, nil
}

// Diff compares models with the written documents. Upserts and deletes are
// ordered by id.
func (t *DocumentTracker) Diff(models map[string]Model) (Delta, error) {
	delta := Delta{digests: make(map[string][sha256.Size]byte, len(models))}
	for _, id := range slices.Sorted(maps.Keys(models)) {
		data, err := json.Marshal(models[id])
		if err != nil {
			return Delta{}, fmt.Errorf("encode model %s: %w", id, err)
		}
		sum := sha256.Sum256(data)
		delta.digests[id] = sum
		if prev, ok := t.written[id]; !ok || prev != sum {
			delta.Upserts = append(delta.Upserts, Document{ID: id, Data: data})
		}
	}
	for _, id := range slices.Sorted(maps.Keys(t.written)) {
		if _, ok := models[id]; !ok {
			delta.Deletes = append(delta.Deletes, id)
		}
	}
	return delta, nil
}

// Apply marks a delta as committed by the backend.
func (t *DocumentTracker) Apply(d Delta) {
	t.written = d.digests
}
