package store

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"docstore/internal/globalconst"
	"docstore/internal/query"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is one stored record: a field map plus the store-assigned
// identifier under the "_id" field.
type Document = map[string]any

// Collection is a named set of documents. Mutations take the write lock,
// giving single-document atomicity; reads share the read lock. Documents
// are kept in insertion order, which is the natural iteration order of
// predicate queries.
type Collection struct {
	name    string
	mu      sync.RWMutex
	docs    map[string]Document
	order   []string
	indexes *IndexManager
}

func newCollection(name string) *Collection {
	return &Collection{
		name:    name,
		docs:    make(map[string]Document),
		indexes: NewIndexManager(),
	}
}

// Store manages multiple named collections. Referencing a collection name
// lazily creates the addressable space.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// New creates an empty Store.
func New() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// Collection retrieves an existing collection by name, or creates a new one.
func (s *Store) Collection(name string) *Collection {
	s.mu.RLock()
	col, found := s.collections[name]
	s.mu.RUnlock()
	if found {
		return col
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check in case another goroutine created it while we waited for the lock.
	col, found = s.collections[name]
	if found {
		return col
	}

	col = newCollection(name)
	s.collections[name] = col
	slog.Info("Collection created", "name", name)
	return col
}

// CollectionExists checks if a collection with the given name exists.
func (s *Store) CollectionExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.collections[name]
	return exists
}

// ListCollections returns the names of all active collections.
func (s *Store) ListCollections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	return names
}

// InsertOne stores a new document and returns its generated identifier.
// The caller's map is not retained; the stored copy carries the identifier.
func (s *Store) InsertOne(collection string, data Document) (string, error) {
	doc, err := cloneDocument(data)
	if err != nil {
		return "", fmt.Errorf("insert into %q: %w", collection, err)
	}

	id := uuid.NewString()
	doc[globalconst.ID] = id

	col := s.Collection(collection)
	col.mu.Lock()
	col.docs[id] = doc
	col.order = append(col.order, id)
	col.mu.Unlock()

	col.indexes.Update(id, nil, doc)
	slog.Debug("Document inserted", "collection", collection, "id", id)
	return id, nil
}

// FindOne returns a copy of the first document matching the query, or nil
// when nothing matches.
func (s *Store) FindOne(collection string, q query.Query) (Document, error) {
	cursor, err := s.Find(collection, q)
	if err != nil {
		return nil, err
	}
	doc, ok := cursor.Next()
	if !ok {
		return nil, nil
	}
	return doc, nil
}

// Find returns a cursor over all documents matching the query, in the
// collection's natural iteration order. The matching identifiers are
// snapshotted up front; documents are fetched lazily as the cursor
// advances, so each one reflects store state at visit time.
func (s *Store) Find(collection string, q query.Query) (*Cursor, error) {
	col := s.Collection(collection)

	if q.ByID {
		id := q.TargetID()
		col.mu.RLock()
		_, exists := col.docs[id]
		col.mu.RUnlock()
		if !exists {
			return &Cursor{col: col}, nil
		}
		return &Cursor{col: col, ids: []string{id}}, nil
	}

	candidates := col.candidateIDs(q.Filter)

	col.mu.RLock()
	defer col.mu.RUnlock()
	var ids []string
	for _, id := range col.order {
		if candidates != nil {
			if _, ok := candidates[id]; !ok {
				continue
			}
		}
		if Matches(col.docs[id], q.Filter) {
			ids = append(ids, id)
		}
	}
	return &Cursor{col: col, ids: ids}, nil
}

// candidateIDs consults the secondary indexes for a narrowing equality
// clause. A nil return means no index applied and every document is a
// candidate.
func (c *Collection) candidateIDs(filter map[string]any) map[string]struct{} {
	for field, cond := range filter {
		var value any
		if ops, ok := operatorMap(cond); ok {
			eq, hasEq := ops[globalconst.OpEq]
			if !hasEq {
				continue
			}
			value = eq
		} else {
			value = cond
		}
		if ids, ok := c.indexes.Lookup(field, value); ok {
			slog.Debug("Query narrowed by index", "collection", c.name, "field", field, "candidates", len(ids))
			return ids
		}
	}
	return nil
}

// DeleteOne removes the document with the given identifier. Deleting a
// missing document is not an error.
func (s *Store) DeleteOne(collection, id string) error {
	col := s.Collection(collection)

	col.mu.Lock()
	doc, exists := col.docs[id]
	if exists {
		delete(col.docs, id)
		for i, ordered := range col.order {
			if ordered == id {
				col.order = append(col.order[:i], col.order[i+1:]...)
				break
			}
		}
	}
	col.mu.Unlock()

	if exists {
		col.indexes.Remove(id, doc)
		slog.Debug("Document deleted", "collection", collection, "id", id)
	}
	return nil
}

// ReplaceOne swaps the document's entire field set for the given data,
// preserving the identifier. Replacing a missing document is a no-op.
func (s *Store) ReplaceOne(collection, id string, data Document) error {
	doc, err := cloneDocument(data)
	if err != nil {
		return fmt.Errorf("replace in %q: %w", collection, err)
	}
	doc[globalconst.ID] = id

	col := s.Collection(collection)
	col.mu.Lock()
	old, exists := col.docs[id]
	if exists {
		col.docs[id] = doc
	}
	col.mu.Unlock()

	if exists {
		col.indexes.Update(id, old, doc)
		slog.Debug("Document replaced", "collection", collection, "id", id)
	}
	return nil
}

// UpdateOne merges the given fields into the stored document, leaving
// fields absent from the update untouched. Updating a missing document is
// a no-op.
func (s *Store) UpdateOne(collection, id string, fields Document) error {
	patch, err := cloneDocument(fields)
	if err != nil {
		return fmt.Errorf("update in %q: %w", collection, err)
	}
	delete(patch, globalconst.ID)

	col := s.Collection(collection)
	col.mu.Lock()
	old, exists := col.docs[id]
	var merged Document
	if exists {
		merged = make(Document, len(old)+len(patch))
		for k, v := range old {
			merged[k] = v
		}
		for k, v := range patch {
			merged[k] = v
		}
		col.docs[id] = merged
	}
	col.mu.Unlock()

	if exists {
		col.indexes.Update(id, old, merged)
		slog.Debug("Document updated", "collection", collection, "id", id)
	}
	return nil
}

// CreateIndex creates a secondary index on a field and backfills it.
func (c *Collection) CreateIndex(field string) {
	if c.indexes.HasIndex(field) {
		slog.Debug("Index creation skipped: already exists", "field", field)
		return
	}
	c.indexes.CreateIndex(field)

	c.mu.RLock()
	defer c.mu.RUnlock()
	slog.Info("Backfilling index", "collection", c.name, "field", field)
	for id, doc := range c.docs {
		c.indexes.Update(id, nil, doc)
	}
	slog.Info("Index backfill complete", "collection", c.name, "field", field, "doc_count", len(c.docs))
}

// DeleteIndex removes a secondary index from the collection.
func (c *Collection) DeleteIndex(field string) {
	c.indexes.DeleteIndex(field)
}

// ListIndexes returns the indexed fields of the collection.
func (c *Collection) ListIndexes() []string {
	return c.indexes.ListIndexes()
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Size returns the number of documents in the collection.
func (c *Collection) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Documents returns copies of all documents in natural order, for
// persistence snapshots.
func (c *Collection) Documents() []Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	docs := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		if doc, err := cloneDocument(c.docs[id]); err == nil {
			docs = append(docs, doc)
		}
	}
	return docs
}

// LoadDocuments replaces the collection contents with the given documents,
// keeping their identifiers and order. Used when restoring a snapshot.
func (c *Collection) LoadDocuments(docs []Document) {
	c.mu.Lock()
	c.docs = make(map[string]Document, len(docs))
	c.order = make([]string, 0, len(docs))
	for _, doc := range docs {
		id, ok := doc[globalconst.ID].(string)
		if !ok || id == "" {
			id = uuid.NewString()
			doc[globalconst.ID] = id
		}
		c.docs[id] = doc
		c.order = append(c.order, id)
	}
	c.mu.Unlock()

	for _, field := range c.indexes.ListIndexes() {
		c.indexes.DeleteIndex(field)
		c.indexes.CreateIndex(field)
	}
	c.mu.RLock()
	for id, doc := range c.docs {
		c.indexes.Update(id, nil, doc)
	}
	c.mu.RUnlock()
	slog.Info("Collection loaded", "name", c.name, "doc_count", len(docs))
}

// cloneDocument deep-copies a document through the JSON codec so that
// stored state never aliases caller-held maps. Numbers normalize to
// float64, matching how documents arrive off the wire.
func cloneDocument(doc Document) (Document, error) {
	if doc == nil {
		return Document{}, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	return out, nil
}

// Cursor iterates the documents matched by a Find, fetching each one
// lazily. Documents removed between snapshot and visit are skipped.
type Cursor struct {
	col *Collection
	ids []string
	pos int
}

// Next returns a copy of the next matching document. The second return
// value is false once the cursor is exhausted.
func (c *Cursor) Next() (Document, bool) {
	for c.pos < len(c.ids) {
		id := c.ids[c.pos]
		c.pos++

		c.col.mu.RLock()
		doc, exists := c.col.docs[id]
		c.col.mu.RUnlock()
		if !exists {
			continue
		}
		copied, err := cloneDocument(doc)
		if err != nil {
			slog.Warn("Skipping uncloneable document", "collection", c.col.name, "id", id, "error", err)
			continue
		}
		return copied, true
	}
	return nil, false
}

// Remaining returns how many snapshotted identifiers the cursor has left.
func (c *Cursor) Remaining() int {
	return len(c.ids) - c.pos
}
