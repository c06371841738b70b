package store

import (
	"log/slog"
	"sync"

	"github.com/google/btree"
)

const btreeDegree = 32 // Degree of the B-Tree, can be tuned for performance.

// NumericKey is the item type for the numeric B-Tree. It holds a float64
// value and the set of document identifiers carrying that value.
type NumericKey struct {
	Value float64
	IDs   map[string]struct{}
}

// StringKey is the item type for the string B-Tree.
type StringKey struct {
	Value string
	IDs   map[string]struct{}
}

func numericLess(a, b NumericKey) bool {
	return a.Value < b.Value
}

func stringLess(a, b StringKey) bool {
	return a.Value < b.Value
}

// Index holds two B-Trees, one per supported value type. A field whose
// values mix numbers and strings is indexed in both trees.
type Index struct {
	numericTree *btree.BTreeG[NumericKey]
	stringTree  *btree.BTreeG[StringKey]
}

// NewIndex creates a new index structure with initialized B-Trees.
func NewIndex() *Index {
	return &Index{
		numericTree: btree.NewG[NumericKey](btreeDegree, numericLess),
		stringTree:  btree.NewG[StringKey](btreeDegree, stringLess),
	}
}

// IndexManager manages all secondary indexes of a single collection.
type IndexManager struct {
	mu      sync.RWMutex
	indexes map[string]*Index // map[fieldName] -> *Index
}

// NewIndexManager creates a new index manager.
func NewIndexManager() *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*Index),
	}
}

// CreateIndex initializes a new B-Tree index for a given field.
func (im *IndexManager) CreateIndex(field string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if _, exists := im.indexes[field]; !exists {
		im.indexes[field] = NewIndex()
		slog.Info("B-Tree index created", "field", field)
	}
}

// DeleteIndex removes an index for a given field.
func (im *IndexManager) DeleteIndex(field string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if _, exists := im.indexes[field]; exists {
		delete(im.indexes, field)
		slog.Info("Index deleted", "field", field)
	}
}

// ListIndexes returns the names of all indexed fields.
func (im *IndexManager) ListIndexes() []string {
	im.mu.RLock()
	defer im.mu.RUnlock()
	fields := make([]string, 0, len(im.indexes))
	for field := range im.indexes {
		fields = append(fields, field)
	}
	return fields
}

// HasIndex checks if an index exists for a given field.
func (im *IndexManager) HasIndex(field string) bool {
	im.mu.RLock()
	defer im.mu.RUnlock()
	_, exists := im.indexes[field]
	return exists
}

func (im *IndexManager) addToIndex(index *Index, docID string, value any) {
	if fVal, ok := toFloat64(value); ok {
		key := NumericKey{Value: fVal}
		item, found := index.numericTree.Get(key)
		if !found {
			item = NumericKey{Value: fVal, IDs: make(map[string]struct{})}
		}
		item.IDs[docID] = struct{}{}
		index.numericTree.ReplaceOrInsert(item)
	} else if sVal, ok := value.(string); ok {
		key := StringKey{Value: sVal}
		item, found := index.stringTree.Get(key)
		if !found {
			item = StringKey{Value: sVal, IDs: make(map[string]struct{})}
		}
		item.IDs[docID] = struct{}{}
		index.stringTree.ReplaceOrInsert(item)
	}
}

func (im *IndexManager) removeFromIndex(index *Index, docID string, value any) {
	if fVal, ok := toFloat64(value); ok {
		key := NumericKey{Value: fVal}
		if item, found := index.numericTree.Get(key); found {
			delete(item.IDs, docID)
			if len(item.IDs) == 0 {
				index.numericTree.Delete(item)
			} else {
				index.numericTree.ReplaceOrInsert(item)
			}
		}
	} else if sVal, ok := value.(string); ok {
		key := StringKey{Value: sVal}
		if item, found := index.stringTree.Get(key); found {
			delete(item.IDs, docID)
			if len(item.IDs) == 0 {
				index.stringTree.Delete(item)
			} else {
				index.stringTree.ReplaceOrInsert(item)
			}
		}
	}
}

// Update reindexes a document whose field values may have changed.
// Either oldData or newData may be nil (insert and delete respectively).
func (im *IndexManager) Update(docID string, oldData, newData map[string]any) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if len(im.indexes) == 0 {
		return
	}

	for field, index := range im.indexes {
		var oldVal, newVal any
		var oldOk, newOk bool
		if oldData != nil {
			oldVal, oldOk = oldData[field]
		}
		if newData != nil {
			newVal, newOk = newData[field]
		}

		if oldOk && newOk && equal(oldVal, newVal) {
			continue // No change in the indexed field.
		}

		if oldOk {
			im.removeFromIndex(index, docID, oldVal)
		}
		if newOk {
			im.addToIndex(index, docID, newVal)
		}
	}
}

// Remove removes a document from all indexes.
func (im *IndexManager) Remove(docID string, data map[string]any) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if data == nil || len(im.indexes) == 0 {
		return
	}
	for field, index := range im.indexes {
		if val, ok := data[field]; ok {
			im.removeFromIndex(index, docID, val)
		}
	}
}

// Lookup performs an equality lookup on an index. The second return value
// reports whether an index exists for the field at all.
func (im *IndexManager) Lookup(field string, value any) (map[string]struct{}, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	index, exists := im.indexes[field]
	if !exists {
		return nil, false
	}

	var found map[string]struct{}
	if fVal, ok := toFloat64(value); ok {
		if item, ok := index.numericTree.Get(NumericKey{Value: fVal}); ok {
			found = item.IDs
		}
	} else if sVal, ok := value.(string); ok {
		if item, ok := index.stringTree.Get(StringKey{Value: sVal}); ok {
			found = item.IDs
		}
	}

	// Copy so callers never hold a reference into the live tree.
	ids := make(map[string]struct{}, len(found))
	for id := range found {
		ids[id] = struct{}{}
	}
	return ids, true
}
