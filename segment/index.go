package segment

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/nmcp/atlas"
)

// Entry is one row of the index.
type Entry struct {
	ID             uint64
	Label          string
	Strain         string
	RegionID       int64
	Tag            string
	TagDescription string
}

// Index is the ordered, id-keyed property table.
type Index struct {
	resolver atlas.Resolver
	members  *roaring64.Bitmap
	rows     []Entry
}

// NewIndex creates an empty index that resolves region ids with resolver.
// A nil resolver tags every row as unresolved.
func NewIndex(resolver atlas.Resolver) *Index {
	return &Index{
		resolver: resolver,
		members:  roaring64.New(),
	}
}

// Append inserts a row for id, or overwrites the existing row of id in place.
// It reports whether a new row was inserted.
func (x *Index) Append(id uint64, label, strain string, regionID int64) bool {
	s := atlas.Lookup(x.resolver, regionID)
	e := Entry{
		ID:             id,
		Label:          label,
		Strain:         strain,
		RegionID:       regionID,
		Tag:            s.Acronym,
		TagDescription: s.Name,
	}

	if !x.members.Contains(id) {
		x.members.Add(id)
		x.rows = append(x.rows, e)
		return true
	}

	x.rows[x.position(id)] = e
	return false
}

// Remove drops the row of id. It reports whether a row was removed.
func (x *Index) Remove(id uint64) bool {
	if !x.members.Contains(id) {
		return false
	}

	pos := x.position(id)
	x.rows = append(x.rows[:pos], x.rows[pos+1:]...)
	x.members.Remove(id)
	return true
}

// Get returns the row of id.
func (x *Index) Get(id uint64) (Entry, bool) {
	if !x.members.Contains(id) {
		return Entry{}, false
	}
	return x.rows[x.position(id)], true
}

// Contains reports whether id has a row.
func (x *Index) Contains(id uint64) bool {
	return x.members.Contains(id)
}

// Len returns the number of rows.
func (x *Index) Len() int {
	return len(x.rows)
}

// IDs returns the ids in row order.
func (x *Index) IDs() []uint64 {
	ids := make([]uint64, len(x.rows))
	for i, e := range x.rows {
		ids[i] = e.ID
	}
	return ids
}

// Entries returns a copy of the rows in order.
func (x *Index) Entries() []Entry {
	out := make([]Entry, len(x.rows))
	copy(out, x.rows)
	return out
}

// Members returns a copy of the id set.
func (x *Index) Members() *roaring64.Bitmap {
	return x.members.Clone()
}

// position must only be called for ids in members.
func (x *Index) position(id uint64) int {
	for i := range x.rows {
		if x.rows[i].ID == id {
			return i
		}
	}
	panic("segment: member without row")
}

func (x *Index) restore(rows []Entry) error {
	x.rows = make([]Entry, 0, len(rows))
	x.members = roaring64.New()
	for _, e := range rows {
		if x.members.Contains(e.ID) {
			return errDuplicateRow(e.ID)
		}
		x.members.Add(e.ID)
		x.rows = append(x.rows, e)
	}
	return nil
}
