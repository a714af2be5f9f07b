package agent

import "sort"

// bulbMap is the last known state per light bulb id. Its key set is fixed at
// construction.
type bulbMap map[int]bool

func newBulbMap(ids []int) bulbMap {
	bm := make(bulbMap, len(ids))
	for _, id := range ids {
		bm[id] = false
	}
	return bm
}

func (bm bulbMap) Get(id int) (on bool, ok bool) {
	on, ok = bm[id]
	return on, ok
}

// Set only updates ids that already exist.
func (bm bulbMap) Set(id int, on bool) bool {
	if _, ok := bm[id]; !ok {
		return false
	}
	bm[id] = on
	return true
}

func (bm bulbMap) Has(id int) bool {
	_, exists := bm[id]
	return exists
}

func (bm bulbMap) IDs() []int {
	ids := make([]int, 0, len(bm))
	for id := range bm {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
