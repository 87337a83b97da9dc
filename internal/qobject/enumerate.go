package qobject

import (
	"sort"

	"github.com/sorenby/quarkvm/internal/qstrtab"
)

// EnumFlags select which keys Enumerate materializes.
type EnumFlags uint8

const (
	EnumOwnOnly EnumFlags = 1 << iota
	EnumIncludeNonenumerable
	EnumIncludeInternal
	EnumArrayIndicesOnly
	EnumSortArrayIndices
)

// Enumerate materializes a snapshot of keys according to flags: traverses
// the prototype chain unless EnumOwnOnly, skips internal-prefixed keys
// unless EnumIncludeInternal, and preserves entries' insertion order
// (optionally numeric order for array indices when EnumSortArrayIndices is
// set).
func (o *Object) Enumerate(flags EnumFlags) []*qstrtab.String {
	seen := map[*qstrtab.String]bool{}
	var arrayIdxKeys []*qstrtab.String
	var rest []*qstrtab.String

	cur := o
	for depth := 0; cur != nil; depth++ {
		if depth > prototypeChainLimit {
			break
		}
		if cur.HasFlag(FlagArrayPart) {
			for i, has := range cur.arrayHas {
				if !has {
					continue
				}
				key := cur.internKeyForIndex(i)
				if key == nil || seen[key] {
					continue
				}
				seen[key] = true
				arrayIdxKeys = append(arrayIdxKeys, key)
			}
		}
		for _, e := range cur.entries {
			if e.deleted || seen[e.key] {
				continue
			}
			seen[e.key] = true
			if e.attrs&AttrEnumerable == 0 && flags&EnumIncludeNonenumerable == 0 {
				continue
			}
			if e.key.HasFlag(qstrtab.FlagInternal) && flags&EnumIncludeInternal == 0 {
				continue
			}
			if idx, ok := arrayIndex(e.key); ok {
				_ = idx
				arrayIdxKeys = append(arrayIdxKeys, e.key)
				continue
			}
			if flags&EnumArrayIndicesOnly == 0 {
				rest = append(rest, e.key)
			}
		}
		if flags&EnumOwnOnly != 0 {
			break
		}
		cur = cur.proto
	}

	if flags&EnumSortArrayIndices != 0 {
		sort.Slice(arrayIdxKeys, func(i, j int) bool {
			ni, _ := arrayIndex(arrayIdxKeys[i])
			nj, _ := arrayIndex(arrayIdxKeys[j])
			return ni < nj
		})
	}

	return append(arrayIdxKeys, rest...)
}

// internKeyForIndex interns the decimal string for an array index, used
// only when enumerating a live array-part slot.
func (o *Object) internKeyForIndex(i int) *qstrtab.String {
	if o.stringTable == nil {
		return nil
	}
	return o.stringTable.Intern(itoa(i))
}
