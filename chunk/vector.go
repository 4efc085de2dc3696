package chunk

import (
	"github.com/squareup/colload/common"
)

// Vector is the column-major buffer of one column, or of one nested child of a column. Fixed-width kinds keep
// their little-endian values in data, width bytes per slot. VARCHAR and BLOB slots hold an (offset, length) pair
// pointing into heap. LIST and MAP slots hold an (offset, length) pair pointing into the single child vector, which
// grows on demand. STRUCT, UNION and ARRAY children are sized with the parent.
type Vector struct {
	colType  common.ColumnType
	capacity int
	width    int
	data     []byte
	validity []uint64
	heap     []byte
	children []*Vector
	// number of child slots used, LIST and MAP only
	childLen int
}

func NewVector(colType common.ColumnType, capacity int) *Vector {
	v := &Vector{
		colType:  colType,
		capacity: capacity,
		width:    colType.FixedWidth(),
	}
	v.data = make([]byte, capacity*v.width)
	v.validity = make([]uint64, validityWords(capacity))
	switch colType.Type {
	case common.TypeStruct, common.TypeUnion:
		v.children = make([]*Vector, len(colType.Children))
		for i, child := range colType.Children {
			v.children[i] = NewVector(child.ColumnType, capacity)
		}
	case common.TypeArray:
		v.children = []*Vector{NewVector(colType.ElementType(), capacity*colType.ArrayLength)}
	case common.TypeList, common.TypeMap:
		v.children = []*Vector{NewVector(colType.ElementType(), capacity)}
	}
	return v
}

func validityWords(capacity int) int {
	return (capacity + 63) / 64
}

func (v *Vector) ColumnType() common.ColumnType {
	return v.colType
}

func (v *Vector) Capacity() int {
	return v.capacity
}

// Child returns the i-th child: a STRUCT field, a UNION member, or the element vector of an ARRAY, LIST or MAP.
func (v *Vector) Child(i int) *Vector {
	return v.children[i]
}

// ChildLen is the number of used slots of the element vector of a LIST or MAP.
func (v *Vector) ChildLen() int {
	return v.childLen
}

func (v *Vector) IsValid(slot int) bool {
	return v.validity[slot>>6]&(1<<(uint(slot)&63)) != 0
}

func (v *Vector) SetValid(slot int) {
	v.validity[slot>>6] |= 1 << (uint(slot) & 63)
}

func (v *Vector) setInvalid(slot int) {
	v.validity[slot>>6] &^= 1 << (uint(slot) & 63)
}

// WriteNull marks slot invalid. The slots of nested children covered by slot are nulled as well so that a null
// container never leaves stale child values behind.
func (v *Vector) WriteNull(slot int) {
	v.setInvalid(slot)
	switch v.colType.Type {
	case common.TypeStruct:
		for _, child := range v.children {
			child.WriteNull(slot)
		}
	case common.TypeUnion:
		v.data[slot] = 0
		for _, child := range v.children {
			child.WriteNull(slot)
		}
	case common.TypeArray:
		length := v.colType.ArrayLength
		for i := 0; i < length; i++ {
			v.children[0].WriteNull(slot*length + i)
		}
	case common.TypeList, common.TypeMap:
		v.SetListEntry(slot, v.childLen, 0)
	}
}

// SetListEntry records the child range of a LIST or MAP slot.
func (v *Vector) SetListEntry(slot int, offset int, length int) {
	common.PutUint32LE(v.data, slot*8, uint32(offset))
	common.PutUint32LE(v.data, slot*8+4, uint32(length))
}

func (v *Vector) ListEntry(slot int) (offset int, length int) {
	off, _ := common.ReadUint32FromBufferLE(v.data, slot*8)
	l, _ := common.ReadUint32FromBufferLE(v.data, slot*8+4)
	return int(off), int(l)
}

// NextChildSlot claims the next free slot of the element vector of a LIST or MAP, growing it if needed.
func (v *Vector) NextChildSlot() int {
	v.ReserveChildCapacity(v.childLen + 1)
	slot := v.childLen
	v.childLen++
	return slot
}

// SetChildLen marks the first n slots of the element vector of a LIST or MAP as used. Slots must be reserved first.
func (v *Vector) SetChildLen(n int) {
	v.childLen = n
}

// ReserveChildCapacity makes sure the element vector of a LIST or MAP can hold n values, doubling its capacity
// as many times as needed.
func (v *Vector) ReserveChildCapacity(n int) {
	child := v.children[0]
	if n <= child.capacity {
		return
	}
	newCap := child.capacity
	if newCap == 0 {
		newCap = 1
	}
	for newCap < n {
		newCap *= 2
	}
	child.grow(newCap)
}

func (v *Vector) grow(newCap int) {
	data := make([]byte, newCap*v.width)
	copy(data, v.data)
	v.data = data
	validity := make([]uint64, validityWords(newCap))
	copy(validity, v.validity)
	v.validity = validity
	switch v.colType.Type {
	case common.TypeStruct, common.TypeUnion:
		for _, child := range v.children {
			child.grow(newCap)
		}
	case common.TypeArray:
		v.children[0].grow(newCap * v.colType.ArrayLength)
	}
	v.capacity = newCap
}

func (v *Vector) SetUnionTag(slot int, tag int) {
	v.data[slot] = byte(tag)
}

func (v *Vector) UnionTag(slot int) int {
	return int(v.data[slot])
}

// Reset makes every slot invalid and forgets heap and child contents, keeping the allocated memory.
func (v *Vector) Reset() {
	for i := range v.validity {
		v.validity[i] = 0
	}
	v.heap = v.heap[:0]
	v.childLen = 0
	for _, child := range v.children {
		child.Reset()
	}
}

func (v *Vector) slotBytes(slot int) []byte {
	return v.data[slot*v.width : (slot+1)*v.width]
}
