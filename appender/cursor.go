package appender

import (
	"fmt"

	"github.com/squareup/colload/chunk"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
)

type frameKind int

const (
	rowFrame frameKind = iota
	structFrame
	unionFrame
	arrayFrame
)

// frame is one open context of the cursor. The row frame is always at the bottom of the stack.
type frame struct {
	kind frameKind
	// the container vector and the slot it is being written at, unused for the row frame
	vec  *chunk.Vector
	slot int
	// next column, field or element
	pos int
	// unionFrame
	tag    int
	filled bool
	// arrayFrame: the declared length, -1 for LIST and MAP, and the first element slot in the child vector
	length int
	offset int
}

// cursor tracks where the next value of the open row goes. An empty stack means no row is open.
type cursor struct {
	ch     *chunk.Chunk
	frames []frame
}

func (c *cursor) rowOpen() bool {
	return len(c.frames) > 0
}

func (c *cursor) top() *frame {
	return &c.frames[len(c.frames)-1]
}

func (c *cursor) depth() int {
	return len(c.frames)
}

func (c *cursor) push(f frame) {
	c.frames = append(c.frames, f)
}

func (c *cursor) pop() {
	c.frames = c.frames[:len(c.frames)-1]
}

// truncate closes every context opened above depth without completing them.
func (c *cursor) truncate(depth int) {
	c.frames = c.frames[:depth]
}

func (c *cursor) reset() {
	c.frames = c.frames[:0]
}

// target returns the vector and slot the next value is written to.
func (c *cursor) target() (*chunk.Vector, int, error) {
	f := c.top()
	switch f.kind {
	case rowFrame:
		if f.pos == c.ch.ColumnCount() {
			return nil, 0, errors.NewTooManyColumnsError(c.ch.ColumnCount())
		}
		return c.ch.Column(f.pos), c.ch.RowCount(), nil
	case structFrame:
		numFields := len(f.vec.ColumnType().Children)
		if f.pos == numFields {
			return nil, 0, errors.NewTooManyFieldsError(numFields)
		}
		return f.vec.Child(f.pos), f.slot, nil
	case unionFrame:
		if f.filled {
			return nil, 0, errors.NewStateError("union member already has a value")
		}
		return f.vec.Child(f.tag), f.slot, nil
	case arrayFrame:
		if f.length == -1 {
			slot := f.offset + f.pos
			f.vec.ReserveChildCapacity(slot + 1)
			return f.vec.Child(0), slot, nil
		}
		if f.pos == f.length {
			return nil, 0, errors.NewArrayLengthMismatchError(f.length, f.pos+1)
		}
		return f.vec.Child(0), f.slot*f.length + f.pos, nil
	default:
		panic("unknown frame kind")
	}
}

// advance moves past the value just completed at the target.
func (c *cursor) advance() {
	f := c.top()
	switch f.kind {
	case unionFrame:
		f.filled = true
	case arrayFrame:
		f.pos++
		if f.length == -1 {
			f.vec.SetChildLen(f.offset + f.pos)
		}
	default:
		f.pos++
	}
}

func (c *cursor) beginStruct() error {
	vec, slot, err := c.target()
	if err != nil {
		return err
	}
	if err := checkContainer(vec.ColumnType(), "STRUCT", common.TypeStruct); err != nil {
		return err
	}
	vec.SetValid(slot)
	c.push(frame{kind: structFrame, vec: vec, slot: slot})
	return nil
}

func (c *cursor) endStruct() error {
	f := c.top()
	if f.kind != structFrame {
		return errors.NewStateError("no struct is open")
	}
	if numFields := len(f.vec.ColumnType().Children); f.pos < numFields {
		return errors.NewIncompleteFieldsError(numFields, f.pos)
	}
	c.pop()
	c.advance()
	return nil
}

func (c *cursor) beginUnion(tag string) error {
	vec, slot, err := c.target()
	if err != nil {
		return err
	}
	colType := vec.ColumnType()
	if err := checkContainer(colType, "UNION", common.TypeUnion); err != nil {
		return err
	}
	index := colType.ChildIndex(tag)
	if index == -1 {
		return errors.NewUnknownUnionTagError(tag, colType.ChildNames())
	}
	vec.SetValid(slot)
	vec.SetUnionTag(slot, index)
	for i := range colType.Children {
		if i != index {
			vec.Child(i).WriteNull(slot)
		}
	}
	c.push(frame{kind: unionFrame, vec: vec, slot: slot, tag: index})
	return nil
}

func (c *cursor) endUnion() error {
	f := c.top()
	if f.kind != unionFrame {
		return errors.NewStateError("no union is open")
	}
	if !f.filled {
		return errors.NewStateError("union member value missing")
	}
	c.pop()
	c.advance()
	return nil
}

func (c *cursor) beginArray() error {
	vec, slot, err := c.target()
	if err != nil {
		return err
	}
	colType := vec.ColumnType()
	if err := checkContainer(colType, "ARRAY, LIST or MAP", common.TypeArray, common.TypeList, common.TypeMap); err != nil {
		return err
	}
	f := frame{kind: arrayFrame, vec: vec, slot: slot, length: -1}
	if colType.Type == common.TypeArray {
		f.length = colType.ArrayLength
		f.offset = slot * colType.ArrayLength
	} else {
		f.offset = vec.ChildLen()
	}
	vec.SetValid(slot)
	c.push(f)
	return nil
}

func (c *cursor) endArray() error {
	f := c.top()
	if f.kind != arrayFrame {
		return errors.NewStateError("no array is open")
	}
	if f.length == -1 {
		if f.vec.ColumnType().Type == common.TypeMap {
			if err := checkMapKeys(f.vec.Child(0), f.offset, f.pos); err != nil {
				return err
			}
		}
		f.vec.SetListEntry(f.slot, f.offset, f.pos)
	} else if f.pos != f.length {
		return errors.NewArrayLengthMismatchError(f.length, f.pos)
	}
	c.pop()
	c.advance()
	return nil
}

// checkMapKeys rejects null entries, null keys and keys that appear twice among the count entries at offset.
func checkMapKeys(entries *chunk.Vector, offset int, count int) error {
	keys := entries.Child(0)
	seen := make(map[string]struct{}, count)
	for i := offset; i < offset+count; i++ {
		if !entries.IsValid(i) || !keys.IsValid(i) {
			return errors.NewInvalidMapKeyError("map keys cannot be null")
		}
		k := fmt.Sprint(keys.Value(i))
		if _, ok := seen[k]; ok {
			return errors.NewInvalidMapKeyError(fmt.Sprintf("duplicate key %s", k))
		}
		seen[k] = struct{}{}
	}
	return nil
}

func checkContainer(colType common.ColumnType, expected string, types ...common.Type) error {
	for _, t := range types {
		if colType.Type == t {
			return nil
		}
	}
	return errors.NewColloadErrorf(errors.TypeMismatch, "Type mismatch: cannot open %s in column of type %s", expected,
		colType)
}
