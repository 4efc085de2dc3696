package chunk

import (
	"github.com/squareup/colload/common"
)

// Chunk is a fixed capacity batch of rows held column-major, one Vector per top-level column.
type Chunk struct {
	columnTypes []common.ColumnType
	columns     []*Vector
	capacity    int
	rowCount    int
}

func NewChunk(columnTypes []common.ColumnType, capacity int) *Chunk {
	columns := make([]*Vector, len(columnTypes))
	for i, colType := range columnTypes {
		columns[i] = NewVector(colType, capacity)
	}
	return &Chunk{
		columnTypes: columnTypes,
		columns:     columns,
		capacity:    capacity,
	}
}

func (c *Chunk) ColumnTypes() []common.ColumnType {
	return c.columnTypes
}

func (c *Chunk) ColumnCount() int {
	return len(c.columns)
}

func (c *Chunk) Column(colIndex int) *Vector {
	return c.columns[colIndex]
}

func (c *Chunk) Capacity() int {
	return c.capacity
}

func (c *Chunk) RowCount() int {
	return c.rowCount
}

func (c *Chunk) IsFull() bool {
	return c.rowCount == c.capacity
}

// CommitRow makes the values written at slot RowCount() part of the chunk.
func (c *Chunk) CommitRow() {
	if c.rowCount == c.capacity {
		panic("chunk is full")
	}
	c.rowCount++
}

// Reset empties the chunk, keeping its vectors allocated.
func (c *Chunk) Reset() {
	for _, col := range c.columns {
		col.Reset()
	}
	c.rowCount = 0
}

// Row reads the committed row at rowIndex back as Go values.
func (c *Chunk) Row(rowIndex int) []interface{} {
	row := make([]interface{}, len(c.columns))
	for i, col := range c.columns {
		row[i] = col.Value(rowIndex)
	}
	return row
}

func (c *Chunk) Rows() [][]interface{} {
	rows := make([][]interface{}, c.rowCount)
	for i := 0; i < c.rowCount; i++ {
		rows[i] = c.Row(i)
	}
	return rows
}
