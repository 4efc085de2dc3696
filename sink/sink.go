package sink

import (
	"github.com/squareup/colload/chunk"
	"github.com/squareup/colload/common"
)

// Sink is the destination of an appender. It resolves the column layout of a table and ingests whole chunks.
type Sink interface {
	// ResolveSchema returns the columns of the table, failing with a SchemaError when it does not exist. An empty
	// schema name means the default schema.
	ResolveSchema(schemaName string, tableName string) (*common.TableInfo, error)

	// IngestChunk stores every row of ch in the table described by info and returns the number of rows stored.
	// Ingestion of a chunk is all or nothing.
	IngestChunk(info *common.TableInfo, ch *chunk.Chunk) (int, error)
}

// DefaultProvider is implemented by sinks that know the declared default values of columns.
type DefaultProvider interface {
	// ColumnDefault returns the default value of the column at colIndex, or false when it declares none.
	ColumnDefault(info *common.TableInfo, colIndex int) (interface{}, bool, error)
}
