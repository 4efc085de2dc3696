package store

import (
	"encoding/json"
	"strings"

	"github.com/google/btree"
	"github.com/squareup/colload/common"
)

const (
	// CatalogTableID is the reserved table whose rows are the JSON encoded table definitions, keyed by table ID.
	CatalogTableID = 9
	// SequenceTableID holds the next row sequence of every table and the next table ID.
	SequenceTableID = 10
	// UserTableIDBase is the first ID given to a created table.
	UserTableIDBase = 1000
)

// tableItem orders the catalog by lower-cased qualified name.
type tableItem struct {
	key  string
	info *common.TableInfo
}

func (t *tableItem) Less(than btree.Item) bool {
	return t.key < than.(*tableItem).key
}

func catalogKey(schemaName string, tableName string) string {
	return strings.ToLower(schemaName) + "." + strings.ToLower(tableName)
}

func encodeTableInfo(info *common.TableInfo) []byte {
	bytes, err := json.Marshal(info)
	if err != nil {
		// Table definitions are plain data, this cannot happen
		panic(err)
	}
	return bytes
}

func decodeTableInfo(bytes []byte) (*common.TableInfo, error) {
	info := &common.TableInfo{}
	if err := json.Unmarshal(bytes, info); err != nil {
		return nil, err
	}
	return info, nil
}

func tableKeyPrefix(tableID uint64) []byte {
	return common.AppendUint64ToBufferBE(make([]byte, 0, 16), tableID)
}

// tableKeyRange returns the bounds of every key of a table.
func tableKeyRange(tableID uint64) ([]byte, []byte) {
	start := tableKeyPrefix(tableID)
	return start, common.IncrementBytesBigEndian(tableKeyPrefix(tableID))
}

func rowKey(tableID uint64, seq uint64) []byte {
	return common.AppendUint64ToBufferBE(tableKeyPrefix(tableID), seq)
}

func catalogEntryKey(tableID uint64) []byte {
	return rowKey(CatalogTableID, tableID)
}

func rowSeqKey(tableID uint64) []byte {
	return rowKey(SequenceTableID, tableID)
}

// the next table ID lives in the sequence table under the ID of the sequence table itself
func tableIDSeqKey() []byte {
	return rowKey(SequenceTableID, SequenceTableID)
}
