package store

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/google/btree"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/colload/chunk"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/conf"
	"github.com/squareup/colload/ddl"
	"github.com/squareup/colload/errors"
	"github.com/squareup/colload/sink"
)

var (
	_ sink.Sink            = (*Store)(nil)
	_ sink.DefaultProvider = (*Store)(nil)

	syncWriteOptions   = &pebble.WriteOptions{Sync: true}
	nosyncWriteOptions = &pebble.WriteOptions{Sync: false}
)

// Store is an embedded table store on pebble. It implements sink.Sink and sink.DefaultProvider, so appenders can
// load rows into it, and scans rows back. Catalog changes and ingestion are serialized, every chunk is written in a
// single batch.
type Store struct {
	lock         sync.Mutex
	pebble       *pebble.DB
	writeOptions *pebble.WriteOptions
	tables       *btree.BTree
	nextTableID  uint64
	rowSeqs      map[uint64]uint64
	closed       bool
}

// Open opens the store in the configured data directory.
func Open(cfg conf.Config) (*Store, error) {
	if cfg.DataDir == "" {
		return nil, errors.NewInvalidConfigurationError("DataDir must be specified")
	}
	return OpenWithFS(cfg.DataDir, nil, cfg.SyncWrites)
}

// OpenWithFS opens the store in dir on the given filesystem, the OS filesystem when fs is nil.
func OpenWithFS(dir string, fs vfs.FS, syncWrites bool) (*Store, error) {
	pebbleOptions := &pebble.Options{}
	if fs != nil {
		pebbleOptions.FS = fs
	}
	peb, err := pebble.Open(dir, pebbleOptions)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s := &Store{
		pebble:       peb,
		writeOptions: nosyncWriteOptions,
		tables:       btree.New(3),
		nextTableID:  UserTableIDBase,
		rowSeqs:      make(map[uint64]uint64),
	}
	if syncWrites {
		s.writeOptions = syncWriteOptions
	}
	if err := s.loadCatalog(); err != nil {
		_ = peb.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) loadCatalog() error {
	start, end := tableKeyRange(CatalogTableID)
	pairs, err := s.scanRange(start, end, -1)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		info, err := decodeTableInfo(pair.value)
		if err != nil {
			return errors.Wrapf(err, "corrupt catalog entry %s", common.DumpRowKey(pair.key))
		}
		s.tables.ReplaceOrInsert(&tableItem{key: catalogKey(info.SchemaName, info.Name), info: info})
		seq, err := s.localGetUint64(rowSeqKey(info.ID))
		if err != nil {
			return err
		}
		s.rowSeqs[info.ID] = seq
	}
	next, err := s.localGetUint64(tableIDSeqKey())
	if err != nil {
		return err
	}
	if next > s.nextTableID {
		s.nextTableID = next
	}
	log.Debugf("loaded %d tables from catalog", len(pairs))
	return nil
}

// Exec executes a CREATE TABLE or DROP TABLE statement.
func (s *Store) Exec(sql string) error {
	ast, err := ddl.Parse(sql)
	if err != nil {
		return err
	}
	if ast.Drop != nil {
		schemaName, tableName := ast.Drop.Name.SchemaAndName()
		return s.DropTable(schemaName, tableName)
	}
	info, err := ast.Create.ToTableInfo()
	if err != nil {
		return err
	}
	return s.CreateTable(info)
}

// CreateTable adds the table to the catalog, assigning its ID.
func (s *Store) CreateTable(info *common.TableInfo) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if info.SchemaName == "" {
		info.SchemaName = ddl.DefaultSchemaName
	}
	if _, ok := s.lookup(info.SchemaName, info.Name); ok {
		return errors.NewTableAlreadyExistsError(info.SchemaName, info.Name)
	}
	if len(info.ColumnTypes) == 0 || len(info.ColumnTypes) != len(info.ColumnNames) {
		return errors.NewInvalidStatementError(fmt.Sprintf("table %s must have one name per column", info.Name))
	}
	for _, ct := range info.ColumnTypes {
		if err := ct.Validate(); err != nil {
			return errors.NewInvalidStatementError(err.Error())
		}
	}
	info.ID = s.nextTableID
	batch := s.pebble.NewBatch()
	if err := batch.Set(catalogEntryKey(info.ID), encodeTableInfo(info), nil); err != nil {
		return errors.WithStack(err)
	}
	if err := batch.Set(tableIDSeqKey(), common.AppendUint64ToBufferBE(nil, info.ID+1), nil); err != nil {
		return errors.WithStack(err)
	}
	if err := s.pebble.Apply(batch, s.writeOptions); err != nil {
		return errors.WithStack(err)
	}
	s.nextTableID++
	s.rowSeqs[info.ID] = 0
	s.tables.ReplaceOrInsert(&tableItem{key: catalogKey(info.SchemaName, info.Name), info: info})
	log.Infof("created table %s", info)
	return nil
}

// DropTable removes the table and all of its rows.
func (s *Store) DropTable(schemaName string, tableName string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	schemaName = defaultSchema(schemaName)
	info, ok := s.lookup(schemaName, tableName)
	if !ok {
		return errors.NewUnknownTableError(schemaName, tableName)
	}
	batch := s.pebble.NewBatch()
	if err := batch.Delete(catalogEntryKey(info.ID), nil); err != nil {
		return errors.WithStack(err)
	}
	if err := batch.Delete(rowSeqKey(info.ID), nil); err != nil {
		return errors.WithStack(err)
	}
	start, end := tableKeyRange(info.ID)
	if err := batch.DeleteRange(start, end, nil); err != nil {
		return errors.WithStack(err)
	}
	if err := s.pebble.Apply(batch, s.writeOptions); err != nil {
		return errors.WithStack(err)
	}
	s.tables.Delete(&tableItem{key: catalogKey(schemaName, tableName)})
	delete(s.rowSeqs, info.ID)
	log.Infof("dropped table %s", info)
	return nil
}

// ResolveSchema returns the definition of the table.
func (s *Store) ResolveSchema(schemaName string, tableName string) (*common.TableInfo, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	schemaName = defaultSchema(schemaName)
	info, ok := s.lookup(schemaName, tableName)
	if !ok {
		return nil, errors.NewSchemaError(schemaName, tableName, "table does not exist")
	}
	return info, nil
}

// ColumnDefault returns the declared DEFAULT of a column as a value the column accepts.
func (s *Store) ColumnDefault(info *common.TableInfo, colIndex int) (interface{}, bool, error) {
	if colIndex >= len(info.ColumnDefaults) || info.ColumnDefaults[colIndex] == nil {
		return nil, false, nil
	}
	val, err := common.ParseLiteral(info.ColumnTypes[colIndex], *info.ColumnDefaults[colIndex])
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// IngestChunk appends every row of ch to the table. The table must still be the one info was resolved from and no
// NOT NULL column may hold a null, otherwise nothing is written.
func (s *Store) IngestChunk(info *common.TableInfo, ch *chunk.Chunk) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	current, ok := s.lookup(info.SchemaName, info.Name)
	if !ok || current.ID != info.ID {
		return 0, errors.NewUnknownTableError(info.SchemaName, info.Name)
	}
	if ch.ColumnCount() != len(current.ColumnTypes) {
		return 0, errors.Errorf("chunk has %d columns, table %s has %d", ch.ColumnCount(), current.QualifiedName(),
			len(current.ColumnTypes))
	}
	numRows := ch.RowCount()
	for colIndex, notNull := range current.NotNullCols {
		if !notNull {
			continue
		}
		col := ch.Column(colIndex)
		for row := 0; row < numRows; row++ {
			if !col.IsValid(row) {
				return 0, errors.Errorf("null value in NOT NULL column %s of table %s", current.ColumnNames[colIndex],
					current.QualifiedName())
			}
		}
	}
	seq := s.rowSeqs[current.ID]
	batch := s.pebble.NewBatch()
	var buff []byte
	for row := 0; row < numRows; row++ {
		buff = chunk.EncodeRow(ch, row, buff[:0])
		if err := batch.Set(rowKey(current.ID, seq), buff, nil); err != nil {
			return 0, errors.WithStack(err)
		}
		seq++
	}
	if err := batch.Set(rowSeqKey(current.ID), common.AppendUint64ToBufferBE(nil, seq), nil); err != nil {
		return 0, errors.WithStack(err)
	}
	if err := s.pebble.Apply(batch, s.writeOptions); err != nil {
		return 0, errors.WithStack(err)
	}
	s.rowSeqs[current.ID] = seq
	log.Tracef("ingested %d rows into %s", numRows, current)
	return numRows, nil
}

// Scan returns up to limit rows of the table in insertion order, all rows when limit is -1.
func (s *Store) Scan(schemaName string, tableName string, limit int) ([][]interface{}, error) {
	info, err := s.ResolveSchema(schemaName, tableName)
	if err != nil {
		return nil, err
	}
	start, end := tableKeyRange(info.ID)
	pairs, err := s.scanRange(start, end, limit)
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, len(pairs))
	for i, pair := range pairs {
		rows[i], err = chunk.DecodeRow(pair.value, info.ColumnTypes)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode row %s", common.DumpRowKey(pair.key))
		}
	}
	return rows, nil
}

// RowCount returns the number of rows in the table.
func (s *Store) RowCount(schemaName string, tableName string) (int, error) {
	info, err := s.ResolveSchema(schemaName, tableName)
	if err != nil {
		return 0, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return int(s.rowSeqs[info.ID]), nil
}

// Tables lists the catalog ordered by schema and table name.
func (s *Store) Tables() []*common.TableInfo {
	s.lock.Lock()
	defer s.lock.Unlock()
	var infos []*common.TableInfo
	s.tables.Ascend(func(i btree.Item) bool {
		infos = append(infos, i.(*tableItem).info)
		return true
	})
	return infos
}

func (s *Store) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.WithStack(s.pebble.Close())
}

func (s *Store) checkOpen() error {
	if s.closed {
		return errors.New("store is closed")
	}
	return nil
}

func (s *Store) lookup(schemaName string, tableName string) (*common.TableInfo, bool) {
	item := s.tables.Get(&tableItem{key: catalogKey(schemaName, tableName)})
	if item == nil {
		return nil, false
	}
	return item.(*tableItem).info, true
}

func defaultSchema(schemaName string) string {
	if schemaName == "" {
		return ddl.DefaultSchemaName
	}
	return schemaName
}

type kvPair struct {
	key   []byte
	value []byte
}

func (s *Store) scanRange(startKeyPrefix []byte, endKeyPrefix []byte, limit int) ([]kvPair, error) {
	iter := s.pebble.NewIter(&pebble.IterOptions{LowerBound: startKeyPrefix, UpperBound: endKeyPrefix})
	var pairs []kvPair
	for valid := iter.SeekGE(startKeyPrefix); valid && (limit == -1 || len(pairs) < limit); valid = iter.Next() {
		pairs = append(pairs, kvPair{
			key:   common.CopyByteSlice(iter.Key()), // Must be copied as Pebble reuses the slices
			value: common.CopyByteSlice(iter.Value()),
		})
	}
	if err := iter.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return pairs, nil
}

func (s *Store) localGetUint64(key []byte) (uint64, error) {
	v, closer, err := s.pebble.Get(key)
	defer common.InvokeCloser(closer)
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, errors.WithStack(err)
	}
	u, _ := common.ReadUint64FromBufferBE(v, 0)
	return u, nil
}
