package appender

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/colload/chunk"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/conf"
	"github.com/squareup/colload/errors"
	"github.com/squareup/colload/metrics"
	"github.com/squareup/colload/sink"
)

const (
	rowsAppendedMetric  = "colload_rows_appended_total"
	chunksFlushedMetric = "colload_chunks_flushed_total"
	flushFailuresMetric = "colload_flush_failures_total"
)

type options struct {
	chunkCapacity  int
	metricsFactory metrics.Factory
}

type Option func(*options)

// WithChunkCapacity sets the number of rows buffered before the appender flushes to the sink.
func WithChunkCapacity(capacity int) Option {
	return func(o *options) {
		o.chunkCapacity = capacity
	}
}

// WithConfig takes the chunk capacity from the configuration.
func WithConfig(cfg conf.Config) Option {
	return WithChunkCapacity(cfg.ChunkCapacity)
}

func WithMetricsFactory(factory metrics.Factory) Option {
	return func(o *options) {
		o.metricsFactory = factory
	}
}

// Appender loads rows into one table of a sink. Values are supplied field by field in column order, nested values
// are bracketed with the Begin and End methods. Completed rows are buffered in a chunk which is handed to the sink
// when it is full, on Flush and on Close.
//
// An Appender must not be used from more than one goroutine at a time.
type Appender struct {
	sink     sink.Sink
	info     *common.TableInfo
	chunk    *chunk.Chunk
	cursor   cursor
	failure  error
	closed   bool
	released bool

	rowsAppended  metrics.Counter
	chunksFlushed metrics.Counter
	flushFailures metrics.Counter
}

// New resolves the table from the sink and returns an appender for it. An empty schema name means the default
// schema.
func New(snk sink.Sink, schemaName string, tableName string, opts ...Option) (*Appender, error) {
	o := options{
		chunkCapacity:  conf.DefaultChunkCapacity,
		metricsFactory: metrics.NoopFactory{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkCapacity < 1 || o.chunkCapacity > conf.MaxChunkCapacity {
		return nil, errors.NewInvalidConfigurationError(
			fmt.Sprintf("chunk capacity must be between 1 and %d", conf.MaxChunkCapacity))
	}
	info, err := snk.ResolveSchema(schemaName, tableName)
	if err != nil {
		return nil, err
	}
	a := &Appender{
		sink:  snk,
		info:  info,
		chunk: chunk.NewChunk(info.ColumnTypes, o.chunkCapacity),
	}
	a.cursor.ch = a.chunk
	if a.rowsAppended, err = o.metricsFactory.CreateCounter(rowsAppendedMetric, "Rows appended"); err != nil {
		return nil, err
	}
	if a.chunksFlushed, err = o.metricsFactory.CreateCounter(chunksFlushedMetric, "Chunks flushed to the sink"); err != nil {
		return nil, err
	}
	if a.flushFailures, err = o.metricsFactory.CreateCounter(flushFailuresMetric, "Chunks rejected by the sink"); err != nil {
		return nil, err
	}
	log.Debugf("created appender for %s with chunk capacity %d", info, o.chunkCapacity)
	return a, nil
}

// TableInfo returns the table the appender was resolved against.
func (a *Appender) TableInfo() *common.TableInfo {
	return a.info
}

// PendingRows is the number of completed rows not yet flushed.
func (a *Appender) PendingRows() int {
	if a.released {
		return 0
	}
	return a.chunk.RowCount()
}

func (a *Appender) checkUsable() error {
	if a.closed {
		return errors.NewClosedError()
	}
	if a.failure != nil {
		return errors.NewStateError("appender failed on a previous flush").WithCause(a.failure)
	}
	return nil
}

func (a *Appender) checkRowOpen() error {
	if err := a.checkUsable(); err != nil {
		return err
	}
	if !a.cursor.rowOpen() {
		return errors.NewStateError("no row is open")
	}
	return nil
}

func (a *Appender) BeginRow() error {
	if err := a.checkUsable(); err != nil {
		return err
	}
	if a.cursor.rowOpen() {
		return errors.NewStateError("a row is already open")
	}
	a.cursor.push(frame{kind: rowFrame})
	return nil
}

// Append writes v to the next column, struct field, union member or array element. A nil v appends null.
// Container columns also accept whole values: slices for ARRAY and LIST, common.Struct or map[string]interface{}
// for STRUCT, common.Union for UNION and common.Map or a Go map for MAP.
func (a *Appender) Append(v interface{}) error {
	if v == nil {
		return a.AppendNull()
	}
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	vec, slot, err := a.cursor.target()
	if err != nil {
		return err
	}
	colType := vec.ColumnType()
	if colType.IsNested() {
		depth := a.cursor.depth()
		if err := a.appendContainer(colType, v); err != nil {
			a.cursor.truncate(depth)
			return err
		}
		return nil
	}
	if err := vec.WriteValue(slot, v); err != nil {
		return err
	}
	a.cursor.advance()
	return nil
}

// AppendNull writes null to the next target. A null container has no children.
func (a *Appender) AppendNull() error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	vec, slot, err := a.cursor.target()
	if err != nil {
		return err
	}
	vec.WriteNull(slot)
	a.cursor.advance()
	return nil
}

// AppendDefault writes the declared default of the next top-level column, or null if it declares none.
func (a *Appender) AppendDefault() error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	if a.cursor.top().kind != rowFrame {
		return errors.NewStateError("defaults can only be appended to top-level columns")
	}
	provider, ok := a.sink.(sink.DefaultProvider)
	if !ok {
		return errors.NewStateError("sink does not support column defaults")
	}
	vec, slot, err := a.cursor.target()
	if err != nil {
		return err
	}
	val, ok, err := provider.ColumnDefault(a.info, a.cursor.top().pos)
	if err != nil {
		return err
	}
	if !ok {
		vec.WriteNull(slot)
	} else if err := vec.WriteValue(slot, val); err != nil {
		return err
	}
	a.cursor.advance()
	return nil
}

func (a *Appender) BeginStruct() error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	return a.cursor.beginStruct()
}

func (a *Appender) EndStruct() error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	return a.cursor.endStruct()
}

// BeginUnion selects the member named tag. Exactly one value must follow before EndUnion.
func (a *Appender) BeginUnion(tag string) error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	return a.cursor.beginUnion(tag)
}

func (a *Appender) EndUnion() error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	return a.cursor.endUnion()
}

// BeginArray opens an ARRAY, LIST or MAP value. The elements of a MAP are key/value structs.
func (a *Appender) BeginArray() error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	return a.cursor.beginArray()
}

func (a *Appender) EndArray() error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	return a.cursor.endArray()
}

// AppendArray appends a whole ARRAY or LIST value. When nullMask is not nil it must have one entry per value, and
// the elements whose entry is true are null.
func (a *Appender) AppendArray(values []interface{}, nullMask []bool) error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	if nullMask != nil && len(nullMask) != len(values) {
		return errors.NewArrayLengthMismatchError(len(values), len(nullMask))
	}
	depth := a.cursor.depth()
	if err := a.appendElements(values, nullMask); err != nil {
		a.cursor.truncate(depth)
		return err
	}
	return nil
}

func (a *Appender) appendElements(values []interface{}, nullMask []bool) error {
	if err := a.cursor.beginArray(); err != nil {
		return err
	}
	for i, v := range values {
		if nullMask != nil && nullMask[i] {
			v = nil
		}
		if err := a.Append(v); err != nil {
			return err
		}
	}
	return a.cursor.endArray()
}

// EndRow completes the open row. When the chunk becomes full it is flushed, and a flush failure is returned.
func (a *Appender) EndRow() error {
	if err := a.checkRowOpen(); err != nil {
		return err
	}
	if a.cursor.depth() > 1 {
		return errors.NewStateError("a nested value is still open")
	}
	if pos := a.cursor.top().pos; pos < a.chunk.ColumnCount() {
		return errors.NewTooFewColumnsError(a.chunk.ColumnCount(), pos)
	}
	a.cursor.reset()
	a.chunk.CommitRow()
	a.rowsAppended.Inc()
	if a.chunk.IsFull() {
		_, err := a.flush()
		return err
	}
	return nil
}

// ResetRow discards the open row, if any.
func (a *Appender) ResetRow() error {
	if err := a.checkUsable(); err != nil {
		return err
	}
	a.cursor.reset()
	return nil
}

// AppendRow appends a complete row, one value per column.
func (a *Appender) AppendRow(values ...interface{}) error {
	if err := a.BeginRow(); err != nil {
		return err
	}
	for _, v := range values {
		if err := a.Append(v); err != nil {
			a.cursor.reset()
			return err
		}
	}
	if err := a.EndRow(); err != nil {
		if a.cursor.rowOpen() {
			a.cursor.reset()
		}
		return err
	}
	return nil
}

// Flush hands the completed rows to the sink and returns how many were ingested. It fails if a row is open. If the
// sink rejects the chunk the appender can only be closed.
func (a *Appender) Flush() (int, error) {
	if err := a.checkUsable(); err != nil {
		return 0, err
	}
	if a.cursor.rowOpen() {
		return 0, errors.NewStateError("cannot flush while a row is open")
	}
	return a.flush()
}

func (a *Appender) flush() (int, error) {
	numRows := a.chunk.RowCount()
	if numRows == 0 {
		return 0, nil
	}
	ingested, err := a.sink.IngestChunk(a.info, a.chunk)
	if err != nil {
		a.failure = errors.NewSinkError(errors.MaybeAddStack(err))
		a.flushFailures.Inc()
		log.Warnf("failed to flush %d rows to %s: %v", numRows, a.info, err)
		return 0, a.failure
	}
	a.chunk.Reset()
	a.chunksFlushed.Inc()
	log.Debugf("flushed %d rows to %s", ingested, a.info)
	return ingested, nil
}

// Close flushes the completed rows and releases the chunk. A row still open is discarded. Closing a failed appender
// does not flush again, and closing twice does nothing.
func (a *Appender) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	defer a.release()
	if a.failure != nil {
		log.Debugf("closing failed appender for %s without flushing", a.info)
		return nil
	}
	if a.cursor.rowOpen() {
		log.Warnf("discarding incomplete row on close of appender for %s", a.info)
		a.cursor.reset()
	}
	_, err := a.flush()
	return err
}

func (a *Appender) release() {
	a.chunk = nil
	a.cursor = cursor{}
	a.released = true
}
