package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	konghcl "github.com/alecthomas/kong-hcl/v2"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/colload/conf"
	"github.com/squareup/colload/errors"
	clog "github.com/squareup/colload/log"
	"github.com/squareup/colload/metrics"
	"github.com/squareup/colload/metrics/prometheus"
	"github.com/squareup/colload/store"
)

type arguments struct {
	Config         kong.ConfigFlag `help:"Path to config file" type:"existingfile"`
	DataDir        string          `help:"Directory the store keeps its data in" default:"colload-data"`
	ChunkCapacity  int             `help:"Rows buffered by an appender before it flushes" default:"2048"`
	NoSync         bool            `help:"Do not sync writes to disk"`
	MetricsEnabled bool            `help:"Serve prometheus metrics while the command runs"`
	MetricsAddr    string          `help:"Address to serve metrics on" default:"localhost:2112"`
	Log            clog.Config     `help:"Configuration for the logger" embed:"" prefix:"log-"`

	Exec   ExecCommand   `cmd:"" help:"Execute CREATE TABLE and DROP TABLE statements"`
	Load   LoadCommand   `cmd:"" help:"Append the JSON rows of a file to a table"`
	Scan   ScanCommand   `cmd:"" help:"Print the rows of a table"`
	Export ExportCommand `cmd:"" help:"Write the rows of a table to an Arrow IPC file"`
	Tables TablesCommand `cmd:"" help:"List tables"`
	Shell  ShellCommand  `cmd:"" help:"Start an interactive shell"`
}

func (a *arguments) conf() conf.Config {
	return conf.Config{
		DataDir:        a.DataDir,
		ChunkCapacity:  a.ChunkCapacity,
		SyncWrites:     !a.NoSync,
		MetricsEnabled: a.MetricsEnabled,
		MetricsAddr:    a.MetricsAddr,
	}
}

// env is what every command runs against.
type env struct {
	cfg     conf.Config
	store   *store.Store
	metrics metrics.Factory
	out     io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	cli := arguments{}
	parser, err := kong.New(&cli, kong.Name("colload"), kong.Configuration(konghcl.Loader), kong.Writers(out, out))
	if err != nil {
		return errors.WithStack(err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := cli.Log.Configure(); err != nil {
		return err
	}
	cfg := cli.conf()
	if err := cfg.Validate(); err != nil {
		return err
	}
	factory := prometheus.NewFactory(cfg)
	if err := factory.Start(); err != nil {
		return err
	}
	defer func() {
		if err := factory.Stop(); err != nil {
			log.Warnf("failed to stop metrics server %v", err)
		}
	}()
	s, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warnf("failed to close store %v", err)
		}
	}()
	return ctx.Run(&env{cfg: cfg, store: s, metrics: factory, out: out})
}
