package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jabolina/go-faultlog/pkg/faultlog"
	"github.com/jabolina/go-faultlog/pkg/faultlog/definition"
	"github.com/jabolina/go-faultlog/pkg/faultlog/repl"
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
	"github.com/prometheus/common/log"
	"gopkg.in/alecthomas/kingpin.v2"
)

var _ repl.Harness = (*faultlog.Cluster)(nil)

var (
	app = kingpin.New("faultsim", "Fault injectable replicated logging simulation.")

	processes       = app.Flag("processes", "Total processes, controller included.").Short('n').Default("4").Int()
	directory       = app.Flag("dir", "Directory with the client commands and the replica logs.").Default(".").String()
	sink            = app.Flag("sink", "Durable log kind.").Default(string(faultlog.FileSink)).Enum(string(faultlog.FileSink), string(faultlog.BoltSink), string(faultlog.MemorySink))
	merge           = app.Flag("merge", "Recovery merge strategy.").Default("concat").Enum("concat", "dedup", "sorted")
	speed           = app.Flag("speed", "Initial replica speed.").Default("MEDIUM").String()
	fast            = app.Flag("fast-delay", "Delay after each command at FAST.").Default("10ms").Duration()
	medium          = app.Flag("medium-delay", "Delay after each command at MEDIUM.").Default("100ms").Duration()
	slow            = app.Flag("slow-delay", "Delay after each command at SLOW.").Default("500ms").Duration()
	beaconInterval  = app.Flag("beacon-interval", "Maximum frequency of the replica liveness signal.").Default("100ms").Duration()
	transferTimeout = app.Flag("transfer-timeout", "How long a recovering replica waits for each peer, 0 waits forever.").Default("1s").Duration()
	pollInterval    = app.Flag("poll-interval", "Pause when a process has nothing to do.").Default("1ms").Duration()
	salvage         = app.Flag("salvage", "Merge the replica own durable lines on recovery.").Bool()
	transport       = app.Flag("transport", "How processes are connected.").Default(string(faultlog.MemoryTransport)).Enum(string(faultlog.MemoryTransport), string(faultlog.ReltTransport))
	reltUrl         = app.Flag("relt-url", "Broker url for the relt transport.").String()
	name            = app.Flag("name", "Simulation name, prefix of the broker exchanges.").Default("faultsim").String()
	script          = app.Arg("script", "Controller script, stdin when missing.").File()
)

func main() {
	log.AddFlags(app)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := definition.NewPrometheusLogger(log.Base())
	if err := run(logger); err != nil {
		logger.Errorf("simulation failed. %v", err)
		os.Exit(1)
	}
}

func run(logger types.Logger) error {
	mode, ok := types.ParseSpeedMode(strings.ToUpper(*speed))
	if !ok {
		return types.NewError(types.ErrInvalidConfiguration, "unknown speed %q", *speed)
	}

	conf := faultlog.DefaultConfiguration(*processes)
	conf.Name = *name
	conf.Directory = *directory
	conf.Sink = faultlog.SinkKind(*sink)
	conf.Merge = *merge
	conf.Speed = mode
	conf.Delays = map[types.SpeedMode]time.Duration{
		types.Fast:   *fast,
		types.Medium: *medium,
		types.Slow:   *slow,
	}
	conf.BeaconInterval = *beaconInterval
	conf.TransferTimeout = *transferTimeout
	conf.PollInterval = *pollInterval
	conf.Salvage = *salvage
	conf.Transport = faultlog.TransportKind(*transport)
	conf.ReltUrl = *reltUrl
	conf.Logger = logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cluster, err := faultlog.NewCluster(ctx, conf)
	if err != nil {
		return err
	}
	defer cluster.Shutdown()

	var in io.Reader = os.Stdin
	if *script != nil {
		defer (*script).Close()
		in = *script
	} else {
		fmt.Fprintln(os.Stderr, "reading directives from stdin")
	}

	// The session may be blocked reading stdin, so it is not waited
	// for when a signal arrives.
	session := repl.NewSession(cluster, os.Stdout, logger.Named("repl"))
	done := make(chan error, 1)
	go func() {
		done <- session.Run(ctx, in)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case sig := <-signals:
		logger.Infof("received %v, shutting down", sig)
		cancel()
	}

	status := cluster.Status()
	for _, id := range cluster.Topology().Replicas() {
		replica := status.Replicas[id]
		fmt.Printf("replica %d %s %s with %d entries\n", id, replica.State, replica.Speed, replica.Size)
	}
	for _, id := range cluster.Topology().ClientIDs() {
		client := status.Clients[id]
		fmt.Printf("client %d %s sent %d/%d\n", id, client.State, client.Sent, client.Total)
	}
	return nil
}
