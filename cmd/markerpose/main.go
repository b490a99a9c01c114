// Command markerpose replays labelled marker recordings (or a synthetic
// walking subject) through the skeleton solver, then stores, streams and
// plots the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/markerpose/internal/mocap"
	"github.com/banshee-data/markerpose/internal/version"
)

var (
	inPath      = flag.String("in", "", "CSV marker recording to replay (frame,label,x,y,z,residual)")
	synthetic   = flag.Int("synthetic", 0, "Generate a synthetic walking subject with this many frames instead of reading -in")
	writeCSV    = flag.String("write-csv", "", "Write the replayed frames to this CSV file")
	configPath  = flag.String("config", "", "Tuning config JSON (defaults built in)")
	prefix      = flag.String("prefix", "", "Comma-separated subject marker prefixes (auto-detected when empty)")
	dbPath      = flag.String("db", "", "SQLite database to store sessions in")
	resume      = flag.String("resume", "", "Comma-separated session IDs whose bindings and proportions seed the solvers")
	storeEvery  = flag.Int("store-every", 1, "Store every Nth solved frame (0 stores none)")
	mqttBroker  = flag.String("mqtt", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	listen      = flag.String("listen", "", "Serve live skeletons over websocket at /ws on this address")
	plotsDir    = flag.String("plots", "", "Directory for joint height PNGs and proportion HTML reports")
	realtime    = flag.Bool("realtime", false, "Replay at the configured frame rate instead of as fast as possible")
	verbose     = flag.Bool("v", false, "Log role bindings and proportion milestones")
	trace       = flag.Bool("vv", false, "Also log per-frame telemetry")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	var diag, tr io.Writer
	if *verbose || *trace {
		diag = os.Stderr
	}
	if *trace {
		tr = os.Stderr
	}
	mocap.SetLogWriters(mocap.LogWriters{Ops: os.Stderr, Diag: diag, Trace: tr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := run(ctx, options{
		in:         *inPath,
		synthetic:  *synthetic,
		writeCSV:   *writeCSV,
		configPath: *configPath,
		prefixes:   splitList(*prefix),
		dbPath:     *dbPath,
		resume:     splitList(*resume),
		storeEvery: *storeEvery,
		mqttBroker: *mqttBroker,
		listen:     *listen,
		plotsDir:   *plotsDir,
		realtime:   *realtime,
	})
	if err != nil {
		log.Fatalf("markerpose: %v", err)
	}
	for _, s := range sum.Subjects {
		log.Printf("subject %q: %d frames, session %s, height %.1f cm, shoulders %.0f mm, %d missing joint-frames",
			s.Prefix, sum.Frames, orNone(s.SessionID), s.Proportions.HeightCM, s.Proportions.ShoulderWidthMM, s.Missing)
	}
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
