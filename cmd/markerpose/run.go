package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/markerpose/internal/config"
	"github.com/banshee-data/markerpose/internal/mocap"
	"github.com/banshee-data/markerpose/internal/mocap/body"
	"github.com/banshee-data/markerpose/internal/mocap/markers"
	"github.com/banshee-data/markerpose/internal/mocap/recording"
	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
	"github.com/banshee-data/markerpose/internal/mocap/solver"
	"github.com/banshee-data/markerpose/internal/mocapdb"
	"github.com/banshee-data/markerpose/internal/publish"
	"github.com/banshee-data/markerpose/internal/report"
	"github.com/banshee-data/markerpose/internal/security"
	"github.com/banshee-data/markerpose/internal/timeutil"
)

// proportionEvery is how often body estimates are snapshotted to the
// database, in frames.
const proportionEvery = 100

type options struct {
	in         string
	synthetic  int
	writeCSV   string
	configPath string
	prefixes   []string
	dbPath     string
	resume     []string
	storeEvery int
	mqttBroker string
	listen     string
	plotsDir   string
	realtime   bool

	// clock paces -realtime replay; nil means the wall clock.
	clock timeutil.Clock
	// publishers receive every frame in addition to -mqtt and -listen.
	publishers []publish.Publisher
}

type subjectSummary struct {
	Prefix      string
	SessionID   string
	Proportions body.Proportions
	Missing     int
}

type summary struct {
	Frames   int
	Subjects []subjectSummary
}

// subject is the per-prefix state of a run.
type subject struct {
	solver    *solver.Solver
	sessionID string
	saved     bool // bindings stored
	rec       *report.Recorder
	missing   int
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// solverConfig maps tuning values onto solver settings.
func solverConfig(tc *config.TuningConfig) solver.Config {
	return solver.Config{
		Prefix:             tc.GetMarkerPrefix(),
		MaxHipDisplacement: tc.GetMaxHipDisplacement(),
		ChestSmoothing:     tc.GetChestSmoothing(),
		Body: body.Config{
			MaxHeightCM:            tc.GetMaxHeightCM(),
			BMI:                    tc.GetBMI(),
			DefaultHeightCM:        tc.GetDefaultHeightCM(),
			DefaultMassKG:          tc.GetDefaultMassKG(),
			DefaultShoulderWidthMM: tc.GetDefaultShoulderWidthMM(),
		},
	}
}

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func loadFrames(o options, tc *config.TuningConfig) ([]recording.Frame, string, error) {
	switch {
	case o.in != "" && o.synthetic > 0:
		return nil, "", errors.New("-in and -synthetic are mutually exclusive")
	case o.in != "":
		frames, err := recording.ReadFile(o.in)
		return frames, o.in, err
	case o.synthetic > 0:
		cfg := recording.DefaultSynthetic(o.synthetic)
		cfg.RateHz = tc.GetFrameRateHz()
		if len(o.prefixes) > 0 {
			cfg.Prefix = o.prefixes[0]
		}
		frames, err := recording.Synthetic(cfg)
		return frames, fmt.Sprintf("synthetic:%d", o.synthetic), err
	default:
		return nil, "", errors.New("one of -in or -synthetic is required")
	}
}

// subjectPrefixes picks the subjects to solve: resumed sessions first, then
// explicit prefixes, then the configured prefix, then whatever the first
// labelled frame contains.
func subjectPrefixes(o options, tc *config.TuningConfig, frames []recording.Frame, resumed []*mocapdb.Session) []string {
	if len(resumed) > 0 {
		out := make([]string, len(resumed))
		for i, s := range resumed {
			out[i] = s.Prefix
		}
		return out
	}
	if len(o.prefixes) > 0 {
		return o.prefixes
	}
	if p := tc.GetMarkerPrefix(); p != "" {
		return []string{p}
	}
	for _, f := range frames {
		if len(f.Markers) > 0 {
			if found := markers.Prefixes(markers.Labels(f.Markers)); len(found) > 0 {
				return found
			}
			break
		}
	}
	return []string{""}
}

func run(ctx context.Context, o options) (*summary, error) {
	tc, err := loadTuning(o.configPath)
	if err != nil {
		return nil, err
	}
	frames, source, err := loadFrames(o, tc)
	if err != nil {
		return nil, err
	}
	if o.writeCSV != "" {
		if err := recording.WriteFile(o.writeCSV, frames); err != nil {
			return nil, err
		}
	}

	var db *mocapdb.DB
	if o.dbPath != "" {
		if db, err = mocapdb.Open(o.dbPath); err != nil {
			return nil, err
		}
		defer db.Close()
	}

	var resumed []*mocapdb.Session
	if len(o.resume) > 0 {
		if db == nil {
			return nil, errors.New("-resume needs -db")
		}
		for _, id := range o.resume {
			sess, err := mocapdb.NewSessionStore(db).GetSession(id)
			if err != nil {
				return nil, err
			}
			resumed = append(resumed, sess)
		}
	}

	group, err := solver.NewGroup(solverConfig(tc), subjectPrefixes(o, tc, frames, resumed))
	if err != nil {
		return nil, err
	}

	subjects := make([]*subject, len(group.Solvers()))
	for i, s := range group.Solvers() {
		subjects[i] = &subject{solver: s, rec: report.NewRecorder()}
	}
	if db != nil {
		if err := openSessions(db, subjects, resumed, source); err != nil {
			return nil, err
		}
	}

	pubs := append([]publish.Publisher(nil), o.publishers...)
	if o.mqttBroker != "" {
		client, err := publish.Dial(o.mqttBroker, "markerpose-"+filepath.Base(source), tc.GetPublishTimeout())
		if err != nil {
			return nil, err
		}
		defer client.Disconnect(250)
		pubs = append(pubs, publish.NewMQTTPublisher(client, tc.GetMQTTTopic(), tc.GetPublishTimeout()))
	}

	st := newStatus(subjects)
	if o.listen != "" {
		hub := publish.NewHub()
		pubs = append(pubs, hub)
		stopServer := serve(o.listen, hub, st)
		defer stopServer()
	}

	interval := time.Duration(0)
	if o.realtime {
		interval = tc.GetFrameInterval()
	}
	pacer := timeutil.NewPacer(o.clock, interval)
	clock := o.clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	var poses *mocapdb.PoseStore
	var props *mocapdb.ProportionStore
	if db != nil {
		poses = mocapdb.NewPoseStore(db)
		props = mocapdb.NewProportionStore(db)
	}

	solved := 0
	for _, f := range frames {
		if err := pacer.Wait(ctx); err != nil {
			mocap.Opsf("replay stopped after %d frames: %v", solved, err)
			break
		}
		results := group.Solve(f.Markers)
		now := clock.Now()
		for i, res := range results {
			sub := subjects[i]
			p := sub.solver.Proportions()
			sub.rec.Sample(f.Index, res.Skeleton, p)
			for _, id := range res.Skeleton.Order() {
				if res.Skeleton.Joint(id).Status == skeleton.StatusMissing {
					sub.missing++
				}
			}

			if db != nil {
				if err := storeFrame(db, sub, poses, props, f.Index, solved, o.storeEvery, res); err != nil {
					return nil, err
				}
			}
			if len(pubs) > 0 {
				msg := publish.NewFrameMessage(res.Prefix, f.Index, now, res.Skeleton)
				for _, pub := range pubs {
					if err := pub.Publish(msg); err != nil {
						mocap.Opsf("publish frame %d: %v", f.Index, err)
					}
				}
			}
		}
		solved++
		st.update(solved)
	}

	sum := &summary{Frames: solved}
	for _, sub := range subjects {
		p := sub.solver.Proportions()
		if props != nil && solved > 0 {
			if err := props.InsertProportions(sub.sessionID, frames[solved-1].Index, p); err != nil {
				return nil, err
			}
			if err := mocapdb.NewStateStore(db).SaveState(sub.sessionID, frames[solved-1].Index, sub.solver.State()); err != nil {
				return nil, err
			}
		}
		if o.plotsDir != "" && sub.rec.Len() > 0 {
			if err := writeReports(o.plotsDir, sub); err != nil {
				return nil, err
			}
		}
		sum.Subjects = append(sum.Subjects, subjectSummary{
			Prefix:      sub.solver.Prefix(),
			SessionID:   sub.sessionID,
			Proportions: p,
			Missing:     sub.missing,
		})
	}
	return sum, nil
}

// openSessions creates a session per subject, or reuses the resumed ones
// and seeds their solvers with the stored bindings, proportions and
// pelvis/chest history.
func openSessions(db *mocapdb.DB, subjects []*subject, resumed []*mocapdb.Session, source string) error {
	sessions := mocapdb.NewSessionStore(db)
	props := mocapdb.NewProportionStore(db)
	states := mocapdb.NewStateStore(db)
	for i, sub := range subjects {
		if i < len(resumed) {
			sub.sessionID = resumed[i].SessionID
			b, err := sessions.Bindings(sub.sessionID)
			if err != nil {
				return err
			}
			sub.solver.UseBindings(b)
			sub.saved = true
			p, err := props.LatestProportions(sub.sessionID)
			switch {
			case err == nil:
				sub.solver.RestoreProportions(p)
			case !errors.Is(err, mocapdb.ErrNotFound):
				return err
			}
			st, frame, err := states.State(sub.sessionID)
			switch {
			case err == nil:
				sub.solver.RestoreState(st)
				mocap.Diagf("session %s: solver state from frame %d", sub.sessionID, frame)
			case !errors.Is(err, mocapdb.ErrNotFound):
				return err
			}
			mocap.Diagf("resumed session %s for prefix %q", sub.sessionID, sub.solver.Prefix())
			continue
		}
		sess := &mocapdb.Session{Prefix: sub.solver.Prefix(), Source: source}
		if err := sessions.CreateSession(sess); err != nil {
			return err
		}
		sub.sessionID = sess.SessionID
		mocap.Diagf("session %s for prefix %q", sess.SessionID, sess.Prefix)
	}
	return nil
}

func storeFrame(db *mocapdb.DB, sub *subject, poses *mocapdb.PoseStore, props *mocapdb.ProportionStore,
	frame, solved, every int, res solver.Result) error {
	if !sub.saved {
		if b := sub.solver.Bindings(); b != nil {
			if err := mocapdb.NewSessionStore(db).SaveBindings(sub.sessionID, b); err != nil {
				return err
			}
			sub.saved = true
		}
	}
	if every > 0 && solved%every == 0 {
		if err := poses.InsertFrame(sub.sessionID, frame, res.Skeleton); err != nil {
			return err
		}
	}
	if solved > 0 && solved%proportionEvery == 0 {
		if err := props.InsertProportions(sub.sessionID, frame, sub.solver.Proportions()); err != nil {
			return err
		}
	}
	return nil
}

func writeReports(dir string, sub *subject) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plots dir: %w", err)
	}
	name := security.SubjectFilename(sub.solver.Prefix())
	heights := filepath.Join(dir, name+"_heights.png")
	props := filepath.Join(dir, name+"_proportions.html")
	for _, p := range []string{heights, props} {
		if err := security.WithinDir(p, dir); err != nil {
			return err
		}
	}
	if err := sub.rec.PlotJointHeights(heights, name+" joint heights"); err != nil {
		return err
	}
	return sub.rec.WriteProportionsHTML(props, sub.solver.Prefix())
}

// serve runs the viewer endpoints until the returned stop func is called.
func serve(addr string, hub *publish.Hub, st *status) func() {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/api/subjects", st.handle)

	server := &http.Server{Addr: addr, Handler: mux}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mocap.Opsf("viewer server: %v", err)
		}
	}()
	mocap.Diagf("serving viewers on %s", addr)

	return func() {
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			mocap.Opsf("viewer server shutdown: %v", err)
			server.Close()
		}
		wg.Wait()
	}
}
