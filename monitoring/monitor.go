// Package monitoring serves the state of running engine models over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/idma/mem/idma"
	"github.com/sarchlab/idma/regs"
	"github.com/sarchlab/idma/sim/idgen"
	"github.com/sarchlab/idma/sim/timing"
)

// A Model is an engine whose registers and counters can be inspected.
type Model interface {
	Name() string
	SnapshotState() idma.State
	Stats(stream int) idma.QueueStats
}

// Monitor turns a run into a server that reports the engines' registers,
// counters and the progress of the checks.
type Monitor struct {
	timeTeller  timing.TimeTeller
	models      []Model
	portNumber  int
	openBrowser bool
	ids         idgen.Generator

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{ids: idgen.New()}
}

// WithPortNumber sets the port of the server. Ports below 1000 are
// replaced by a port the system picks.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		if portNumber != 0 {
			fmt.Fprintf(os.Stderr,
				"monitor: port %d is reserved, picking a free one\n", portNumber)
		}

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in a web browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterTimeTeller sets where the monitor reads the current cycle.
func (m *Monitor) RegisterTimeTeller(t timing.TimeTeller) {
	m.timeTeller = t
}

// RegisterModel registers an engine to be monitored.
func (m *Monitor) RegisterModel(model Model) {
	m.models = append(m.models, model)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		id:    m.ids.Generate().String(),
		name:  name,
		start: time.Now(),
		total: total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router serving the monitor API.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/stats/{name}", m.listStats)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = fmt.Sprintf(":%d", m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Handler())
		dieOnErr(err)
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url + "/api/list_components"); err != nil {
			fmt.Fprintf(os.Stderr, "cannot open browser: %v\n", err)
		}
	}

	return url
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	var now timing.VTimeInCycle
	if m.timeTeller != nil {
		now = m.timeTeller.CurrentTime()
	}

	fmt.Fprintf(w, "{\"now\":%d}", now)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.models))
	for _, c := range m.models {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	model := m.findModelOr404(w, mux.Vars(r)["name"])
	if model == nil {
		return
	}

	state := viewOf(model.SnapshotState())

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&state)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

// stateView is the register state as goseth walks it. The serializer does
// not handle arrays, so the per-stream counters are slices.
type stateView struct {
	Staging idma.Staging
	Next    []uint32
	Done    []uint32
	Status  []uint32
	Pending []idma.Job
}

func viewOf(s idma.State) stateView {
	return stateView{
		Staging: s.Staging,
		Next:    s.Next[:],
		Done:    s.Done[:],
		Status:  s.Status[:],
		Pending: s.Pending,
	}
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	model := m.findModelOr404(w, req.CompName)
	if model == nil {
		return
	}

	state := viewOf(model.SnapshotState())

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&state)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

// StreamReport is the activity of one stream of a model.
type StreamReport struct {
	Stream   int    `json:"stream"`
	NextID   uint32 `json:"next_id"`
	DoneID   uint32 `json:"done_id"`
	InFlight uint32 `json:"in_flight"`

	Transfers  uint64 `json:"transfers"`
	Bytes      uint64 `json:"bytes"`
	BusyCycles uint64 `json:"busy_cycles"`
}

// StreamStats lists the counters of the streams a model has used.
func StreamStats(model Model) []StreamReport {
	state := model.SnapshotState()
	rsp := make([]StreamReport, 0)

	for s := 0; s < regs.NumStreams; s++ {
		st := model.Stats(s)
		if st.Transfers == 0 && state.Status[s] == 0 {
			continue
		}

		rsp = append(rsp, StreamReport{
			Stream:     s,
			NextID:     state.Next[s],
			DoneID:     state.Done[s],
			InFlight:   state.Status[s],
			Transfers:  st.Transfers,
			Bytes:      st.Bytes,
			BusyCycles: st.BusyCycles,
		})
	}

	return rsp
}

func (m *Monitor) listStats(w http.ResponseWriter, r *http.Request) {
	model := m.findModelOr404(w, mux.Vars(r)["name"])
	if model == nil {
		return
	}

	writeJSON(w, StreamStats(model))
}

func (m *Monitor) findModelOr404(w http.ResponseWriter, name string) Model {
	for _, c := range m.models {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
	Goroutines int     `json:"goroutines"`
}

func resourceUsage() (resourceRsp, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return resourceRsp{}, err
	}

	cpu, err := proc.CPUPercent()
	if err != nil {
		return resourceRsp{}, err
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return resourceRsp{}, err
	}

	return resourceRsp{
		CPUPercent: cpu,
		MemorySize: memInfo.RSS,
		Goroutines: runtime.NumGoroutine(),
	}, nil
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	rsp, err := resourceUsage()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, rsp)
}

// collectProfile samples the CPU for ?seconds= seconds, one by default, and
// returns the parsed profile.
func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second
	if s := r.URL.Query().Get("seconds"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid seconds", http.StatusBadRequest)
			return
		}

		duration = time.Duration(n) * time.Second
	}

	buf := &bytes.Buffer{}
	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(duration)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
