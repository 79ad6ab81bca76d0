package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that provide flag defaults.
const (
	envCores         = "IDMA_CORES"
	envDemux         = "IDMA_DEMUX"
	envLatency       = "IDMA_LATENCY"
	envBytesPerCycle = "IDMA_BYTES_PER_CYCLE"
	envTraceDB       = "IDMA_TRACE_DB"
	envMonitorPort   = "IDMA_MONITOR_PORT"
)

// loadEnv reads path into the environment. Variables already set win and a
// missing file is not an error.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

type config struct {
	Cores         int
	Demux         bool
	Latency       int
	BytesPerCycle int
	InitialID     uint32
	TraceDB       string
	MonitorPort   int
	OpenBrowser   bool
	LogRegs       bool
	LogEvents     bool
}

func defaultConfig() config {
	return config{
		Cores:         envInt(envCores, 8),
		Demux:         envBool(envDemux, false),
		Latency:       envInt(envLatency, 20),
		BytesPerCycle: envInt(envBytesPerCycle, 8),
		TraceDB:       os.Getenv(envTraceDB),
		MonitorPort:   envInt(envMonitorPort, 0),
	}
}

func envInt(name string, def int) int {
	s, ok := os.LookupEnv(name)
	if !ok || s == "" {
		return def
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", name, s, err)
		return def
	}

	return v
}

func envBool(name string, def bool) bool {
	s, ok := os.LookupEnv(name)
	if !ok || s == "" {
		return def
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", name, s, err)
		return def
	}

	return v
}
