package main

import (
	"log"

	prof "github.com/go-while/go-cpu-mem-profiler"
)

var Prof *prof.Profiler

// startProfiler serves pprof on addr in the background
func startProfiler(addr string) {
	Prof = prof.NewProf()
	go Prof.PprofWeb(addr)
	log.Printf("[WEB]: pprof listening on %s", addr)
}
