package rpc

import "net/http/pprof"

// profiles served by name under the pprof prefix.
var profiles = []string{"goroutine", "heap", "allocs", "block", "mutex", "threadcreate"}

// ServePprof mounts the runtime profiling endpoints under prefix (default
// "/debug/pprof"). They bypass the route table and are not part of the
// contract.
func (r *Router) ServePprof(prefix string) {
	if prefix == "" {
		prefix = "/debug/pprof"
	}

	r.mux.HandleFunc("GET "+prefix+"/", pprof.Index)
	r.mux.HandleFunc("GET "+prefix+"/cmdline", pprof.Cmdline)
	r.mux.HandleFunc("GET "+prefix+"/profile", pprof.Profile)
	r.mux.HandleFunc("GET "+prefix+"/symbol", pprof.Symbol)
	r.mux.HandleFunc("GET "+prefix+"/trace", pprof.Trace)
	for _, name := range profiles {
		r.mux.Handle("GET "+prefix+"/"+name, pprof.Handler(name))
	}
	r.logger.Debug("pprof mounted", "prefix", prefix)
}

