// Package shutdown orders the teardown of a process that hosts connections.
//
// Handlers are registered into phases and run lowest phase first; handlers
// sharing a phase run concurrently. The standard phases match the life of a
// connection: close outbound queues so writers drain and stop, join the I/O
// goroutines, then close log output.
//
//	coord := shutdown.NewCoordinator(shutdown.DefaultConfig())
//	stop := coord.HandleSignals()
//	defer stop()
//
//	coord.Register("conn", shutdown.PhaseConnections, shutdown.CloseConnection(conn))
//	coord.Register("io", shutdown.PhaseIO, shutdown.JoinThreads(threads))
//	coord.Register("log", shutdown.PhaseLogs, shutdown.CloseLog(logFile))
//
//	if err := coord.ShutdownWithTimeout(); err != nil {
//	    // some handler failed or the timeout hit
//	}
//
// A joined goroutine that panicked is re-panicked by JoinThreads; the
// coordinator does not recover it.
package shutdown
