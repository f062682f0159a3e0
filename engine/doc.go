// Package engine wires all Stint subsystems together and provides the
// primary application-level API for registering processors and starting
// jobs.
//
// The engine package exists to break a fundamental import cycle: the
// root stint package defines Entity (imported by actor, alarm, etc.)
// and therefore cannot import those packages back. Engine sits above
// all subsystem packages and below the application layer.
//
// # Building an Engine
//
//	rt, err := stint.New(
//	    stint.WithStore(pgStore),
//	    stint.WithAcceptDelay(100*time.Millisecond),
//	)
//
//	eng, err := engine.Build(rt,
//	    engine.WithHook(myAuditHook),
//	    engine.WithGraphSource(graphs),
//	    engine.WithInterpreter(interp),
//	    engine.WithRetention("@every 1h", 7*24*time.Hour),
//	)
//
// # Registering Work
//
//	eng.Register("import", importProcessor)
//
// # Starting Jobs
//
//	err := eng.StartJob(ctx, jobID, &actor.Request{Kind: "import"}, nil)
//	report, err := eng.Status(ctx, jobID)
package engine
