// Package audit aggregates everything observed during one dispatch scope into a
// single parent document.
//
// An Auditor is created once at startup with a Store and the audit settings.
// Each dispatch scope gets its own Recorder from Auditor.NewRecorder. The
// request bus adds Request, Response and ExceptionInfo children while the
// handler runs; other components may add SQL children, which are coalesced
// into the first SQL child of the parent. When the scope ends, Release
// persists the parent exactly once.
//
//	auditor := audit.New(mongoStore, audit.WithExcludedCommands("Ping"))
//	rec := auditor.NewRecorder()
//	rec.AddChild(audit.NewDocument(audit.TypeRequest, "SaveContact", cmd), ec)
//	...
//	defer rec.Release(ctx)
//
// MultiStore writes each parent to several backends, for example a
// queryable store plus an archive. MemoryStore serves tests.
//
// A disabled Auditor hands out recorders whose methods return immediately.
package audit
