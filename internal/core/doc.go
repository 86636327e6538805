// Package core holds the range table domain: loading the spreadsheet,
// looking rows up by key, projecting rows for display and recording
// selections.
//
// It knows nothing about HTTP. The web handlers and the rangectl command
// both drive it through [Service].
//
// # Loading
//
// A [Loader] reads the bundled table once, from an .xlsx workbook or from
// delimited text. The format is sniffed from the first bytes unless forced:
//
//	loader := core.NewLoader(core.LoaderOptions{Format: core.FormatAuto}, m)
//	svc := core.NewService(loader, core.FileOpener("HE860.xlsx"), sink, m)
//	res := svc.Preload()
//
// Every cell is trimmed and blank rows are dropped. A failed load never
// panics: the service answers with an empty table and [LoadResult] carries
// the error for health reporting.
//
// # Lookup and Projection
//
// The first cell of a row is its range key. [FindByKey] and [Index] return
// the first row in table order for a key, so duplicate keys resolve to their
// first occurrence. [Project] maps cells 1..8 onto the fixed [Labels]; a miss
// projects blank values.
//
// # Recording
//
// [Recorder.RecordSelection] pushes a [SelectionEvent] with the last known
// location to a [Sink]. It needs granted location permission and a valid
// fix; otherwise it requests permission or skips the event. Recording never
// affects what is displayed.
//
// # Error Handling
//
// Technical errors are mapped to coded messages with [MapError]. The codes
// are listed in error_messages.go.
package core
