// Package pipeline provides a framework for executing crawl steps in
// sequence.
//
// The pipeline pattern is used to move one run through its stages: index
// acquisition, filing filtering, and exhibit collection. Each stage is
// implemented as a Step that receives the accumulated report and appends
// its own results.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running crawls
// 4. Steps communicate only through the report, keeping stage coupling low
//
// The collection stage fans filing pages out to a bounded worker pool using
// errgroup, one whole page per worker.
package pipeline
