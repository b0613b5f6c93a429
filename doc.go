// Package flowcore provides the execution contracts for a streaming,
// incrementally-maintained relational operator pipeline over Arrow record
// batches.
//
// A pipeline is a tree of Node values. Each node owns its upstream
// exclusively and drives it synchronously: Run calls the upstream's Run with
// a closure that receives each produced batch. There is no internal
// buffering, no background goroutines, and no suspension points within the
// core, so a blocked produce call blocks the whole pipeline.
//
// Every schema that crosses a node boundary carries a trailing boolean
// "retraction" field. A row with retraction=false asserts a fact; a row with
// retraction=true withdraws an earlier assertion with matching
// non-retraction field values. Source nodes emit only retraction=false rows;
// the groupby package is the only operator that manufactures retraction
// rows, when a previously emitted aggregate value is superseded or a group
// dies out.
//
// See the subpackages for the operators built on this contract: key (scalar
// model and group-key encoding), source (external row production),
// transform (projection and filter), aggregate and trigger (GroupBy's
// building blocks), groupby (the core streaming aggregation operator), sink
// (output collaborators), and pipeline (fluent construction).
package flowcore
