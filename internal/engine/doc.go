// Package engine runs single prompt rows against model providers and
// projects their cost before a batch starts.
//
// The Executor fills a row's prompt template, checks that the provider has
// a credential, calls the gateway, prices the call from actual token usage,
// and classifies failures. It never returns an error: every outcome is a
// terminal Result. The Estimator is a pure input-only projection used
// before dispatching a batch.
package engine
