// Package resource provides the reference-counted ownership base shared by
// every GPU object in the RHI core, and the deferred-delete queue that
// gates the actual backend free on GPU progress (a fence value or an
// elapsed frame count) instead of releasing inline.
//
// # Thread safety
//
// Base.AddRef/Release are atomic and safe to call from any thread.
// DeferredDeleteQueue is fully thread-safe (internal mutex); concurrent
// enqueues from multiple recording threads are expected.
package resource
