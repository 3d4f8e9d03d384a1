// Package scope provides structured-concurrency primitives for Go: a Scope
// owns the tasks it spawns and cannot be left until every one of them —
// main, background, or a nested Service's — has exited, siblings are
// cancelled on the first failure, and a task can never outlive the scope
// that owns it.
package scope
