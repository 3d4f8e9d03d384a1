// Package ctx implements the cancellation-context primitive shared by every
// task in a scope tree: a cancel flag and a deadline propagated down a
// parent/child chain, plus helpers (Wait, Sleep, WithTimeout) built on top
// of cancellation observation.
//
// Ctx deliberately mirrors context.Context's Done/Err shape so it composes
// with the rest of the ecosystem, but it is a distinct type: scope code
// threads a ctx.Ctx value explicitly through every task body instead of relying on
// goroutine-local state, since Go has no supported equivalent of a
// thread-local binding installed at task entry.
package ctx
