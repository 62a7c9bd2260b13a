// Package proc is a low-level package that snapshots and searches the
// memory of a running process.
//
// proc implements all core functionality including:
// * capturing the committed, read-write regions of a target address space
// * narrowing a set of candidate addresses over repeated scan rounds
// * observing the value stored at a single address
//
// Platform specific access to a target lives in pkg/proc/native, proc only
// depends on the Process and MemoryReader interfaces.
package proc
