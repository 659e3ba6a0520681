// Package arc provides Handle, an atomically reference counted owner of a
// shared, read-only value.
//
// A Handle is created once with New (or NewWithDrop), duplicated with Clone
// and given back with Release. Every live handle owns exactly one unit of the
// count; the release that brings the count to zero runs the value's drop hook,
// exactly once, after synchronizing with every earlier release.
//
// A handle that becomes unreachable without being released is released by a
// runtime cleanup and reported to the Observer as a leak. Release is the
// deterministic path; the cleanup only closes the gap.
//
// Count overflow, double release and use after release are not errors: they
// terminate the process through the fatal handler (see SetFatalHandler).
package arc
