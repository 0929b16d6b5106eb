package simulator

import (
	"fmt"
	"strings"
)

// DetectDeadlock derives a wait-for graph from the current thread and lock
// state and returns the threads forming a cycle, or an empty slice when no
// deadlock exists.
//
// The graph is restricted to BLOCKED threads: each one's awaited lock is
// mapped to whichever thread currently holds that lock (first holder found;
// ambiguous only if the lock bookkeeping invariants are broken). Detection
// recomputes the whole graph on every call, which is fine at the handful of
// threads this simulation runs.
func DetectDeadlock(threads []*Thread, locks []*Lock) []*Thread {
	// Map each contended lock name to a current holder.
	lockHolder := make(map[string]*Thread)
	for _, t := range threads {
		if t.State() != ThreadBlocked {
			continue
		}
		awaited := t.AwaitedLock()
		if awaited == "" {
			continue
		}
		for _, holder := range threads {
			if holder.HoldsLock(awaited) {
				lockHolder[awaited] = holder
				break
			}
		}
	}

	visited := make(map[*Thread]bool)
	onPath := make(map[*Thread]bool)

	for _, t := range threads {
		if t.State() != ThreadBlocked {
			continue
		}
		var cycle []*Thread
		if hasCycle(t, lockHolder, visited, onPath, &cycle) {
			return cycle
		}
	}
	return nil
}

// hasCycle is a DFS over the wait-for graph. Revisiting a thread on the
// current path closes a cycle: the cycle slice collects that thread first,
// then each ancestor as the recursion unwinds. An already fully-processed
// thread short-circuits with no cycle.
func hasCycle(t *Thread, lockHolder map[string]*Thread, visited, onPath map[*Thread]bool, cycle *[]*Thread) bool {
	if onPath[t] {
		*cycle = append(*cycle, t)
		return true
	}
	if visited[t] {
		return false
	}

	visited[t] = true
	onPath[t] = true

	if awaited := t.AwaitedLock(); awaited != "" {
		if holder, ok := lockHolder[awaited]; ok {
			if hasCycle(holder, lockHolder, visited, onPath, cycle) {
				// The repeat thread opened the cycle slice; don't list it twice.
				if (*cycle)[0] != t {
					*cycle = append(*cycle, t)
				}
				return true
			}
		}
	}

	delete(onPath, t)
	return false
}

// VisualizeWaitGraph renders the resource allocation state as text: each
// thread with its held locks and the lock it awaits. Diagnostic output for
// drivers; the engine never parses it.
func VisualizeWaitGraph(threads []*Thread, locks []*Lock) string {
	var sb strings.Builder
	sb.WriteString("Resource Allocation Graph:\n")
	sb.WriteString("========================\n\n")

	for _, t := range threads {
		fmt.Fprintf(&sb, "%s (%s)\n", t.Name(), t.State())
		if held := t.HeldLocks(); len(held) > 0 {
			fmt.Fprintf(&sb, "  Holds: %s\n", strings.Join(held, ", "))
		}
		if awaited := t.AwaitedLock(); awaited != "" {
			fmt.Fprintf(&sb, "  Waiting for: %s\n", awaited)
		}
		sb.WriteString("\n")
	}

	for _, l := range locks {
		fmt.Fprintf(&sb, "%s\n", l)
	}
	return sb.String()
}
