// Package discovery implements inductive process discovery (the IMf
// variant) with an adaptive sweep over noise thresholds.
//
// A run recursively mines a log:
//
//  1. base cases decide trivial logs directly
//  2. cut finders search the directly-follows graph for a partition of
//     the activities under one operator
//  3. the splitter projects the log onto the cut's groups and the
//     children are mined from the resulting sub-logs
//  4. when no cut exists, fall-throughs produce a generalising node
//
// Every step is a named strategy in an ordered chain held by a State.
// Builder runs one State; Controller runs one State per threshold and
// lets a SelectionPolicy choose among their cuts at every level.
package discovery
