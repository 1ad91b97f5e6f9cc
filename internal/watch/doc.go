// Package watch accelerates mirror convergence with inotify. It watches the
// source roots of every mirror, debounces change bursts (a transcode drop or
// a season import lands as hundreds of events), and asks the scheduler for a
// targeted sync once the tree settles. Metadata churn the classifier would
// never mirror is filtered out before it can trigger a cycle.
package watch
