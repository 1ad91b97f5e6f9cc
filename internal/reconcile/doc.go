// Package reconcile converges mirror trees with their source libraries.
//
// A synchronization is three passes over the filesystem: collect qualifying
// source files (excluded directories pruned from the walk), hardlink or
// refresh each one under the target root, then prune target entries whose
// source disappeared. Hardlinks make mirrors storage-free: a file that is
// unchanged by size, mtime, or inode identity is never touched, so repeated
// syncs of a quiet library do no writes at all.
//
// Failures follow the blast radius of the path that failed. A single file
// that cannot be linked is logged and skipped; an unreadable source root
// fails that mirror; nothing here aborts other mirrors.
package reconcile
