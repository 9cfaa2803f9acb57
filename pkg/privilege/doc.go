// Package privilege gates the process on root. Escalate is a no-op
// when the effective UID is already 0; otherwise it re-executes the
// current invocation under sudo, replacing the process image, so the
// elevated child owns everything opened afterwards (log file included).
// A missing sudo binary or a failed exec is a privilege error.
package privilege
