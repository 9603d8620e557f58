/*
Package observability provides monitoring for Swimlane boards.

It turns board lifecycle hooks and persistence faults into Prometheus metrics,
and offers a structured-logging hook for auditing every command.
*/
package observability
