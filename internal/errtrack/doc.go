// Package errtrack turns error log records into events for an external
// error tracking service.
//
// Records at or above a configured level are converted by Handler into an
// Event plus a Hint describing the originating record. The Client runs the
// BeforeSend chain over every event, which may rewrite its fingerprint or
// drop it, and delivers the rest asynchronously through a Transport.
// Nothing in this package returns delivery failures to the code that
// logged: they are counted and logged on a fallback logger.
package errtrack
