// Package httputil holds the pieces shared by arteria's HTTP handlers:
// JSON responses, the mapping from [errors.Code] to status codes, and
// middleware that reports every request to the observability hooks.
//
// Errors are written as
//
//	{"code": "NOT_FOUND", "message": "run not found"}
//
// so clients can switch on the code instead of the text.
package httputil
