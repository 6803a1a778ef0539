// Package api handles incoming HTTP requests for the task API: request
// decoding and validation, mapping service errors to status codes, and
// response formatting. It is an adapter between HTTP clients and
// service.TaskService.
package api
