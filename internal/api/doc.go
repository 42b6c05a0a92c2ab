// Package api exposes the HTTP interface used by the browser extension:
// letter generation, résumé library management, language detection and
// posting acquisition.
package api
