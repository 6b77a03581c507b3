// Package httpapi is the HTTP gateway of sitepulse. It owns routing, the
// tracking middleware that runs before every request, the contact and
// dashboard JSON endpoints, static asset serving, Prometheus metrics, and the
// listener lifecycle. Handlers only see the service interfaces declared here;
// all wire shapes live in types.go.
package httpapi
