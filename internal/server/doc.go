// Package server hosts the Fiber HTTP service and request middleware chain.
// It bootstraps Fiber, attaches recover/request-id middlewares, parses the
// /:server/:datafile route into a validated resource and hands it to the
// injected proxy handler. The shared upstream http.Client is also built here
// so transport tunings live in one place. Keep exports narrow and accept
// explicit dependencies.
package server
