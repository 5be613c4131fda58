// Package templates renders the HTML pages and fragments served by the web
// package. The *_templ.go files are generated from the .templ sources.
package templates

//go:generate templ generate
