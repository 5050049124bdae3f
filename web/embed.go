// Package web embeds the dashboard page and its static assets.
package web

import "embed"

// TemplatesFS embeds the HTML templates rendered by the server.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and script.
//
//go:embed static/*
var StaticFS embed.FS
