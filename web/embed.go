package web

import "embed"

// TemplatesFS embeds the dashboard page and its HTMX partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and the client script.
//
//go:embed static/*
var StaticFS embed.FS
