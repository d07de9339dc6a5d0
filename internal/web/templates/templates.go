// Package templates renders the HTML views of the migration server.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// AdapterView is one adapter row on the index page.
type AdapterView struct {
	Key         string
	Label       string
	Description string
	Modes       []string
}

// AdapterGroup is a titled list of adapters.
type AdapterGroup struct {
	Name     string
	Adapters []AdapterView
}

// ResultView is the fragment rendered after an HTMX migration.
type ResultView struct {
	RunID       string
	AdapterKey  string
	Mode        string
	Records     int
	Success     int
	Skipped     int
	Errors      int
	Warnings    []string
	ReportFiles map[string]string // kind -> URL
}

var esc = templ.EscapeString

// Index lists every adapter with its template download and a migration form.
func Index(groups []AdapterGroup) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<title>CSV Migration</title></head><body><main>`)
		b.WriteString(`<h1>CSV Migration</h1>`)

		if len(groups) == 0 {
			b.WriteString(`<p>No adapters registered.</p>`)
		}
		for _, g := range groups {
			fmt.Fprintf(&b, `<section><h2>%s</h2><ul>`, esc(g.Name))
			for _, a := range g.Adapters {
				fmt.Fprintf(&b, `<li id="adapter-%s"><strong>%s</strong>`, esc(a.Key), esc(a.Label))
				if a.Description != "" {
					fmt.Fprintf(&b, ` <span>%s</span>`, esc(a.Description))
				}
				fmt.Fprintf(&b, ` <a href="/api/template/%s">template</a>`, esc(a.Key))
				fmt.Fprintf(&b, `<form method="post" enctype="multipart/form-data" action="/api/migrate/%s" hx-post="/api/migrate/%s" hx-target="#result-%s">`,
					esc(a.Key), esc(a.Key), esc(a.Key))
				b.WriteString(`<input type="file" name="input_file" accept=".csv" required>`)
				b.WriteString(`<select name="mode">`)
				for _, m := range a.Modes {
					fmt.Fprintf(&b, `<option value="%s">%s</option>`, esc(m), esc(m))
				}
				b.WriteString(`</select><select name="lookup_policy"><option value="warn">warn</option><option value="skip">skip</option></select>`)
				fmt.Fprintf(&b, `<button type="submit">Migrate</button></form><div id="result-%s"></div></li>`, esc(a.Key))
			}
			b.WriteString(`</ul></section>`)
		}

		b.WriteString(`</main></body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Result renders the counts and report links of a finished migration.
func Result(v ResultView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div class="result" data-run-id="%s">`, esc(v.RunID))
		fmt.Fprintf(&b, `<p>%s (%s): %d records</p>`, esc(v.AdapterKey), esc(v.Mode), v.Records)
		fmt.Fprintf(&b, `<p>Success %d, Skipped %d, Error %d</p>`, v.Success, v.Skipped, v.Errors)
		if len(v.Warnings) > 0 {
			b.WriteString(`<ul class="warnings">`)
			for _, warn := range v.Warnings {
				fmt.Fprintf(&b, `<li>%s</li>`, esc(warn))
			}
			b.WriteString(`</ul>`)
		}
		for _, kind := range []string{"log", "summary", "payload"} {
			if url, ok := v.ReportFiles[kind]; ok {
				fmt.Fprintf(&b, `<a href="%s">%s</a> `, esc(url), esc(kind))
			}
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlert renders an error message with its action and support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div class="alert" role="alert"><p>%s</p>`, esc(message))
		if action != "" {
			fmt.Fprintf(&b, `<p>%s</p>`, esc(action))
		}
		fmt.Fprintf(&b, `<small>Code: %s</small></div>`, esc(code))
		_, err := io.WriteString(w, b.String())
		return err
	})
}
