package web

// pageTemplates holds the scan-facing HTML. The pages are deliberately
// plain: they render on whatever phone scanned the QR code.
const pageTemplates = `
{{define "head"}}<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Palettenabschluss</title>
<style>
body { font-family: sans-serif; margin: 2em auto; max-width: 40em; padding: 0 1em; }
h1 { font-size: 1.3em; }
.ok { color: #2e7d32; }
.warn { color: #e65100; }
.err { color: #b71c1c; }
table { border-collapse: collapse; width: 100%; margin-top: 1em; }
td, th { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; }
button { font-size: 1.1em; padding: 0.5em 1.5em; margin-right: 1em; }
</style>
</head>
<body>{{end}}

{{define "foot"}}</body></html>{{end}}

{{define "confirm"}}{{template "head" .}}
<h1>Palette {{.TaskID}} ausbuchen?</h1>
<form method="post" action="/scan/{{.TaskID}}?sig={{.Sig}}">
<button type="submit" name="answer" value="yes">Ja, ausbuchen</button>
<button type="submit" name="answer" value="no">Nein</button>
</form>
{{template "foot" .}}{{end}}

{{define "already_done"}}{{template "head" .}}
<h1 class="warn">Bereits ausgebucht</h1>
<p>Palette {{.TaskID}} wurde am {{.CompletedAt}} ausgebucht.</p>
{{template "foot" .}}{{end}}

{{define "declined"}}{{template "head" .}}
<h1>Nicht ausgebucht</h1>
<p>Palette {{.TaskID}} bleibt offen.</p>
{{template "foot" .}}{{end}}

{{define "closed"}}{{template "head" .}}
<h1 class="ok">Ausgebucht</h1>
<p>Palette {{.TaskID}} wurde am {{.CompletedAt}} ausgebucht.</p>
{{template "foot" .}}{{end}}

{{define "closed_with_list"}}{{template "head" .}}
<h1 class="ok">Ausgebucht</h1>
<p>Palette {{.TaskID}} wurde am {{.CompletedAt}} ausgebucht.</p>
<h2>Noch offen in Kommission {{.Label}}</h2>
{{if .Remaining}}
<table>
<tr><th>Priorit&auml;t</th><th>Palette</th></tr>
{{range .Remaining}}<tr><td>{{.Priority}}</td><td>{{.Content}}</td></tr>
{{end}}
</table>
{{else}}
<p class="ok">Alle Paletten dieser Kommission sind ausgebucht.</p>
{{end}}
{{template "foot" .}}{{end}}

{{define "rejected"}}{{template "head" .}}
<h1 class="err">Ung&uuml;ltiger Code</h1>
<p>Dieser QR-Code ist nicht g&uuml;ltig. Bitte Etikett pr&uuml;fen.</p>
{{template "foot" .}}{{end}}

{{define "close_failed"}}{{template "head" .}}
<h1 class="err">Ausbuchen fehlgeschlagen</h1>
<p>Der Aufgabendienst ist gerade nicht erreichbar. Es wurde nichts
gespeichert; bitte den Code sp&auml;ter erneut scannen.</p>
{{template "foot" .}}{{end}}

{{define "error"}}{{template "head" .}}
<h1 class="err">Fehler</h1>
<p>{{.Message}}</p>
{{template "foot" .}}{{end}}
`
