package viewerweb

import (
	"encoding/json"
	"fmt"
	"html/template"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatClock": func(secondsOfDay int) string {
			h := secondsOfDay / 3600
			m := (secondsOfDay % 3600) / 60
			return fmt.Sprintf("%02d:%02d", h, m)
		},
		"toJSON": func(v interface{}) string {
			b, err := json.Marshal(v)
			if err != nil {
				return "{}"
			}
			return string(b)
		},
	}
}

const resultTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Visit Routing Planner</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem; color: #1a1a1a; }
  h1 { font-size: 1.4rem; }
  table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
  th, td { border: 1px solid #ddd; padding: 0.4rem 0.6rem; text-align: left; font-size: 0.9rem; }
  th { background: #f4f4f4; }
  .route { margin-bottom: 1.5rem; }
  .cost { color: #555; }
  .unassigned { color: #a33; }
</style>
</head>
<body>
<h1>Visit Routing Planner</h1>

<h2>Routes ({{len .Routes}})</h2>
{{range .Routes}}
<div class="route">
  <h3>Visitor {{.VisitorID}} <span class="cost">total cost {{.TotalCost}}</span></h3>
  <table>
    <tr><th>#</th><th>Visit</th><th>Estimated window</th></tr>
    {{$windows := .EstimatedWindows}}
    {{range $i, $visitID := .VisitIDs}}
    <tr>
      <td>{{$i}}</td>
      <td>{{$visitID}}</td>
      <td>{{with index $windows $i}}{{formatClock .Start}} - {{formatClock .End}}{{end}}</td>
    </tr>
    {{end}}
  </table>
</div>
{{else}}
<p>No routes.</p>
{{end}}

<h2 class="unassigned">Unassigned ({{len .Unassigned}})</h2>
<table>
  <tr><th>Visit</th><th>Reason</th></tr>
  {{range .Unassigned}}
  <tr><td>{{.VisitID}}</td><td>{{.Reason}}</td></tr>
  {{end}}
</table>

</body>
</html>
`
