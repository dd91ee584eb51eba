package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strconv"
	"text/template"
	"time"

	"github.com/FranksOps/followtrack/internal/change"
	"github.com/FranksOps/followtrack/internal/storage"
	"github.com/dustin/go-humanize"
)

// Summary describes one handle's persisted series.
type Summary struct {
	Handle    string         `json:"handle"`
	Samples   int            `json:"samples"`
	First     storage.Sample `json:"first"`
	Last      storage.Sample `json:"last"`
	Min       storage.Sample `json:"min"`
	Max       storage.Sample `json:"max"`
	NetChange int64          `json:"net_change"`
	Span      time.Duration  `json:"span"`
	// Recent is the change of the last sample against the one nearest a
	// day before it; nil with fewer than two samples.
	Recent *change.Change `json:"recent,omitempty"`
}

// GenerateSummaries summarises the requested handles, or every handle in doc
// when none are given. Handles without samples are skipped.
func GenerateSummaries(doc storage.Document, handles ...string) []Summary {
	if len(handles) == 0 {
		handles = doc.Handles()
	}

	out := make([]Summary, 0, len(handles))
	for _, h := range handles {
		series := doc[h]
		if len(series) == 0 {
			continue
		}
		out = append(out, summarize(h, series))
	}
	return out
}

func summarize(handle string, series storage.Series) Summary {
	s := Summary{
		Handle:  handle,
		Samples: len(series),
		First:   series[0],
		Last:    series[len(series)-1],
		Min:     series[0],
		Max:     series[0],
	}

	for _, sample := range series[1:] {
		if sample.FollowersCount < s.Min.FollowersCount {
			s.Min = sample
		}
		if sample.FollowersCount > s.Max.FollowersCount {
			s.Max = sample
		}
	}

	s.NetChange = s.Last.FollowersCount - s.First.FollowersCount
	s.Span = s.Last.Timestamp.Sub(s.First.Timestamp)

	if ch, ok := change.Compute(s.Last.FollowersCount, series[:len(series)-1], s.Last.Timestamp); ok {
		s.Recent = &ch
	}
	return s
}

// signedComma renders n with thousands separators and an explicit sign.
func signedComma(n int64) string {
	if n > 0 {
		return "+" + humanize.Comma(n)
	}
	return humanize.Comma(n)
}

var funcs = template.FuncMap{
	"comma":  humanize.Comma,
	"signed": signedComma,
	"hours":  func(h float64) string { return strconv.FormatFloat(h, 'f', 0, 64) },
	"ts":     func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
}

// WriteJSON writes the summaries to the provided writer in JSON format.
func WriteJSON(w io.Writer, summaries []Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteCSV writes one row per handle.
func WriteCSV(w io.Writer, summaries []Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"handle", "samples", "first_at", "first", "last_at", "last", "min", "max", "net_change"}); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, s := range summaries {
		record := []string{
			s.Handle,
			strconv.Itoa(s.Samples),
			s.First.Timestamp.Format(time.RFC3339),
			strconv.FormatInt(s.First.FollowersCount, 10),
			s.Last.Timestamp.Format(time.RFC3339),
			strconv.FormatInt(s.Last.FollowersCount, 10),
			strconv.FormatInt(s.Min.FollowersCount, 10),
			strconv.FormatInt(s.Max.FollowersCount, 10),
			strconv.FormatInt(s.NetChange, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summaries []Summary) error {
	const textTmpl = `Follower History
----------------
{{- range .}}
@{{.Handle}} ({{.Samples}} samples)
  First:   {{comma .First.FollowersCount}} at {{ts .First.Timestamp}}
  Last:    {{comma .Last.FollowersCount}} at {{ts .Last.Timestamp}}
  Min:     {{comma .Min.FollowersCount}}
  Max:     {{comma .Max.FollowersCount}}
  Net:     {{signed .NetChange}} over {{.Span}}
{{- with .Recent}}
  Recent:  {{signed .Delta}} in ~{{hours .ElapsedHours}}h
{{- end}}
{{- else}}
No history recorded.
{{- end}}
`

	t, err := template.New("textReport").Funcs(funcs).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := t.Execute(w, summaries); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summaries []Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Follower History</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: right; }
  th { background: #eaeaea; }
  td.handle { text-align: left; }
  .up { color: green; }
  .down { color: red; }
</style>
</head>
<body>
  <h1>Follower History</h1>
  <table>
    <tr><th>Handle</th><th>Samples</th><th>First</th><th>Last</th><th>Min</th><th>Max</th><th>Net change</th></tr>
    {{- range .}}
    <tr>
      <td class="handle">@{{.Handle}}</td>
      <td>{{.Samples}}</td>
      <td>{{comma .First.FollowersCount}}</td>
      <td>{{comma .Last.FollowersCount}}</td>
      <td>{{comma .Min.FollowersCount}}</td>
      <td>{{comma .Max.FollowersCount}}</td>
      <td class="{{if gt .NetChange 0}}up{{else if lt .NetChange 0}}down{{end}}">{{signed .NetChange}}</td>
    </tr>
    {{- else}}
    <tr><td colspan="7">No history recorded.</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Funcs(htmltemplate.FuncMap(funcs)).Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := t.Execute(w, summaries); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return nil
}

// Write renders summaries in format: text, json, csv or html.
func Write(w io.Writer, format string, summaries []Summary) error {
	switch format {
	case "", "text":
		return WriteText(w, summaries)
	case "json":
		return WriteJSON(w, summaries)
	case "csv":
		return WriteCSV(w, summaries)
	case "html":
		return WriteHTML(w, summaries)
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}
}
