package view

import (
	"bytes"
	"html/template"
	"time"

	"github.com/sifan077/ushort/internal/app/model"
)

// ConsolePageData provides the dynamic fields required by the console template.
type ConsolePageData struct {
	Title string

	// Shorten form
	Input       string
	InlineError string
	Busy        bool
	Result      *model.ShortenResult
	CopyLabel   string

	// Analytics card
	AnalyticsInput   string
	AnalyticsBusy    bool
	AnalyticsMessage string
	Analytics        *model.AnalyticsResult
	Status           model.LinkStatus

	Notification *model.Notification
	History      []model.HistoryEntry
}

var consolePageTmpl = template.Must(template.New("console_page").Funcs(template.FuncMap{
	"when":    formatTime,
	"whenPtr": formatExpiry,
}).Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Title}}</title>
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: #7dd3fc;
			--accent-strong: #38bdf8;
			--danger: #f87171;
			--ok: #4ade80;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			flex-direction: column;
			align-items: center;
			gap: 24px;
			padding: 48px 0;
			background: radial-gradient(circle at 20% 20%, #111827, #030712 60%);
			color: var(--text);
		}
		.card {
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 18px;
			padding: 28px;
			width: min(620px, 92vw);
		}
		h1, h2 { margin: 0 0 12px; }
		p, .muted { color: var(--muted); }
		form { display: flex; gap: 10px; flex-wrap: wrap; }
		input[type=text] {
			flex: 1;
			height: 44px;
			padding: 0 14px;
			border-radius: 12px;
			border: 1px solid var(--border);
			background: rgba(0,0,0,0.3);
			color: var(--text);
		}
		button {
			height: 44px;
			padding: 0 22px;
			border: 0;
			border-radius: 999px;
			background: linear-gradient(120deg, var(--accent), var(--accent-strong));
			color: #050708;
			font-weight: 600;
			cursor: pointer;
		}
		button[disabled] { opacity: 0.5; cursor: default; }
		.error { color: var(--danger); margin-top: 8px; }
		.result {
			margin-top: 18px;
			padding: 16px;
			border-radius: 14px;
			background: rgba(125, 211, 252, 0.07);
			border: 1px solid rgba(125, 211, 252, 0.25);
			word-break: break-all;
		}
		.toast {
			position: fixed;
			top: 16px;
			right: 16px;
			padding: 12px 18px;
			border-radius: 12px;
			display: flex;
			gap: 12px;
			align-items: center;
		}
		.toast.success { background: rgba(74, 222, 128, 0.15); border: 1px solid var(--ok); }
		.toast.error { background: rgba(248, 113, 113, 0.15); border: 1px solid var(--danger); }
		.toast button { height: 28px; padding: 0 10px; }
		.status-Active { color: var(--ok); }
		.status-Inactive, .status-Expired { color: var(--danger); }
		table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
		td { padding: 6px 4px; border-top: 1px solid var(--border); word-break: break-all; }
	</style>
</head>
<body>
	{{with .Notification}}
	<div class="toast {{.Kind}}" role="status">
		<span>{{.Message}}</span>
		<form method="post" action="/notification/dismiss"><button type="submit" aria-label="Dismiss">×</button></form>
	</div>
	{{end}}

	<div class="card">
		<h1>Shorten a link</h1>
		<form method="post" action="/shorten">
			<input type="text" name="url" value="{{.Input}}" placeholder="https://example.com" {{if .Busy}}disabled{{end}} />
			<button type="submit" {{if .Busy}}disabled{{end}}>{{if .Busy}}Shortening…{{else}}Shorten{{end}}</button>
		</form>
		{{if .InlineError}}<div class="error">{{.InlineError}}</div>{{end}}

		{{with .Result}}
		<div class="result">
			<div class="muted">Short link</div>
			<div><a href="{{.ShortURL}}">{{.ShortURL}}</a></div>
			<div class="muted">Original: {{.OriginalURL}}</div>
			<form method="post" action="/copy"><button type="submit">{{$.CopyLabel}}</button></form>
		</div>
		{{end}}
	</div>

	<div class="card">
		<h2>Analytics</h2>
		<form method="get" action="/analytics">
			<input type="text" name="code" value="{{.AnalyticsInput}}" placeholder="Short code or short URL" {{if .AnalyticsBusy}}disabled{{end}} />
			<button type="submit" {{if .AnalyticsBusy}}disabled{{end}}>Search</button>
		</form>
		{{if .AnalyticsMessage}}<div class="error">{{.AnalyticsMessage}}</div>{{end}}

		{{with .Analytics}}
		<div class="result">
			<div><a href="{{.ShortURL}}">{{.ShortURL}}</a></div>
			<div class="muted">{{.OriginalURL}}</div>
			<table>
				<tr><td>Clicks</td><td>{{.ClickCount}}</td></tr>
				<tr><td>Status</td><td class="status-{{$.Status}}">{{$.Status}}</td></tr>
				<tr><td>Created</td><td>{{when .CreatedAt.Time}}</td></tr>
				<tr><td>Expires</td><td>{{whenPtr .ExpiresAt}}</td></tr>
			</table>
		</div>
		{{end}}
	</div>

	{{if .History}}
	<div class="card">
		<h2>Recent links</h2>
		<table>
			{{range .History}}
			<tr><td><a href="{{.ShortURL}}">{{.ShortURL}}</a></td><td class="muted">{{.OriginalURL}}</td><td class="muted">{{when .CreatedAt}}</td></tr>
			{{end}}
		</table>
	</div>
	{{end}}
</body>
</html>
`))

// RenderConsolePage expands the console template with the provided data.
func RenderConsolePage(data ConsolePageData) (string, error) {
	if data.Title == "" {
		data.Title = "ushort"
	}
	var buf bytes.Buffer
	if err := consolePageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Local().Format("Jan 2, 2006")
}

func formatExpiry(ts *model.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "Never"
	}
	return formatTime(ts.Time)
}
