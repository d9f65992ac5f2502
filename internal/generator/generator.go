package generator

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// View is everything the dashboard page shows.
type View struct {
	Title         string
	Board         Board
	Announcements AnnouncementList
	LastUpdated   string
	// Interactive pages carry the action controls and the live socket.
	// Generated files only auto-refresh.
	Interactive    bool
	RefreshSeconds int
	Message        string
}

// NewView stamps a view with the current time.
func NewView(board Board, announcements AnnouncementList) View {
	return View{
		Title:         "SOS Dashboard",
		Board:         board,
		Announcements: announcements,
		LastUpdated:   FormatLocalTime(time.Now()),
	}
}

var pageTemplate = template.Must(template.New("dashboard").Parse(dashboardHTML))

// WriteDashboardHTML renders the full dashboard page.
func WriteDashboardHTML(w io.Writer, v View) error {
	return pageTemplate.ExecuteTemplate(w, "page", v)
}

// WriteReportsFragment renders only the two report lanes.
func WriteReportsFragment(w io.Writer, b Board, interactive bool) error {
	return pageTemplate.ExecuteTemplate(w, "reports", View{Board: b, Interactive: interactive})
}

// WriteAnnouncementsFragment renders only the announcement feed.
func WriteAnnouncementsFragment(w io.Writer, a AnnouncementList) error {
	return pageTemplate.ExecuteTemplate(w, "announcements", View{Announcements: a})
}

// GenerateDashboardHTML writes the page to outputPath. The file is replaced
// atomically so a browser never reads a partial page.
func GenerateDashboardHTML(v View, outputPath string) error {
	var buf bytes.Buffer
	if err := WriteDashboardHTML(&buf, v); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := atomic.WriteFile(outputPath, &buf); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	return nil
}

const dashboardHTML = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
   <meta charset="UTF-8"/>
   {{if and (not .Interactive) .RefreshSeconds}}<meta http-equiv="refresh" content="{{.RefreshSeconds}}">{{end}}
   <title>{{.Title}}</title>
   <style>
      :root {
         --bg-color: #121212;
         --text-color: #e0e0e0;
         --card-bg: #1e1e1e;
         --card-border: #333;
         --pending-border: #a52a2a;
         --review-border: #b25900;
         --summary-bg: #252525;
         --warn-bg: #f0ad4e;
      }
      body {
         font-family: Arial, sans-serif;
         max-width: 1100px;
         margin: 0 auto;
         padding: 20px;
         background-color: var(--bg-color);
         color: var(--text-color);
      }
      .lanes { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; }
      .sos-card {
         border: 1px solid var(--card-border);
         margin-bottom: 15px;
         padding: 10px;
         border-radius: 5px;
         background-color: var(--card-bg);
      }
      #pendingSOS .sos-card { border-color: var(--pending-border); }
      #underReviewSOS .sos-card { border-color: var(--review-border); }
      .announcements {
         margin-bottom: 15px;
         background-color: var(--summary-bg);
         padding: 15px;
         border-radius: 5px;
      }
      .notice, .error { color: #ff6b6b; }
      button.warn { background-color: var(--warn-bg); }
      pre { white-space: pre-wrap; margin: 0; }
      .updated { font-size: 0.8em; color: #888; }
   </style>
</head>
<body>
   <h1>{{.Title}}</h1>
   <div class="updated">Last updated: <span id="lastUpdated">{{.LastUpdated}}</span></div>
   {{if .Message}}<p class="notice">{{.Message}}</p>{{end}}
   {{if .Interactive}}
   <form method="post" action="/actions/logout"><button type="submit">Log out</button></form>
   {{end}}

   <section class="announcements">
      <h2>Announcements</h2>
      {{if .Interactive}}
      <form id="broadcastForm">
         <textarea id="broadcastMessage" rows="2" cols="60" placeholder="Broadcast message"></textarea>
         <button type="submit">Broadcast</button>
      </form>
      {{end}}
      <div id="announcementList">{{template "announcements" .}}</div>
   </section>

   <div id="reports">{{template "reports" .}}</div>

   {{if .Interactive}}
   <script>
   (function () {
      function post(url, body) {
         return fetch(url, {
            method: "POST",
            headers: { "Content-Type": "application/json", "Accept": "application/json" },
            body: JSON.stringify(body),
            credentials: "same-origin"
         }).then(function (res) {
            return res.json().catch(function () { return {}; }).then(function (data) {
               if (!res.ok) { throw new Error(data.error || ("Request failed with status " + res.status)); }
               return data;
            });
         });
      }

      document.addEventListener("click", function (e) {
         var btn = e.target.closest("button[data-action='status']");
         if (!btn) { return; }
         btn.disabled = true;
         post("/actions/reports/" + btn.dataset.reportId + "/status", { status: btn.dataset.status })
            .catch(function (err) { alert("Error updating status: " + err.message); })
            .finally(function () { btn.disabled = false; });
      });

      document.getElementById("broadcastForm").addEventListener("submit", function (e) {
         e.preventDefault();
         var box = document.getElementById("broadcastMessage");
         if (!box.value.trim()) { alert("Broadcast message cannot be empty."); return; }
         post("/actions/announcements", { content: box.value.trim() })
            .then(function (data) { alert(data.message || "Announcement created."); box.value = ""; })
            .catch(function (err) { alert("Error creating announcement: " + err.message); });
      });

      var regions = { reports: "reports", announcements: "announcementList" };
      function connect() {
         var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
         ws.onmessage = function (ev) {
            var msg = JSON.parse(ev.data);
            var el = document.getElementById(regions[msg.type]);
            if (el) { el.innerHTML = msg.html; }
            if (msg.updated) { document.getElementById("lastUpdated").textContent = msg.updated; }
         };
         ws.onclose = function () { setTimeout(connect, 3000); };
      }
      connect();
   })();
   </script>
   {{end}}
</body>
</html>{{end}}

{{define "reports"}}
   {{if .Board.Notice}}<p class="notice">{{.Board.Notice}}</p>{{end}}
   <div class="lanes">
   {{range .Board.Columns}}
      <div>
         <h2>{{.Title}} ({{len .Cards}})</h2>
         <div id="{{.Key}}">
         {{if .Placeholder}}<p>{{.Placeholder}}</p>{{end}}
         {{range .Cards}}
            <div class="sos-card" data-sos-id="{{.ID}}">
               {{range .Fields}}
                  {{if eq .Label "Message"}}<p><strong>{{.Label}}:</strong><br><pre>{{.Value}}</pre></p>
                  {{else}}<p><strong>{{.Label}}:</strong> {{.Value}}</p>{{end}}
               {{end}}
               {{if $.Interactive}}
               <div>
                  {{range .Actions}}<button type="button" data-action="status" data-report-id="{{.ReportID}}" data-status="{{.Target}}"{{if .Class}} class="{{.Class}}"{{end}}>{{.Label}}</button>{{end}}
               </div>
               {{end}}
            </div>
         {{end}}
         </div>
      </div>
   {{end}}
   </div>
{{end}}

{{define "announcements"}}
   {{if .Announcements.Placeholder}}<p{{if .Announcements.Failed}} class="error"{{end}}>{{.Announcements.Placeholder}}</p>{{end}}
   {{range .Announcements.Items}}
      <div class="announcement-item">
         <p>{{.Content}}</p>
         <small>Posted: {{.Posted}}</small>
      </div>
   {{end}}
{{end}}
`
