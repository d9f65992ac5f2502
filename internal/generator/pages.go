package generator

import (
	"html/template"
	"io"
)

// HomeView is the public landing page: announcements and the SOS form.
type HomeView struct {
	Title         string
	Announcements AnnouncementList
	LoggedIn      bool
}

// LoginView is the operator login form.
type LoginView struct {
	Title    string
	Username string
	Message  string
}

var publicTemplate = template.Must(template.Must(pageTemplate.Clone()).Parse(publicHTML))

// WriteHomeHTML renders the landing page.
func WriteHomeHTML(w io.Writer, v HomeView) error {
	if v.Title == "" {
		v.Title = "SOS"
	}
	return publicTemplate.ExecuteTemplate(w, "home", v)
}

// WriteLoginHTML renders the login form, with an error message when set.
func WriteLoginHTML(w io.Writer, v LoginView) error {
	if v.Title == "" {
		v.Title = "Operator Login"
	}
	return publicTemplate.ExecuteTemplate(w, "login", v)
}

const publicHTML = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
   <meta charset="UTF-8"/>
   <title>{{.Title}}</title>
   <style>
      body { font-family: Arial, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px; background-color: #121212; color: #e0e0e0; }
      label { display: block; margin-top: 10px; }
      input, select, textarea { width: 100%; padding: 6px; background: #1e1e1e; color: #e0e0e0; border: 1px solid #333; }
      .notice, .error { color: #ff6b6b; }
      .announcements { background-color: #252525; padding: 15px; border-radius: 5px; margin-bottom: 15px; }
   </style>
</head>
<body>
{{end}}

{{define "home"}}{{template "head" .}}
   <h1>{{.Title}}</h1>
   <nav>{{if .LoggedIn}}<a href="/dashboard">Dashboard</a>{{else}}<a href="/login">Operator login</a>{{end}}</nav>

   <section class="announcements">
      <h2>Announcements</h2>
      <div id="announcementList">{{template "announcements" .}}</div>
   </section>

   <h2>Send an SOS</h2>
   <form id="sosForm">
      <label for="disasterType">Disaster type</label>
      <select id="disasterType" required>
         <option value="Flood">Flood</option>
         <option value="Fire">Fire</option>
         <option value="Earthquake">Earthquake</option>
         <option value="Medical">Medical</option>
         <option value="Other">Other</option>
      </select>
      <label for="latitude">Latitude</label>
      <input id="latitude" required>
      <label for="longitude">Longitude</label>
      <input id="longitude" required>
      <label for="details">Details</label>
      <textarea id="details" rows="3"></textarea>
      <label for="mobileNumber">Mobile number</label>
      <input id="mobileNumber">
      <p><button type="submit">Send SOS</button></p>
   </form>
   <p id="sosStatus"></p>

   <script>
   document.getElementById("sosForm").addEventListener("submit", function (e) {
      e.preventDefault();
      var field = function (id) { return document.getElementById(id).value; };
      var out = document.getElementById("sosStatus");
      fetch("/actions/sos", {
         method: "POST",
         headers: { "Content-Type": "application/json", "Accept": "application/json" },
         body: JSON.stringify({
            disasterType: field("disasterType"),
            latitude: field("latitude"),
            longitude: field("longitude"),
            details: field("details"),
            mobileNumber: field("mobileNumber")
         })
      }).then(function (res) {
         return res.json().catch(function () { return {}; }).then(function (data) {
            if (!res.ok) { throw new Error(data.error || ("Request failed with status " + res.status)); }
            out.className = "";
            out.textContent = data.message || "SOS submitted successfully!";
            document.getElementById("sosForm").reset();
         });
      }).catch(function (err) {
         out.className = "error";
         out.textContent = err.message;
      });
   });
   </script>
</body>
</html>{{end}}

{{define "login"}}{{template "head" .}}
   <h1>{{.Title}}</h1>
   {{if .Message}}<p class="error">{{.Message}}</p>{{end}}
   <form method="post" action="/login">
      <label for="username">Username</label>
      <input id="username" name="username" value="{{.Username}}" required>
      <label for="password">Password</label>
      <input id="password" name="password" type="password" required>
      <p><button type="submit">Log in</button></p>
   </form>
   <p><a href="/">Back</a></p>
</body>
</html>{{end}}
`
