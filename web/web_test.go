package web

import (
	"html/template"
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedTemplatesExist(t *testing.T) {
	templatesFS := GetTemplatesFS()

	requiredFiles := []string{
		"index.html",
		"admin/login.html",
		"admin/layout.html",
		"admin/tournament.html",
	}

	for _, file := range requiredFiles {
		if _, err := fs.Stat(templatesFS, file); err != nil {
			t.Errorf("required template %q not found: %v", file, err)
		}
	}
}

func TestEmbeddedStaticFilesExist(t *testing.T) {
	staticFS := GetStaticFS()

	requiredFiles := []string{
		"css/app.css",
		"js/dashboard.js",
		"js/admin.js",
	}

	for _, file := range requiredFiles {
		if _, err := fs.Stat(staticFS, file); err != nil {
			t.Errorf("required static file %q not found: %v", file, err)
		}
	}
}

func TestTemplatesParse(t *testing.T) {
	templatesFS := GetTemplatesFS()

	admin, err := template.ParseFS(templatesFS, "admin/layout.html", "admin/tournament.html")
	if err != nil {
		t.Fatalf("parse admin templates: %v", err)
	}
	if admin.Lookup("admin") == nil || admin.Lookup("content") == nil {
		t.Error("admin layout should define \"admin\" and \"content\"")
	}
	if _, err := template.ParseFS(templatesFS, "index.html"); err != nil {
		t.Errorf("parse index: %v", err)
	}
	if _, err := template.ParseFS(templatesFS, "admin/login.html"); err != nil {
		t.Errorf("parse login: %v", err)
	}
}

func TestDashboardRotates(t *testing.T) {
	content, err := fs.ReadFile(GetStaticFS(), "js/dashboard.js")
	if err != nil {
		t.Fatalf("failed to read js/dashboard.js: %v", err)
	}
	if !strings.Contains(string(content), "ROTATE_MS = 25000") {
		t.Error("dashboard should rotate categories every 25 seconds")
	}
}
