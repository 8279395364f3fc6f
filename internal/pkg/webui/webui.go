//
// Copyright (c) 2021, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

// Package webui implements a small web interface to explore an experiment
// output directory: the configuration groups and labels that ran, the
// per-test logs, the aggregated results CSV and any markdown summary.
package webui

import (
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gomarkdown/markdown"
	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kernel_sanitizer_profiling/tools/internal/pkg/format"
)

// DefaultPort is the port the web interface listens on by default
const DefaultPort = 8080

// Config represents the configuration of a webUI
type Config struct {
	wg *sync.WaitGroup

	// Port is the TCP port the HTTP server binds
	Port int

	// DatasetDir is the experiment output directory being browsed
	DatasetDir string

	// Name is the display name of the dataset
	Name string

	srv *http.Server
}

type indexPageData struct {
	PageTitle string
	Groups    []groupData
	HasCSV    bool
}

type groupData struct {
	Name   string
	Labels []string
}

type logsPageData struct {
	Group string
	Label string
	Files []string
}

type logPageData struct {
	File    string
	Content string
}

type resultsPageData struct {
	PageTitle string
	Header    []string
	Rows      [][]string
}

type summaryPageData struct {
	Content template.HTML
}

const indexTemplateText = `<html><head><title>{{.PageTitle}}</title></head><body>
<h1>{{.PageTitle}}</h1>
{{if .HasCSV}}<p><a href="/results">Aggregated results</a></p>{{end}}
<p><a href="/summary">Summary</a></p>
{{range .Groups}}<h2>{{.Name}}</h2><ul>
{{$group := .Name}}{{range .Labels}}<li><a href="/logs?group={{$group}}&label={{.}}">{{.}}</a></li>{{end}}
</ul>{{end}}
</body></html>`

const logsTemplateText = `<html><head><title>{{.Group}}/{{.Label}}</title></head><body>
<h1>{{.Group}}/{{.Label}}</h1><ul>
{{$group := .Group}}{{$label := .Label}}{{range .Files}}<li><a href="/log?group={{$group}}&label={{$label}}&file={{.}}">{{.}}</a></li>{{end}}
</ul></body></html>`

const logTemplateText = `<html><head><title>{{.File}}</title></head><body>
<h1>{{.File}}</h1><pre>{{.Content}}</pre></body></html>`

const resultsTemplateText = `<html><head><title>{{.PageTitle}}</title></head><body>
<h1>{{.PageTitle}}</h1><table border="1">
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
</table></body></html>`

const summaryTemplateText = `<html><head><title>Summary</title></head><body>{{.Content}}</body></html>`

func (c *Config) indexHandler(w http.ResponseWriter, r *http.Request) {
	data := indexPageData{
		PageTitle: c.Name,
		HasCSV:    util.FileExists(filepath.Join(c.DatasetDir, format.ResultsCSVFileName)),
	}

	entries, err := ioutil.ReadDir(c.DatasetDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		g := groupData{Name: entry.Name()}
		labels, err := ioutil.ReadDir(filepath.Join(c.DatasetDir, entry.Name()))
		if err != nil {
			continue
		}
		for _, label := range labels {
			if label.IsDir() {
				g.Labels = append(g.Labels, label.Name())
			}
		}
		data.Groups = append(data.Groups, g)
	}

	t := template.Must(template.New("index").Parse(indexTemplateText))
	err = t.Execute(w, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// sanitizeComponent keeps query parameters from escaping the dataset directory
func sanitizeComponent(value string) string {
	return filepath.Base(filepath.Clean("/" + value))
}

func (c *Config) logsHandler(w http.ResponseWriter, r *http.Request) {
	group := sanitizeComponent(r.URL.Query().Get("group"))
	label := sanitizeComponent(r.URL.Query().Get("label"))

	dir := filepath.Join(c.DatasetDir, group, label)
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	data := logsPageData{Group: group, Label: label}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), format.LogFileSuffix) {
			data.Files = append(data.Files, entry.Name())
		}
	}

	t := template.Must(template.New("logs").Parse(logsTemplateText))
	err = t.Execute(w, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (c *Config) logHandler(w http.ResponseWriter, r *http.Request) {
	group := sanitizeComponent(r.URL.Query().Get("group"))
	label := sanitizeComponent(r.URL.Query().Get("label"))
	file := sanitizeComponent(r.URL.Query().Get("file"))

	path := filepath.Join(c.DatasetDir, group, label, file)
	content, err := ioutil.ReadFile(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	t := template.Must(template.New("log").Parse(logTemplateText))
	err = t.Execute(w, logPageData{File: file, Content: string(content)})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (c *Config) resultsHandler(w http.ResponseWriter, r *http.Request) {
	csvPath := filepath.Join(c.DatasetDir, format.OrderedCSVFileName)
	if !util.FileExists(csvPath) {
		csvPath = filepath.Join(c.DatasetDir, format.ResultsCSVFileName)
	}

	fd, err := os.Open(csvPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer fd.Close()

	rows, err := csv.NewReader(fd).ReadAll()
	if err != nil || len(rows) == 0 {
		http.Error(w, "unable to parse results", http.StatusInternalServerError)
		return
	}

	data := resultsPageData{
		PageTitle: filepath.Base(csvPath),
		Header:    rows[0],
		Rows:      rows[1:],
	}
	t := template.Must(template.New("results").Parse(resultsTemplateText))
	err = t.Execute(w, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// summaryHandler renders the first markdown file found at the top of the
// dataset directory
func (c *Config) summaryHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := ioutil.ReadDir(c.DatasetDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	mdPath := ""
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".md") {
			mdPath = filepath.Join(c.DatasetDir, entry.Name())
			break
		}
	}
	if mdPath == "" {
		http.Error(w, "no summary available", http.StatusNotFound)
		return
	}

	mdContent, err := ioutil.ReadFile(mdPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	htmlContent := markdown.ToHTML(mdContent, nil, nil)

	t := template.Must(template.New("summary").Parse(summaryTemplateText))
	err = t.Execute(w, summaryPageData{Content: template.HTML(htmlContent)})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (c *Config) stopHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Terminating...\n")
	err := c.srv.Shutdown(context.TODO())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Stop cleanly terminates a running webUI
func (c *Config) Stop() error {
	err := c.srv.Shutdown(context.TODO())
	if err != nil {
		return err
	}
	c.wg.Wait()
	return nil
}

// Init creates a configuration for the webui that can then be used to start/stop a webui
func Init() *Config {
	cfg := new(Config)
	cfg.wg = &sync.WaitGroup{}
	cfg.wg.Add(1)
	cfg.Port = DefaultPort
	return cfg
}

// Start instantiates a HTTP server and starts the webUI. This is a
// non-blocking function; use Wait() to wait for the termination of the webUI.
func (c *Config) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", c.indexHandler)
	mux.HandleFunc("/logs", c.logsHandler)
	mux.HandleFunc("/log", c.logHandler)
	mux.HandleFunc("/results", c.resultsHandler)
	mux.HandleFunc("/summary", c.summaryHandler)
	mux.HandleFunc("/stop", c.stopHandler)

	c.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", c.Port),
		Handler: mux,
	}

	go func() {
		defer c.wg.Done()
		c.srv.ListenAndServe()
		fmt.Println("HTTP server is now terminated")
	}()

	return nil
}

// Wait makes the current process wait for the termination of the webUI
func (c *Config) Wait() {
	c.wg.Wait()
}
