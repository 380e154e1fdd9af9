package site

import (
	"embed"
	"html/template"
	"strconv"
)

//go:embed static/*
var staticFS embed.FS

var pageTemplate = template.Must(template.New("index.html.tmpl").Funcs(template.FuncMap{
	"num": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}).ParseFS(staticFS, "static/index.html.tmpl"))
