package render

import (
	"bytes"
	"html/template"
	"io"

	"github.com/d60-Lab/hydration/internal/model"
)

// 社交分享预览用的页面外壳，title 与 description 写入 meta
var pageTmpl = template.Must(template.New("post").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="twitter:description" content="{{.Description}}">
<meta name="og:description" content="{{.Description}}">
</head>
<body style="font-family: sans-serif">
<article id="post-{{.ID}}">
<h1>{{.Title}}</h1>
{{- if .HasDescription}}
<p>{{.Description}}</p>
{{- end}}
</article>
</body>
</html>
`))

type pageData struct {
	ID             string
	Title          string
	Description    string
	HasDescription bool
}

// Page 把单个帖子渲染为完整 HTML 文档
func Page(w io.Writer, post *model.Post) error {
	data := pageData{ID: post.ID}
	data.Title, _ = post.Title()
	data.Description, data.HasDescription = post.Description()
	return pageTmpl.Execute(w, data)
}

// PageBytes Page 的便捷版本
func PageBytes(post *model.Post) ([]byte, error) {
	var buf bytes.Buffer
	if err := Page(&buf, post); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
