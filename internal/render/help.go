package render

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// NoHelp 帮助文件不存在时的输出
const NoHelp = "no help"

var (
	markdown     goldmark.Markdown
	markdownOnce sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// Markdown 把 markdown 源文本转换为 HTML 片段
func Markdown(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := getMarkdown().Convert(src, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HelpFile 读取并渲染帮助文件；文件不存在时返回 NoHelp
func HelpFile(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(src) == 0) {
		return []byte(NoHelp), nil
	}
	if err != nil {
		return nil, err
	}
	return Markdown(src)
}
