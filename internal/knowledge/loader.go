package knowledge

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultIncludes are the file patterns loaded from a knowledge directory.
var DefaultIncludes = []string{"**/*.md", "**/*.txt", "translations/*.json"}

// Loader produces the document corpus consumed by the retrieval pipeline.
// It always yields the built-in corpus; when Dir is set, files matching the
// Include patterns are appended in lexical path order so corpus order is
// deterministic across runs.
type Loader struct {
	Dir     string
	Include []string
}

// NewLoader creates a Loader over the given knowledge directory. An empty
// dir means built-in content only.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir, Include: DefaultIncludes}
}

// LoadCorpus returns the flat ordered document sequence ready for chunking.
func (l *Loader) LoadCorpus() ([]Document, error) {
	docs := BuiltinCorpus()

	if l.Dir == "" {
		return docs, nil
	}
	if _, err := os.Stat(l.Dir); os.IsNotExist(err) {
		return docs, nil
	}

	paths, err := l.matchFiles()
	if err != nil {
		return nil, err
	}

	for _, rel := range paths {
		loaded, err := l.loadFile(rel)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", rel, err)
		}
		docs = append(docs, loaded...)
	}

	return docs, nil
}

// matchFiles walks the knowledge directory and returns relative paths
// matching any include pattern, sorted lexically.
func (l *Loader) matchFiles() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.Dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range l.Include {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				paths = append(paths, rel)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking knowledge dir %s: %w", l.Dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *Loader) loadFile(rel string) ([]Document, error) {
	data, err := os.ReadFile(filepath.Join(l.Dir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(rel)) {
	case ".json":
		return loadTranslationFile(rel, data)
	case ".md":
		plain, err := markdownToText(data)
		if err != nil {
			return nil, err
		}
		return []Document{NewDocument(plain, map[string]string{
			MetaSource: rel,
			MetaType:   TypeProjectDoc,
		})}, nil
	default:
		return []Document{NewDocument(string(data), map[string]string{
			MetaSource: rel,
			MetaType:   TypeProjectDoc,
		})}, nil
	}
}

// loadTranslationFile turns a key/value translation JSON file into one
// searchable document. The language is taken from the file name.
func loadTranslationFile(rel string, data []byte) ([]Document, error) {
	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing translation file: %w", err)
	}

	lang := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "UI TRANSLATIONS (%s):\n", lang)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, table[k])
	}

	return []Document{NewDocument(sb.String(), map[string]string{
		MetaSource: rel,
		MetaType:   TypeTranslation,
		"language": lang,
	})}, nil
}

// markdownToText strips markdown structure, keeping the readable text.
// Embeddings work better on plain prose than on markup.
func markdownToText(source []byte) (string, error) {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var sb strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, ok := n.(*ast.Paragraph); ok {
				sb.WriteString("\n\n")
			}
			if _, ok := n.(*ast.Heading); ok {
				sb.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(source))
			}
			sb.WriteString("\n")
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walking markdown: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}
