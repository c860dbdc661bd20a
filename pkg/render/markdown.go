package render

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownBlocks converts a freeform markdown document into layout blocks.
// Headings of level 1 and 2 become shaded section bands, deeper headings
// become bold headings, and list items become bullets indented by depth.
func markdownBlocks(source string) (blocks []block, err error) {
	defer func() {
		if r := recover(); r != nil {
			blocks = nil
			err = fmt.Errorf("markdown conversion failed: %v", r)
		}
	}()

	src := []byte(source)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	depth := 0
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if !entering {
				return ast.WalkContinue, nil
			}
			runs := inlineRuns(node, src)
			if node.Level <= 2 {
				blocks = append(blocks, block{kind: blockSection, level: node.Level, runs: runs})
			} else {
				blocks = append(blocks, block{kind: blockHeading, level: node.Level, runs: runs})
			}
			return ast.WalkSkipChildren, nil

		case *ast.List:
			if entering {
				depth++
			} else {
				depth--
			}

		case *ast.Paragraph, *ast.TextBlock:
			if !entering {
				return ast.WalkContinue, nil
			}
			runs := inlineRuns(n, src)
			if item, ok := n.Parent().(*ast.ListItem); ok && item.FirstChild() == n {
				blocks = append(blocks, bullet(depth, listMarker(item), runs...))
			} else {
				blocks = append(blocks, paragraph(depth, runs...))
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			if !entering {
				return ast.WalkContinue, nil
			}
			blocks = append(blocks, block{
				kind:   blockCode,
				indent: depth,
				runs:   []run{{text: linesText(n, src), style: runStyle{code: true}}},
			})
			return ast.WalkSkipChildren, nil

		case *ast.ThematicBreak:
			if entering {
				blocks = append(blocks, block{kind: blockRule})
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "•"
	}
	index := list.Start
	for sibling := item.PreviousSibling(); sibling != nil; sibling = sibling.PreviousSibling() {
		index++
	}
	return fmt.Sprintf("%d.", index)
}

func linesText(n ast.Node, src []byte) string {
	lines := n.Lines()
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

// inlineRuns flattens the inline children of n into styled runs, merging
// neighbours that share a style.
func inlineRuns(n ast.Node, src []byte) []run {
	runs := mergeRuns(collectRuns(n, src, runStyle{}, nil))
	if last := len(runs) - 1; last >= 0 {
		runs[last].text = strings.TrimRight(runs[last].text, " \n")
		if runs[last].text == "" {
			runs = runs[:last]
		}
	}
	return runs
}

func collectRuns(n ast.Node, src []byte, style runStyle, runs []run) []run {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			runs = append(runs, run{text: string(node.Segment.Value(src)), style: style})
			if node.HardLineBreak() {
				runs = append(runs, run{text: "\n", style: style})
			} else if node.SoftLineBreak() {
				runs = append(runs, run{text: " ", style: style})
			}
		case *ast.String:
			runs = append(runs, run{text: string(node.Value), style: style})
		case *ast.Emphasis:
			emphasised := style
			if node.Level >= 2 {
				emphasised.bold = true
			} else {
				emphasised.italic = true
			}
			runs = collectRuns(node, src, emphasised, runs)
		case *ast.CodeSpan:
			code := style
			code.code = true
			runs = collectRuns(node, src, code, runs)
		case *ast.AutoLink:
			runs = append(runs, run{text: string(node.Label(src)), style: style})
		case *ast.RawHTML:
			continue
		default:
			runs = collectRuns(child, src, style, runs)
		}
	}
	return runs
}

func mergeRuns(runs []run) []run {
	merged := make([]run, 0, len(runs))
	for _, r := range runs {
		if r.text == "" {
			continue
		}
		if last := len(merged) - 1; last >= 0 && merged[last].style == r.style {
			merged[last].text += r.text
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
