package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
)

const (
	emptyDocumentMessageConstant     = "manifest document has no root element"
	attributeValuePatternConstant    = `(\s%s\s*=\s*)("[^"]*"|'[^']*')`
	selfClosingTagSuffixConstant     = "/>"
	attributeQuoteConstant           = `"`
	attributeInsertionPrefixConstant = " "
	attributeAssignmentConstant      = "="
	tagWhitespaceCharactersConstant  = " \t\r\n"
)

var errEmptyDocument = errors.New(emptyDocumentMessageConstant)

// element is a parsed start tag. tagStart and tagEnd delimit the tag bytes in the owning document.
type element struct {
	name       string
	attributes []xml.Attr
	children   []*element
	tagStart   int
	tagEnd     int
}

// document keeps the raw manifest bytes. Attribute edits splice the start tag in place,
// so comments, layout, and self-closing tags survive a save.
type document struct {
	path     string
	contents []byte
	root     *element
	elements []*element
	dirty    bool
}

func parseDocument(path string, contents []byte) (*document, error) {
	parsed := &document{path: path, contents: append([]byte(nil), contents...)}
	decoder := xml.NewDecoder(bytes.NewReader(parsed.contents))

	var open []*element
	for {
		tagStart := int(decoder.InputOffset())
		token, tokenError := decoder.Token()
		if errors.Is(tokenError, io.EOF) {
			break
		}
		if tokenError != nil {
			return nil, tokenError
		}

		switch typed := token.(type) {
		case xml.StartElement:
			current := &element{
				name:       typed.Name.Local,
				attributes: typed.Copy().Attr,
				tagStart:   tagStart,
				tagEnd:     int(decoder.InputOffset()),
			}
			parsed.elements = append(parsed.elements, current)
			if len(open) == 0 {
				if parsed.root == nil {
					parsed.root = current
				}
			} else {
				parent := open[len(open)-1]
				parent.children = append(parent.children, current)
			}
			open = append(open, current)
		case xml.EndElement:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}

	if parsed.root == nil {
		return nil, errEmptyDocument
	}
	return parsed, nil
}

func (target *element) attribute(name string) string {
	for _, attribute := range target.attributes {
		if attribute.Name.Local == name {
			return attribute.Value
		}
	}
	return ""
}

// setAttribute rewrites one attribute of the target's start tag and reports whether the value changed.
func (document *document) setAttribute(target *element, name string, value string) bool {
	if target.attribute(name) == value {
		return false
	}

	originalTag := document.contents[target.tagStart:target.tagEnd]
	rewrittenTag := rewriteTagAttribute(originalTag, name, value)

	var spliced bytes.Buffer
	spliced.Grow(len(document.contents) + len(rewrittenTag) - len(originalTag))
	spliced.Write(document.contents[:target.tagStart])
	spliced.Write(rewrittenTag)
	spliced.Write(document.contents[target.tagEnd:])

	delta := len(rewrittenTag) - len(originalTag)
	for _, candidate := range document.elements {
		if candidate.tagStart >= target.tagEnd {
			candidate.tagStart += delta
			candidate.tagEnd += delta
		}
	}
	target.tagEnd += delta
	document.contents = spliced.Bytes()

	replaced := false
	for index := range target.attributes {
		if target.attributes[index].Name.Local == name {
			target.attributes[index].Value = value
			replaced = true
		}
	}
	if !replaced {
		target.attributes = append(target.attributes, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	}

	document.dirty = true
	return true
}

// rewriteTagAttribute replaces the quoted value of name inside a start tag, or appends the attribute before the tag closes.
func rewriteTagAttribute(tag []byte, name string, value string) []byte {
	quotedValue := quoteAttributeValue(value)
	valuePattern := regexp.MustCompile(fmt.Sprintf(attributeValuePatternConstant, regexp.QuoteMeta(name)))

	if location := valuePattern.FindSubmatchIndex(tag); location != nil {
		rewritten := make([]byte, 0, len(tag)+len(quotedValue))
		rewritten = append(rewritten, tag[:location[4]]...)
		rewritten = append(rewritten, quotedValue...)
		return append(rewritten, tag[location[5]:]...)
	}

	closingIndex := len(tag) - 1
	if bytes.HasSuffix(tag, []byte(selfClosingTagSuffixConstant)) {
		closingIndex = len(tag) - len(selfClosingTagSuffixConstant)
	}
	head := bytes.TrimRight(tag[:closingIndex], tagWhitespaceCharactersConstant)

	rewritten := make([]byte, 0, len(tag)+len(name)+len(quotedValue)+2)
	rewritten = append(rewritten, head...)
	rewritten = append(rewritten, attributeInsertionPrefixConstant...)
	rewritten = append(rewritten, name...)
	rewritten = append(rewritten, attributeAssignmentConstant...)
	rewritten = append(rewritten, quotedValue...)
	return append(rewritten, tag[len(head):]...)
}

func quoteAttributeValue(value string) []byte {
	var buffer bytes.Buffer
	buffer.WriteString(attributeQuoteConstant)
	_ = xml.EscapeText(&buffer, []byte(value))
	buffer.WriteString(attributeQuoteConstant)
	return buffer.Bytes()
}
