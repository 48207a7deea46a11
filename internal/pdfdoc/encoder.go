// Package pdfdoc writes an invoice as a minimal single-page PDF 1.4 file.
//
// The file holds five objects in a fixed order: catalog, page tree, page,
// content stream and a built-in Helvetica font, followed by a cross-reference
// table with the byte offset of every object. Text is drawn line by line from
// the top-left corner with a constant step; there is no wrapping and no
// pagination, so a long invoice runs off the bottom of the page.
//
// Encode keeps no state and may be called concurrently.
package pdfdoc

import (
	"bytes"
	"fmt"
	"preacc/entity"
	"strings"
)

const (
	Header = "%PDF-1.4\n"

	ObjectCount = 5

	fontResource = "F1"
	fontName     = "Helvetica"
	fontSize     = 12
	originX      = 50
	originY      = 780
	lineStep     = 16
	pageWidth    = 595
	pageHeight   = 842
)

// Encode renders the invoice into PDF bytes. It never fails: missing
// fields are drawn as empty text and a nil invoice yields an empty form.
func Encode(inv *entity.Invoice) []byte {
	return assemble(contentStream(Lines(inv)))
}

// contentStream builds the text drawing program for the given lines.
func contentStream(lines []string) string {
	var sb strings.Builder
	sb.WriteString("BT\n")
	fmt.Fprintf(&sb, "/%s %d Tf\n", fontResource, fontSize)
	fmt.Fprintf(&sb, "%d %d Td\n", originX, originY)
	for i, line := range lines {
		if i > 0 {
			fmt.Fprintf(&sb, "0 %d Td\n", -lineStep)
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", Escape(FoldASCII(line)))
	}
	sb.WriteString("ET")
	return sb.String()
}

func objects(content string) [ObjectCount]string {
	return [ObjectCount]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /%s 5 0 R >> >> /Contents 4 0 R >>",
			pageWidth, pageHeight, fontResource),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s >>", fontName),
	}
}

// assemble writes the header, the objects and the cross-reference section,
// recording where each object starts in the output.
func assemble(content string) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header)

	var offsets [ObjectCount]int
	for i, body := range objects(content) {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", ObjectCount+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\n", ObjectCount+1)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)

	return buf.Bytes()
}
