package pdfaf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"sort"
	"strings"
	"testing"
)

// pdfFixture describes a small PDF assembled object by object, with the
// cross-reference table computed from real byte offsets so every backend can
// open the result.
type pdfFixture struct {
	// pages holds one text run per page.
	pages []string
	// info populates the Info dictionary, keys as PDF names.
	info map[string]string
	// imagePixels, when set, embeds a 2x2 DeviceRGB image on the first
	// page as a Flate-compressed XObject. Must be 12 bytes.
	imagePixels []byte
}

func buildPDF(t *testing.T, fx pdfFixture) []byte {
	t.Helper()
	if len(fx.pages) == 0 {
		t.Fatal("fixture needs at least one page")
	}

	n := len(fx.pages)
	fontNum := 3 + 2*n
	next := fontNum + 1
	imageNum := 0
	if fx.imagePixels != nil {
		imageNum = next
		next++
	}
	infoNum := 0
	if len(fx.info) > 0 {
		infoNum = next
		next++
	}
	size := next

	objects := make(map[int]string)
	objects[1] = "<< /Type /Catalog /Pages 2 0 R >>"

	kids := make([]string, n)
	for i := range fx.pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objects[2] = fmt.Sprintf(
		"<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), n)

	for i, text := range fx.pages {
		pageNum := 3 + 2*i
		contentNum := pageNum + 1
		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", fontNum)
		withImage := imageNum > 0 && i == 0
		if withImage {
			resources += fmt.Sprintf(" /XObject << /Im1 %d 0 R >>", imageNum)
		}
		objects[pageNum] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /Resources << %s >> /Contents %d 0 R >>",
			resources, contentNum)

		stream := fmt.Sprintf("BT\n/F1 12 Tf\n72 720 Td\n(%s) Tj\nET", escapePDFString(text))
		if withImage {
			stream += "\nq\n100 0 0 100 72 500 cm\n/Im1 Do\nQ"
		}
		objects[contentNum] = fmt.Sprintf(
			"<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
	}

	objects[fontNum] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

	if imageNum > 0 {
		if len(fx.imagePixels) != 12 {
			t.Fatalf("image pixels must be 12 bytes for a 2x2 RGB image, got %d", len(fx.imagePixels))
		}
		var zbuf bytes.Buffer
		zw := zlib.NewWriter(&zbuf)
		if _, err := zw.Write(fx.imagePixels); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		objects[imageNum] = fmt.Sprintf(
			"<< /Type /XObject /Subtype /Image /Width 2 /Height 2 /ColorSpace /DeviceRGB "+
				"/BitsPerComponent 8 /Filter /FlateDecode /Length %d >>\nstream\n%s\nendstream",
			zbuf.Len(), zbuf.String())
	}

	if infoNum > 0 {
		keys := make([]string, 0, len(fx.info))
		for k := range fx.info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var entries strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&entries, "/%s (%s) ", k, escapePDFString(fx.info[k]))
		}
		objects[infoNum] = "<< " + entries.String() + ">>"
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, size)
	for num := 1; num < size; num++ {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, objects[num])
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < size; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	buf.WriteString("trailer\n")
	if infoNum > 0 {
		fmt.Fprintf(&buf, "<< /Size %d /Root 1 0 R /Info %d 0 R >>\n", size, infoNum)
	} else {
		fmt.Fprintf(&buf, "<< /Size %d /Root 1 0 R >>\n", size)
	}
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes()
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}

func fixtureInfo() map[string]string {
	return map[string]string{
		"Producer":     "Fixture Writer",
		"CreationDate": "D:20230115120000+05'00'",
	}
}
