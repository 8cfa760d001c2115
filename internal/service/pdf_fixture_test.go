package service

import (
	"fmt"
	"strconv"
	"strings"
)

// buildTextPDF creates a valid PDF with proper xref offsets. Each element
// of pages is a slice of text lines; every line becomes its own BT/ET text
// block so the content-stream parser sees one fragment per line.
func buildTextPDF(pages [][]string) []byte {
	n := len(pages)
	fontObj := 3 + 2*n
	size := 4 + 2*n

	streams := make([]string, n)
	for i, lines := range pages {
		var sb strings.Builder
		y := 720
		for _, line := range lines {
			sb.WriteString("BT\n/F1 12 Tf\n72 ")
			sb.WriteString(strconv.Itoa(y))
			sb.WriteString(" Td\n(")
			sb.WriteString(escapePDFString(line))
			sb.WriteString(") Tj\nET\n")
			y -= 16
		}
		streams[i] = strings.TrimSuffix(sb.String(), "\n")
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, size)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, n)
	for i := 0; i < n; i++ {
		kids[i] = strconv.Itoa(3+i) + " 0 R"
	}
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [" + strings.Join(kids, " ") + "] /Count " + strconv.Itoa(n) + " >>\nendobj\n")

	for i := 0; i < n; i++ {
		offsets[3+i] = b.Len()
		b.WriteString(strconv.Itoa(3+i) + " 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents " +
			strconv.Itoa(3+n+i) + " 0 R /Resources << /Font << /F1 " + strconv.Itoa(fontObj) + " 0 R >> >> >>\nendobj\n")
	}

	for i := 0; i < n; i++ {
		offsets[3+n+i] = b.Len()
		b.WriteString(strconv.Itoa(3+n+i) + " 0 obj\n<< /Length " + strconv.Itoa(len(streams[i])) + " >>\nstream\n")
		b.WriteString(streams[i])
		b.WriteString("\nendstream\nendobj\n")
	}

	offsets[fontObj] = b.Len()
	b.WriteString(strconv.Itoa(fontObj) + " 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 " + strconv.Itoa(size) + "\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i < size; i++ {
		b.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	b.WriteString("trailer\n<< /Size " + strconv.Itoa(size) + " /Root 1 0 R >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

func escapePDFString(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, "(", `\(`)
	text = strings.ReplaceAll(text, ")", `\)`)
	return text
}

// buildImageOnlyPDF creates a valid PDF whose single page draws an image
// and shows no text at all.
func buildImageOnlyPDF() []byte {
	imgData := "\xff\xd8\xff\xe0"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")

	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length " + strconv.Itoa(len(imgData)) + " >>\nstream\n")
	b.WriteString(imgData)
	b.WriteString("\nendstream\nendobj\n")

	drawStream := "q 100 0 0 100 72 692 cm /Im1 Do Q"
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Length " + strconv.Itoa(len(drawStream)) + " >>\nstream\n")
	b.WriteString(drawStream)
	b.WriteString("\nendstream\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xrefOffset))
	b.WriteString("\n%%EOF\n")
	return []byte(b.String())
}

// caseReportPages is the canonical two-page case report used across the
// pipeline tests.
func caseReportPages() [][]string {
	return [][]string{
		{
			"ELECTRONIC INITIAL CASE REPORT",
			"eICR ID: 2024-WA-000123",
			"PATIENT INFORMATION",
			"Patient Name: Jane Doe",
			"Date of Birth: 03/12/1984",
			"Patient ID: MRN-2938-44",
			"Sex: F",
			"Address: 418 Cedar Street, Olympia, WA 98501",
			"Phone: (360) 555-0144",
			"REPORTER INFORMATION",
			"Provider Name: Dr. Alan Reyes",
			"Facility: Providence St. Peter Hospital",
			"Phone: (360) 555-0100",
			"ENCOUNTER INFORMATION",
			"Facility: Providence St. Peter Hospital",
			"Encounter Class: Inpatient",
			"Admission Date: 2024-02-27",
			"Discharge Date: 2024-03-04",
		},
		{
			"REPORTABLE CONDITIONS",
			"Condition: COVID-19",
			"Condition Code: 840539006",
			"Onset Date: 2024-02-25",
			"LABORATORY RESULTS",
			"Test Name  Result  Units  Reference Range  Date",
			"SARS-CoV-2 RNA  Positive  NA  Negative  2024-02-26",
			"White Blood Cells  11.2  10*3/uL  4.0-10.5  2024-02-27",
			"END OF RESULTS",
		},
	}
}

// buildCaseReportPDF renders the canonical case report fixture.
func buildCaseReportPDF() []byte {
	return buildTextPDF(caseReportPages())
}
