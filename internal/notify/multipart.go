package notify

import (
	"bytes"
	"fmt"
)

// formPart is one part of a hand-built multipart/form-data body. FileName and
// ContentType are set only for file parts.
type formPart struct {
	FieldName   string
	FileName    string
	ContentType string
	Data        []byte
}

// encodeMultipart assembles a multipart/form-data body with the given
// boundary. The webhook endpoint is strict about the framing: CRLF line
// endings, a Content-Disposition header per part, and the trailing
// "--boundary--" terminator.
func encodeMultipart(boundary string, parts []formPart) []byte {
	var buf bytes.Buffer

	for _, p := range parts {
		buf.WriteString("--" + boundary + "\r\n")
		if p.FileName != "" {
			buf.WriteString(fmt.Sprintf("Content-Disposition: form-data; name=%q; filename=%q\r\n", p.FieldName, p.FileName))
		} else {
			buf.WriteString(fmt.Sprintf("Content-Disposition: form-data; name=%q\r\n", p.FieldName))
		}
		if p.ContentType != "" {
			buf.WriteString("Content-Type: " + p.ContentType + "\r\n")
		}
		buf.WriteString("\r\n")
		buf.Write(p.Data)
		buf.WriteString("\r\n")
	}
	buf.WriteString("--" + boundary + "--\r\n")

	return buf.Bytes()
}
