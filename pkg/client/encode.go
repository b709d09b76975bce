package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
)

// encodeBody serializes the resolved body field. It returns the encoded
// bytes and the Content-Type they imply; an explicit request header
// still wins over the implied type.
func encodeBody(body Body) ([]byte, string, error) {
	switch body.Kind {
	case BodyNone:
		return nil, "", nil

	case BodyContent:
		return body.Content, "", nil

	case BodyForm:
		form := url.Values{}
		for k, v := range body.Form {
			form.Set(k, v)
		}
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil

	case BodyFiles:
		return encodeMultipart(body.Files)

	case BodyJSON:
		data, err := json.Marshal(body.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("marshal json body: %w", err)
		}
		return data, "application/json", nil

	default:
		return nil, "", fmt.Errorf("unknown body kind %s", body.Kind)
	}
}

// encodeMultipart writes the file parts into a multipart/form-data body.
// The boundary is fresh per call, so two encodings of the same parts
// differ byte-for-byte.
func encodeMultipart(files []FilePart) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.Field), escapeQuotes(f.FileName)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("multipart part %q: %w", f.Field, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("multipart part %q: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
