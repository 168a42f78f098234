package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/iksnae/signbridge/internal"
)

var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
}

func videoContentType(name string) string {
	if ct, ok := videoContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// multipartUpload streams asset and opts as a multipart form through a pipe
// so the video is never held in memory as a whole
func multipartUpload(asset internal.MediaAsset, opts internal.PipelineOptions) (io.ReadCloser, string, error) {
	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode pipeline options: %w", err)
	}

	src, err := asset.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open asset: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer src.Close()
		err := writeParts(mw, asset.Name(), src, optionsJSON)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType(), nil
}

func writeParts(mw *multipart.Writer, name string, src io.Reader, optionsJSON []byte) error {
	if err := mw.WriteField("options", string(optionsJSON)); err != nil {
		return err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, name))
	header.Set("Content-Type", videoContentType(name))
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}
