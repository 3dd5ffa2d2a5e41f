package groups

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/ggbackup/internal/connectors/google"
	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
)

// errNoResponse marks a sub-request the batch response did not answer.
var errNoResponse = errors.New("no response in batch")

// GetSettingsBatch looks up the settings of every key in one batch request.
func (d *Directory) GetSettingsBatch(ctx context.Context, keys []string) ([]driven.SettingsResult, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if len(keys) > driven.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d keys exceeds the batch limit of %d",
			domain.ErrInvalidInput, len(keys), driven.MaxBatchSize)
	}
	if err := d.settingsLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, contentType, err := encodeBatch(d.settingsPath, keys)
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.batchURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, google.WrapError(err)
	}
	return decodeBatch(resp, keys)
}

func contentID(i int) string {
	return "<item-" + strconv.Itoa(i+1) + ">"
}

// partIndex maps a response Content-ID such as "<response-item-3>" back to
// the index of its sub-request.
func partIndex(id string, n int) (int, bool) {
	id = strings.TrimSuffix(strings.TrimPrefix(id, "<"), ">")
	id = strings.TrimPrefix(id, "response-")
	num, ok := strings.CutPrefix(id, "item-")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(num)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func encodeBatch(settingsPath string, keys []string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for i, key := range keys {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", "application/http")
		h.Set("Content-Transfer-Encoding", "binary")
		h.Set("Content-ID", contentID(i))

		pw, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := fmt.Fprintf(pw, "GET %s%s?alt=json HTTP/1.1\r\n\r\n", settingsPath, url.PathEscape(key)); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	contentType := mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mw.Boundary()})
	return &buf, contentType, nil
}

// decodeBatch splits a multipart batch response into one result per key.
// Parts are matched by Content-ID, falling back to their position.
func decodeBatch(resp *http.Response, keys []string) ([]driven.SettingsResult, error) {
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("parsing batch content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("unexpected batch content type %q", mediaType)
	}

	results := make([]driven.SettingsResult, len(keys))
	answered := make([]bool, len(keys))
	for i, key := range keys {
		results[i].Key = key
	}

	mr := multipart.NewReader(resp.Body, params["boundary"])
	for n := 0; ; n++ {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading batch response: %w", err)
		}

		i, ok := partIndex(part.Header.Get("Content-ID"), len(keys))
		if !ok {
			i = n
		}
		if i >= len(keys) || answered[i] {
			continue
		}
		answered[i] = true
		results[i].Fields, results[i].Err = decodePart(part)
	}

	for i := range results {
		if !answered[i] {
			results[i].Err = fmt.Errorf("%w: %s", errNoResponse, keys[i])
		}
	}
	return results, nil
}

// decodePart reads one embedded HTTP response.
func decodePart(part io.Reader) (map[string]any, error) {
	resp, err := http.ReadResponse(bufio.NewReader(part), nil)
	if err != nil {
		return nil, fmt.Errorf("reading batch part: %w", err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, google.WrapError(err)
	}
	return decodeFields(resp.Body)
}

func decodeFields(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}
