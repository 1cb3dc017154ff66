package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellboyz13/bankstatement/internal/pipeline"
)

func TestReadUploadRawBody(t *testing.T) {
	body := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("x"), 128)...)
	r := httptest.NewRequest(http.MethodPost, "/api/statements/parse", bytes.NewReader(body))

	data, filename, err := readUpload(r)
	require.NoError(t, err)
	assert.Equal(t, body, data)
	assert.Equal(t, "statement.pdf", filename)
}

func TestReadUploadMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "january.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.7 statement bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/statements/parse", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	data, filename, err := readUpload(r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, "january.pdf", filename)
}

func TestReadUploadRejectsNonPDF(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/statements/parse",
		strings.NewReader("this is not a pdf at all"))

	_, _, err := readUpload(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PDF")
}

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		kind pipeline.ErrorKind
		want int
	}{
		{pipeline.KindValidation, http.StatusBadRequest},
		{pipeline.KindNoTransactionsFound, http.StatusUnprocessableEntity},
		{pipeline.KindJobTimeout, http.StatusGatewayTimeout},
		{pipeline.KindConfiguration, http.StatusInternalServerError},
		{pipeline.KindChunkExtraction, http.StatusBadGateway},
		{pipeline.KindMalformedResponse, http.StatusBadGateway},
	}

	for _, tt := range tests {
		status, msg := errorResponse(pipeline.NewError(tt.kind, "boom"))
		assert.Equal(t, tt.want, status, string(tt.kind))
		assert.NotEmpty(t, msg)
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	ev := pipeline.ProgressEvent{Type: pipeline.ProgressUpdate, Message: "Chunk 1/2 complete", Progress: 50}
	require.NoError(t, writeSSE(&buf, ev))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "data: "))
	assert.True(t, strings.HasSuffix(out, "\n\n"))

	var decoded pipeline.ProgressEvent
	payload := strings.TrimSuffix(strings.TrimPrefix(out, "data: "), "\n\n")
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, pipeline.ProgressUpdate, decoded.Type)
	assert.Equal(t, 50.0, decoded.Progress)
}
