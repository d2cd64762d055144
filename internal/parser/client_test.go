package parser

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{
  "fileName": "book.epub",
  "metadata": {"title": " The Book ", "authors": ["Ann", " ", "Bob"], "language": "en", "seriesIndex": "2",
               "identifiers": [{"scheme": "ISBN", "value": "123"}]},
  "sections": [
    {"title": "Two", "orderIndex": 1, "depth": 1, "parentOrderIndex": 0, "href": "ch1.xhtml", "anchor": "a"},
    {"title": "One", "orderIndex": 0, "depth": 0, "href": "ch1.xhtml"}
  ],
  "chunks": [
    {"sectionOrderIndex": 0, "chunkIndex": 0, "startOffset": 0, "endOffset": 5, "wordCount": 1, "content": "Hello"},
    {"sectionOrderIndex": 1, "chunkIndex": 0, "startOffset": 0, "endOffset": 5, "wordCount": 1, "content": "World"}
  ],
  "sectionBlocks": [
    {"sectionOrderIndex": 0, "blocks": [{"kind": "paragraph", "inlines": [{"kind": "text", "text": "Hello"}]}]}
  ],
  "warnings": [{"code": "missing_toc", "message": "no toc"}],
  "cover": {"contentType": "image/png", "data": "` + "aGVsbG8=" + `"},
  "images": [
    {"href": "img/a.png", "contentType": "image/png", "data": "aGVsbG8="},
    {"href": "img/b.png", "contentType": "image/png", "data": "!!!not-base64"}
  ]
}`

func newParserServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second)
}

func respondWith(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestClient_Parse_Success(t *testing.T) {
	var gotName, gotContent string
	client := newParserServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName, gotContent = header.Filename, string(data)
		respondWith(http.StatusOK, validResponse)(w, r)
	})

	result, err := client.Parse(context.Background(), "book.epub", strings.NewReader("epub-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "book.epub", gotName)
	assert.Equal(t, "epub-bytes", gotContent)

	assert.Equal(t, "The Book", result.Metadata.Title)
	assert.Equal(t, []string{"Ann", "Bob"}, result.Metadata.Authors)
	assert.Equal(t, "2", result.Metadata.SeriesIndex)
	require.Len(t, result.Metadata.Identifiers, 1)
	assert.Equal(t, "123", result.Metadata.Identifiers[0].Value)

	require.Len(t, result.Sections, 2)
	assert.Equal(t, "One", result.Sections[0].Title, "sections are ordered by orderIndex")
	assert.Equal(t, 0, *result.Sections[1].ParentOrderIndex)
	assert.Len(t, result.Chunks, 2)

	require.Len(t, result.Blocks[0], 1)
	assert.Equal(t, "paragraph", result.Blocks[0][0].Kind)

	require.NotNil(t, result.Cover)
	assert.Equal(t, []byte("hello"), result.Cover.Data)

	require.Len(t, result.Images, 1, "undecodable images are dropped")
	assert.Equal(t, "img/a.png", result.Images[0].Href)
	assert.Len(t, result.Warnings, 1)
}

func TestClient_Parse_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "message from body", status: http.StatusUnprocessableEntity, body: `{"error":"Not an EPUB"}`, wantMsg: "Not an EPUB"},
		{name: "empty body", status: http.StatusInternalServerError, body: ``, wantMsg: "Parser error"},
		{name: "non-json body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantMsg: "Parser error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newParserServer(t, respondWith(tt.status, tt.body))

			_, err := client.Parse(context.Background(), "book.epub", strings.NewReader("x"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParser))

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, KindRejected, perr.Kind)
			assert.Equal(t, tt.status, perr.StatusCode)
			assert.Equal(t, tt.wantMsg, perr.Message)
		})
	}
}

func TestClient_Parse_InvalidResponses(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{name: "not json", body: `nope`, contains: "invalid response"},
		{name: "null sections", body: `{"sections": null, "chunks": []}`, contains: "sections is required"},
		{name: "missing chunks", body: `{"sections": []}`, contains: "chunks is required"},
		{name: "section without orderIndex", body: `{"sections": [{"title": "A", "depth": 0}], "chunks": []}`, contains: "sections[0].orderIndex is required"},
		{name: "chunk without content", body: `{"sections": [{"title": "A", "orderIndex": 0, "depth": 0}],
			"chunks": [{"sectionOrderIndex": 0, "chunkIndex": 0, "startOffset": 0, "endOffset": 1, "wordCount": 1}]}`, contains: "chunks[0].content is required"},
		{name: "negative offset", body: `{"sections": [{"title": "A", "orderIndex": 0, "depth": 0}],
			"chunks": [{"sectionOrderIndex": 0, "chunkIndex": 0, "startOffset": -1, "endOffset": 1, "wordCount": 1, "content": "a"}]}`, contains: "must be at least 0"},
		{name: "gap in section order", body: `{"sections": [{"title": "A", "orderIndex": 0, "depth": 0}, {"title": "B", "orderIndex": 2, "depth": 0}], "chunks": []}`, contains: "out of range"},
		{name: "duplicate section order", body: `{"sections": [{"title": "A", "orderIndex": 0, "depth": 0}, {"title": "B", "orderIndex": 0, "depth": 0}], "chunks": []}`, contains: "duplicated"},
		{name: "duplicate chunk index", body: `{"sections": [{"title": "A", "orderIndex": 0, "depth": 0}],
			"chunks": [{"sectionOrderIndex": 0, "chunkIndex": 0, "startOffset": 0, "endOffset": 1, "wordCount": 1, "content": "a"},
			           {"sectionOrderIndex": 0, "chunkIndex": 0, "startOffset": 1, "endOffset": 2, "wordCount": 1, "content": "b"}]}`, contains: "duplicated in section 0"},
		{name: "end before start", body: `{"sections": [{"title": "A", "orderIndex": 0, "depth": 0}],
			"chunks": [{"sectionOrderIndex": 0, "chunkIndex": 0, "startOffset": 5, "endOffset": 1, "wordCount": 1, "content": "a"}]}`, contains: "ends before it starts"},
		{name: "block without kind", body: `{"sections": [{"title": "A", "orderIndex": 0, "depth": 0}], "chunks": [],
			"sectionBlocks": [{"sectionOrderIndex": 0, "blocks": [{"level": 1}]}]}`, contains: "kind is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newParserServer(t, respondWith(http.StatusOK, tt.body))

			_, err := client.Parse(context.Background(), "book.epub", strings.NewReader("x"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParser))

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, KindInvalidResponse, perr.Kind)
			assert.Contains(t, perr.Message, tt.contains)
		})
	}
}

func TestClient_Parse_ChunksOfUnknownSectionsPassThrough(t *testing.T) {
	body := `{"sections": [{"title": "A", "orderIndex": 0, "depth": 0}],
		"chunks": [{"sectionOrderIndex": 7, "chunkIndex": 0, "startOffset": 0, "endOffset": 1, "wordCount": 1, "content": "a"},
		           {"sectionOrderIndex": 7, "chunkIndex": 0, "startOffset": 0, "endOffset": 1, "wordCount": 1, "content": "b"}]}`
	client := newParserServer(t, respondWith(http.StatusOK, body))

	result, err := client.Parse(context.Background(), "book.epub", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 2)
}

func TestClient_Parse_EmptyBookIsValid(t *testing.T) {
	client := newParserServer(t, respondWith(http.StatusOK, `{"sections": [], "chunks": []}`))

	result, err := client.Parse(context.Background(), "book.epub", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Empty(t, result.Sections)
	assert.Nil(t, result.Cover)
}

func TestClient_Parse_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 50*time.Millisecond)
	_, err := client.Parse(context.Background(), "book.epub", strings.NewReader("x"))
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindUnavailable, perr.Kind)
	assert.Contains(t, perr.Message, "timed out")
}

func TestClient_Parse_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second)
	_, err := client.Parse(context.Background(), "book.epub", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParser))

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindUnavailable, perr.Kind)
}

func TestClient_Parse_UndecodableCoverIsDropped(t *testing.T) {
	body := `{"sections": [], "chunks": [], "cover": {"contentType": "image/jpeg", "data": "%%%"}}`
	client := newParserServer(t, respondWith(http.StatusOK, body))

	result, err := client.Parse(context.Background(), "book.epub", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Nil(t, result.Cover)
}
